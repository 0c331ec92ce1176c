package main

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	envFile  string
)

var rootCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Daily check-in runner for multiple accounts",
	Long: "Checkin drives a browser through login and the daily check-in action for every configured account, " +
		"reads each balance, and sends one summary notification via Shoutrrr.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is normal; anything else is not.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default $CHECKIN_CONFIG or ~/.config/checkin/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", slog.LevelInfo.String(), "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	registerOptionFlags(rootCmd)
}
