package main

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sznuper/checkin/internal/config"
	"github.com/sznuper/checkin/internal/notify"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the checkin configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		creds, err := cfg.Credentials()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s config is valid (mode %s)\n", okStyle.Render("✓"), cfg.Mode)
		fmt.Fprintf(w, "  %s %d\n", labelStyle.Render("Accounts:"), len(creds))
		for _, c := range creds {
			fmt.Fprintf(w, "    %s\n", notify.Mask(c.Identifier))
		}

		services := make([]string, 0, len(cfg.Notify.Services))
		for name := range cfg.Notify.Services {
			services = append(services, name)
		}
		slices.Sort(services)
		if len(services) == 0 {
			services = []string{"(none)"}
		}
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Notify:"), strings.Join(services, ", "))

		if cfg.Schedule != "" {
			if next, err := config.NextRun(cfg.Schedule, time.Now()); err == nil {
				fmt.Fprintf(w, "  %s %s (next %s)\n", labelStyle.Render("Schedule:"), cfg.Schedule,
					next.Format("2006-01-02 15:04 MST"))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
