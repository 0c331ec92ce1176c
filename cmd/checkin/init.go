package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sznuper/checkin/internal/config"
)

//go:embed config.example.yaml
var exampleConfig []byte

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write an example checkin configuration",
	Long:  "Writes a commented example config to path (default ~/.config/checkin/config.yaml). Existing files are left alone unless --force is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		path := ""
		if len(args) == 1 {
			path = args[0]
		} else if paths := config.DefaultConfigPaths(); len(paths) > 0 {
			path = paths[0]
		}

		if !force {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		// The file ends up holding secrets once filled in.
		if err := os.WriteFile(path, exampleConfig, 0o600); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", okStyle.Render("✓"), path)
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing file")
	rootCmd.AddCommand(initCmd)
}
