package main

import (
	"reflect"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sznuper/checkin/internal/config"
)

// overridable lists the top-level string settings exposed as flags.
var overridable = []string{"Mode", "Accounts"}

// registerOptionFlags adds a persistent --flag for each overridable field,
// deriving the flag name from the yaml struct tag (snake_case → kebab-case).
func registerOptionFlags(cmd *cobra.Command) {
	t := reflect.TypeOf(config.Config{})
	for _, name := range overridable {
		f, _ := t.FieldByName(name)
		yamlTag := f.Tag.Get("yaml")
		cmd.PersistentFlags().String(flagName(yamlTag), "", "override "+yamlTag)
	}
}

// applyOptionFlags overlays CLI flag values onto the config. Only flags
// explicitly set by the user are applied.
func applyOptionFlags(cmd *cobra.Command, cfg *config.Config) {
	v := reflect.ValueOf(cfg).Elem()
	for _, name := range overridable {
		f, _ := v.Type().FieldByName(name)
		fn := flagName(f.Tag.Get("yaml"))
		if cmd.Flags().Changed(fn) {
			val, _ := cmd.Flags().GetString(fn)
			v.FieldByName(name).SetString(val)
		}
	}
}

func flagName(yamlTag string) string {
	return strings.ReplaceAll(yamlTag, "_", "-")
}

// loadConfig resolves and validates the config with flag overrides applied.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Resolve(cfgFile, func(cfg *config.Config) {
		applyOptionFlags(cmd, cfg)
	})
}
