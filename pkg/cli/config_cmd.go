package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/apireg/pkg/cli/internal/output"
	"github.com/getmockd/apireg/pkg/cliconfig"
)

// ConfigEntry is one row of the config command.
type ConfigEntry struct {
	Key    string `json:"key" yaml:"key"`
	Value  any    `json:"value" yaml:"value"`
	Source string `json:"source" yaml:"source"`
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show effective configuration",
		Long: `Show the effective configuration and where each value came from
(default, global, local, file, env or flag).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			entries := make([]ConfigEntry, 0, len(cliconfig.Keys))
			for _, key := range cliconfig.Keys {
				entries = append(entries, ConfigEntry{Key: key, Value: cfg.Value(key), Source: cfg.Source(key)})
			}

			if done, err := writeStructured(a.stdout, cfg.Output, entries); done {
				return err
			}

			tw := output.Table(a.stdout)
			fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
			for _, e := range entries {
				value := fmt.Sprint(e.Value)
				if value == "" {
					value = "(unset)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Key, value, e.Source)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if cfg.ConfigFile != "" {
				fmt.Fprintf(a.stdout, "\nConfig file: %s\n", cfg.ConfigFile)
			}

			if err := cfg.Validate(); err != nil {
				fmt.Fprintln(a.stderr)
				output.Warn(a.stderr, "configuration is incomplete:\n%s", err)
			}
			return nil
		},
	}
}
