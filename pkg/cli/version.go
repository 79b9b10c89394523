package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// VersionOutput represents JSON output format
type VersionOutput struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
	Go      string `json:"go" yaml:"go"`
	OS      string `json:"os" yaml:"os"`
	Arch    string `json:"arch" yaml:"arch"`
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show apireg version information",
		Long: `Show apireg version information. The output format follows --output,
--json, APIREG_OUTPUT or the output key of a config file; the registry
URLs are not required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			out := buildVersion()
			if done, err := writeStructured(a.stdout, cfg.Output, out); done {
				return err
			}

			v := out.Version
			if len(v) > 0 && v[0] != 'v' && v != "dev" && v != "(devel)" {
				v = "v" + v
			}
			fmt.Fprintf(a.stdout, "apireg %s (%s, %s)\n", v, out.Commit, out.Date)
			fmt.Fprintf(a.stdout, "%s %s/%s\n", out.Go, out.OS, out.Arch)
			return nil
		},
	}
}

func buildVersion() VersionOutput {
	version := Version
	commit := Commit
	date := BuildDate

	if info, ok := debug.ReadBuildInfo(); ok {
		if version == "dev" && info.Main.Version != "" {
			version = info.Main.Version
		}
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if commit == "none" {
					commit = setting.Value
				}
			case "vcs.time":
				if date == "unknown" {
					date = setting.Value
				}
			case "vcs.modified":
				if setting.Value == "true" {
					commit += "-dirty"
				}
			}
		}
	}

	return VersionOutput{
		Version: version,
		Commit:  commit,
		Date:    date,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
}
