package cliconfig

import "time"

// CLIConfig represents the complete configuration for the apireg CLI.
type CLIConfig struct {
	// Registry settings
	APIURL    string `yaml:"apiUrl" json:"apiUrl"`
	ViewerURL string `yaml:"viewerUrl" json:"viewerUrl"`
	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout" json:"timeout"`

	// Endpoint lists are fetched for every record on load instead of on expand.
	PrefetchEndpoints bool `yaml:"prefetchEndpoints" json:"prefetchEndpoints"`

	// Logging settings
	LogLevel  string `yaml:"logLevel" json:"logLevel"`
	LogFormat string `yaml:"logFormat" json:"logFormat"`
	// LogFile receives a JSON copy of the diagnostic log when set.
	LogFile string `yaml:"logFile,omitempty" json:"logFile,omitempty"`

	// Output is the result format: table, json or yaml.
	Output string `yaml:"output" json:"output"`

	// ConfigFile is the explicit config file, if any.
	ConfigFile string `yaml:"-" json:"configFile,omitempty"`

	// Sources tracks where each value came from (for debugging)
	Sources map[string]string `yaml:"-" json:"-"`

	// SetFields records the keys explicitly present in a loaded file, so that
	// an explicit false or zero can be told apart from an absent key.
	SetFields map[string]bool `yaml:"-" json:"-"`
}

// RequestTimeout returns Timeout as a duration.
func (c *CLIConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// ConfigSource identifies where a config value originated.
const (
	SourceDefault = "default"
	SourceEnv     = "env"
	SourceGlobal  = "global"
	SourceLocal   = "local"
	SourceFile    = "file"
	SourceFlag    = "flag"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Keys lists the configuration keys in display order.
var Keys = []string{
	"apiUrl",
	"viewerUrl",
	"timeout",
	"prefetchEndpoints",
	"logLevel",
	"logFormat",
	"logFile",
	"output",
}
