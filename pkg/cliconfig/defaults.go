package cliconfig

// DefaultTimeout is the default per-request timeout in seconds.
const DefaultTimeout = 30

// DefaultLogLevel is the default diagnostic log level.
const DefaultLogLevel = "warn"

// DefaultLogFormat is the default diagnostic log format.
const DefaultLogFormat = "text"

// DefaultOutput is the default result format.
const DefaultOutput = OutputTable

// NewDefault creates a new CLIConfig with default values. The registry and
// viewer URLs have no default and must be configured.
func NewDefault() *CLIConfig {
	cfg := &CLIConfig{
		Timeout:   DefaultTimeout,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Output:    DefaultOutput,
		Sources:   make(map[string]string),
	}

	cfg.Sources["timeout"] = SourceDefault
	cfg.Sources["prefetchEndpoints"] = SourceDefault
	cfg.Sources["logLevel"] = SourceDefault
	cfg.Sources["logFormat"] = SourceDefault
	cfg.Sources["output"] = SourceDefault

	return cfg
}
