package cliconfig

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names
const (
	EnvAPIURL            = "APIREG_API_URL"
	EnvViewerURL         = "APIREG_VIEWER_URL"
	EnvTimeout           = "APIREG_TIMEOUT"
	EnvLogLevel          = "APIREG_LOG_LEVEL"
	EnvLogFormat         = "APIREG_LOG_FORMAT"
	EnvLogFile           = "APIREG_LOG_FILE"
	EnvPrefetchEndpoints = "APIREG_PREFETCH_ENDPOINTS"
	EnvOutput            = "APIREG_OUTPUT"
	EnvConfig            = "APIREG_CONFIG"
)

// LoadEnvConfig loads configuration from environment variables.
// It only sets values that are present in the environment. A malformed
// number or boolean is reported as a *ConfigError.
func LoadEnvConfig(cfg *CLIConfig) error {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}

	setString := func(env, key string, dst *string) {
		if v := os.Getenv(env); v != "" {
			*dst = v
			cfg.Sources[key] = SourceEnv
		}
	}
	setString(EnvAPIURL, "apiUrl", &cfg.APIURL)
	setString(EnvViewerURL, "viewerUrl", &cfg.ViewerURL)
	setString(EnvLogLevel, "logLevel", &cfg.LogLevel)
	setString(EnvLogFormat, "logFormat", &cfg.LogFormat)
	setString(EnvLogFile, "logFile", &cfg.LogFile)
	setString(EnvOutput, "output", &cfg.Output)

	// APIREG_TIMEOUT
	if v := os.Getenv(EnvTimeout); v != "" {
		timeout, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &ConfigError{Path: EnvTimeout, Message: "timeout must be a whole number of seconds, got " + strconv.Quote(v)}
		}
		cfg.Timeout = timeout
		cfg.Sources["timeout"] = SourceEnv
	}

	// APIREG_PREFETCH_ENDPOINTS
	if v := os.Getenv(EnvPrefetchEndpoints); v != "" {
		on, err := parseBool(v)
		if err != nil {
			return &ConfigError{Path: EnvPrefetchEndpoints, Message: err.Error()}
		}
		cfg.PrefetchEndpoints = on
		cfg.Sources["prefetchEndpoints"] = SourceEnv
	}

	return nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, &ConfigError{Message: "expected a boolean, got " + strconv.Quote(v)}
}
