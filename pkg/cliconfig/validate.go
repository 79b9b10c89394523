package cliconfig

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// MaxTimeout is the largest accepted request timeout in seconds.
const MaxTimeout = 3600

// Validate checks that the configuration can be used to reach the registry.
// Both base URLs are required. Every problem is reported; each is a
// *ConfigError naming the source of the offending value.
func (c *CLIConfig) Validate() error {
	var errs []error
	add := func(key, format string, args ...any) {
		errs = append(errs, &ConfigError{Path: c.describeSource(key), Message: fmt.Sprintf(format, args...)})
	}

	for _, f := range []struct{ key, flag, env, value string }{
		{"apiUrl", "--api-url", EnvAPIURL, c.APIURL},
		{"viewerUrl", "--viewer-url", EnvViewerURL, c.ViewerURL},
	} {
		if f.value == "" {
			errs = append(errs, &ConfigError{Message: fmt.Sprintf("%s is required (set %s, %s or %s in .apiregrc.yaml)", f.key, f.flag, f.env, f.key)})
			continue
		}
		if err := checkBaseURL(f.value); err != nil {
			add(f.key, "%s %q %v", f.key, f.value, err)
		}
	}

	if c.Timeout <= 0 || c.Timeout > MaxTimeout {
		add("timeout", "timeout %d is out of range (1-%d)", c.Timeout, MaxTimeout)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("logLevel", "logLevel %q must be one of debug, info, warn, error", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		add("logFormat", "logFormat %q must be text or json", c.LogFormat)
	}
	switch c.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		add("output", "output %q must be one of table, json, yaml", c.Output)
	}

	return errors.Join(errs...)
}

func checkBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must be an absolute http or https URL")
	}
	if u.Host == "" {
		return errors.New("has no host")
	}
	return nil
}

func (c *CLIConfig) describeSource(key string) string {
	switch c.Sources[key] {
	case SourceEnv:
		return "env"
	case SourceFlag:
		return "flag"
	case SourceFile:
		return c.ConfigFile
	case SourceLocal, SourceGlobal:
		return c.Sources[key] + " config"
	}
	return ""
}

// Value returns the value of a configuration key, as listed in Keys.
func (c *CLIConfig) Value(key string) any {
	switch key {
	case "apiUrl":
		return c.APIURL
	case "viewerUrl":
		return c.ViewerURL
	case "timeout":
		return c.Timeout
	case "prefetchEndpoints":
		return c.PrefetchEndpoints
	case "logLevel":
		return c.LogLevel
	case "logFormat":
		return c.LogFormat
	case "logFile":
		return c.LogFile
	case "output":
		return c.Output
	}
	return nil
}

// Source returns where key's value came from, or SourceDefault if unset.
func (c *CLIConfig) Source(key string) string {
	if s, ok := c.Sources[key]; ok {
		return s
	}
	return SourceDefault
}
