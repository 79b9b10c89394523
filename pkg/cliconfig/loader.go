package cliconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// GlobalConfigDir is the directory for global config
	GlobalConfigDir = "apireg"
)

// LocalConfigFileNames are the names to search for local config (in order).
var LocalConfigFileNames = []string{".apiregrc.yaml", ".apiregrc.yml"}

// GlobalConfigFileNames are the names to search for global config (in order).
var GlobalConfigFileNames = []string{"config.yaml", "config.yml"}

// FindLocalConfig searches for .apiregrc.yaml or .apiregrc.yml in the current directory.
func FindLocalConfig() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return findFirst(cwd, LocalConfigFileNames), nil
}

// FindGlobalConfig returns the path to the global config file.
// Returns empty string if not found.
func FindGlobalConfig() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		//nolint:nilerr // no config dir means no global config
		return "", nil
	}
	return findFirst(filepath.Join(configDir, GlobalConfigDir), GlobalConfigFileNames), nil
}

func findFirst(dir string, names []string) string {
	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadConfigFile loads a CLIConfig from a YAML file. SetFields is populated
// with the top-level keys present in the file.
func LoadConfigFile(path string) (*CLIConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Message: err.Error()}
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, yamlError(path, err)
	}

	var keys map[string]any
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, yamlError(path, err)
	}

	cfg.Sources = make(map[string]string)
	cfg.SetFields = make(map[string]bool, len(keys))
	for k := range keys {
		cfg.SetFields[k] = true
	}
	return &cfg, nil
}

// ConfigError represents a configuration error with location info. Path is
// the file or environment variable the bad value came from.
type ConfigError struct {
	Path    string
	Line    int
	Message string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Path == "":
		return e.Message
	case e.Line > 0:
		return e.Path + " (line " + strconv.Itoa(e.Line) + "): " + e.Message
	default:
		return e.Path + ": " + e.Message
	}
}

var yamlLine = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

// yamlError converts a yaml.v3 error into a ConfigError, lifting the line
// number out of the message when present.
func yamlError(path string, err error) *ConfigError {
	ce := &ConfigError{Path: path, Message: err.Error()}
	var te *yaml.TypeError
	if errors.As(err, &te) && len(te.Errors) > 0 {
		ce.Message = te.Errors[0]
	}
	if m := yamlLine.FindStringSubmatch(ce.Message); m != nil {
		ce.Line, _ = strconv.Atoi(m[1])
		ce.Message = m[2]
	}
	return ce
}

// LoadAll loads configuration from all file and environment sources and
// merges them over the defaults. explicitPath, or APIREG_CONFIG when empty,
// names a config file that is loaded in place of the local one and must
// exist. Flags are applied by the caller with MergeConfig and SourceFlag.
// Precedence: flags > env > explicit or local config > global config > defaults
func LoadAll(explicitPath string) (*CLIConfig, error) {
	cfg := NewDefault()

	globalPath, err := FindGlobalConfig()
	if err != nil {
		return nil, err
	}
	if globalPath != "" {
		globalCfg, err := LoadConfigFile(globalPath)
		if err != nil {
			return nil, err
		}
		MergeConfig(cfg, globalCfg, SourceGlobal)
	}

	if explicitPath == "" {
		explicitPath = os.Getenv(EnvConfig)
	}
	if explicitPath != "" {
		fileCfg, err := LoadConfigFile(explicitPath)
		if err != nil {
			return nil, err
		}
		MergeConfig(cfg, fileCfg, SourceFile)
		cfg.ConfigFile = explicitPath
	} else {
		localPath, err := FindLocalConfig()
		if err != nil {
			return nil, fmt.Errorf("finding local config: %w", err)
		}
		if localPath != "" {
			localCfg, err := LoadConfigFile(localPath)
			if err != nil {
				return nil, err
			}
			MergeConfig(cfg, localCfg, SourceLocal)
		}
	}

	if err := LoadEnvConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
