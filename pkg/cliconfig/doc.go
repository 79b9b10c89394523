// Package cliconfig provides configuration types and loading for the apireg CLI.
//
// It implements a layered configuration system with the following precedence
// (highest to lowest):
//
//  1. Command-line flags
//  2. Environment variables (APIREG_* prefix)
//  3. Explicit config file (--config or APIREG_CONFIG), otherwise the local
//     config file (.apiregrc.yaml in the current directory)
//  4. Global config file ($XDG_CONFIG_HOME/apireg/config.yaml)
//  5. Default values
//
// The source of every value is tracked so that `apireg config` can show where
// each setting came from.
package cliconfig
