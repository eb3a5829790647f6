// Package config loads and persists goConsole.Config for command-line use.
//
// Values are layered, lowest precedence first: built-in defaults, the YAML
// file, GOCONSOLE_* environment variables, then bound command-line flags.
package config
