package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes every environment override, e.g.
	// GOCONSOLE_API_BASE_URL.
	EnvPrefix = "goconsole"

	fileName    = "goconsole"
	dirName     = "goconsole"
	sessionFile = "session.yaml"
)

// FlagKeys maps command-line flag names to configuration keys. Flags that
// are not defined on the command are skipped.
var FlagKeys = map[string]string{
	"base-url":   "api.base_url",
	"timeout":    "api.timeout",
	"store":      "store.backend",
	"redis":      "store.redis_addr",
	"log-level":  "logging.level",
	"log-format": "logging.format",
}

// Dir returns the per-user configuration directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(base, dirName), nil
}

// Path returns the default configuration file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName+".yaml"), nil
}

// SessionPath returns the default location of the file token backend.
func SessionPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, sessionFile), nil
}

// Load resolves the configuration on top of goConsole.DefaultConfig. An
// explicit path must exist; otherwise a missing file is not an error. cmd may
// be nil.
func Load(cmd *cobra.Command, path string) (goConsole.Config, error) {
	return LoadWithDefaults(cmd, path, goConsole.DefaultConfig())
}

// LoadWithDefaults is Load with caller-supplied defaults. Precedence, lowest
// first: base, config file, environment, changed flags.
func LoadWithDefaults(cmd *cobra.Command, path string, base goConsole.Config) (goConsole.Config, error) {
	var c goConsole.Config
	v := viper.New()

	// 1. defaults
	defaults, err := flatten(base)
	if err != nil {
		return c, err
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// 2. file
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(fileName)
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	// 3. environment
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. flags
	if cmd != nil {
		if err := bindFlags(v, cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	names := make([]string, 0, len(FlagKeys))
	for name := range FlagKeys {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(FlagKeys[name], f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Write persists cfg as YAML with mode 0600 and returns the path written.
// An empty path writes to Path().
func Write(cfg goConsole.Config, path string) (string, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return "", err
		}
		path = p
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("could not create config directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// flatten renders cfg as dotted viper keys using its yaml field names.
func flatten(cfg goConsole.Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	out := make(map[string]any)
	walk("", tree, out)
	return out, nil
}

func walk(prefix string, node map[string]any, out map[string]any) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			walk(key, child, out)
			continue
		}
		out[key] = v
	}
}
