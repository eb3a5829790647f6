package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/config"
	"github.com/MrEthical07/goConsole/internal/logging"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputYAML = "yaml"
	outputJSON = "json"
)

// app carries the state shared by one command invocation.
type app struct {
	cfgFile string
	output  string

	engine  *goConsole.Engine
	closers []func()
}

// defaults returns the CLI base configuration. Tokens persist in the
// session file so a login survives between invocations, and routine engine
// logs stay quiet.
func defaults() (goConsole.Config, error) {
	cfg := goConsole.DefaultConfig()
	path, err := config.SessionPath()
	if err != nil {
		return cfg, err
	}
	cfg.Store.Backend = goConsole.StoreFile
	cfg.Store.FilePath = path
	cfg.Logging.Level = "warn"
	return cfg, nil
}

// open builds the Engine for cmd. With restore set the stored session is
// loaded first; a stale token is discarded silently.
func (a *app) open(cmd *cobra.Command, restore bool) (*goConsole.Engine, error) {
	if a.engine != nil {
		return a.engine, nil
	}

	base, err := defaults()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadWithDefaults(cmd, a.cfgFile, base)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, cleanup, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, cleanup)

	engine, err := goConsole.New().
		WithConfig(cfg).
		WithLogger(log).
		WithAuditSink(goConsole.NewLogrusSink(log.WithField("component", "audit"))).
		Build()
	if err != nil {
		a.close()
		return nil, err
	}
	a.engine = engine
	a.closers = append(a.closers, engine.Close)

	if restore {
		if _, err := engine.Restore(cmd.Context()); err != nil {
			return nil, err
		}
	}
	return engine, nil
}

// withEngine adapts fn into a cobra RunE that opens the Engine first and
// always closes it, flushing queued audit events.
func (a *app) withEngine(restore bool, fn func(cmd *cobra.Command, args []string, engine *goConsole.Engine) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.close()
		engine, err := a.open(cmd, restore)
		if err != nil {
			return err
		}
		return fn(cmd, args, engine)
	}
}

// close releases everything open created, newest first.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	a.engine = nil
}

// print renders v in the selected output format.
func (a *app) print(w io.Writer, v any) error {
	switch a.output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", a.output)
	}
}

// readInput returns the contents of path. "-" reads stdin.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("an input file is required (-f)")
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// readRecord decodes a YAML or JSON file into out.
func readRecord(cmd *cobra.Command, path string, out any) error {
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
