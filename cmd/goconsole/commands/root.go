package commands

import (
	"github.com/spf13/cobra"
)

var version = "dev"

// NewRootCmd creates the goconsole root command.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "goconsole",
		Short: "Command-line client for the shop admin API",
		Long: `goconsole signs in to the admin API, keeps the session token between
invocations and manages catalog products and the page text block.

Records are validated locally before anything is sent.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is <user config dir>/goconsole/goconsole.yaml or ./goconsole.yaml)")
	flags.StringVarP(&a.output, "output", "o", outputYAML, `output format ("yaml", "json")`)
	flags.String("base-url", "", "admin API base URL")
	flags.Duration("timeout", 0, "per-attempt API timeout")
	flags.String("store", "", `token store ("file", "memory", "redis")`)
	flags.String("redis", "", "redis address for the redis token store")
	flags.String("log-level", "", "log level")
	flags.String("log-format", "", `log format ("text", "json")`)

	rootCmd.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newStatusCmd(a),
		newProductsCmd(a),
		newTextCmd(a),
		newValidateCmd(a),
		newMetricsCmd(a),
	)

	return rootCmd
}
