package commands

import (
	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/catalog"
	"github.com/spf13/cobra"
)

func newTextCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "text",
		Short: "Manage the page text block",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the text block",
		Args:  cobra.NoArgs,
		RunE: a.withEngine(true, func(cmd *cobra.Command, _ []string, engine *goConsole.Engine) error {
			text, err := engine.GetText(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), text)
		}),
	}

	var (
		file string
		raw  bool
	)
	set := &cobra.Command{
		Use:   "set -f <file>",
		Short: "Replace the text block",
		Long: `Replaces the text block. The file is a record with a "text" field, or
plain HTML with --raw.`,
		Args: cobra.NoArgs,
		RunE: a.withEngine(true, func(cmd *cobra.Command, _ []string, engine *goConsole.Engine) error {
			var text catalog.TextContent
			if raw {
				body, err := readInput(cmd, file)
				if err != nil {
					return err
				}
				text.Text = string(body)
			} else if err := readRecord(cmd, file, &text); err != nil {
				return err
			}

			out, err := engine.UpdateText(cmd.Context(), text)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), out)
		}),
	}
	set.Flags().StringVarP(&file, "file", "f", "", `text file, "-" for stdin`)
	set.Flags().BoolVar(&raw, "raw", false, "treat the file as the HTML body itself")

	test := &cobra.Command{
		Use:   "test",
		Short: "Probe the text collection",
		Args:  cobra.NoArgs,
		RunE: a.withEngine(true, func(cmd *cobra.Command, _ []string, engine *goConsole.Engine) error {
			res, err := engine.TestText(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), res)
		}),
	}

	cmd.AddCommand(get, set, test)
	return cmd
}
