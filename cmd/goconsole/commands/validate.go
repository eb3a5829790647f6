package commands

import (
	"errors"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/validation"
	"github.com/spf13/cobra"
)

var errRecordInvalid = errors.New("record is invalid")

type resultView struct {
	Valid  bool     `json:"valid" yaml:"valid"`
	Errors []string `json:"errors" yaml:"errors"`
}

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a record against the local rules without sending it",
		Long: `Checks a YAML or JSON record with the same rules the write commands
apply before any request. Exits non-zero when the record is invalid.`,
	}

	var file string
	kinds := []struct {
		use   string
		short string
		check func(*validation.Engine, any) validation.Result
	}{
		{"product", "Validate a product row", (*validation.Engine).ValidateProduct},
		{"update", "Validate an inside-items update", (*validation.Engine).ValidateProductUpdate},
		{"item", "Validate a single inside item", (*validation.Engine).ValidateProductInside},
		{"text", "Validate a text block", (*validation.Engine).ValidateText},
		{"credentials", "Validate login credentials", (*validation.Engine).ValidateCredentials},
	}

	for _, k := range kinds {
		check := k.check
		sub := &cobra.Command{
			Use:   k.use + " -f <file>",
			Short: k.short,
			Args:  cobra.NoArgs,
			RunE: a.withEngine(false, func(cmd *cobra.Command, _ []string, engine *goConsole.Engine) error {
				var input any
				if err := readRecord(cmd, file, &input); err != nil {
					return err
				}
				res := check(engine.Validator(), input)
				if err := a.print(cmd.OutOrStdout(), resultView{Valid: res.Valid, Errors: res.Errors}); err != nil {
					return err
				}
				if !res.Valid {
					return errRecordInvalid
				}
				return nil
			}),
		}
		sub.Flags().StringVarP(&file, "file", "f", "", `record file, "-" for stdin`)
		cmd.AddCommand(sub)
	}

	return cmd
}
