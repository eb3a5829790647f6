package commands

import (
	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/catalog"
	"github.com/spf13/cobra"
)

func newProductsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Manage catalog product rows",
	}

	var file string

	list := &cobra.Command{
		Use:   "list",
		Short: "List every product row",
		Args:  cobra.NoArgs,
		RunE: a.withEngine(true, func(cmd *cobra.Command, _ []string, engine *goConsole.Engine) error {
			rows, err := engine.ListProducts(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), rows)
		}),
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product row",
		Args:  cobra.ExactArgs(1),
		RunE: a.withEngine(true, func(cmd *cobra.Command, args []string, engine *goConsole.Engine) error {
			row, err := engine.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), row)
		}),
	}

	create := &cobra.Command{
		Use:   "create -f <file>",
		Short: "Create a product row from a YAML or JSON record",
		Args:  cobra.NoArgs,
		RunE: a.withEngine(true, func(cmd *cobra.Command, _ []string, engine *goConsole.Engine) error {
			var rec catalog.ProductRecord
			if err := readRecord(cmd, file, &rec); err != nil {
				return err
			}
			row, err := engine.CreateProduct(cmd.Context(), rec)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), row)
		}),
	}

	update := &cobra.Command{
		Use:   "update -f <file>",
		Short: "Replace the inside items of one row",
		Long: `Replaces the inside items of the row named in the record. The record
carries "row" and "data" (the new inside items).`,
		Args: cobra.NoArgs,
		RunE: a.withEngine(true, func(cmd *cobra.Command, _ []string, engine *goConsole.Engine) error {
			var upd catalog.ProductUpdate
			if err := readRecord(cmd, file, &upd); err != nil {
				return err
			}
			row, err := engine.UpdateProductInsides(cmd.Context(), upd)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), row)
		}),
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one product row",
		Args:  cobra.ExactArgs(1),
		RunE: a.withEngine(true, func(cmd *cobra.Command, args []string, engine *goConsole.Engine) error {
			res, err := engine.DeleteProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), res)
		}),
	}

	for _, c := range []*cobra.Command{create, update} {
		c.Flags().StringVarP(&file, "file", "f", "", `record file, "-" for stdin`)
	}

	cmd.AddCommand(list, get, create, update, del)
	return cmd
}
