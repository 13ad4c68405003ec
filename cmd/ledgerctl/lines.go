package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/fiscal-ledger/internal/ledger"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
)

func newLineCmd(e *env, name string) *cobra.Command {
	kind, err := enums.ParseLineKind(name)
	if err != nil {
		panic(err)
	}

	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Record and inspect %ss", name),
	}

	create := &cobra.Command{
		Use:   "create",
		Short: fmt.Sprintf("Record a %s priced by document type", name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := lineInputFromFlags(cmd)
			if err != nil {
				return err
			}
			id, err := e.svcs.Ledger.Create(cmd.Context(), kind, input)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]int64{"id": id})
		},
	}
	addLineFlags(create)

	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: fmt.Sprintf("Replace a %s and re-apply its stock effect", name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			input, err := lineInputFromFlags(cmd)
			if err != nil {
				return err
			}
			return e.svcs.Ledger.Edit(cmd.Context(), kind, id, input)
		},
	}
	addLineFlags(edit)

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: fmt.Sprintf("Delete a %s and revert its stock effect", name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return e.svcs.Ledger.Delete(cmd.Context(), kind, id)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %ss, newest first", name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := ledger.ListFilter{}
			filter.Product, _ = cmd.Flags().GetString("product")
			filter.Counterparty, _ = cmd.Flags().GetString("counterparty")
			filter.Limit, _ = cmd.Flags().GetInt("limit")
			lines, err := e.svcs.Ledger.List(cmd.Context(), kind, filter)
			if err != nil {
				return err
			}
			return printJSON(cmd, lines)
		},
	}
	list.Flags().String("product", "", "filter by product name")
	list.Flags().String("counterparty", "", "filter by counterparty")
	list.Flags().Int("limit", 50, "maximum rows")

	cmd.AddCommand(create, edit, remove, list)

	if kind == enums.LineKindPurchase {
		cmd.AddCommand(&cobra.Command{
			Use:   "last <product>",
			Short: "Show the most recent purchase of a product",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				line, err := e.svcs.Ledger.LastPurchaseForProduct(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if line == nil {
					return fmt.Errorf("no purchases recorded for %q", args[0])
				}
				return printJSON(cmd, line)
			},
		})
	}
	return cmd
}

func addLineFlags(cmd *cobra.Command) {
	cmd.Flags().String("counterparty", "", "supplier or customer name")
	cmd.Flags().String("product", "", "product name")
	cmd.Flags().Int("quantity", 0, "units")
	cmd.Flags().String("unit-price", "", "net unit price")
	cmd.Flags().String("doc-type", "", "FACTURA, FACTURA_EXENTA, BOLETA, BOLETA_EXENTA or BOLETA_HONORARIOS")
	cmd.Flags().String("issued-on", "", "issue date (YYYY-MM-DD), defaults to today")
	cmd.Flags().String("due-on", "", "due date for purchases (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("counterparty")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("quantity")
}

func lineInputFromFlags(cmd *cobra.Command) (ledger.CreateLineInput, error) {
	var input ledger.CreateLineInput
	var err error
	input.Counterparty, _ = cmd.Flags().GetString("counterparty")
	input.Product, _ = cmd.Flags().GetString("product")
	input.Quantity, _ = cmd.Flags().GetInt("quantity")
	if input.UnitPrice, err = parseDecimalFlag(cmd, "unit-price"); err != nil {
		return input, err
	}
	rawDocType, _ := cmd.Flags().GetString("doc-type")
	if input.DocType, err = enums.ParseOptionalDocType(rawDocType); err != nil {
		return input, err
	}
	if input.IssuedOn, err = parseDateFlag(cmd, "issued-on"); err != nil {
		return input, err
	}
	if input.DueOn, err = parseDateFlag(cmd, "due-on"); err != nil {
		return input, err
	}
	return input, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
