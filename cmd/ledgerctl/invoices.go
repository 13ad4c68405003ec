package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/fiscal-ledger/internal/invoices"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
)

func newInvoiceCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Issue invoices and drive their lifecycle",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Issue an invoice whose tax is computed from the net amount",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var input invoices.CreateFromNetInput
			var err error
			input.Number, _ = cmd.Flags().GetString("number")
			input.Counterparty, _ = cmd.Flags().GetString("counterparty")
			input.PaymentDays, _ = cmd.Flags().GetInt("payment-days")
			rawDirection, _ := cmd.Flags().GetString("direction")
			if input.Direction, err = enums.ParseInvoiceDirection(rawDirection); err != nil {
				return err
			}
			if input.Net, err = parseDecimalFlag(cmd, "net"); err != nil {
				return err
			}
			rawDocType, _ := cmd.Flags().GetString("doc-type")
			if input.DocType, err = enums.ParseOptionalDocType(rawDocType); err != nil {
				return err
			}
			if input.IssuedOn, err = parseDateFlag(cmd, "issued-on"); err != nil {
				return err
			}
			id, err := e.svcs.Invoices.CreateFromNet(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]int64{"id": id})
		},
	}
	create.Flags().String("number", "", "invoice number")
	create.Flags().String("counterparty", "", "customer or supplier name")
	create.Flags().String("direction", "cliente", "cliente or proveedor")
	create.Flags().String("net", "", "net amount")
	create.Flags().String("doc-type", "", "document type")
	create.Flags().String("issued-on", "", "issue date (YYYY-MM-DD)")
	create.Flags().Int("payment-days", 0, "payment term override in days")
	_ = create.MarkFlagRequired("number")
	_ = create.MarkFlagRequired("counterparty")
	_ = create.MarkFlagRequired("net")

	status := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move an invoice to emitida, pendiente, pagada or vencida",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			next, err := enums.ParseInvoiceStatus(args[1])
			if err != nil {
				return err
			}
			return e.svcs.Invoices.ChangeStatus(cmd.Context(), id, next)
		},
	}

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Mark pending invoices past their due date as overdue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			count, err := e.svcs.Invoices.MarkOverdueAutomatically(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]int64{"marked": count})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rawDirection, _ := cmd.Flags().GetString("direction")
			rawStatus, _ := cmd.Flags().GetString("status")
			var filter invoices.ListFilter
			if rawDirection != "" {
				direction, err := enums.ParseInvoiceDirection(rawDirection)
				if err != nil {
					return err
				}
				filter.Direction = direction
			}
			var statuses []enums.InvoiceStatus
			for _, part := range strings.Split(rawStatus, ",") {
				if strings.TrimSpace(part) == "" {
					continue
				}
				s, err := enums.ParseInvoiceStatus(part)
				if err != nil {
					return err
				}
				statuses = append(statuses, s)
			}
			if len(statuses) > 1 && filter.Direction != "" {
				out, err := e.svcs.Invoices.ListByDirectionAndStatus(cmd.Context(), filter.Direction, statuses)
				if err != nil {
					return err
				}
				return printJSON(cmd, out)
			}
			if len(statuses) == 1 {
				filter.Status = statuses[0]
			}
			out, err := e.svcs.Invoices.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	list.Flags().String("direction", "", "cliente or proveedor")
	list.Flags().String("status", "", "one status, or several comma-separated with --direction")

	cmd.AddCommand(create, status, sweep, list)
	return cmd
}
