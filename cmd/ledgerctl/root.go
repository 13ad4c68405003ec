package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/fiscal-ledger/internal/app"
	"github.com/angelmondragon/fiscal-ledger/pkg/config"
	"github.com/angelmondragon/fiscal-ledger/pkg/db"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
	"github.com/angelmondragon/fiscal-ledger/pkg/types"
)

// env holds what every subcommand needs once the root pre-run has loaded
// configuration and opened the store.
type env struct {
	cfg  *config.Config
	logg *logger.Logger
	db   *db.Client
	svcs *app.Services
}

func (e *env) open(ctx context.Context, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg := logger.New(logger.Options{
		ServiceName: "ledgerctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      stderr,
	})
	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	svcs, err := app.NewServices(cfg, logg, client, nil)
	if err != nil {
		_ = client.Close()
		return err
	}
	e.cfg, e.logg, e.db, e.svcs = cfg, logg, client, svcs
	return nil
}

func (e *env) close() {
	if e.db != nil {
		_ = e.db.Close()
		e.db = nil
	}
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operate the fiscal document and inventory ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.open(cmd.Context(), cmd.ErrOrStderr())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			e.close()
		},
	}

	root.AddCommand(
		newLineCmd(e, "purchase"),
		newLineCmd(e, "sale"),
		newInvoiceCmd(e),
		newProductCmd(e),
		newCategoryCmd(e),
		newInventoryCmd(e),
		newMigrateCmd(e),
		newCronCmd(e),
		newQuoteCmd(e),
	)
	return root
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseDecimalFlag(cmd *cobra.Command, name string) (decimal.Decimal, error) {
	raw, err := cmd.Flags().GetString(name)
	if err != nil {
		return decimal.Zero, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: %w", name, err)
	}
	return value, nil
}

func parseDateFlag(cmd *cobra.Command, name string) (*types.Date, error) {
	raw, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := types.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &d, nil
}
