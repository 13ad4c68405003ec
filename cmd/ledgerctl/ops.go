package main

import (
	"github.com/spf13/cobra"

	"github.com/angelmondragon/fiscal-ledger/internal/app"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	"github.com/angelmondragon/fiscal-ledger/pkg/migrate"
	"github.com/angelmondragon/fiscal-ledger/pkg/redis"
)

func newMigrateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate <up|down|status|version>",
		Short: "Run the embedded schema migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlDB, err := e.db.SQL()
			if err != nil {
				return err
			}
			return migrate.Run(cmd.Context(), sqlDB, e.db.Dialect(), args[0], cmd.OutOrStdout())
		},
	}
	return cmd
}

func newCronCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Run the periodic ledger jobs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run-once",
		Short: "Run every scheduled job once, honouring the shared lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var redisClient *redis.Client
			if e.cfg.Redis.Enabled() {
				client, err := redis.New(cmd.Context(), e.cfg.Redis)
				if err != nil {
					return err
				}
				defer client.Close()
				redisClient = client
			}
			scheduler, err := app.NewScheduler(e.cfg, e.logg, e.svcs, redisClient, nil)
			if err != nil {
				return err
			}
			return scheduler.RunOnce(cmd.Context())
		},
	})
	return cmd
}

func newQuoteCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Preview the fiscal breakdown of quantity × unit net",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			qty, _ := cmd.Flags().GetInt("quantity")
			unitNet, err := parseDecimalFlag(cmd, "unit-net")
			if err != nil {
				return err
			}
			rawDocType, _ := cmd.Flags().GetString("doc-type")
			docType, err := enums.ParseOptionalDocType(rawDocType)
			if err != nil {
				return err
			}
			breakdown, err := e.svcs.Calculator.ComputeBreakdown(qty, unitNet, docType)
			if err != nil {
				return err
			}
			return printJSON(cmd, breakdown)
		},
	}
	cmd.Flags().Int("quantity", 1, "units")
	cmd.Flags().String("unit-net", "", "net unit price")
	cmd.Flags().String("doc-type", "", "document type")
	_ = cmd.MarkFlagRequired("unit-net")
	return cmd
}
