package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/natserract/odoo/pkg/config"
	"github.com/natserract/odoo/pkg/mirror"
	"github.com/natserract/odoo/pkg/mirror/postgres"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) mirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Mirror Odoo products, users and manufacturing orders into PostgreSQL",
		Long: `Mirror Odoo products, users and manufacturing orders into PostgreSQL.

The database is configured through MIRROR_DB_HOST, MIRROR_DB_PORT,
MIRROR_DB_USER, MIRROR_DB_PASSWORD, MIRROR_DB_NAME and MIRROR_DB_SSLMODE.
ODOO_SYNC_LIMIT caps the records pulled per family, ODOO_SYNC_INTERVAL
sets the cron schedule and ODOO_AUTO_SYNC=false disables it.`,
	}
	cmd.PersistentFlags().Int("sync-limit", 0, "records pulled per family (default ODOO_SYNC_LIMIT)")

	run := &cobra.Command{
		Use:   "run",
		Short: "Run one sync now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withMirror(cmd.Context(), func(cfg *config.Config, db *postgres.DB, svc *mirror.SyncService) error {
				result, err := svc.Run(cmd.Context())
				if result != nil {
					if printErr := a.printJSON(result); printErr != nil {
						return printErr
					}
				}
				return err
			})
		},
	}

	schedule := &cobra.Command{
		Use:   "schedule",
		Short: "Run the sync on its cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return a.withMirror(ctx, func(cfg *config.Config, db *postgres.DB, svc *mirror.SyncService) error {
				interval := cfg.Sync.Interval
				if flagInterval, _ := cmd.Flags().GetString("interval"); flagInterval != "" {
					interval = flagInterval
				}
				if !cfg.Sync.AutoSync {
					return fmt.Errorf("auto-sync is disabled (ODOO_AUTO_SYNC=false)")
				}
				scheduler := mirror.NewScheduler(svc, true, interval, a.logger)

				if runNow, _ := cmd.Flags().GetBool("run-now"); runNow {
					if _, err := scheduler.SyncNow(ctx); err != nil {
						a.logger.Warn("Initial sync failed", zap.Error(err))
					}
				}

				if err := scheduler.Start(ctx); err != nil {
					return err
				}
				st := scheduler.Status()
				fmt.Fprintf(a.out, "Mirror scheduled (%s), next run at %s\n", st.Interval, st.NextRun.Format("2006-01-02 15:04:05"))

				<-ctx.Done()
				scheduler.Stop()
				return nil
			})
		},
	}
	schedule.Flags().String("interval", "", "cron expression (default ODOO_SYNC_INTERVAL)")
	schedule.Flags().Bool("run-now", false, "run one sync before waiting for the schedule")

	runs := &cobra.Command{
		Use:   "runs",
		Short: "Show the most recent sync runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return a.withStore(cmd.Context(), func(cfg *config.Config, db *postgres.DB) error {
				result, err := db.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return a.printJSON(result)
			})
		},
	}
	runs.Flags().Int("limit", 10, "number of runs to show")

	list := &cobra.Command{
		Use:       "list products|users|orders",
		Short:     "List mirrored rows",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"products", "users", "orders"},
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			status, _ := cmd.Flags().GetString("status")
			return a.withStore(cmd.Context(), func(cfg *config.Config, db *postgres.DB) error {
				var (
					result interface{}
					err    error
				)
				switch mirror.Family(args[0]) {
				case mirror.FamilyProducts:
					result, err = db.ListProducts(cmd.Context(), limit)
				case mirror.FamilyUsers:
					result, err = db.ListUsers(cmd.Context(), limit)
				case mirror.FamilyOrders:
					result, err = db.ListProductionOrders(cmd.Context(), status, limit)
				}
				if err != nil {
					return err
				}
				return a.printJSON(result)
			})
		},
	}
	list.Flags().Int("limit", 100, "maximum number of rows")
	list.Flags().String("status", "", "only orders with this dashboard status")

	cmd.AddCommand(run, schedule, runs, list)
	return cmd
}

// withStore loads the mirror configuration, connects and prepares the schema.
func (a *app) withStore(ctx context.Context, fn func(*config.Config, *postgres.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load mirror config: %w", err)
	}
	if limit := a.v.GetInt("sync-limit"); limit > 0 {
		cfg.Sync.Limit = limit
	}

	db, err := postgres.New(ctx, cfg.Database, a.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		return err
	}
	return fn(cfg, db)
}

// withMirror is withStore plus an Odoo client and a sync service.
func (a *app) withMirror(ctx context.Context, fn func(*config.Config, *postgres.DB, *mirror.SyncService) error) error {
	client, err := a.client()
	if err != nil {
		return err
	}
	return a.withStore(ctx, func(cfg *config.Config, db *postgres.DB) error {
		svc := mirror.NewSyncService(client, db, a.logger, mirror.WithLimit(cfg.Sync.Limit))
		return fn(cfg, db, svc)
	})
}
