package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ejcasil/dualledger/internal/common"
	"github.com/ejcasil/dualledger/internal/ledger"
	"github.com/ejcasil/dualledger/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ledger web server",
		Long: `Start the HTTP API: transaction CRUD, chat, exports, receipt uploads,
and the interest accrual trigger.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			attachments, err := initAttachments()
			if err != nil {
				return err
			}
			l := ledger.New(store, attachments)

			cfg := server.Config{
				Addr:          viper.GetString("server.addr"),
				AdminPassword: viper.GetString("server.admin_password"),
				SessionSecret: viper.GetString("server.session_secret"),
				SessionTTL:    viper.GetDuration("server.session_ttl"),
			}
			if cfg.Addr == "" {
				cfg.Addr = ":8080"
			}
			if cfg.AdminPassword == "" {
				return common.NewUserError("set server.admin_password in the config or DUALLEDGER_SERVER_ADMIN_PASSWORD", common.ErrMissingConfig)
			}
			if cfg.SessionSecret == "" {
				return common.NewUserError("set server.session_secret in the config or DUALLEDGER_SERVER_SESSION_SECRET", common.ErrMissingConfig)
			}

			srv, err := server.New(l, attachments, cfg)
			if err != nil {
				return err
			}

			// Optional in-process accrual schedule; a cron hitting the
			// accrue endpoint or CLI works just as well.
			if interval := viper.GetDuration("server.accrue_interval"); interval > 0 {
				go accrueLoop(ctx, l, interval)
			}

			slog.Info("Starting web server", "addr", cfg.Addr)
			return srv.Run()
		},
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

// accrueLoop runs the backfill on a fixed interval until the context ends.
// Failures are logged and retried on the next tick; the idempotency probe
// makes extra runs harmless.
func accrueLoop(ctx context.Context, l *ledger.Ledger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			added, err := l.Accrue(ctx, time.Now())
			if err != nil {
				slog.Error("Scheduled interest accrual failed", "added", added, "error", err)
				continue
			}
			if added > 0 {
				slog.Info("Scheduled interest accrual complete", "added", added)
			}
		}
	}
}
