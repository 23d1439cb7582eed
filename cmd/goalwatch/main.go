// Command goalwatch checks whether the tracked team scored a first-period
// goal in today's home game and sends one notification per game.
//
// It runs once and exits; an external scheduler invokes it periodically.
//
// Usage:
//
//	goalwatch run
//	goalwatch run --team 16 --date 2023-10-24
//	goalwatch run --dry-run
//	goalwatch ledger get --game 2023020123
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/scoracle-goalwatch/internal/config"
	"github.com/albapepper/scoracle-goalwatch/internal/db"
	"github.com/albapepper/scoracle-goalwatch/internal/ledger"
	"github.com/albapepper/scoracle-goalwatch/internal/metrics"
	"github.com/albapepper/scoracle-goalwatch/internal/monitor"
	"github.com/albapepper/scoracle-goalwatch/internal/notifications"
	"github.com/albapepper/scoracle-goalwatch/internal/provider/nhl"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "goalwatch",
		Short:        "First-period goal notifier",
		SilenceUsage: true,
	}

	root.AddCommand(runCmd())
	root.AddCommand(ledgerCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	var (
		teamID int
		date   string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Check today's games once and notify on a first-period home goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" {
				if _, err := time.Parse(time.DateOnly, date); err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}
			var opts []config.Option
			if dryRun {
				opts = append(opts, config.DryRun)
			}

			return withConfig(func(ctx context.Context, cfg *config.Config) error {
				if teamID > 0 {
					cfg.TeamID = teamID
				}
				log := logger.With("run_id", uuid.NewString())

				store, err := openLedger(ctx, cfg, log)
				if err != nil {
					return err
				}
				defer store.Close()

				notifier, closeNotifier, err := openNotifier(ctx, cfg, log)
				if err != nil {
					return err
				}
				defer closeNotifier()

				client := nhl.NewClient(cfg.NHLBaseURL, cfg.NHLRequestsPerMinute, cfg.CallTimeout, log)
				m := monitor.New(monitor.Deps{
					Schedule: client,
					Events:   client,
					Ledger:   store,
					Notifier: notifier,
				}, monitor.Options{
					TeamName:    cfg.TeamName,
					Location:    cfg.Location,
					CallTimeout: cfg.CallTimeout,
					Logger:      log,
				})

				var result monitor.Result
				if date != "" {
					result = m.RunOn(ctx, cfg.TeamID, date)
				} else {
					result = m.Run(ctx, cfg.TeamID)
				}

				if cfg.PushgatewayURL != "" {
					sink := metrics.NewRunSink(log)
					sink.Observe(result)
					pushCtx, cancel := context.WithTimeout(context.Background(), cfg.CallTimeout)
					defer cancel()
					if err := sink.Push(pushCtx, cfg.PushgatewayURL, cfg.TeamID); err != nil {
						log.Warn("Metrics push failed", "error", err)
					}
				}
				return nil
			}, opts...)
		},
	}
	cmd.Flags().IntVar(&teamID, "team", 0, "Tracked team ID (default: TEAM_ID)")
	cmd.Flags().StringVar(&date, "date", "", "Check this date instead of today (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Use an in-memory ledger and log notifications instead of sending")
	return cmd
}

// --------------------------------------------------------------------------
// ledger command
// --------------------------------------------------------------------------

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the notification ledger",
	}
	cmd.AddCommand(ledgerGetCmd())
	return cmd
}

func ledgerGetCmd() *cobra.Command {
	var gameID int
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the delivery record for a game",
		RunE: func(cmd *cobra.Command, args []string) error {
			if gameID == 0 {
				return fmt.Errorf("--game is required")
			}
			return withConfig(func(ctx context.Context, cfg *config.Config) error {
				store, err := openLedger(ctx, cfg, logger)
				if err != nil {
					return err
				}
				defer store.Close()

				rec, err := store.Get(ctx, ledger.Key(gameID))
				if errors.Is(err, ledger.ErrNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "no delivery recorded for game %d\n", gameID)
					return nil
				}
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			})
		},
	}
	cmd.Flags().IntVar(&gameID, "game", 0, "Game ID")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// withConfig handles config loading, logger setup, and context cancellation.
func withConfig(fn func(ctx context.Context, cfg *config.Config) error, opts ...config.Option) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load(opts...)
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		return fmt.Errorf("load config: %w", err)
	}
	logger = newLogger(cfg)
	slog.SetDefault(logger)

	return fn(ctx, cfg)
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// openLedger connects to the configured ledger backend.
func openLedger(ctx context.Context, cfg *config.Config, log *slog.Logger) (ledger.Ledger, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.CallTimeout)
	defer cancel()

	switch cfg.LedgerBackend {
	case config.LedgerPostgres:
		pool, err := db.New(connectCtx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.HealthCheck(connectCtx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("database health check: %w", err)
		}
		log.Info("Ledger connected", "backend", cfg.LedgerBackend, "table", cfg.LedgerTable)
		return ledger.NewPostgres(pool), nil
	case config.LedgerRedis:
		store, err := ledger.OpenRedis(connectCtx, cfg.RedisURL, cfg.LedgerTTL)
		if err != nil {
			return nil, err
		}
		log.Info("Ledger connected", "backend", cfg.LedgerBackend, "ttl", cfg.LedgerTTL)
		return store, nil
	case config.LedgerBolt:
		store, err := ledger.OpenBolt(cfg.BoltPath, cfg.CallTimeout)
		if err != nil {
			return nil, err
		}
		log.Info("Ledger opened", "backend", cfg.LedgerBackend, "path", cfg.BoltPath)
		return store, nil
	case config.LedgerMemory:
		log.Info("Ledger is in-memory, records will not persist")
		return ledger.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
}

// openNotifier builds the configured publisher and its cleanup func.
func openNotifier(ctx context.Context, cfg *config.Config, log *slog.Logger) (notifications.Publisher, func(), error) {
	switch cfg.Notifier {
	case config.NotifierWebhook:
		return notifications.NewWebhookPublisher(cfg.NotifyChannel, cfg.WebhookSecret, cfg.CallTimeout), func() {}, nil
	case config.NotifierMQTT:
		pub, err := notifications.DialMQTT(ctx, cfg.MQTTBrokerURL, cfg.NotifyChannel, cfg.CallTimeout, log)
		if err != nil {
			return nil, nil, err
		}
		return pub, func() {
			if err := pub.Close(); err != nil {
				log.Warn("MQTT disconnect failed", "error", err)
			}
		}, nil
	case config.NotifierLog:
		return notifications.NewLogPublisher(log), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown notifier %q", cfg.Notifier)
	}
}
