// Command alerter is the NBA 50-point alert CLI.
//
// Usage:
//
//	alerter run                 # daily scan + email dispatch + ledger advance
//	alerter run --full          # rescan the whole season
//	alerter run --dry-run       # scan and report, no dispatch
//	alerter scan [--full]       # update club data only, no dispatch
//	alerter notify              # dispatch alerts for club scorers not yet sent
//	alerter subscribers add a@b.com
//	alerter subscribers remove a@b.com
//	alerter subscribers remove-token <token>
//	alerter subscribers list
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fiftyclub/alerter/internal/club"
	"github.com/fiftyclub/alerter/internal/config"
	"github.com/fiftyclub/alerter/internal/ledger"
	"github.com/fiftyclub/alerter/internal/notify"
	"github.com/fiftyclub/alerter/internal/provider/espn"
	"github.com/fiftyclub/alerter/internal/runlock"
	"github.com/fiftyclub/alerter/internal/scan"
	"github.com/fiftyclub/alerter/internal/scorer"
	"github.com/fiftyclub/alerter/internal/subscribers"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "alerter",
		Short:        "NBA 50-point scorer email alerts",
		SilenceUsage: true,
	}

	root.AddCommand(runCmd())
	root.AddCommand(scanCmd())
	root.AddCommand(notifyCmd())
	root.AddCommand(subscribersCmd())

	if err := root.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	var full, dryRun bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan for new 50-point games and email subscribers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunLock(func(ctx context.Context, cfg *config.Config) error {
				return runAlert(ctx, cfg, full, dryRun)
			})
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Rescan the entire season instead of just yesterday")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Scan and report without dispatching email")
	return cmd
}

func runAlert(ctx context.Context, cfg *config.Config, full, dryRun bool) error {
	today := calendarToday()

	led, err := ledger.Load(cfg.LedgerPath)
	if err != nil {
		return err
	}

	res, err := runScan(ctx, cfg, led, today, full)
	if err != nil {
		return err
	}

	if dryRun {
		for _, a := range res.NewAlerts {
			logger.Info("would alert", "player", a.Player, "team", a.Team, "points", a.Points, "date", a.Date)
		}
		return nil
	}

	if len(res.NewAlerts) == 0 {
		logger.Info("No new 50-point performances, nothing to send")
		return nil
	}

	return dispatchAndRecord(ctx, cfg, led, res.NewAlerts)
}

// --------------------------------------------------------------------------
// scan command
// --------------------------------------------------------------------------

func scanCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Update the 50+ Club data file without dispatching email",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunLock(func(ctx context.Context, cfg *config.Config) error {
				led, err := ledger.Load(cfg.LedgerPath)
				if err != nil {
					return err
				}
				_, err = runScan(ctx, cfg, led, calendarToday(), full)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Rescan the entire season instead of just yesterday")
	return cmd
}

// runScan executes the scan job and folds qualifying performances into
// the club data file.
func runScan(ctx context.Context, cfg *config.Config, led *ledger.Ledger, today time.Time, full bool) (*scan.Result, error) {
	client := espn.NewClient(cfg.ESPNBaseURL, cfg.ESPNRequestsPerMinute, cfg.FetchRetries, logger)
	job := &scan.Job{
		Provider:    client,
		Ledger:      led,
		SeasonStart: cfg.SeasonStart,
		Logger:      logger,
	}

	start := time.Now()
	res, err := job.Run(ctx, today, full)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	logger.Info("Scan finished",
		"duration", time.Since(start).Round(time.Second),
		"games", res.GamesScanned, "qualifying", len(res.Qualifying),
		"new_alerts", len(res.NewAlerts), "skipped", len(res.Skipped),
		"dates_failed", res.DatesFailed)

	existing, err := club.Load(cfg.ClubDataPath)
	if err != nil {
		return nil, err
	}
	yesterday := today.AddDate(0, 0, -1)
	data := club.Merge(existing, res.Qualifying, config.SeasonLabel(today), yesterday, time.Now().UTC(), res.GamesScanned)
	if err := club.Save(cfg.ClubDataPath, data); err != nil {
		return nil, err
	}
	logger.Info("Club data updated",
		"season", data.Season, "total_scorers", len(data.Scorers), "last_checked", data.LastCheckedDate)

	return res, nil
}

// --------------------------------------------------------------------------
// notify command
// --------------------------------------------------------------------------

func notifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Email subscribers about club scorers not yet alerted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunLock(func(ctx context.Context, cfg *config.Config) error {
				led, err := ledger.Load(cfg.LedgerPath)
				if err != nil {
					return err
				}

				data, err := club.Load(cfg.ClubDataPath)
				if err != nil {
					return err
				}
				if data == nil {
					return fmt.Errorf("no club data at %s; run a scan first", cfg.ClubDataPath)
				}

				var pending []scorer.PerformanceRecord
				for _, rec := range data.Scorers {
					if led.Contains(rec.AlertKey()) {
						continue
					}
					pending = append(pending, rec)
				}
				if len(pending) == 0 {
					logger.Info("No new 50-point performances to alert about")
					return nil
				}

				return dispatchAndRecord(ctx, cfg, led, pending)
			})
		},
	}
}

// dispatchAndRecord sends one campaign for the alerts and, only on a
// declared success with at least one delivery attempted, advances and
// persists the ledger.
func dispatchAndRecord(ctx context.Context, cfg *config.Config, led *ledger.Ledger, alerts []scorer.PerformanceRecord) error {
	mailer, err := buildMailer(cfg)
	if err != nil {
		return err
	}
	notifier := &notify.Notifier{
		Mailer:          mailer,
		MinSuccessRatio: cfg.MinSuccessRatio,
		Logger:          logger,
	}

	for _, a := range alerts {
		logger.Info("new alert", "player", a.Player, "team", a.Team, "points", a.Points, "date", a.Date)
	}

	res, err := notifier.Dispatch(ctx, alerts)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if res.Attempted == 0 {
		return nil
	}

	keys := make([]string, len(alerts))
	for i, a := range alerts {
		keys[i] = a.AlertKey()
	}
	led.Record(keys...)
	if err := led.Save(); err != nil {
		return err
	}
	logger.Info("Ledger advanced", "keys", len(keys), "total", led.Len())
	return nil
}

func buildMailer(cfg *config.Config) (notify.Mailer, error) {
	if cfg.EmailOctopusAPIKey == "" {
		return nil, errors.New("EMAILOCTOPUS_API_KEY is required")
	}
	if cfg.EmailOctopusListID == "" {
		return nil, errors.New("EMAILOCTOPUS_LIST_ID is required")
	}
	sender := notify.Sender{Name: cfg.SenderName, Email: cfg.SenderEmail}
	return notify.NewEmailOctopus(cfg.EmailOctopusBaseURL, cfg.EmailOctopusAPIKey, cfg.EmailOctopusListID, sender, logger), nil
}

// --------------------------------------------------------------------------
// subscribers command
// --------------------------------------------------------------------------

func subscribersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "Manage the local subscriber bookkeeping file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <email>",
		Short: "Add a subscriber",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSubscribers(func(store *subscribers.Store) error {
				sub, err := store.Add(args[0], time.Now().UTC())
				if err != nil {
					return err
				}
				fmt.Printf("Added %s (unsubscribe token %s)\n", sub.Email, sub.UnsubscribeToken)
				return store.Save()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <email>",
		Short: "Remove a subscriber by email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSubscribers(func(store *subscribers.Store) error {
				if !store.Remove(args[0]) {
					return fmt.Errorf("email not found: %s", args[0])
				}
				fmt.Printf("Removed %s\n", args[0])
				return store.Save()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove-token <token>",
		Short: "Remove a subscriber by unsubscribe token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSubscribers(func(store *subscribers.Store) error {
				email, ok := store.RemoveByToken(args[0])
				if !ok {
					return fmt.Errorf("token not found: %s", args[0])
				}
				fmt.Printf("Removed %s\n", email)
				return store.Save()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List subscribers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSubscribers(func(store *subscribers.Store) error {
				subs := store.List()
				if len(subs) == 0 {
					fmt.Println("No subscribers yet")
					return nil
				}
				for i, sub := range subs {
					fmt.Printf("%d. %s (since %s, token %s)\n",
						i+1, sub.Email, sub.SubscribedDate, sub.UnsubscribeToken)
				}
				return nil
			})
		},
	})

	return cmd
}

func withSubscribers(fn func(store *subscribers.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := subscribers.Load(cfg.SubscribersPath)
	if err != nil {
		return err
	}
	return fn(store)
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// withRunLock handles config loading, the single-run guard, and signal
// cancellation for the job commands.
func withRunLock(fn func(ctx context.Context, cfg *config.Config) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lock, err := runlock.Acquire(cfg.LockPath)
	if err != nil {
		return err
	}
	defer lock.Release()

	return fn(ctx, cfg)
}

// calendarToday returns the current UTC day with no time component, the
// run's reference date.
func calendarToday() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
