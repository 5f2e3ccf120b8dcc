package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/hamed0406/portalcheck/internal/cache"
	"github.com/hamed0406/portalcheck/internal/checks"
	"github.com/hamed0406/portalcheck/internal/config"
	"github.com/hamed0406/portalcheck/internal/httpapi"
	"github.com/hamed0406/portalcheck/internal/httpapi/middleware"
	"github.com/hamed0406/portalcheck/internal/load"
	"github.com/hamed0406/portalcheck/internal/logging"
	"github.com/hamed0406/portalcheck/internal/metrics"
	"github.com/hamed0406/portalcheck/internal/notify"
	"github.com/hamed0406/portalcheck/internal/policy"
	"github.com/hamed0406/portalcheck/internal/probe"
	"github.com/hamed0406/portalcheck/internal/repo"
	"github.com/hamed0406/portalcheck/internal/repo/cached"
	"github.com/hamed0406/portalcheck/internal/repo/memory"
	"github.com/hamed0406/portalcheck/internal/repo/postgres"
	"github.com/hamed0406/portalcheck/internal/report"
	"github.com/hamed0406/portalcheck/internal/scheduler"
	"github.com/hamed0406/portalcheck/internal/suite"
	"github.com/hamed0406/portalcheck/internal/verdict"
)

func main() {
	app := kingpin.New("portalcheck", "Live-portal check suite for the public benefits API.")

	runCmd := app.Command("run", "Run the suite once and print the report.")
	runGroup := runCmd.Flag("group", "Only run checks in this group.").String()
	runJSON := runCmd.Flag("json", "Emit the full report as JSON instead of a summary.").Bool()

	watchCmd := app.Command("watch", "Run the suite on an interval and alert on regressions.")

	serveCmd := app.Command("serve", "Serve stored run results over HTTP.")

	loadCmd := app.Command("load", "Drive staged read-only load against one endpoint.")
	loadPath := loadCmd.Flag("path", "Endpoint path to hit.").Default("/benefits").String()
	loadProfile := loadCmd.Flag("profile", "YAML stage profile; omit for the built-in warmup+sustained stages.").String()

	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, true)
	if err != nil {
		kingpin.Fatalf("logger: %s", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case runCmd.FullCommand():
		os.Exit(runOnce(ctx, cfg, logger, *runGroup, *runJSON))
	case watchCmd.FullCommand():
		watch(ctx, cfg, logger)
	case serveCmd.FullCommand():
		serve(ctx, cfg, logger)
	case loadCmd.FullCommand():
		if err := runLoad(ctx, cfg, logger, *loadPath, *loadProfile); err != nil {
			kingpin.Fatalf("load: %s", err)
		}
	}
}

func newEnv(cfg config.Config, logger *zap.Logger) (*suite.Env, error) {
	table := policy.Default()
	if cfg.PolicyFile != "" {
		var err error
		table, err = policy.Load(cfg.PolicyFile)
		if err != nil {
			return nil, err
		}
	}
	prober := probe.NewProber(cfg.BaseURL, cfg.BearerToken, cfg.APIKey,
		cfg.ProbeTimeout, cfg.ProbeRPS, cfg.ProbeBurst)
	return &suite.Env{
		Prober: prober,
		Runner: verdict.NewRunner(table, logger),
		CI:     cfg.CI,
		Logger: logger,
	}, nil
}

// newRunFunc builds the one-shot suite closure shared by run, watch and the
// API trigger. It waits for the target to come up, runs the catalog and
// rolls the outcomes into a report.
func newRunFunc(cfg config.Config, logger *zap.Logger, group string) (scheduler.RunFunc, error) {
	env, err := newEnv(cfg, logger)
	if err != nil {
		return nil, err
	}
	reg := suite.NewRegistry(checks.Catalog()...)
	return func(ctx context.Context) (*report.Report, error) {
		if err := env.Prober.WaitReady(ctx, "/benefits", cfg.ReadyTimeout); err != nil {
			return nil, err
		}
		list := reg.All()
		if group != "" {
			list = reg.Filter(group)
		}
		started := time.Now()
		outcomes := suite.Run(ctx, env, list, cfg.Concurrency)
		return report.Build(cfg.BaseURL, cfg.CI, started, time.Now(), outcomes), nil
	}, nil
}

// openStores picks the persistence backend: Postgres when DATABASE_URL is
// set, in-memory otherwise, with the Redis report cache layered on when
// configured.
func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.RunStore, repo.RegressionStore, func()) {
	cleanup := func() {}
	var runs repo.RunStore
	var regressions repo.RegressionStore

	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Warn("postgres unavailable, falling back to memory", zap.Error(err))
		} else {
			runs, regressions = pg, pg
			cleanup = pg.Close
		}
	}
	if runs == nil {
		mem := memory.New()
		runs, regressions = mem, mem
	}

	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, serving uncached", zap.Error(err))
		} else {
			runs = cached.New(runs, rc, time.Hour, logger)
			inner := cleanup
			cleanup = func() { _ = rc.Close(); inner() }
		}
	}
	return runs, regressions, cleanup
}

func runOnce(ctx context.Context, cfg config.Config, logger *zap.Logger, group string, jsonOut bool) int {
	run, err := newRunFunc(cfg, logger, group)
	if err != nil {
		kingpin.Fatalf("%s", err)
	}

	rep, err := run(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "run failed:", err)
		return 1
	}

	if cfg.DatabaseURL != "" {
		runs, _, cleanup := openStores(ctx, cfg, logger)
		if err := runs.Save(ctx, rep); err != nil {
			logger.Warn("could not persist run", zap.Error(err))
		}
		cleanup()
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(rep)
	} else {
		fmt.Print(rep.Summary())
	}
	return rep.ExitCode()
}

func watch(ctx context.Context, cfg config.Config, logger *zap.Logger) {
	if cfg.WatchInterval == 0 {
		kingpin.Fatalf("WATCH_INTERVAL_MS is 0; nothing to do")
	}
	run, err := newRunFunc(cfg, logger, "")
	if err != nil {
		kingpin.Fatalf("%s", err)
	}
	runs, regressions, cleanup := openStores(ctx, cfg, logger)
	defer cleanup()

	w := scheduler.NewWatcher(logger, runs, run, cfg.WatchInterval, cfg.ReadyTimeout+2*time.Minute)

	go func() {
		var n notify.Notifier = notify.Multi{notify.NewSlack(cfg.SlackWebhook)}
		al := scheduler.NewAlerter(runs, regressions, n, scheduler.AlerterConfig{
			AlertOnRecovery: true,
			Cooldown:        cfg.AlertCooldown,
			PollInterval:    cfg.WatchInterval,
		})
		_ = al.Run(ctx)
	}()

	logger.Info("watch_start",
		zap.String("base_url", cfg.BaseURL),
		zap.Duration("interval", cfg.WatchInterval))
	w.Run(ctx)
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) {
	runs, _, cleanup := openStores(ctx, cfg, logger)
	defer cleanup()

	run, err := newRunFunc(cfg, logger, "")
	if err != nil {
		kingpin.Fatalf("%s", err)
	}
	trigger := func(ctx context.Context) (*report.Report, error) {
		rep, err := run(ctx)
		if err != nil {
			return nil, err
		}
		metrics.Observe(rep)
		if err := runs.Save(ctx, rep); err != nil {
			logger.Warn("could not persist triggered run", zap.Error(err))
		}
		return rep, nil
	}

	api := httpapi.NewServer(logger, runs, trigger)
	keys := middleware.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	limits := httpapi.Limits{
		PublicRPM: cfg.PublicRPM, PublicBurst: cfg.PublicBurst,
		AdminRPM: cfg.AdminRPM, AdminBurst: cfg.AdminBurst,
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: api.Router(keys, limits)}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		kingpin.Fatalf("serve: %s", err)
	}
}

func runLoad(ctx context.Context, cfg config.Config, logger *zap.Logger, path, profile string) error {
	stages := load.DefaultStages()
	if profile != "" {
		var err error
		stages, err = load.LoadProfile(profile)
		if err != nil {
			return err
		}
	}

	prober := probe.NewProber(cfg.BaseURL, cfg.BearerToken, cfg.APIKey,
		cfg.ProbeTimeout, 0, 0) // stages set their own pace
	results := load.NewRunner(prober, logger).Run(ctx, probe.Request{Path: path}, stages)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
