package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"turn-notify/internal/config"
	hhttp "turn-notify/internal/handler/http"
	hauth "turn-notify/internal/handler/http/auth"
	"turn-notify/internal/infra/adapter/persistence/postgres"
	"turn-notify/internal/infra/adapter/persistence/sqlite"
	"turn-notify/internal/infra/db"
	"turn-notify/internal/infra/notifier"
	"turn-notify/internal/infra/worker"
	"turn-notify/internal/observability/logging"
	pkgconfig "turn-notify/internal/pkg/config"
	"turn-notify/internal/repository"
	"turn-notify/internal/resilience/circuitbreaker"
	"turn-notify/internal/usecase/binding"
	"turn-notify/internal/usecase/notify"
	"turn-notify/pkg/debounce"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	configMetrics := pkgconfig.NewConfigMetrics("turn_notify")
	cfg := config.LoadAppConfig(logger, configMetrics)
	notification := loadNotification(logger, cfg.NotifyConfigPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, breaker, repo := initStore(ctx, logger, cfg.DatabaseURL)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	bots := initBots(logger, notification.Bots)
	rules := notify.NewAtomicRules(notification.Rules)

	cache := debounce.New(debounce.Config{Capacity: cfg.DebounceCapacity})
	dispatchCfg := notify.DefaultConfig()
	dispatchCfg.MaxConcurrent = cfg.DispatchMaxConcurrent
	dispatcher := notify.NewDispatcher(repo, rules, bots, cache,
		logger.With(slog.String("component", "18xx")), dispatchCfg)

	scheduler := initScheduler(logger, dispatcher)
	scheduler.Start()

	servers := buildServers(logger, cfg, notification, serverDeps{
		dispatcher: dispatcher,
		bindings: &binding.Service{
			Repo:   repo,
			Rules:  rules,
			Logger: logger.With(slog.String("component", "binding")),
		},
		health: &hhttp.HealthHandler{
			Store:    breaker,
			Bots:     bots,
			Debounce: cache,
			Version:  cfg.Version,
		},
	})

	g, gctx := errgroup.WithContext(ctx)

	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("server starting",
				slog.String("addr", srv.Addr),
				slog.String("version", cfg.Version))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	watcher := config.NewWatcher(cfg.NotifyConfigPath, notification, rules, configMetrics, logger)
	g.Go(func() error {
		// a watcher failure only disables hot reload
		if err := watcher.Run(gctx); err != nil {
			logger.Warn("notification config watcher stopped", slog.Any("error", err))
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		shutdown(logger, cfg.ShutdownTimeout, servers, scheduler, dispatcher)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// loadNotification reads the notification file. A missing file runs the
// webhook with no rules and no bots; an invalid one stops startup.
func loadNotification(logger *slog.Logger, path string) *config.Notification {
	n, err := config.LoadNotification(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("notification config not found, starting without bots",
			slog.String("path", path))
		n, err = config.ParseNotification(nil)
	}
	if err != nil {
		logger.Error("failed to load notification config",
			slog.String("path", path),
			slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("notification config loaded",
		slog.String("path", path),
		slog.Bool("enabled", n.Enabled()),
		slog.String("webhook_path", n.WebhookPath()),
		slog.Int("rules", len(n.Rules)),
		slog.Int("bots", len(n.Bots)))
	return n
}

// initStore opens the database, runs migrations and returns the profile
// repository for its dialect behind a circuit breaker.
func initStore(ctx context.Context, logger *slog.Logger, dsn string) (*sql.DB, *circuitbreaker.DBCircuitBreaker, repository.ProfileRepository) {
	database, dialect, err := db.Open(ctx, dsn)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}

	breaker := circuitbreaker.NewDBCircuitBreaker(database)
	var repo repository.ProfileRepository
	switch dialect {
	case db.DialectPostgres:
		repo = postgres.NewProfileRepo(breaker)
	default:
		repo = sqlite.NewProfileRepo(breaker)
	}
	return database, breaker, repo
}

// initBots builds one bot per definition. A bot that fails to build is
// skipped so one bad token does not silence the other platforms.
func initBots(logger *slog.Logger, defs []config.BotDefinition) *notify.BotRegistry {
	registry := notify.NewBotRegistry()
	for _, def := range defs {
		bot, err := notifier.NewBot(def.BotConfig(), logger)
		if err != nil {
			logger.Error("failed to create bot, skipping",
				slog.String("bot_id", def.ID),
				slog.String("platform", def.Platform),
				slog.Any("error", err))
			continue
		}
		registry.Register(bot)
		logger.Info("bot registered",
			slog.String("bot_id", bot.ID()),
			slog.String("platform", bot.Platform()))
	}
	if registry.Len() == 0 {
		logger.Warn("no bots configured, notifications will not be delivered")
	}
	return registry
}

func initScheduler(logger *slog.Logger, dispatcher *notify.Dispatcher) *worker.Scheduler {
	metrics := worker.NewWorkerMetrics()
	cfg := worker.LoadConfigFromEnv(logger, metrics)

	scheduler, err := worker.NewScheduler(cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	if err := scheduler.Add(worker.JobDebounceSweep, cfg.SweepSchedule,
		worker.SweepJob(dispatcher, cfg.DebounceMaxAge)); err != nil {
		logger.Error("failed to schedule debounce sweep", slog.Any("error", err))
		os.Exit(1)
	}
	return scheduler
}

type serverDeps struct {
	dispatcher *notify.Dispatcher
	bindings   *binding.Service
	health     *hhttp.HealthHandler
}

// buildServers returns the API server and, when WEBHOOK_ADDR names another
// address, a second server for the webhook alone.
func buildServers(logger *slog.Logger, cfg *config.AppConfig, n *config.Notification, deps serverDeps) []*http.Server {
	rc := hhttp.RouterConfig{
		WebhookPath: n.WebhookPath(),
		APITimeout:  cfg.APITimeout,
		Health:      deps.health,
		Limits:      hhttp.DefaultInputLimits(),
		Logger:      logger,
	}
	if cfg.WebhookRateLimited() {
		rc.WebhookLimiter = hhttp.NewRateLimiter(hhttp.RateLimiterConfig{
			Rate:       cfg.WebhookRate,
			Burst:      cfg.WebhookBurst,
			TrustProxy: cfg.TrustProxy,
		})
		logger.Warn("webhook rate limit enabled, bursts above it are answered with 429",
			slog.Float64("rate", cfg.WebhookRate),
			slog.Int("burst", cfg.WebhookBurst))
	}

	if cfg.JWTSecret != "" {
		rc.Bindings = deps.bindings
		rc.Auth = &hauth.Authenticator{Secret: []byte(cfg.JWTSecret), Logger: logger}
	} else {
		logger.Warn("JWT_SECRET not set, profile API disabled")
	}

	if !n.Enabled() {
		logger.Info("notification webhook disabled")
		return []*http.Server{newServer(cfg.HTTPAddr, hhttp.NewRouter(rc))}
	}

	if !cfg.SeparateWebhookListener() {
		rc.Dispatcher = deps.dispatcher
		logger.Info("webhook mounted", slog.String("path", rc.WebhookPath), slog.String("addr", cfg.HTTPAddr))
		return []*http.Server{newServer(cfg.HTTPAddr, hhttp.NewRouter(rc))}
	}

	api := newServer(cfg.HTTPAddr, hhttp.NewRouter(rc))
	rc.Dispatcher = deps.dispatcher
	hook := newServer(cfg.WebhookAddr, hhttp.NewWebhookRouter(rc))
	logger.Info("webhook mounted", slog.String("path", rc.WebhookPath), slog.String("addr", cfg.WebhookAddr))
	return []*http.Server{api, hook}
}

func newServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
	}
}

// shutdown stops accepting requests, then drains the scheduler and the
// dispatcher within timeout.
func shutdown(logger *slog.Logger, timeout time.Duration, servers []*http.Server, scheduler *worker.Scheduler, dispatcher *notify.Dispatcher) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server shutdown failed", slog.String("addr", srv.Addr), slog.Any("error", err))
		}
	}
	if err := scheduler.Stop(ctx); err != nil {
		logger.Error("scheduler stop failed", slog.Any("error", err))
	}
	if err := dispatcher.Shutdown(ctx); err != nil {
		logger.Error("dispatcher shutdown failed", slog.Any("error", err))
	}
}
