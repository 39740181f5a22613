package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/skillswap/internal/authflow"
	"github.com/iliyamo/skillswap/internal/booking"
	"github.com/iliyamo/skillswap/internal/catalog"
	"github.com/iliyamo/skillswap/internal/config"
	"github.com/iliyamo/skillswap/internal/database"
	"github.com/iliyamo/skillswap/internal/devicestore"
	"github.com/iliyamo/skillswap/internal/handler"
	"github.com/iliyamo/skillswap/internal/identity"
	"github.com/iliyamo/skillswap/internal/logging"
	"github.com/iliyamo/skillswap/internal/metrics"
	"github.com/iliyamo/skillswap/internal/queue"
	"github.com/iliyamo/skillswap/internal/repository"
	"github.com/iliyamo/skillswap/internal/router"
	"github.com/iliyamo/skillswap/internal/session"
)

const (
	bookingLogPath = "logs/booking.log"
	resetLogPath   = "logs/password_reset.log"
)

func main() {
	_ = godotenv.Load(".env") // optional in containers
	cfg := config.Load()
	logger := logging.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		logger.Error("open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logger.Error("migrate database", slog.Any("error", err))
		os.Exit(1)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Error("redis unavailable; the device store requires it")
		os.Exit(1)
	}
	defer rdb.Close()

	cat, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		logger.Error("load catalog", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("catalog loaded", slog.Int("offerings", cat.Len()), slog.Int("events", len(cat.Events())))

	m := metrics.New(metrics.WithNamespace("skillswap"), metrics.WithRuntimeCollectors())
	store := devicestore.New(rdb, cfg.DeviceStorePrefix, cfg.DeviceStoreTTL)

	var (
		publisher *queue.Publisher
		mailer    identity.ResetMailer = queue.OutboxMailer{Log: &queue.FileLog{Path: resetLogPath}}
	)
	if cfg.RabbitURL != "" {
		publisher = queue.NewPublisher(cfg.RabbitURL, logger)
		mailer = publisher
	}

	sessions := repository.NewSessionRepo(db)
	provider := identity.NewSQLProvider(repository.NewUserRepo(db), sessions, mailer, identity.SQLConfig{
		Secret:           cfg.JWTSecret,
		SessionTTL:       time.Duration(cfg.SessionTTLMin) * time.Minute,
		BcryptCost:       cfg.BcryptCost,
		FederatedAuthURL: cfg.FederatedAuthURL,
		FederatedSecret:  cfg.FederatedSecret,
		ResetTTL:         cfg.ResetTTL,
	})
	unobserve := provider.ObserveSessionChanges(func(ch identity.SessionChange) {
		m.SessionChange(string(ch.Kind))
		logger.Info("session change", slog.String("kind", string(ch.Kind)), slog.String("uid", ch.User.UID))
	})
	defer unobserve()

	reconciler := session.NewReconciler(provider, store, logger)
	auth := authflow.NewService(provider, store, reconciler, logger)

	var submitter booking.Submitter = booking.DelaySubmitter{Delay: cfg.BookingDelay}
	if cfg.BookingSubmitter == "queue" {
		if publisher == nil {
			logger.Error("BOOKING_SUBMITTER=queue needs RABBITMQ_URL")
			os.Exit(1)
		}
		submitter = booking.QueueSubmitter{Publisher: publisher}
	}

	if cfg.RabbitURL != "" {
		startConsumer(ctx, cfg.RabbitURL, queue.BookingRequestedQueue, queue.BookingLog(&queue.FileLog{Path: bookingLogPath}), m, logger)
		startConsumer(ctx, cfg.RabbitURL, queue.PasswordResetQueue, queue.ResetOutbox(&queue.FileLog{Path: resetLogPath}), m, logger)
	}
	go purgeSessions(ctx, sessions, logger)

	e := router.New(router.Deps{
		Catalog:   cat,
		Sessions:  reconciler,
		Auth:      auth,
		Store:     store,
		Submitter: submitter,
		Redis:     rdb,
		CacheCfg:  config.LoadCacheConfig(),
		RateCfg:   config.LoadRateLimitConfig(),
		Metrics:   m,
		Ready: &handler.ReadyHandler{Checks: map[string]handler.Pinger{
			"mysql": handler.PingFunc(db.PingContext),
			"redis": handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		}},
		Logger:        logger,
		SecureCookies: cfg.Env == "prod",
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", slog.String("addr", addr), slog.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
	}
	logger.Info("bye")
}

// startConsumer runs a queue consumer in the background and counts every
// message it handles.
func startConsumer(ctx context.Context, url, q string, h queue.Handler, m *metrics.Manager, logger *slog.Logger) {
	counted := func(body []byte) error {
		err := h(body)
		m.QueueMessage(q, err)
		return err
	}
	go func() {
		if err := queue.StartConsumer(ctx, url, q, counted, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("consumer stopped", slog.String("queue", q), slog.Any("error", err))
		}
	}()
}

// purgeSessions deletes expired session rows once an hour.
func purgeSessions(ctx context.Context, repo *repository.SessionRepo, logger *slog.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpired(ctx, now)
			if err != nil {
				logger.Warn("purge expired sessions", slog.Any("error", err))
				continue
			}
			if n > 0 {
				logger.Info("purged expired sessions", slog.Int64("rows", n))
			}
		}
	}
}
