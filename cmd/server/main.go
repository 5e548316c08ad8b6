package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/language-tutor/internal/config"
	"github.com/iliyamo/language-tutor/internal/database"
	"github.com/iliyamo/language-tutor/internal/logger"
	"github.com/iliyamo/language-tutor/internal/queue"
	"github.com/iliyamo/language-tutor/internal/repository"
	"github.com/iliyamo/language-tutor/internal/router"
	"github.com/iliyamo/language-tutor/internal/service"
	"github.com/iliyamo/language-tutor/internal/tutor"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", "err", err)
	}
}

func run(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if cfg.DBAutoMigrate {
		v, err := database.Migrate(db.DB)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("schema ready", "version", v)
	}

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		log.Warn("redis unavailable; response cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	auth := service.NewAuthService(repository.NewUserRepo(db), cfg.JWTSecret, cfg.JWTExpiry, cfg.BcryptCost)

	var opts []service.ConversationOption
	if cfg.Tutor.Enabled() {
		opts = append(opts,
			service.WithGenerator(tutor.New(cfg.Tutor, log)),
			service.WithContextTurns(cfg.Tutor.ContextTurns),
		)
		log.Info("tutor replies enabled", "model", cfg.Tutor.Model)
	} else {
		log.Info("OPENAI_API_KEY not set; chat runs without tutor replies")
	}
	if cfg.Events.Enabled {
		pub := queue.NewPublisher(cfg.Events.URL, cfg.Events.Queue, log)
		defer pub.Close()
		opts = append(opts, service.WithPublisher(pub))
	}

	e := router.New(router.Deps{
		Config:    cfg,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Log:       log,
		Redis:     rdb,
		Auth:      auth,
		Accounts:  auth,
		Lessons:   service.NewCatalog(repository.NewLessonRepo(db), log),
		Chats:     service.NewConversation(repository.NewChatRepo(db), log, opts...),
		Progress:  service.NewProgressTracker(repository.NewProgressRepo(db)),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", srv.Addr, "env", cfg.Env, "api_prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
