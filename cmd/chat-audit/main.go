// Command chat-audit drains chat-turn events from RabbitMQ into an
// append-only log file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/language-tutor/internal/config"
	"github.com/iliyamo/language-tutor/internal/logger"
	"github.com/iliyamo/language-tutor/internal/queue"
)

func main() {
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

	ev := cfg.Events
	c := queue.NewConsumer(ev.URL, ev.Queue, ev.LogDir, log)
	log.Info("chat audit consumer starting", "queue", ev.Queue, "file", filepath.Join(ev.LogDir, queue.AuditFile))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Run(gctx) })
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("consumer stopped", "err", err)
	}
	log.Info("chat audit consumer stopped")
}
