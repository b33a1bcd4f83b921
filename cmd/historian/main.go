// cmd/historian/main.go drains the room action queue in Redis into PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jason-s-yu/plagiarist/internal/cache"
	"github.com/jason-s-yu/plagiarist/internal/database"
	"github.com/jason-s-yu/plagiarist/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.ConnectDB(ctx); err != nil {
		log.Fatalf("historian: %v", err)
	}
	defer database.DB.Close()
	if err := database.EnsureSchema(ctx, database.DB); err != nil {
		log.Fatalf("historian: %v", err)
	}
	if err := cache.ConnectRedis(); err != nil {
		log.Fatalf("historian: %v", err)
	}

	svc, err := historian.New(historian.Config{
		Client:     cache.Rdb,
		QueueName:  cache.QueueName(),
		BatchSize:  getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		FlushDelay: time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		Sink:       database.Ledger{},
	})
	if err != nil {
		log.Fatalf("historian: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(gctx) })
	if err := g.Wait(); err != nil {
		log.Errorf("historian exited: %v", err)
	}
	if err := cache.Rdb.Close(); err != nil {
		log.Warnf("historian: closing redis: %v", err)
	}
	log.Info("historian shutdown complete")
}

func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}
