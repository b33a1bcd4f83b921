// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jason-s-yu/plagiarist/internal/auth"
	"github.com/jason-s-yu/plagiarist/internal/cache"
	"github.com/jason-s-yu/plagiarist/internal/database"
	"github.com/jason-s-yu/plagiarist/internal/game"
	"github.com/jason-s-yu/plagiarist/internal/handlers"
	"github.com/jason-s-yu/plagiarist/internal/lobby"
	"github.com/jason-s-yu/plagiarist/internal/middleware"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
		logrus.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := initAuth(); err != nil {
		logger.Fatalf("auth: %v", err)
	}
	if err := database.ConnectDB(ctx); err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer database.DB.Close()
	if err := database.EnsureSchema(ctx, database.DB); err != nil {
		logger.Fatalf("database: %v", err)
	}

	// The action log is optional: without Redis rooms still play, they just are not recorded.
	var actions game.ActionPublisher
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("action log disabled: %v", err)
	} else {
		defer cache.Rdb.Close()
		pub, err := cache.NewPublisher(&cache.PublisherConfig{Client: cache.Rdb, QueueName: cache.QueueName()})
		if err != nil {
			logger.Fatalf("action log: %v", err)
		}
		actions = pub
	}

	rules := game.RulesFromEnv()
	if err := rules.Validate(); err != nil {
		logger.Fatalf("room rules: %v", err)
	}

	hub := handlers.NewHub(logger)
	manager := lobby.NewManager(lobby.ManagerConfig{
		Rules:         rules,
		Prompts:       game.LoadPromptsOrFallback(getEnv("PROMPTS_FILE", "prompts.csv")),
		Balances:      database.Ledger{},
		Persister:     database.Ledger{},
		Actions:       actions,
		Broadcaster:   hub,
		ResultsLinger: time.Duration(getEnvInt("RESULTS_LINGER_SEC", 30)) * time.Second,
	})
	defer manager.Close()
	manager.EnsureDefaultRoom()

	logged := middleware.LogMiddleware(logger)
	mux := http.NewServeMux()

	// room endpoints
	mux.Handle("/rooms/create", logged(handlers.CreateRoomHandler(manager)))
	mux.Handle("/rooms/list", logged(handlers.ListRoomsHandler(manager)))
	mux.Handle("/room/ws/", logged(handlers.RoomWSHandler(logger, manager, hub)))

	// player endpoints
	mux.Handle("/player/guest", logged(http.HandlerFunc(handlers.GuestHandler)))
	mux.Handle("/player/stats", logged(handlers.PlayerStatsHandler(database.Ledger{})))
	mux.Handle("/leaderboard", logged(handlers.LeaderboardHandler(database.Ledger{})))

	// operator endpoints, disabled unless ADMIN_TOKEN is set
	adminToken := os.Getenv("ADMIN_TOKEN")
	mux.Handle("/admin/state", logged(handlers.RequireAdmin(adminToken, handlers.AdminStateHandler(manager))))
	mux.Handle("/admin/rooms/start", logged(handlers.RequireAdmin(adminToken, handlers.ForceStartHandler(manager))))
	mux.Handle("/admin/rooms/cleanup", logged(handlers.RequireAdmin(adminToken, handlers.CleanupRoomsHandler(manager))))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Errorf("server exited: %v", err)
	}
}

// initAuth loads signing keys from AUTH_PRIVATE_KEY_PATH / AUTH_PUBLIC_KEY_PATH when set,
// otherwise generates a key pair for this process.
func initAuth() error {
	priv, pub := os.Getenv("AUTH_PRIVATE_KEY_PATH"), os.Getenv("AUTH_PUBLIC_KEY_PATH")
	if priv != "" && pub != "" {
		return auth.InitFromPath(priv, pub)
	}
	return auth.Init()
}

func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
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
