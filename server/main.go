package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pokerroom/server/engine"
	"pokerroom/server/store"
)

func main() {
	_ = godotenv.Load()

	logger := newLogger()
	defer logger.Sync()

	var migrate bool
	for _, a := range os.Args[1:] {
		if a == "--migrate" {
			migrate = true
		}
	}

	addr := getenv("ADDR", ":8080")
	cfg := engine.Config{
		BuyIn: atoiDef(os.Getenv("BUY_IN"), 10000),
		Seed:  int64(atoiDef(os.Getenv("DEAL_SEED"), 0)),
	}
	timeout := time.Duration(atoiDef(os.Getenv("ACTION_TIMEOUT_SECONDS"), 0)) * time.Second

	var db *store.DB
	if dsn := getenv("DATABASE_URL", ""); dsn != "" {
		p, err := store.Open(dsn)
		if err != nil {
			logger.Warn("persistence disabled (open failed)", zap.Error(err))
		} else {
			db = p
			defer db.Close(context.Background())
			if migrate || asBool(os.Getenv("AUTO_MIGRATE")) {
				if err := store.Migrate(context.Background(), db); err != nil {
					if migrate {
						logger.Fatal("migrate failed", zap.Error(err))
					}
					logger.Warn("migrate failed (continuing without persistence)", zap.Error(err))
					db = nil
				} else {
					logger.Info("migrated")
				}
			}
		}
	} else if migrate {
		logger.Fatal("--migrate requires DATABASE_URL")
	}
	if migrate {
		return
	}

	api := &apiServer{
		rooms:   NewRooms(),
		db:      db,
		log:     logger,
		cfg:     cfg,
		timeout: timeout,
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		<-c
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	logger.Info("listening",
		zap.String("addr", addr),
		zap.Int("buy_in", cfg.BuyIn),
		zap.Bool("persistence", db != nil))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger() *zap.Logger {
	var logger *zap.Logger
	var err error
	if asBool(os.Getenv("DEBUG")) {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}

func asBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
