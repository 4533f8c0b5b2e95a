package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spinwheel/internal/config"
	"spinwheel/internal/handlers"
	"spinwheel/internal/jobs"
	"spinwheel/internal/services"
	"spinwheel/internal/store"
	"spinwheel/internal/store/gormstore"
	"spinwheel/internal/store/memstore"
	"spinwheel/internal/store/mongostore"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

func main() {
	// 1. Load configuration from the environment and .env
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize logging
	var logOut io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		logOut = f
	}
	defer logger.Init("spinwheel", true, false, logOut).Close()

	// 3. Open the store
	st, err := openStore(cfg)
	if err != nil {
		logger.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(ctx); err != nil {
			logger.Errorf("Failed to close store: %v", err)
		}
	}()

	// 4. Initialize the services
	stats := services.NewSpinStats()
	wheelService := services.NewWheelService(st, services.WithStats(stats))
	sessionService := services.NewSessionService(st, services.WithStats(stats))
	spinService := services.NewSpinService(st, services.WithStats(stats))
	loginService := services.NewLoginService(st)

	// 5. Seed the admin login
	if err := loginService.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Fatalf("Failed to seed admin login: %v", err)
	}

	// 6. Set up the Gin router
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		logger.Warning("SESSION_SECRET is not set; admin sessions will not survive a restart")
		secret = []byte(uuid.NewString())
	}
	httpHandler := handlers.NewHTTPHandler(wheelService, sessionService, spinService, loginService, st)
	r := handlers.NewRouter(httpHandler, handlers.RouterOptions{
		SessionSecret: secret,
		CORSOrigins:   cfg.CORSOrigins,
		BodyLimit:     cfg.BodyLimit(),
	})

	// 7. Schedule the nightly quota reset
	c := cron.New(cron.WithLocation(time.Local))
	if _, err := jobs.Schedule(c, cfg.DailyResetSpec, wheelService.Resetter()); err != nil {
		logger.Fatalf("Failed to schedule daily reset %q: %v", cfg.DailyResetSpec, err)
	}
	c.Start()
	defer c.Stop()

	// 8. Run the server until interrupted
	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	go func() {
		logger.Infof("Server starting on http://localhost%s (%s store)", cfg.Addr(), cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to run server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown: %v", err)
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		st, err := gormstore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		st, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverMemory:
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
