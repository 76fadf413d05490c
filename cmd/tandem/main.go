package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/tandem/internal/config"
	"github.com/dukerupert/tandem/internal/database"
	"github.com/dukerupert/tandem/internal/logging"
	"github.com/dukerupert/tandem/internal/push"
	"github.com/dukerupert/tandem/internal/reminder"
	"github.com/dukerupert/tandem/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("TANDEM_CONFIG"), "path to YAML config file")
	runOnce := flag.String("run-once", "", "run a single reminder pass (hourly or daily) and exit")
	genVAPID := flag.Bool("gen-vapid", false, "print a new VAPID key pair and exit")
	flag.Parse()

	if *genVAPID {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate VAPID keys: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("TANDEM_PUSH_VAPID_PUBLIC_KEY=%s\nTANDEM_PUSH_VAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config:\n%v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, cfg, logger)

	if *runOnce != "" {
		if err := runPass(srv.Scheduler(), *runOnce, logger); err != nil {
			logger.Error("reminder pass failed", "kind", *runOnce, "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Scheduler.Enabled {
		srv.Scheduler().Start(ctx)
	} else {
		logger.Info("reminder scheduler disabled")
	}

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("tandem listening", "addr", httpServer.Addr, "push", cfg.Push.Enabled(), "email", cfg.Email.PostmarkToken != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	srv.Scheduler().Stop()
}

func runPass(s *reminder.Scheduler, kind string, logger *slog.Logger) error {
	ctx := context.Background()
	var (
		report *reminder.Report
		err    error
	)
	switch kind {
	case "hourly":
		report, err = s.RunHourly(ctx)
	case "daily":
		report, err = s.RunDaily(ctx)
	default:
		return fmt.Errorf("unknown pass %q: want hourly or daily", kind)
	}
	if err != nil {
		return err
	}
	logger.Info("reminder pass complete", "report", report)
	return nil
}
