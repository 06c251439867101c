package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"noteworks/internal/auth"
	"noteworks/internal/config"
	"noteworks/internal/db"
	httpx "noteworks/internal/http"
	"noteworks/internal/jobs"

	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, _ := config.Load()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	sched := jobs.NewScheduler(cfg.PurgeRetentionDays)
	r := httpx.NewRouter(cfg, gdb, jwtSvc, sched, log)

	ctx, cancel := context.WithCancel(context.Background())

	if cfg.PurgeWorker {
		worker := &jobs.Worker{
			ID:   "purge-worker-1",
			Repo: &jobs.Repo{DB: gdb},
			DB:   gdb,
			Log:  log,
		}
		go worker.Run(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
