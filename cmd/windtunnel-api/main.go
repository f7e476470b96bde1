package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"windtunnel/internal/core/surrogate"
	"windtunnel/internal/platform/config"
	"windtunnel/internal/platform/logger"
	phttp "windtunnel/internal/platform/net/http"

	"windtunnel/internal/services/api"
)

func main() {
	// service-scoped config for HTTP etc (WINDTUNNEL_API_*)
	root := config.New()
	apiCfg := root.Prefix("WINDTUNNEL_API_")
	modelCfg := root.Prefix("WINDTUNNEL_MODEL_")

	// bring up logging early
	l := logger.Get()

	// the one process-wide shared object: the trained model handle,
	// constructed once and read concurrently by every job
	model := surrogate.New(surrogate.Config{
		Seed: int64(modelCfg.MayInt("SEED", 42)),
	})

	// http server (reads WINDTUNNEL_API_PORT)
	srv := phttp.NewServer(apiCfg)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:         apiCfg,
			Model:          model,
			Logger:         l,
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			l.Panic().Err(err).Msg("http server stopped")
		}
	case <-ctx.Done():
		l.Info().Msg("shutting down")
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			l.Error().Err(err).Msg("graceful shutdown failed")
		}
		<-done
	}
}
