package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/matjar-app/api/internal/di"
	"github.com/matjar-app/api/internal/platform/config"
	"github.com/matjar-app/api/internal/platform/observability"
	"github.com/matjar-app/api/internal/platform/secrets"
)

const shutdownGrace = 15 * time.Second

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, config.WithSecretResolver(lazySecretResolver(logger)))
	if err != nil {
		return err
	}

	container, err := di.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Warn("container close", zap.Error(err))
		}
	}()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      container.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// lazySecretResolver dials Secret Manager only when the configuration
// actually carries sm:// references, so local runs need no credentials.
func lazySecretResolver(logger *zap.Logger) config.SecretResolver {
	var resolver *secrets.Resolver
	return config.SecretResolverFunc(func(ctx context.Context, ref string) (string, error) {
		if resolver == nil {
			created, err := secrets.NewResolver(ctx)
			if err != nil {
				return "", err
			}
			resolver = created
			logger.Debug("secret manager resolver initialised")
		}
		return resolver.ResolveSecret(ctx, ref)
	})
}
