package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/onoo-labs/marketing-assistant/config"
	"github.com/onoo-labs/marketing-assistant/internal/bootstrap"
	"github.com/onoo-labs/marketing-assistant/internal/logging"
	"github.com/onoo-labs/marketing-assistant/internal/projectstore/repository"
)

const serviceName = "onoo-project-store"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("error", false).LogError("config.load", err)
		os.Exit(1)
	}

	log := logging.New(cfg.App.LogLevel, cfg.IsProduction()).With("service", serviceName)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		log.LogError("store.open", err)
		os.Exit(1)
	}
	defer closeRepo()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:  serviceName,
		Version:      cfg.App.Version,
		AllowOrigins: cfg.Server.AllowOrigins,
		Backend:      cfg.Store.Backend,
		ProjectKey:   cfg.Store.ProjectKey,
		Repo:         repo,
		Log:          log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.LogInfof("server.start", "listening on :%s (backend %s)", cfg.Server.Port, cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.LogError("server.listen", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError("server.shutdown", err)
	}
	log.LogInfo("server.stop", "server stopped")
}

func openRepository(ctx context.Context, cfg *config.Config) (repository.Repository, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendSQL:
		db, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewSQLRepository(db, cfg.Store.ProjectKey)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, func() { db.Close() }, nil
	default:
		client, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisRepository(client, cfg.Store.ProjectKey), func() { client.Close() }, nil
	}
}
