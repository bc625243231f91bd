package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/settlesavvy/suitability-cli/internal/engine"
	"github.com/settlesavvy/suitability-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("cli"); err != nil {
		return nil, err
	}
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: int32(cfg.Store.MaxConns),
			MinConns: int32(cfg.Store.MinConns),
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func newOrchestrator(st store.Store) *engine.Orchestrator {
	orch := engine.NewOrchestrator(st, cfg.Engine.Workers)
	orch.SetRetryAttempts(cfg.Engine.RetryAttempts)
	return orch
}
