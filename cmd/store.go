package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/gridiron-data/warehouse-cli/internal/config"
	"github.com/gridiron-data/warehouse-cli/internal/store"
)

// initStore opens the configured store backend and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// loadCatalog reads the dataset catalog declared in config.
func loadCatalog() (*config.Catalog, error) {
	return config.LoadCatalog(cfg.Catalog.Path)
}
