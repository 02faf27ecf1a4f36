package database

import (
	"context"
	"errors"
	"fmt"
	"postsuggest-bot/internal/config"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrPostNotFound is returned when a post is not found.
	ErrPostNotFound = errors.New("post not found")
	// ErrSettingsNotFound is returned before the first /init.
	ErrSettingsNotFound = errors.New("settings not found")
)

// Open connects to the backend selected by cfg.DBDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		store, err := OpenSQLite(cfg.DatabaseDSN, cfg.Debug)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverPostgres:
		store, err := OpenPostgres(cfg.DatabaseDSN, cfg.Debug)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverMongo:
		store, err := ConnectMongo(ctx, cfg.MongoDBURI, cfg.MongoDBDatabase)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}
