package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const driverName = "pgx"

type Settings struct {
	URL             string
	MaxConns        int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func DefaultSettings(url string) Settings {
	return Settings{
		URL:             url,
		MaxConns:        20,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// NewDB opens a pooled connection to the ETL database and verifies it with a ping.
func NewDB(ctx context.Context, settings Settings) (*sql.DB, error) {
	if settings.URL == "" {
		return nil, errors.New("database url is required")
	}

	db, err := sql.Open(driverName, settings.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if settings.MaxConns > 0 {
		db.SetMaxOpenConns(settings.MaxConns)
		db.SetMaxIdleConns(settings.MaxConns)
	}
	db.SetConnMaxLifetime(settings.ConnMaxLifetime)
	db.SetConnMaxIdleTime(settings.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
