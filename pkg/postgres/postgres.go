package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type Config struct {
	DSN             string        `envconfig:"DSN" split_words:"true" required:"true"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" split_words:"true" default:"20"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" split_words:"true" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" split_words:"true" default:"30m"`
	DialTimeout     time.Duration `envconfig:"DIAL_TIMEOUT" split_words:"true" default:"5s"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" split_words:"true" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" split_words:"true" default:"10s"`
}

// Open builds a bun.DB over pgdriver. No connection is made until the first query.
func Open(cfg Config) (*bun.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithDialTimeout(cfg.DialTimeout),
		pgdriver.WithReadTimeout(cfg.ReadTimeout),
		pgdriver.WithWriteTimeout(cfg.WriteTimeout),
	)
	sqldb := sql.OpenDB(connector)
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return bun.NewDB(sqldb, pgdialect.New()), nil
}

func MustOpen(cfg Config) *bun.DB {
	db, err := Open(cfg)
	if err != nil {
		panic(err)
	}
	return db
}

// Ping verifies connectivity with a bounded timeout.
func Ping(ctx context.Context, db *bun.DB, timeout time.Duration) error {
	if db == nil {
		return errors.New("nil db")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}
