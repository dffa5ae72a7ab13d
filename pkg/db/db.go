// pkg/db/db.go
package db

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"shopinstall/pkg/config"
	"shopinstall/pkg/shops"
)

// MustConnect returns nil when DATABASE_URL is unset or points at SQLite.
func MustConnect(cfg config.Config, log *zap.SugaredLogger) *pgxpool.Pool {
	if cfg.DatabaseURL == "" || IsSQLite(cfg.DatabaseURL) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("pg connect", "err", err)
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatalw("pg ping", "err", err)
	}
	log.Infow("postgres ready", "host", redactDSN(cfg.DatabaseURL))
	return pool
}

func MustRedis(cfg config.Config, log *zap.SugaredLogger) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalw("redis parse", "err", err)
	}
	cli := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cli.Ping(ctx).Err(); err != nil {
		log.Fatalw("redis ping", "err", err)
	}
	log.Infow("redis ready", "addr", opts.Addr)
	return cli
}

// MustStore picks the credential backend from DATABASE_URL: postgres pool, SQLite file,
// or memory when unset.
func MustStore(cfg config.Config, pool *pgxpool.Pool, log *zap.SugaredLogger) shops.Store {
	switch {
	case pool != nil:
		return shops.NewPostgresStore(pool, log)
	case IsSQLite(cfg.DatabaseURL):
		s, err := shops.OpenSQLite(cfg.DatabaseURL)
		if err != nil {
			log.Fatalw("sqlite open", "err", err)
		}
		log.Infow("sqlite ready", "path", cfg.DatabaseURL)
		return s
	default:
		return shops.NewMemoryStore()
	}
}

func IsSQLite(dsn string) bool {
	return strings.HasPrefix(dsn, "sqlite:") || strings.HasPrefix(dsn, "file:")
}

func redactDSN(dsn string) string {
	if i := strings.Index(dsn, "@"); i > 0 {
		return "***@" + dsn[i+1:]
	}
	return dsn
}
