// Package testutil starts throwaway Postgres/Redis containers and provides
// small helpers shared by package tests.
package testutil

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"ats-backend/internal/core/cache"
	"ats-backend/internal/core/database"
	"ats-backend/internal/domain"
)

// Teardown terminates a container started by this package.
type Teardown func(ctx context.Context) error

func StartPostgres(ctx context.Context) (string, Teardown, error) {
	ctr, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("ats"),
		postgres.WithUsername("ats"),
		postgres.WithPassword("ats"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return "", nil, err
	}
	td := func(ctx context.Context) error { return ctr.Terminate(ctx) }

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = td(ctx)
		return "", nil, err
	}
	return dsn, td, nil
}

// OpenDB starts Postgres and returns a migrated gorm handle.
func OpenDB(ctx context.Context) (*gorm.DB, Teardown, error) {
	dsn, td, err := StartPostgres(ctx)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.NewGorm(database.Opts{Driver: "postgres", DSN: dsn, LogLevel: "silent"})
	if err == nil {
		err = database.Migrate(db, &domain.User{}, &domain.Job{}, &domain.Application{})
	}
	if err != nil {
		_ = td(ctx)
		return nil, nil, err
	}
	return db, func(ctx context.Context) error {
		_ = database.Close(db)
		return td(ctx)
	}, nil
}

// Truncate empties the given tables between tests.
func Truncate(db *gorm.DB, tables ...string) error {
	for _, t := range tables {
		if err := db.Exec("DELETE FROM " + t).Error; err != nil {
			return err
		}
	}
	return nil
}

func StartRedis(ctx context.Context) (*redis.Client, Teardown, error) {
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		return nil, nil, err
	}
	td := func(ctx context.Context) error { return ctr.Terminate(ctx) }

	url, err := ctr.ConnectionString(ctx)
	if err != nil {
		_ = td(ctx)
		return nil, nil, err
	}
	rdb, err := cache.NewClient(cache.Options{URL: url})
	if err != nil {
		_ = td(ctx)
		return nil, nil, err
	}
	return rdb, func(ctx context.Context) error {
		_ = rdb.Close()
		return td(ctx)
	}, nil
}
