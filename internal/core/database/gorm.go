// Package database opens the relational store behind the job and application
// repositories and exposes its lifecycle (migrate, health, close).
package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrUnsupportedDriver = errors.New("database: unsupported driver")

type Opts struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string
	// Writer 为空时使用 gorm 默认 stdout logger
	Writer logger.Writer
}

func dialector(o Opts) (gorm.Dialector, error) {
	switch o.Driver {
	case "", "postgres":
		return postgres.Open(o.DSN), nil
	case "mysql":
		return mysql.Open(normalizeMySQLDSN(o.DSN, o.Username, o.Password)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, o.Driver)
	}
}

func logLevel(s string) logger.LogLevel {
	switch s {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func NewGorm(o Opts) (*gorm.DB, error) {
	dial, err := dialector(o)
	if err != nil {
		return nil, err
	}

	gl := logger.Default.LogMode(logLevel(o.LogLevel))
	if o.Writer != nil {
		gl = logger.New(o.Writer, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logLevel(o.LogLevel),
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(dial, &gorm.Config{Logger: gl})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if o.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	}
	if o.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)

	return db.Session(&gorm.Session{
		PrepareStmt:            true,
		SkipDefaultTransaction: true, // 只在需要时手动开 Tx
	}), nil
}

// Migrate creates or updates tables for the given models.
func Migrate(db *gorm.DB, models ...any) error {
	return db.AutoMigrate(models...)
}

// Health pings the database and reports pool statistics.
func Health(ctx context.Context, db *gorm.DB) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	stats := map[string]string{}
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	s := sqlDB.Stats()
	stats["status"] = "up"
	stats["open_connections"] = strconv.Itoa(s.OpenConnections)
	stats["in_use"] = strconv.Itoa(s.InUse)
	stats["idle"] = strconv.Itoa(s.Idle)
	stats["wait_count"] = strconv.FormatInt(s.WaitCount, 10)
	stats["wait_duration"] = s.WaitDuration.String()
	return stats
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	log.Println("[db] closing connection pool")
	return sqlDB.Close()
}
