package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultTimeout = 10 * time.Second

// Config captures the settings required to open the relational store.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Timeout  time.Duration

	MaxOpenConns int
	MaxIdleConns int
	ConnMaxLife  time.Duration
}

// DSN builds a go-sql-driver DSN. Times are parsed into time.Time in UTC.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Connect opens a gorm handle over MySQL, applies pool limits and verifies
// connectivity with a ping. A default timeout is applied when none is provided.
func Connect(ctx context.Context, cfg Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(gormmysql.Open(cfg.DSN()), newGormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("mysql open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("mysql handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLife > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLife)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("mysql ping: %w", err)
	}

	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Str("database", cfg.Database).Msg("mysql connected")
	return db, nil
}

// newGormConfig routes gorm's own logging through zerolog. TranslateError
// turns unique-index violations into gorm.ErrDuplicatedKey.
func newGormConfig(log zerolog.Logger) *gorm.Config {
	level := gormlogger.Warn
	if log.GetLevel() <= zerolog.DebugLevel {
		level = gormlogger.Info
	}
	gormLog := log.With().Str("component", "gorm").Logger()
	return &gorm.Config{
		Logger: gormlogger.New(&gormLog, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
}

// Ping checks that the store is reachable.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
