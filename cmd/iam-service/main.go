package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	_ "github.com/crediya/iam-service/docs" // Swagger docs
	"github.com/crediya/iam-service/internal/api"
	"github.com/crediya/iam-service/internal/api/handler"
	"github.com/crediya/iam-service/internal/api/metrics"
	"github.com/crediya/iam-service/internal/core/domain"
	"github.com/crediya/iam-service/internal/core/ports"
	"github.com/crediya/iam-service/internal/core/service"
	"github.com/crediya/iam-service/internal/infrastructure/db/mongo"
	"github.com/crediya/iam-service/internal/infrastructure/db/mysql"
	"github.com/crediya/iam-service/internal/infrastructure/db/redis"
	"github.com/crediya/iam-service/internal/infrastructure/queue"
	"github.com/crediya/iam-service/internal/infrastructure/security"
	"github.com/crediya/iam-service/internal/pkg/config"
	"github.com/crediya/iam-service/pkg/logger"
)

// @title IAM Service API
// @version 1.0
// @description User registration, login and identity checks.
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "iam-service",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("iam-service stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("store close")
		}
	}()

	checks := map[string]handler.PingFunc{cfg.StoreDriver: st.ping}

	var throttle handler.LoginThrottle
	if cfg.Login.ThrottleEnabled {
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		throttle = redis.NewLoginThrottle(rdb, cfg.Login.MaxAttempts, cfg.Login.Window)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("login throttle enabled")
	}

	// The pool outlives the signal context so in-flight requests can finish
	// hashing while the server drains.
	pool := queue.NewPool(cfg.HashWorkers, metrics.HashQueueDepth, log)
	pool.Start(context.Background())
	defer pool.Stop()

	hasher, err := security.NewBcryptHasher(cfg.BcryptCost, pool, metrics.PasswordHashDuration)
	if err != nil {
		return err
	}
	issuer, err := security.NewJWTIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.TokenTTL())
	if err != nil {
		return err
	}
	verifier, err := security.NewJWTVerifier(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.RoleFallbacks, security.DefaultLeeway)
	if err != nil {
		return err
	}

	e := api.NewRouter(api.Deps{
		Log:        log,
		CreateUser: service.NewCreateUserService(st.users, hasher, log),
		Auth:       service.NewAuthService(st.users, st.roles, hasher, issuer, log),
		ExistUser:  service.NewExistUserService(st.users, log),
		LoadUsers:  service.NewLoadUsersService(st.users, log),
		Verifier:   verifier,
		Throttle:   throttle,
		Checks:     checks,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("server stopped gracefully")
	return nil
}

// store bundles the repositories of the configured driver with its lifecycle.
type store struct {
	users ports.UserRepository
	roles ports.RoleRepository
	ping  handler.PingFunc
	close func(ctx context.Context) error
	// migrate creates indexes or tables and seeds the default roles.
	migrate func(ctx context.Context) error
}

// prepare runs migrate and releases the connection when it fails.
func (s *store) prepare(ctx context.Context) error {
	if err := s.migrate(ctx); err != nil {
		if cerr := s.close(context.Background()); cerr != nil {
			return errors.Join(err, fmt.Errorf("close store: %w", cerr))
		}
		return err
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	var (
		st  *store
		err error
	)
	switch cfg.StoreDriver {
	case config.StoreMongo:
		st, err = openMongo(ctx, cfg, log)
	default:
		st, err = openMySQL(ctx, cfg, log)
	}
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := st.prepare(ctx); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func openMongo(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	users := mongo.NewUserRepository(db)
	roles := mongo.NewRoleRepository(db)
	return &store{
		users: users,
		roles: roles,
		ping:  func(ctx context.Context) error { return mongo.Ping(ctx, client) },
		close: client.Disconnect,
		migrate: func(ctx context.Context) error {
			if err := users.EnsureIndexes(ctx); err != nil {
				return err
			}
			if err := roles.SeedRoles(ctx, domain.DefaultRoles); err != nil {
				return err
			}
			log.Info().Msg("mongo indexes ensured and roles seeded")
			return nil
		},
	}, nil
}

func openMySQL(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	db, err := mysql.Connect(ctx, mysql.Config{
		Host:         cfg.MySQL.Host,
		Port:         cfg.MySQL.Port,
		User:         cfg.MySQL.User,
		Password:     cfg.MySQL.Password,
		Database:     cfg.MySQL.Database,
		MaxOpenConns: cfg.MySQL.MaxOpenConns,
		MaxIdleConns: cfg.MySQL.MaxIdleConns,
		ConnMaxLife:  cfg.MySQL.ConnMaxLifetime,
	}, log)
	if err != nil {
		return nil, err
	}
	return newMySQLStore(db, log), nil
}

func newMySQLStore(db *gorm.DB, log zerolog.Logger) *store {
	return &store{
		users: mysql.NewUserRepository(db),
		roles: mysql.NewRoleRepository(db),
		ping:  func(ctx context.Context) error { return mysql.Ping(ctx, db) },
		close: func(context.Context) error { return mysql.Close(db) },
		migrate: func(ctx context.Context) error {
			if err := mysql.AutoMigrate(db); err != nil {
				return err
			}
			if err := mysql.SeedRoles(ctx, db, domain.DefaultRoles); err != nil {
				return err
			}
			log.Info().Msg("mysql schema migrated and roles seeded")
			return nil
		},
	}
}
