package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreMySQL = "mysql"
	StoreMongo = "mongo"

	minJWTSecretBytes = 32
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	StoreDriver     string        `env:"STORE_DRIVER,     default=mysql"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE,  default=false"`
	HashWorkers     int           `env:"HASH_WORKERS,     default=4"`
	BcryptCost      int           `env:"BCRYPT_COST,      default=12"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=15s"`

	JWT   JWTConfig
	MySQL MySQLConfig
	Mongo MongoConfig
	Redis RedisConfig
	Login LoginConfig
}

type JWTConfig struct {
	Secret            string `env:"JWT_SECRET"`
	Issuer            string `env:"JWT_ISSUER,             default=crediya-iam"`
	ExpirationSeconds int64  `env:"JWT_EXPIRATION_SECONDS, default=3600"`
	// RoleFallbacks resolves the roleId claim of tokens that carry no roles claim.
	RoleFallbacks map[int64]string `env:"JWT_ROLE_FALLBACKS, default=1:CLIENTE,2:ASESOR,3:ADMIN"`
}

type MySQLConfig struct {
	Host            string        `env:"MYSQL_HOST,              default=localhost"`
	Port            int           `env:"MYSQL_PORT,              default=3306"`
	User            string        `env:"MYSQL_USER,              default=root"`
	Password        string        `env:"MYSQL_PASSWORD"`
	Database        string        `env:"MYSQL_DB,                default=crediya"`
	MaxOpenConns    int           `env:"MYSQL_MAX_OPEN_CONNS,    default=25"`
	MaxIdleConns    int           `env:"MYSQL_MAX_IDLE_CONNS,    default=5"`
	ConnMaxLifetime time.Duration `env:"MYSQL_CONN_MAX_LIFETIME, default=1h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=crediya_iam"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// LoginConfig drives the failed-login throttle.
type LoginConfig struct {
	ThrottleEnabled bool          `env:"LOGIN_THROTTLE_ENABLED, default=true"`
	MaxAttempts     int           `env:"LOGIN_MAX_ATTEMPTS,     default=5"`
	Window          time.Duration `env:"LOGIN_WINDOW,           default=15m"`
}

// Load reads configuration from environment variables and panics if it is
// unreadable or invalid.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if len(c.JWT.Secret) < minJWTSecretBytes {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretBytes))
	}
	if c.JWT.ExpirationSeconds <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_SECONDS must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, errors.New("BCRYPT_COST must be between 4 and 31"))
	}
	if c.StoreDriver != StoreMySQL && c.StoreDriver != StoreMongo {
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMySQL, StoreMongo, c.StoreDriver))
	}
	if c.HashWorkers <= 0 {
		errs = append(errs, errors.New("HASH_WORKERS must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.ExpirationSeconds) * time.Second
}
