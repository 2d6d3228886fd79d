package config

import (
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	xhttp "github.com/nimasrn/hero-points/pkg/http"
	"github.com/nimasrn/hero-points/pkg/logger"
	"github.com/nimasrn/hero-points/pkg/pg"
	"github.com/nimasrn/hero-points/pkg/redis"
	"github.com/pkg/errors"
)

var config *Config

// Config holds every configuration value of the api and cli processes.
// Only this struct must be used to hold configuration values, no direct
// access to env or any other config source should be made.
type Config struct {
	AppEnv              string `env:"APP_ENV,default=dev"`
	AppName             string `env:"APP_NAME,default=hero_points"`
	AppDebug            bool   `env:"APP_DEBUG,default=false"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI,default=/metrics"`
	AppBaseUrl          string `env:"APP_BASE_URL"`
	FrontendUrl         string `env:"FRONTEND_URL"`
	MigrateOnStart      bool   `env:"MIGRATE_ON_START,default=false"`

	HttpListenAddr         string        `env:"HTTP_LISTEN_ADDR,default=:4000"`
	HttpReadTimeout        time.Duration `env:"HTTP_SERVER_READ_TIMEOUT,default=5s"`
	HttpWriteTimeout       time.Duration `env:"HTTP_SERVER_WRITE_TIMEOUT,default=5s"`
	HttpRequestTimeout     time.Duration `env:"HTTP_SERVER_REQUEST_TIMEOUT,default=5s"`
	HttpMaxRequestBodySize int           `env:"HTTP_SERVER_MAX_BODY_BYTES,default=1048576"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT,default=5432"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT,default=5432"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	PostgresSSLMode      string `env:"POSTGRES_SSLMODE,default=disable"`
	PostgresMaxOpenConns int    `env:"POSTGRES_MAX_OPEN_CONNS,default=10"`

	RedisAddr               string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE,default=0"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=heropoints:"`

	PromNamespace string `env:"PROM_NAMESPACE,default=hero_points"`

	AdminUser         string        `env:"ADMIN_USER,default=admin"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
	AdminSessionKey   string        `env:"ADMIN_SESSION_SECRET"`
	AdminSessionTTL   time.Duration `env:"ADMIN_SESSION_TTL,default=24h"`

	LeaderboardCacheTTL   time.Duration `env:"LEADERBOARD_CACHE_TTL,default=5s"`
	IdempotencyTTL        time.Duration `env:"IDEMPOTENCY_TTL,default=24h"`
	IdempotencyLockTTL    time.Duration `env:"IDEMPOTENCY_LOCK_TTL,default=30s"`
	UIDGenerationAttempts int           `env:"UID_GENERATION_ATTEMPTS,default=100"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	if _, err := env.UnmarshalFromEnviron(c); err != nil {
		return errors.Wrap(err, "failed to map env variables to Configuration object")
	}

	if err := c.validate(); err != nil {
		return err
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

// Set replaces the loaded config. Tests use it to inject values.
func Set(c *Config) {
	config = c
}

// EnvPath returns the value of a --env=path argument, if any.
func EnvPath(args []string) string {
	for _, arg := range args {
		if v, ok := strings.CutPrefix(arg, "--env="); ok {
			return v
		}
	}
	return ""
}

// LoadFromArgs loads the config from the --env file of os.Args.
func LoadFromArgs() error {
	return Load(EnvPath(os.Args[1:]))
}

func (c *Config) validate() error {
	if c.UIDGenerationAttempts <= 0 {
		return errors.New("UID_GENERATION_ATTEMPTS must be positive")
	}
	if c.AdminPasswordHash != "" && c.AdminSessionKey == "" {
		return errors.New("ADMIN_SESSION_SECRET is required when ADMIN_PASSWORD_HASH is set")
	}
	return nil
}

func (c *Config) PostgresRead() pg.Config {
	return pg.Config{
		Host:         c.PostgresReadHost,
		Port:         c.PostgresReadPort,
		User:         c.PostgresReadUser,
		Password:     c.PostgresReadPassword,
		Database:     c.PostgresReadDatabase,
		SSLMode:      c.PostgresSSLMode,
		MaxOpenConns: c.PostgresMaxOpenConns,
	}
}

func (c *Config) PostgresWrite() pg.Config {
	return pg.Config{
		Host:         c.PostgresWriteHost,
		Port:         c.PostgresWritePort,
		User:         c.PostgresWriteUser,
		Password:     c.PostgresWritePassword,
		Database:     c.PostgresWriteDatabase,
		SSLMode:      c.PostgresSSLMode,
		MaxOpenConns: c.PostgresMaxOpenConns,
	}
}

func (c *Config) Redis() redis.Config {
	return redis.Config{
		Addr:      c.RedisAddr,
		Password:  c.RedisPassword,
		DB:        c.RedisDatabase,
		KeyPrefix: c.RedisUniversalKeyPrefix,
	}
}

func (c *Config) HTTPServer() xhttp.ServerConfig {
	cfg := xhttp.DefaultServerConfig
	cfg.ReadTimeout = c.HttpReadTimeout
	cfg.WriteTimeout = c.HttpWriteTimeout
	cfg.RequestTimeout = c.HttpRequestTimeout
	if c.HttpMaxRequestBodySize > 0 {
		cfg.MaxRequestBodySize = c.HttpMaxRequestBodySize
	}
	return cfg
}
