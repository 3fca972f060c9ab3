package config

import (
	"time"

	pkgcfg "github.com/Skotchmaster/storefront/pkg/config"
	"github.com/Skotchmaster/storefront/pkg/db"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DB db.Options

	Auth AuthConfig
	Cart CartConfig

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ProductTTL    time.Duration

	RabbitURL  string
	OrderQueue string

	RateLimit RateLimitConfig
}

type AuthConfig struct {
	MaxFailedAttempts int
	LockDuration      time.Duration
	ResetTokenTTL     time.Duration
	MinPasswordLength int
	BcryptCost        int
	JWTSecret         []byte
	AccessTTL         time.Duration
}

type CartConfig struct {
	MaxItems int
}

type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	pkgcfg.LoadDotEnv()

	cfg := &Config{
		ServiceName: pkgcfg.EnvDefault("SERVICE_NAME", "storefront"),
		ServerPort:  pkgcfg.EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    pkgcfg.EnvDefault("LOG_LEVEL", "info"),

		DB: db.Options{
			Driver:       pkgcfg.EnvDefault("DB_DRIVER", db.DriverPostgres),
			DSN:          pkgcfg.EnvDefault("DATABASE_URL", ""),
			MaxOpenConns: pkgcfg.EnvIntDefault("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns: pkgcfg.EnvIntDefault("DB_MAX_IDLE_CONNS", 10),
			LogSQL:       pkgcfg.EnvBoolDefault("DB_LOG_SQL", false),
		},

		Auth: AuthConfig{
			MaxFailedAttempts: pkgcfg.EnvIntDefault("AUTH_MAX_FAILED_ATTEMPTS", 5),
			LockDuration:      pkgcfg.EnvDurationDefault("AUTH_LOCK_DURATION", 5*time.Minute),
			ResetTokenTTL:     pkgcfg.EnvDurationDefault("AUTH_RESET_TOKEN_TTL", 24*time.Hour),
			MinPasswordLength: pkgcfg.EnvIntDefault("AUTH_MIN_PASSWORD_LENGTH", 8),
			BcryptCost:        pkgcfg.EnvIntDefault("BCRYPT_COST", 10),
			JWTSecret:         []byte(pkgcfg.EnvDefault("JWT_SECRET", "")),
			AccessTTL:         pkgcfg.EnvDurationDefault("JWT_ACCESS_TTL", 15*time.Minute),
		},

		Cart: CartConfig{
			MaxItems: pkgcfg.EnvIntDefault("CART_MAX_ITEMS", 20),
		},

		KafkaBrokers: pkgcfg.CSV(pkgcfg.EnvDefault("KAFKA_BROKERS", "")),

		ESURL:      pkgcfg.EnvDefault("ES_URL", ""),
		ESUser:     pkgcfg.EnvDefault("ES_USER", ""),
		ESPassword: pkgcfg.EnvDefault("ES_PASSWORD", ""),
		ESIndex:    pkgcfg.EnvDefault("ES_INDEX", "products"),

		RedisAddr:     pkgcfg.EnvDefault("REDIS_ADDR", ""),
		RedisPassword: pkgcfg.EnvDefault("REDIS_PASSWORD", ""),
		RedisDB:       pkgcfg.EnvIntDefault("REDIS_DB", 0),
		ProductTTL:    pkgcfg.EnvDurationDefault("CACHE_PRODUCT_TTL", 5*time.Minute),

		RabbitURL:  pkgcfg.EnvDefault("RABBITMQ_URL", ""),
		OrderQueue: pkgcfg.EnvDefault("RABBITMQ_ORDER_QUEUE", "order.placed"),

		RateLimit: RateLimitConfig{
			Enabled:        pkgcfg.EnvBoolDefault("RATE_LIMIT_ENABLED", true),
			Capacity:       pkgcfg.EnvIntDefault("RATE_LIMIT_CAPACITY", 10),
			RefillInterval: pkgcfg.EnvDurationDefault("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
			TTL:            pkgcfg.EnvDurationDefault("RATE_LIMIT_TTL", 10*time.Minute),
			Prefix:         pkgcfg.EnvDefault("RATE_LIMIT_PREFIX", "rl:login"),
		},
	}

	return cfg
}

// MustValidate stops the process when required settings are missing.
func (c *Config) MustValidate() {
	pkgcfg.MustNonEmpty(c.DB.DSN, "DATABASE_URL")
	pkgcfg.MustNonEmpty(string(c.Auth.JWTSecret), "JWT_SECRET")
}
