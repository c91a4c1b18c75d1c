package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Storage       StorageConfig
	Media         MediaConfig
	Search        SearchConfig
	CORS          CORSConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Search.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPDECK_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPDECK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPDECK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPDECK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPDECK_DB_DSN"`
	Driver string `envconfig:"SHOPDECK_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"SHOPDECK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPDECK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPDECK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPDECK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) validate() error {
	if db.DSN == "" {
		return fmt.Errorf("%s is required", EnvDBDSN)
	}
	switch db.Driver {
	case DBDriverPostgres, DBDriverSQLite:
		return nil
	default:
		return fmt.Errorf("unsupported db driver %q", db.Driver)
	}
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPDECK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOPDECK_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPDECK_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPDECK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPDECK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPDECK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPDECK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPDECK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPDECK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SHOPDECK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SHOPDECK_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SHOPDECK_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SHOPDECK_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHOPDECK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHOPDECK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHOPDECK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHOPDECK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHOPDECK_ARGON_KEY_LEN" default:"32"`
}

type StorageConfig struct {
	BaseDir string `envconfig:"SHOPDECK_STORAGE_BASE_DIR" default:"./data/media"`
}

type MediaConfig struct {
	MaxUploadBytes int64 `envconfig:"SHOPDECK_MEDIA_MAX_UPLOAD_BYTES" default:"3145728"`
	MaxPerProduct  int   `envconfig:"SHOPDECK_MEDIA_MAX_PER_PRODUCT" default:"3"`
}

type SearchConfig struct {
	Strategy string `envconfig:"SHOPDECK_SEARCH_STRATEGY" default:"substring"`
}

func (s SearchConfig) validate() error {
	switch s.Strategy {
	case SearchStrategySubstring, SearchStrategyRegex:
		return nil
	default:
		return fmt.Errorf("unsupported search strategy %q", s.Strategy)
	}
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SHOPDECK_AUTH_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit       int           `envconfig:"SHOPDECK_AUTH_LOGIN_IP_LIMIT" default:"10"`
	LoginEmailLimit    int           `envconfig:"SHOPDECK_AUTH_LOGIN_EMAIL_LIMIT" default:"5"`
	RegisterWindow     time.Duration `envconfig:"SHOPDECK_AUTH_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit    int           `envconfig:"SHOPDECK_AUTH_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"SHOPDECK_AUTH_REGISTER_EMAIL_LIMIT" default:"3"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SHOPDECK_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPDECK_AUTO_MIGRATE" default:"false"`
}
