package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Razorpay      RazorpayConfig
	Subscription  SubscriptionConfig
	CORS          CORSConfig
	Download      DownloadConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if !cfg.Subscription.Price.IsPositive() {
		return nil, fmt.Errorf("%s must be positive", EnvSubscriptionPrice)
	}
	if err := cfg.Download.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Name         string `envconfig:"APP_NAME" default:"Jarvis4Everyone Backend"`
	Env          string `envconfig:"APP_ENV" default:"dev"`
	Port         string `envconfig:"PORT" default:"5000"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN string `envconfig:"DATABASE_URL"`

	LegacyHost     string `envconfig:"DB_HOST"`
	LegacyPort     int    `envconfig:"DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DB_USER"`
	LegacyPassword string `envconfig:"DB_PASSWORD"`
	LegacyName     string `envconfig:"DB_NAME"`
	LegacySSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional; an empty URL and address disables the Redis-backed features.
type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL"`
	Address      string        `envconfig:"REDIS_ADDR"`
	Password     string        `envconfig:"REDIS_PASSWORD"`
	DB           int           `envconfig:"REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret                 string `envconfig:"JWT_SECRET_KEY" required:"true"`
	Issuer                 string `envconfig:"JWT_ISSUER" default:"jarvis4everyone"`
	ExpirationMinutes      int    `envconfig:"ACCESS_TOKEN_EXPIRE_MINUTES" default:"15"`
	RefreshTokenExpireDays int    `envconfig:"REFRESH_TOKEN_EXPIRE_DAYS" default:"7"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime configured in days.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenExpireDays <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenExpireDays) * 24 * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// RazorpayConfig holds gateway credentials. Every field is optional so the API can boot
// without them; order creation then fails with a gateway-unconfigured error.
type RazorpayConfig struct {
	KeyID         string        `envconfig:"RAZORPAY_KEY_ID"`
	KeySecret     string        `envconfig:"RAZORPAY_KEY_SECRET"`
	WebhookSecret string        `envconfig:"RAZORPAY_WEBHOOK_SECRET"`
	APIURL        string        `envconfig:"RAZORPAY_API_URL" default:"https://api.razorpay.com/v1"`
	Timeout       time.Duration `envconfig:"RAZORPAY_TIMEOUT" default:"10s"`
	WebhookDedupe time.Duration `envconfig:"RAZORPAY_WEBHOOK_DEDUPE_TTL" default:"72h"`
	OrderNote     string        `envconfig:"RAZORPAY_ORDER_NOTE" default:"Monthly Subscription - Jarvis4Everyone"`
}

// Configured reports whether both API credentials are present.
func (r RazorpayConfig) Configured() bool {
	return strings.TrimSpace(r.KeyID) != "" && strings.TrimSpace(r.KeySecret) != ""
}

type SubscriptionConfig struct {
	Price    decimal.Decimal `envconfig:"SUBSCRIPTION_PRICE" default:"299.0"`
	Currency string          `envconfig:"SUBSCRIPTION_CURRENCY" default:"INR"`
	PlanID   string          `envconfig:"SUBSCRIPTION_PLAN_ID" default:"monthly"`
}

type CORSConfig struct {
	Origins string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// AllowedOrigins splits the configured comma-separated origin list.
func (c CORSConfig) AllowedOrigins() []string {
	var origins []string
	for _, part := range strings.Split(c.Origins, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

type DownloadConfig struct {
	Source   string `envconfig:"DOWNLOAD_SOURCE" default:"local"`
	FilePath string `envconfig:"DOWNLOAD_FILE_PATH" default:"./.downloads/jarvis4everyone.zip"`
	FileName string `envconfig:"DOWNLOAD_FILE_NAME" default:"jarvis4everyone.zip"`

	MinioEndpoint  string `envconfig:"MINIO_ENDPOINT"`
	MinioAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"true"`
	MinioBucket    string `envconfig:"MINIO_BUCKET"`
	MinioObject    string `envconfig:"MINIO_OBJECT" default:"jarvis4everyone.zip"`
}

func (d DownloadConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(d.Source)) {
	case DownloadSourceLocal, "":
		return nil
	case DownloadSourceMinio:
		if d.MinioEndpoint == "" || d.MinioBucket == "" {
			return fmt.Errorf("%s and %s are required when %s=minio", EnvMinioEndpoint, EnvMinioBucket, EnvDownloadSource)
		}
		return nil
	default:
		return fmt.Errorf("unsupported %s %q", EnvDownloadSource, d.Source)
	}
}

type CronConfig struct {
	Interval    time.Duration `envconfig:"CRON_INTERVAL" default:"1h"`
	ExpiryBatch int           `envconfig:"CRON_EXPIRY_BATCH" default:"500"`
}

type FeatureFlagsConfig struct {
	AutoMigrate    bool `envconfig:"AUTO_MIGRATE" default:"false"`
	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"true"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
