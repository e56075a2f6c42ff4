package config

import (
	"fmt"
	"net/url"
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
	Checkout      CheckoutConfig
	Gateway       GatewayConfig
	Assistant     AssistantConfig
	AuthRateLimit AuthRateLimitConfig
	Features      FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"GEARVAULT_APP_ENV" required:"true"`
	Port         string   `envconfig:"GEARVAULT_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"GEARVAULT_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"GEARVAULT_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"GEARVAULT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GEARVAULT_DB_DSN"`
	Driver string `envconfig:"GEARVAULT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GEARVAULT_DB_HOST"`
	LegacyPort     int    `envconfig:"GEARVAULT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GEARVAULT_DB_USER"`
	LegacyPassword string `envconfig:"GEARVAULT_DB_PASSWORD"`
	LegacyName     string `envconfig:"GEARVAULT_DB_NAME"`
	LegacySSLMode  string `envconfig:"GEARVAULT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GEARVAULT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GEARVAULT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GEARVAULT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GEARVAULT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GEARVAULT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GEARVAULT_REDIS_ADDR"`
	Password     string        `envconfig:"GEARVAULT_REDIS_PASSWORD"`
	DB           int           `envconfig:"GEARVAULT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GEARVAULT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GEARVAULT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GEARVAULT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GEARVAULT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GEARVAULT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GEARVAULT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GEARVAULT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GEARVAULT_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GEARVAULT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GEARVAULT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GEARVAULT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GEARVAULT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GEARVAULT_ARGON_KEY_LEN" default:"32"`
}

type CheckoutConfig struct {
	LowStockThreshold int `envconfig:"GEARVAULT_LOW_STOCK_THRESHOLD" default:"5"`
}

type GatewayConfig struct {
	BaseURL   string `envconfig:"GEARVAULT_GATEWAY_BASE_URL" default:"https://api.razorpay.com/v1"`
	KeyID     string `envconfig:"GEARVAULT_GATEWAY_KEY_ID"`
	KeySecret string `envconfig:"GEARVAULT_GATEWAY_KEY_SECRET"`
	Currency  string `envconfig:"GEARVAULT_GATEWAY_CURRENCY" default:"USD"`
}

type AssistantConfig struct {
	Engine  string `envconfig:"GEARVAULT_ASSISTANT_ENGINE" default:"rules"`
	APIKey  string `envconfig:"GEARVAULT_ASSISTANT_API_KEY"`
	BaseURL string `envconfig:"GEARVAULT_ASSISTANT_BASE_URL" default:"https://api.openai.com/v1"`
	Model   string `envconfig:"GEARVAULT_ASSISTANT_MODEL" default:"gpt-4o-mini"`
}

// UseModel reports whether the hosted model engine should drive replies.
func (a AssistantConfig) UseModel() bool {
	return strings.EqualFold(a.Engine, AssistantEngineModel) && strings.TrimSpace(a.APIKey) != ""
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"GEARVAULT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"GEARVAULT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"GEARVAULT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"GEARVAULT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"GEARVAULT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"GEARVAULT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GEARVAULT_AUTO_MIGRATE" default:"false"`
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
