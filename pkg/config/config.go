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
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Cart          CartConfig
	Checkout      CheckoutConfig
	Cron          CronConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
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
	Env          string `envconfig:"KICKFINDERZ_APP_ENV" required:"true"`
	Port         string `envconfig:"KICKFINDERZ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KICKFINDERZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KICKFINDERZ_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"KICKFINDERZ_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	out := []string{}
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

type ServiceConfig struct {
	Kind string `envconfig:"KICKFINDERZ_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"KICKFINDERZ_DB_DSN"`
	Driver string `envconfig:"KICKFINDERZ_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"KICKFINDERZ_DB_HOST"`
	Port     int    `envconfig:"KICKFINDERZ_DB_PORT" default:"5432"`
	User     string `envconfig:"KICKFINDERZ_DB_USER"`
	Password string `envconfig:"KICKFINDERZ_DB_PASSWORD"`
	Name     string `envconfig:"KICKFINDERZ_DB_NAME"`
	SSLMode  string `envconfig:"KICKFINDERZ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KICKFINDERZ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KICKFINDERZ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KICKFINDERZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KICKFINDERZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KICKFINDERZ_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KICKFINDERZ_REDIS_ADDR"`
	Password     string        `envconfig:"KICKFINDERZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"KICKFINDERZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KICKFINDERZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KICKFINDERZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KICKFINDERZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KICKFINDERZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KICKFINDERZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KICKFINDERZ_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KICKFINDERZ_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KICKFINDERZ_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"KICKFINDERZ_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the Redis session lifetime configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KICKFINDERZ_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KICKFINDERZ_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KICKFINDERZ_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KICKFINDERZ_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KICKFINDERZ_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"KICKFINDERZ_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"KICKFINDERZ_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"KICKFINDERZ_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"KICKFINDERZ_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"KICKFINDERZ_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"KICKFINDERZ_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"KICKFINDERZ_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"KICKFINDERZ_AUTO_MIGRATE" default:"false"`
	// Processor selects the order processor: "pubsub" or "noop".
	Processor string `envconfig:"KICKFINDERZ_ORDER_PROCESSOR" default:"noop"`
}

type CartConfig struct {
	CacheTTL time.Duration `envconfig:"KICKFINDERZ_CART_CACHE_TTL" default:"720h"`
	// SyncTimeout bounds a single background replace-all against the remote table.
	SyncTimeout time.Duration `envconfig:"KICKFINDERZ_CART_SYNC_TIMEOUT" default:"10s"`
	// IdleTTL is how long an untouched store stays in memory before it is flushed and dropped.
	IdleTTL       time.Duration `envconfig:"KICKFINDERZ_CART_IDLE_TTL" default:"30m"`
	EvictInterval time.Duration `envconfig:"KICKFINDERZ_CART_EVICT_INTERVAL" default:"5m"`
}

type CheckoutConfig struct {
	ProcessorTimeout time.Duration `envconfig:"KICKFINDERZ_CHECKOUT_PROCESSOR_TIMEOUT" default:"5s"`
}

type CronConfig struct {
	Interval      time.Duration `envconfig:"KICKFINDERZ_CRON_INTERVAL" default:"15m"`
	LockTTL       time.Duration `envconfig:"KICKFINDERZ_CRON_LOCK_TTL" default:"10m"`
	OrphanMaxAge  time.Duration `envconfig:"KICKFINDERZ_ORPHAN_ORDER_MAX_AGE" default:"1h"`
	MetricsListen string        `envconfig:"KICKFINDERZ_CRON_METRICS_ADDR" default:":9090"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"KICKFINDERZ_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"KICKFINDERZ_PUBSUB_ORDERS_TOPIC" default:"kf-orders"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dsnPartEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
