package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Uploads      UploadsConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"DARNA_APP_ENV" required:"true"`
	Port         string `envconfig:"DARNA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DARNA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DARNA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DARNA_DB_DSN"`
	Driver string `envconfig:"DARNA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DARNA_DB_HOST"`
	LegacyPort     int    `envconfig:"DARNA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DARNA_DB_USER"`
	LegacyPassword string `envconfig:"DARNA_DB_PASSWORD"`
	LegacyName     string `envconfig:"DARNA_DB_NAME"`
	LegacySSLMode  string `envconfig:"DARNA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DARNA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DARNA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DARNA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DARNA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DARNA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DARNA_REDIS_ADDR"`
	Password     string        `envconfig:"DARNA_REDIS_PASSWORD"`
	DB           int           `envconfig:"DARNA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DARNA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DARNA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DARNA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DARNA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DARNA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes the verification parameters for tokens minted by the
// external identity provider. This service never issues tokens.
type JWTConfig struct {
	Secret string `envconfig:"DARNA_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"DARNA_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DARNA_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"DARNA_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"DARNA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"DARNA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"DARNA_GCS_BUCKET_NAME"`
}

type UploadsConfig struct {
	MaxUploadMB   int           `envconfig:"DARNA_MAX_UPLOAD_MB" default:"10"`
	AttachTimeout time.Duration `envconfig:"DARNA_UPLOAD_ATTACH_TIMEOUT" default:"2m"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"DARNA_PUBSUB_DOMAIN_TOPIC" default:"darna-domain-events"`
	DomainSubscription string `envconfig:"DARNA_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"DARNA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"DARNA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"DARNA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, "sqlite") {
		return fmt.Errorf("%s is required when the sqlite driver is selected", EnvDBDSN)
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
