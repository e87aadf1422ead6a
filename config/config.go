package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	ServerPort int `envconfig:"SERVER_PORT" default:"8080"`

	Database  DatabaseConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Minio     MinioConfig
	GCS       GCSConfig
	MQ        MQConfig
	RabbitMQ  RabbitMQConfig
	PubSub    PubSubConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"senpai"`
	Password string `envconfig:"DB_PASSWORD" default:"password"`
	DBName   string `envconfig:"DB_NAME" default:"senpaisearch_db"`
	UseSSL   bool   `envconfig:"DB_USE_SSL" default:"false"`
}

// AuthConfig holds token signing and password settings.
type AuthConfig struct {
	// Secret is the HMAC signing key for access tokens. The server
	// refuses to start without it.
	Secret string `envconfig:"JWT_SECRET"`

	// Algorithm is the JWT signing algorithm identifier.
	Algorithm string `envconfig:"JWT_ALGORITHM" default:"HS256"`

	// AccessTokenExpireMinutes is the lifetime of issued tokens.
	AccessTokenExpireMinutes int `envconfig:"ACCESS_TOKEN_EXPIRE_MINUTES" default:"30"`
}

// TokenTTL returns the access token lifetime as a duration.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.AccessTokenExpireMinutes) * time.Minute
}

// RateLimitConfig holds fixed-window rate limiter settings.
type RateLimitConfig struct {
	// Limit is the number of requests allowed per window.
	Limit int `envconfig:"RATE_LIMIT" default:"5"`

	// Period is the length of the counting window.
	Period time.Duration `envconfig:"RATE_PERIOD" default:"60s"`

	// Backend selects the counter store: "memory" or "redis".
	Backend string `envconfig:"RATE_LIMIT_BACKEND" default:"memory"`
}

// RedisConfig holds Redis connection settings for the rate limiter.
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Address returns the Redis address in host:port format.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// StorageConfig selects the object storage backend for portraits.
type StorageConfig struct {
	// Backend is "minio" or "gcs". Empty disables portrait storage.
	Backend string `envconfig:"STORAGE_BACKEND" default:""`
}

// MinioConfig holds MinIO connection settings.
type MinioConfig struct {
	Endpoint  string `envconfig:"MINIO_ENDPOINT" default:""`
	AccessKey string `envconfig:"MINIO_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"MINIO_SECRET_KEY" default:""`
	Bucket    string `envconfig:"MINIO_BUCKET" default:"senpai-portraits"`
	UseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

// GCSConfig holds Google Cloud Storage settings.
type GCSConfig struct {
	Bucket          string `envconfig:"GCS_BUCKET" default:""`
	ProjectID       string `envconfig:"GCS_PROJECT_ID" default:""`
	CredentialsFile string `envconfig:"GCS_CREDENTIALS_FILE" default:""`
}

// MQConfig selects the message broker for character change events.
type MQConfig struct {
	// Backend is "rabbitmq" or "pubsub". Empty disables publishing.
	Backend string `envconfig:"MQ_BACKEND" default:""`

	// EventsChannel is the queue/topic character events are published to.
	EventsChannel string `envconfig:"EVENTS_CHANNEL" default:"character-events"`
}

// RabbitMQConfig holds RabbitMQ connection settings.
type RabbitMQConfig struct {
	URL             string `envconfig:"RABBITMQ_URL" default:""`
	QueueDurable    bool   `envconfig:"RABBITMQ_QUEUE_DURABLE" default:"true"`
	QueueAutoDelete bool   `envconfig:"RABBITMQ_QUEUE_AUTO_DELETE" default:"false"`
	PrefetchCount   int    `envconfig:"RABBITMQ_PREFETCH_COUNT" default:"0"`
}

// PubSubConfig holds Google Cloud Pub/Sub settings.
type PubSubConfig struct {
	ProjectID          string `envconfig:"PUBSUB_PROJECT_ID" default:""`
	CredentialsFile    string `envconfig:"PUBSUB_CREDENTIALS_FILE" default:""`
	SubscriptionSuffix string `envconfig:"PUBSUB_SUBSCRIPTION_SUFFIX" default:"-sub"`
}

// PostgresURL returns the database connection string.
func (d DatabaseConfig) PostgresURL() string {
	sslmode := "disable"
	if d.UseSSL {
		sslmode = "require"
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		User:   url.UserPassword(d.User, d.Password),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()
	return u.String()
}

// LoadConfig reads configuration from environment variables. A .env file
// is loaded first when running with ENV=dev.
func LoadConfig() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
