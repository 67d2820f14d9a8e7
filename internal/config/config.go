package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cetler74/dbcars-sub000/internal/platform/database"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// KafkaConfig holds broker settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
	Enabled     bool
}

// RedisConfig holds the advisory lock backend settings. An empty Addr
// disables Redis locking.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// BookingConfig tunes the allocator.
type BookingConfig struct {
	StoreTimeout time.Duration
	LockTTL      time.Duration
	LockWait     time.Duration
}

// ServiceConfig holds all configuration for the booking engine.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	DBConfig       database.PostgresConfig
	KafkaConfig    KafkaConfig
	RedisConfig    RedisConfig
	BookingConfig  BookingConfig
	AdminAPIKey    string
	AllowedOrigins []string
	MigrationsDir  string
}

// Load reads configuration from the environment, after loading an optional
// .env file from the working directory.
func Load() (*ServiceConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	port := v.GetString("SERVICE_PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	cfg := &ServiceConfig{
		Port:   port,
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: database.PostgresConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetString("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
			Enabled:     v.GetBool("KAFKA_ENABLED"),
		},
		RedisConfig: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		BookingConfig: BookingConfig{
			StoreTimeout: v.GetDuration("BOOKING_STORE_TIMEOUT"),
			LockTTL:      v.GetDuration("BOOKING_LOCK_TTL"),
			LockWait:     v.GetDuration("BOOKING_LOCK_WAIT"),
		},
		AdminAPIKey:    v.GetString("ADMIN_API_KEY"),
		AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		MigrationsDir:  v.GetString("MIGRATIONS_DIR"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "booking_db")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "dbcars-")
	v.SetDefault("KAFKA_ENABLED", true)

	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("BOOKING_STORE_TIMEOUT", "5s")
	v.SetDefault("BOOKING_LOCK_TTL", "10s")
	v.SetDefault("BOOKING_LOCK_WAIT", "2s")

	v.SetDefault("MIGRATIONS_DIR", "migrations")
}

func (c *ServiceConfig) validate() error {
	if c.BookingConfig.StoreTimeout <= 0 {
		return fmt.Errorf("BOOKING_STORE_TIMEOUT must be positive")
	}
	if c.BookingConfig.LockTTL <= 0 || c.BookingConfig.LockWait < 0 {
		return fmt.Errorf("BOOKING_LOCK_TTL must be positive and BOOKING_LOCK_WAIT non-negative")
	}
	if c.KafkaConfig.Enabled && len(c.KafkaConfig.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
