package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sparklean/service-booking/internal/pkg/cache"
	"github.com/sparklean/service-booking/internal/pkg/database"
)

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret          string
	AccessDuration  time.Duration
	RefreshDuration time.Duration
}

// KafkaConfig holds broker and consumer group settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// GatewayConfig holds payment gateway credentials.
type GatewayConfig struct {
	SecretKey   string
	CallbackURL string
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port            string
	AppEnv          string
	AllowedOrigins  []string
	DBConfig        database.PostgresConfig
	RedisConfig     cache.Config
	JWTConfig       JWTConfig
	KafkaConfig     KafkaConfig
	GatewayConfig   GatewayConfig
	ServiceFeeRate  float64
	CatalogCacheTTL time.Duration
}

// Load reads configuration from the environment (optionally a .env file)
// and returns a ServiceConfig with defaults applied.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	// Missing .env is fine; the environment still applies.
	_ = v.ReadInConfig()

	v.SetDefault("SERVICE_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "sparklean-")
	v.SetDefault("SERVICE_FEE_RATE", 0.10)
	v.SetDefault("CATALOG_CACHE_TTL", "5m")

	port := v.GetString("SERVICE_PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	feeRate := v.GetFloat64("SERVICE_FEE_RATE")
	if feeRate <= 0 {
		feeRate = 0.10
	}

	return &ServiceConfig{
		Port:           port,
		AppEnv:         v.GetString("APP_ENV"),
		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		RedisConfig: cache.Config{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWTConfig: JWTConfig{
			Secret:          v.GetString("JWT_SECRET"),
			AccessDuration:  15 * time.Minute,
			RefreshDuration: 7 * 24 * time.Hour,
		},
		KafkaConfig: KafkaConfig{
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		GatewayConfig: GatewayConfig{
			SecretKey:   v.GetString("GATEWAY_SECRET_KEY"),
			CallbackURL: v.GetString("GATEWAY_CALLBACK_URL"),
		},
		ServiceFeeRate:  feeRate,
		CatalogCacheTTL: v.GetDuration("CATALOG_CACHE_TTL"),
	}, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
