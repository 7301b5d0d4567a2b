package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort        string        `mapstructure:"HTTP_PORT"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	PersistBackend string        `mapstructure:"PERSIST_BACKEND"` // redis or mongo
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	SnapshotTTL    time.Duration `mapstructure:"SNAPSHOT_TTL"`
	MongoURI       string        `mapstructure:"MONGO_URI"`
	MongoDBName    string        `mapstructure:"MONGO_DB_NAME"`

	CatalogBaseURL string        `mapstructure:"CATALOG_BASE_URL"`
	CatalogTimeout time.Duration `mapstructure:"CATALOG_TIMEOUT"`
	SiteID         string        `mapstructure:"SITE_ID"`
	BusinessType   string        `mapstructure:"BUSINESS_TYPE"`

	KafkaEnabled bool   `mapstructure:"KAFKA_ENABLED"`
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"` // comma separated
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

// Brokers splits the comma-separated broker list.
func (c *Config) Brokers() []string {
	return strings.Split(c.KafkaBrokers, ",")
}

// Load reads app.env if present, then the environment. Environment values win.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", 30*time.Second)
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("PERSIST_BACKEND", "redis")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("SNAPSHOT_TTL", 90*24*time.Hour)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB_NAME", "cartdb")
	v.SetDefault("CATALOG_BASE_URL", "http://localhost:8081")
	v.SetDefault("CATALOG_TIMEOUT", 5*time.Second)
	v.SetDefault("SITE_ID", "default")
	v.SetDefault("BUSINESS_TYPE", "office")
	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "catalog-updates")
	v.SetDefault("KAFKA_GROUP_ID", "cart-service-consumer")

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
