package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	GinMode  string `mapstructure:"GIN_MODE"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	StoreDriver   string `mapstructure:"STORE_DRIVER"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	// Redis is optional; without it there is no inbox and no suspension cache.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	// Notification channels, each one enabled when set.
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	NatsURL          string `mapstructure:"NATS_URL"`
	InboxSize        int64  `mapstructure:"INBOX_SIZE"`

	// Paging
	MessagePageSize      int `mapstructure:"MESSAGE_PAGE_SIZE"`
	ConversationPageSize int `mapstructure:"CONVERSATION_PAGE_SIZE"`
	ReportPageSize       int `mapstructure:"REPORT_PAGE_SIZE"`
	UnreadConcurrency    int `mapstructure:"UNREAD_CONCURRENCY"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_URL", "host=localhost user=user password=password dbname=bazaardb port=5432 sslmode=disable")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "bazaar")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("NATS_URL", "")
	v.SetDefault("INBOX_SIZE", 100)
	v.SetDefault("MESSAGE_PAGE_SIZE", 100)
	v.SetDefault("CONVERSATION_PAGE_SIZE", 50)
	v.SetDefault("REPORT_PAGE_SIZE", 50)
	v.SetDefault("UNREAD_CONCURRENCY", 8)
}

// Load reads .env (if any) and the process environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: no .env file, relying on environment variables")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return &cfg, nil
}
