package config

import (
	"time"

	"github.com/spf13/viper"
)

// Everything comes from environment variables; defaults target a local
// docker-compose setup with LocalStack.

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	IsLocalDev bool   `mapstructure:"IS_LOCAL_DEV"`

	StoreDriver string `mapstructure:"STORE_DRIVER"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`

	SeedMonth  string        `mapstructure:"SEED_MONTH"`
	Seed       uint64        `mapstructure:"SEED"`
	APILatency time.Duration `mapstructure:"API_LATENCY"`
	TimerTick  time.Duration `mapstructure:"TIMER_TICK"`

	AWSRegion           string `mapstructure:"AWS_REGION"`
	AWSEndpoint         string `mapstructure:"AWS_ENDPOINT"`
	BreakEventsQueueURL string `mapstructure:"BREAK_EVENTS_QUEUE_URL"`
	SummaryEmailSender  string `mapstructure:"SUMMARY_EMAIL_SENDER"`
	EmailDomain         string `mapstructure:"EMAIL_DOMAIN"`

	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	v := viper.New()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("IS_LOCAL_DEV", false)
	v.SetDefault("STORE_DRIVER", StoreMemory)
	v.SetDefault("DB_HOST", "db")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "tracking_db")
	v.SetDefault("SEED_MONTH", "2025-08")
	v.SetDefault("SEED", 0) // 0 picks a random seed at startup
	v.SetDefault("API_LATENCY", 500*time.Millisecond)
	v.SetDefault("TIMER_TICK", time.Second)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	v.SetDefault("BREAK_EVENTS_QUEUE_URL", "")
	v.SetDefault("SUMMARY_EMAIL_SENDER", "breaks@tracking-service.com")
	v.SetDefault("EMAIL_DOMAIN", "nexvora.com")
	v.SetDefault("OTLP_ENDPOINT", "")

	// Read in environment variables that match the keys.
	v.AutomaticEnv()

	err = v.Unmarshal(&config)
	return
}
