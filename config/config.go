package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration (progress pub/sub).
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisProgressDB int    `mapstructure:"REDIS_PROGRESS_DB"`

	// Remote scheduling service.
	SchedulingAPIURL string `mapstructure:"SCHEDULING_API_URL"`
	SchedulingAPIKey string `mapstructure:"SCHEDULING_API_KEY"`

	// Remote identity service.
	IdentityAPIURL string `mapstructure:"IDENTITY_API_URL"`
	IdentityAPIKey string `mapstructure:"IDENTITY_API_KEY"`

	// Payment gateway (instant transfer) and Stripe (card).
	PaymentGatewayURL string `mapstructure:"PAYMENT_GATEWAY_URL"`
	PaymentGatewayKey string `mapstructure:"PAYMENT_GATEWAY_KEY"`
	StripeKey         string `mapstructure:"STRIPE_KEY"`
	Currency          string `mapstructure:"CURRENCY"`

	// Saga tuning.
	IdentitySettleDelayMS int `mapstructure:"IDENTITY_SETTLE_DELAY_MS"`
	SessionTTLMin         int `mapstructure:"SESSION_TTL_MIN"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_PROGRESS_DB", 0)
	viper.SetDefault("SCHEDULING_API_URL", "http://localhost:9001")
	viper.SetDefault("IDENTITY_API_URL", "http://localhost:9002")
	viper.SetDefault("PAYMENT_GATEWAY_URL", "http://localhost:9003")
	viper.SetDefault("CURRENCY", "brl")
	viper.SetDefault("IDENTITY_SETTLE_DELAY_MS", 1500)
	viper.SetDefault("SESSION_TTL_MIN", 30)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// IdentitySettleDelay is the pause between guest account creation and hold
// confirmation, giving the identity service time to propagate the link.
func IdentitySettleDelay() time.Duration {
	return time.Duration(AppConfig.IdentitySettleDelayMS) * time.Millisecond
}

// SessionTTL is how long an idle booking session is kept in memory.
func SessionTTL() time.Duration {
	return time.Duration(AppConfig.SessionTTLMin) * time.Minute
}
