package utils

import (
	"github.com/spf13/viper"
)

// Config holds all runtime settings, read from the environment
type Config struct {
	Environment        string  `mapstructure:"ENVIRONMENT"`
	Port               string  `mapstructure:"PORT"`
	MongoURI           string  `mapstructure:"MONGO_URI"`
	MongoDatabase      string  `mapstructure:"MONGO_DB"`
	RedisAddr          string  `mapstructure:"REDIS_ADDR"`
	RedisPassword      string  `mapstructure:"REDIS_PASSWORD"`
	AccessTokenSecret  string  `mapstructure:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret string  `mapstructure:"REFRESH_TOKEN_SECRET"`
	StripeSecretKey    string  `mapstructure:"STRIPE_SECRET_KEY"`
	CloudinaryURL      string  `mapstructure:"CLOUDINARY_URL"`
	ClientURL          string  `mapstructure:"CLIENT_URL"`
	PostmarkAPIToken   string  `mapstructure:"POSTMARK_API_TOKEN"`
	EmailSender        string  `mapstructure:"EMAIL_SENDER"`
	RewardThreshold    float64 `mapstructure:"REWARD_THRESHOLD"`
}

// LoadConfig reads configuration from the environment. Every key has a
// default so viper picks up env overrides without explicit binds.
func LoadConfig() (*Config, error) {
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("PORT", "8000")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DB", "storefront")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("ACCESS_TOKEN_SECRET", "")
	viper.SetDefault("REFRESH_TOKEN_SECRET", "")
	viper.SetDefault("STRIPE_SECRET_KEY", "")
	viper.SetDefault("CLOUDINARY_URL", "")
	viper.SetDefault("CLIENT_URL", "http://localhost:5173")
	viper.SetDefault("POSTMARK_API_TOKEN", "")
	viper.SetDefault("EMAIL_SENDER", "")
	viper.SetDefault("REWARD_THRESHOLD", 20000.0)

	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
