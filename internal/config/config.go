package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort    string `mapstructure:"SERVER_PORT"`
	PostgresURL   string `mapstructure:"POSTGRES_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	JWTSecret     string `mapstructure:"JWT_SECRET"`
	NATSURL       string `mapstructure:"NATS_URL"`
	MetricsAddr   string `mapstructure:"METRICS_ADDR"`
}

func Load() Config {
	// .env is optional; environment wins either way
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetDefault("SERVER_PORT", ":8080")
	viper.SetDefault("POSTGRES_URL", "")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("JWT_SECRET", "dev-secret-change-me")
	viper.SetDefault("NATS_URL", "")
	viper.SetDefault("METRICS_ADDR", "")

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
