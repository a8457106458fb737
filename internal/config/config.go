package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort string        `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	BotDelay time.Duration `yaml:"bot-delay" env:"BOT_DELAY" env-default:"500ms"`
	Redis    Redis         `yaml:"redis"`
}

type Redis struct {
	Enabled        bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host           string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port           string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Channel        string        `yaml:"channel" env:"REDIS_CHANNEL" env-default:"tictactoe:events"`
	PublishTimeout time.Duration `yaml:"publish-timeout" env:"REDIS_PUBLISH_TIMEOUT" env-default:"2s"`
}

// Load - load all configurations in config.yml file, then apply environment overrides.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
