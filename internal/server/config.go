package server

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/meridianlabs/accounthub/internal/config"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

func LoadConfig() (*config.AppConfig, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = EnvDevelopment
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath("./config/server")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config config.AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Environment-specific server overrides, e.g. [server.production]
	if envSettings := v.GetStringMap(fmt.Sprintf("server.%s", env)); len(envSettings) > 0 {
		if err := v.UnmarshalKey(fmt.Sprintf("server.%s", env), &config.Server); err != nil {
			return nil, fmt.Errorf("error unmarshaling env config: %w", err)
		}
	}

	// Secrets always win over file values.
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.Database.Password = password
	}

	return &config, nil
}
