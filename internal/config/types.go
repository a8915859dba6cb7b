package config

import "time"

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	SessionDuration time.Duration `mapstructure:"session_duration"`
	BcryptCost      int           `mapstructure:"bcrypt_cost"`
	CodeTTL         time.Duration `mapstructure:"code_ttl"`
}

type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
}
