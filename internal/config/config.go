package config

import (
	"fmt"
	"path/filepath"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Sleep    SleepConfig    `mapstructure:"sleep"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port" validate:"gt=0,lte=65535"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string            `mapstructure:"host" validate:"required"`
	Port            int               `mapstructure:"port" validate:"gt=0,lte=65535"`
	Database        string            `mapstructure:"database" validate:"required"`
	Username        string            `mapstructure:"username" validate:"required"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

type SleepConfig struct {
	ActiveSource    string              `mapstructure:"active_source" validate:"omitempty,oneof=fitbit whoop"`
	RedirectBaseURL string              `mapstructure:"redirect_base_url"`
	TokenFile       string              `mapstructure:"token_file"`
	Fitbit          SleepProviderConfig `mapstructure:"fitbit"`
	Whoop           SleepProviderConfig `mapstructure:"whoop"`
}

type SleepProviderConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/doselog")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "doselog")
	v.SetDefault("database.username", "user")
	v.SetDefault("sleep.redirect_base_url", "http://localhost:8080")
	v.SetDefault("sleep.token_file", filepath.Join("$HOME", ".config", "doselog", "sleep_tokens.yml"))

	// Bind provider credentials and the database password to environment
	// variables only, never to the config file.
	if err := v.BindEnv("sleep.fitbit.client_id", "FITBIT_CLIENT_ID"); err != nil {
		return nil, fmt.Errorf("failed to bind FITBIT_CLIENT_ID environment variable: %w", err)
	}
	if err := v.BindEnv("sleep.fitbit.client_secret", "FITBIT_CLIENT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind FITBIT_CLIENT_SECRET environment variable: %w", err)
	}
	if err := v.BindEnv("sleep.whoop.client_id", "WHOOP_CLIENT_ID"); err != nil {
		return nil, fmt.Errorf("failed to bind WHOOP_CLIENT_ID environment variable: %w", err)
	}
	if err := v.BindEnv("sleep.whoop.client_secret", "WHOOP_CLIENT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind WHOOP_CLIENT_SECRET environment variable: %w", err)
	}
	if err := v.BindEnv("database.password", "DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind DB_PASSWORD environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}
