// Package config loads runtime settings from the environment (and an
// optional .env file) through viper.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// StatusMethodNotAllowedLegacy is the status the original deployment used for
// a known path requested with the wrong method.
const StatusMethodNotAllowedLegacy = 419

const defaultJWTSecret = "dev-jwt-secret-change-in-production"

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	RabbitMQ RabbitMQConfig
	Tasks    TasksConfig
}

type ServerConfig struct {
	Port        string
	Environment string
	RequestLog  bool
	// MethodNotAllowedStatus is either 405 or 419.
	MethodNotAllowedStatus int
}

type DatabaseConfig struct {
	Driver      string
	DSN         string
	Debug       bool
	AutoMigrate bool
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
	Consume  bool
}

type TasksConfig struct {
	PerPage int
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment only")
	}
	return FromViper(newViper()), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("REQUEST_LOG", true)
	v.SetDefault("METHOD_NOT_ALLOWED_STATUS", http.StatusMethodNotAllowed)
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "tasks.db")
	v.SetDefault("DB_DEBUG", false)
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_TTL", 60*time.Minute)
	v.SetDefault("TASKS_PER_PAGE", 10)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "tasks")
	v.SetDefault("RABBITMQ_CONSUME", false)
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:                   v.GetString("APP_PORT"),
			Environment:            v.GetString("APP_ENV"),
			RequestLog:             v.GetBool("REQUEST_LOG"),
			MethodNotAllowedStatus: v.GetInt("METHOD_NOT_ALLOWED_STATUS"),
		},
		Database: DatabaseConfig{
			Driver:      v.GetString("DB_DRIVER"),
			DSN:         v.GetString("DB_DSN"),
			Debug:       v.GetBool("DB_DEBUG"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    v.GetDuration("JWT_TTL"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
			Consume:  v.GetBool("RABBITMQ_CONSUME"),
		},
		Tasks: TasksConfig{
			PerPage: v.GetInt("TASKS_PER_PAGE"),
		},
	}
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("DB_DSN is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() && c.JWT.Secret == defaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be changed in production"))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if s := c.Server.MethodNotAllowedStatus; s != http.StatusMethodNotAllowed && s != StatusMethodNotAllowedLegacy {
		errs = append(errs, fmt.Errorf("METHOD_NOT_ALLOWED_STATUS must be 405 or 419, got %d", s))
	}
	if c.Tasks.PerPage < 1 {
		errs = append(errs, errors.New("TASKS_PER_PAGE must be at least 1"))
	}

	return errors.Join(errs...)
}
