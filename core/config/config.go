package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string `mapstructure:"SERVER_PORT"`
	Env  string `mapstructure:"APP_ENV"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"DB_HOST"`
	Port     int    `mapstructure:"DB_PORT"`
	User     string `mapstructure:"DB_USER"`
	Password string `mapstructure:"DB_PASSWORD"`
	DBName   string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type JWTConfig struct {
	Secret string `mapstructure:"JWT_SECRET"`
}

// NylasConfig holds the external calendar provider credentials.
type NylasConfig struct {
	ClientID      string `mapstructure:"NYLAS_CLIENT_ID"`
	ClientSecret  string `mapstructure:"NYLAS_CLIENT_SECRET"`
	APIBase       string `mapstructure:"NYLAS_API_BASE"`
	CallbackURI   string `mapstructure:"NYLAS_CALLBACK_URI"`
	WebhookSecret string `mapstructure:"NYLAS_WEBHOOK_SECRET"`
}

// ArchiveConfig configures the optional S3 webhook delivery archive.
// Archiving is disabled when Bucket is empty.
type ArchiveConfig struct {
	Bucket    string `mapstructure:"ARCHIVE_S3_BUCKET"`
	Region    string `mapstructure:"ARCHIVE_S3_REGION"`
	Endpoint  string `mapstructure:"ARCHIVE_S3_ENDPOINT"`
	AccessKey string `mapstructure:"ARCHIVE_S3_ACCESS_KEY"`
	SecretKey string `mapstructure:"ARCHIVE_S3_SECRET_KEY"`
}

type AppConfig struct {
	FrontendURL string `mapstructure:"FRONTEND_URL"`
}

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Nylas    NylasConfig
	Archive  ArchiveConfig
	App      AppConfig
}

var (
	instance *Config
	mu       sync.RWMutex
)

// Load reads .env (if present) and the process environment into the config singleton.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("SERVER_PORT", "7070")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("NYLAS_API_BASE", "https://api.us.nylas.com")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("SERVER_PORT"),
			Env:  v.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		Nylas: NylasConfig{
			ClientID:      v.GetString("NYLAS_CLIENT_ID"),
			ClientSecret:  v.GetString("NYLAS_CLIENT_SECRET"),
			APIBase:       v.GetString("NYLAS_API_BASE"),
			CallbackURI:   v.GetString("NYLAS_CALLBACK_URI"),
			WebhookSecret: v.GetString("NYLAS_WEBHOOK_SECRET"),
		},
		Archive: ArchiveConfig{
			Bucket:    v.GetString("ARCHIVE_S3_BUCKET"),
			Region:    v.GetString("ARCHIVE_S3_REGION"),
			Endpoint:  v.GetString("ARCHIVE_S3_ENDPOINT"),
			AccessKey: v.GetString("ARCHIVE_S3_ACCESS_KEY"),
			SecretKey: v.GetString("ARCHIVE_S3_SECRET_KEY"),
		},
		App: AppConfig{
			FrontendURL: v.GetString("FRONTEND_URL"),
		},
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	mu.Lock()
	instance = cfg
	mu.Unlock()

	return cfg, nil
}

// Get returns the loaded config. Panics if Load was never called.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		panic("config: not initialized, call config.Load first")
	}
	return instance
}

// GetSafe returns the loaded config and whether it has been initialized.
func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, instance != nil
}

// Set replaces the config singleton. Intended for tests.
func Set(cfg *Config) {
	mu.Lock()
	instance = cfg
	mu.Unlock()
}
