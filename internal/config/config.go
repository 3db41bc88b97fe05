package config

import (
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends for the persisted session
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	App      AppConfig
	API      APIConfig
	Push     PushConfig
	State    StateConfig
	Redis    RedisConfig
	Database DatabaseConfig
}

type AppConfig struct {
	Env             string
	LogOutput       string
	LogDisplayLimit int
	HistoryFile     string
}

type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

type PushConfig struct {
	Path           string
	ReconnectDelay time.Duration
}

type StateConfig struct {
	Backend string
	File    string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

// Load reads configuration from .env and the environment
func Load() *Config {
	// .env values become process environment before viper reads it
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_OUTPUT", "console.log")
	v.SetDefault("LOG_DISPLAY_LIMIT", 10)
	v.SetDefault("HISTORY_FILE", ".kommand_history")
	v.SetDefault("API_BASE_URL", "http://localhost:8000")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("PUSH_PATH", "/api/ws")
	v.SetDefault("RECONNECT_DELAY", "3s")
	v.SetDefault("STATE_BACKEND", BackendFile)
	v.SetDefault("STATE_FILE", ".kommand_session.json")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SCHEMA", "public")

	return &Config{
		App: AppConfig{
			Env:             v.GetString("APP_ENV"),
			LogOutput:       v.GetString("LOG_OUTPUT"),
			LogDisplayLimit: v.GetInt("LOG_DISPLAY_LIMIT"),
			HistoryFile:     v.GetString("HISTORY_FILE"),
		},
		API: APIConfig{
			BaseURL:        strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		},
		Push: PushConfig{
			Path:           v.GetString("PUSH_PATH"),
			ReconnectDelay: v.GetDuration("RECONNECT_DELAY"),
		},
		State: StateConfig{
			Backend: strings.ToLower(v.GetString("STATE_BACKEND")),
			File:    v.GetString("STATE_FILE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_DATABASE"),
			Schema:   v.GetString("DB_SCHEMA"),
		},
	}
}

// PushURL derives the websocket endpoint from the REST base URL
func (c *Config) PushURL() (string, error) {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + c.Push.Path
	return u.String(), nil
}

// RedisAddr returns host:port for the redis backend
func (c *Config) RedisAddr() string {
	return c.Redis.Host + ":" + c.Redis.Port
}

// DatabaseDSN returns the postgres connection string for the postgres backend
func (c *Config) DatabaseDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     c.Database.Host + ":" + c.Database.Port,
		Path:     c.Database.Database,
		RawQuery: "sslmode=disable&search_path=" + url.QueryEscape(c.Database.Schema),
	}
	return u.String()
}
