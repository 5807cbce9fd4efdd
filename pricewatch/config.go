package pricewatch

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// LoadConfig reads the TOML file at path and overlays secrets from the
// environment (and an optional .env file next to the working directory).
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	cfg := DefaultConfig()
	if err = toml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	_ = godotenv.Load() // .env is optional
	cfg.applyEnv()

	return cfg, nil
}

// DefaultConfig returns the configuration used when a key is absent from the file.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: slog.LevelInfo, Format: "text"},
		DB: DBConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "pricewatch",
			PoolSize: 10,
		},
		Web: WebConfig{
			Host:         "0.0.0.0",
			Port:         3000,
			AllowOrigins: "http://localhost:3000",
			RateLimit:    5,
			RateBurst:    20,
		},
		Catalog: APIConfig{
			BaseURL: "https://api.pokemontcg.io/v2",
		},
		PriceTracker: APIConfig{
			BaseURL: "https://www.pokemonpricetracker.com/api/v1",
		},
	}
}

type Config struct {
	Log          LogConfig       `toml:"log"`
	DB           DBConfig        `toml:"db"`
	Web          WebConfig       `toml:"web"`
	Catalog      APIConfig       `toml:"catalog"`
	PriceTracker APIConfig       `toml:"price_tracker"`
	Scheduler    SchedulerConfig `toml:"scheduler"`
	Images       ImagesConfig    `toml:"images"`
	Notify       NotifyConfig    `toml:"notify"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
}

type WebConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	AllowOrigins string `toml:"allow_origins"`
	// RateLimit is the sustained per-client request rate in requests per
	// second; 0 disables the limiter.
	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`
}

// APIConfig configures one of the upstream HTTP APIs.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

type SchedulerConfig struct {
	// IntervalMinutes enables the periodic refresh inside `serve`; 0 disables it.
	IntervalMinutes int `toml:"interval_minutes"`
}

// ImagesConfig points at an S3 compatible bucket used to mirror card images.
// Mirroring is off while Bucket is empty.
type ImagesConfig struct {
	Endpoint string `toml:"endpoint"`
	Region   string `toml:"region"`
	Bucket   string `toml:"bucket"`
	Key      string `toml:"key"`
	Secret   string `toml:"secret"`
	Prefix   string `toml:"prefix"`
}

type NotifyConfig struct {
	WebhookID    string `toml:"webhook_id"`
	WebhookToken string `toml:"webhook_token"`
}

func (c *Config) applyEnv() {
	setString(&c.Catalog.APIKey, "POKEMON_TCG_API_KEY")
	setString(&c.PriceTracker.APIKey, "POKEMON_PRICE_TRACKER_API_KEY")
	setString(&c.DB.Host, "DATABASE_HOST")
	setInt(&c.DB.Port, "DATABASE_PORT")
	setString(&c.DB.User, "DATABASE_USER")
	setString(&c.DB.Password, "DATABASE_PASSWORD")
	setString(&c.DB.Database, "DATABASE_NAME")
	setString(&c.Images.Key, "SPACES_KEY")
	setString(&c.Images.Secret, "SPACES_SECRET")
	setString(&c.Notify.WebhookID, "DISCORD_WEBHOOK_ID")
	setString(&c.Notify.WebhookToken, "DISCORD_WEBHOOK_TOKEN")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}
