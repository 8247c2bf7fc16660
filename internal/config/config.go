package config

import (
	"fmt"
	"os"
)

// Config holds environment-based settings for both binaries.
type Config struct {
	DatabaseURL    string
	MigrationsPath string
	JWTSecret      string
	ServerAddress  string

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	// MQTTBrokerURL switches the change notifier to MQTT when set;
	// otherwise Redis pub/sub is used.
	MQTTBrokerURL string

	UseSpaces       bool
	SpacesEndpoint  string
	SpacesRegion    string
	SpacesBucket    string
	SpacesAccessKey string
	SpacesSecretKey string
	UploadDir       string

	// display client
	StateDir   string
	DeviceInfo string
}

func load() *Config {
	return &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: envOr("MIGRATIONS_PATH", "./migrations"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		ServerAddress:  envOr("SERVER_ADDRESS", ":8080"),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MQTTBrokerURL: os.Getenv("MQTT_BROKER_URL"),

		UseSpaces:       os.Getenv("USE_SPACES") == "true",
		SpacesEndpoint:  os.Getenv("SPACES_ENDPOINT"),
		SpacesRegion:    os.Getenv("SPACES_REGION"),
		SpacesBucket:    os.Getenv("SPACES_BUCKET"),
		SpacesAccessKey: os.Getenv("SPACES_ACCESS_KEY"),
		SpacesSecretKey: os.Getenv("SPACES_SECRET_KEY"),
		UploadDir:       envOr("UPLOAD_DIR", "./uploads"),

		StateDir:   envOr("STATE_DIR", "./state"),
		DeviceInfo: os.Getenv("DEVICE_INFO"),
	}
}

// LoadServer reads configuration for the backend.
func LoadServer() (*Config, error) {
	cfg := load()
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.RedisAddress == "" && cfg.MQTTBrokerURL == "" {
		return nil, fmt.Errorf("REDIS_ADDRESS or MQTT_BROKER_URL is required")
	}
	return cfg, nil
}

// LoadDisplay reads configuration for the display client.
func LoadDisplay() (*Config, error) {
	cfg := load()
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisAddress == "" && cfg.MQTTBrokerURL == "" {
		return nil, fmt.Errorf("REDIS_ADDRESS or MQTT_BROKER_URL is required")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
