package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the service configuration.
type Config struct {
	Host string
	Port string

	LogLevel string
	LogPath  string

	// MaxBars caps generation requests so a pathological config fails
	// fast instead of running unbounded.
	MaxBars int

	// MaxTrackBytes bounds a single decoded track chunk.
	MaxTrackBytes int
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// Load loads configuration from the environment, with an optional .env
// file. godotenv never overrides variables that are already set.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment and defaults.")
	}

	return &Config{
		Host:          getEnv("HOST", "0.0.0.0"),
		Port:          getEnv("PORT", "8020"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogPath:       getEnv("LOG_PATH", ""),
		MaxBars:       getEnvInt("MAX_BARS", 256),
		MaxTrackBytes: getEnvInt("MAX_TRACK_BYTES", 1<<20),
	}
}
