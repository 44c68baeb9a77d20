// Package config loads the service configuration from the environment.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP server
	ListenAddr string
	StaticDir  string

	// Storage. Empty means the default data directory under the
	// user's home.
	DataDir string

	// Capture
	CameraID     int
	SteadyThresh float64
	SettleFrames int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		ListenAddr: getEnv("HANDROM_LISTEN_ADDR", ":8080"),
		StaticDir:  getEnv("HANDROM_STATIC_DIR", ""),

		DataDir: getEnv("HANDROM_DATA_DIR", ""),

		CameraID:     getEnvInt("HANDROM_CAMERA_ID", 0),
		SteadyThresh: getEnvFloat("HANDROM_STEADY_THRESHOLD", 0),
		SettleFrames: getEnvInt("HANDROM_SETTLE_FRAMES", 0),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: failed to parse %s as float, using default: %v", key, err)
		return defaultValue
	}
	return floatValue
}
