package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/OFFIS-RIT/diagramkg/pkg/logger"

	"github.com/joho/godotenv"
)

// LoadEnv loads .env from the working directory when present. Variables
// already set in the environment win.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using system environment variables")
	}
}

func GetEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvString(key string, defaultValue string) string {
	if value := GetEnv(key); value != "" {
		return value
	}
	return defaultValue
}

// RequireEnv returns the value of key or an error naming the missing variable.
func RequireEnv(key string) (string, error) {
	value := GetEnv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

// GetEnvInt parses key as an integer. Unset, malformed and non-positive
// values yield defaultValue.
func GetEnvInt(key string, defaultValue int) int {
	value := GetEnv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		logger.Warn("[Env] Ignoring invalid integer", "key", key, "value", value)
		return defaultValue
	}
	return n
}

// GetEnvSeconds reads key as a whole number of seconds, or as a Go duration
// such as "90s" or "1h".
func GetEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	value := GetEnv(key)
	if value == "" {
		return defaultValue
	}
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	logger.Warn("[Env] Ignoring invalid duration", "key", key, "value", value)
	return defaultValue
}

func GetEnvBool(key string, defaultValue bool) bool {
	value := GetEnv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
