package env

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv reads a .env file from the working directory when one exists.
// This is typically used in a development environment.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, assuming environment variables are set directly")
	}
}

// String overwrites dst with the value of key when the variable is set.
func String(key string, dst *string) {
	if val, ok := os.LookupEnv(key); ok {
		*dst = val
	}
}

// Int overwrites dst with the integer value of key when the variable is set
// and parses. Unparseable values are logged and ignored.
func Int(key string, dst *int) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		slog.Warn("ignoring non-integer environment variable", "key", key, "value", val)
		return
	}
	*dst = n
}

// Bool overwrites dst with key when the variable is set. Only "true" and "1"
// count as true.
func Bool(key string, dst *bool) {
	if val, ok := os.LookupEnv(key); ok {
		v := strings.ToLower(strings.TrimSpace(val))
		*dst = v == "true" || v == "1"
	}
}
