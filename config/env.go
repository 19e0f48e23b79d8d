package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvString returns the trimmed value of key and whether it was set.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses key as an integer.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, true, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}

// EnvBool parses key with strconv.ParseBool.
func EnvBool(key string) (bool, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, true, fmt.Errorf("%s: %w", key, err)
	}
	return b, true, nil
}

// EnvDuration parses key as a Go duration ("30s", "5m").
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, true, fmt.Errorf("%s: %w", key, err)
	}
	return d, true, nil
}

// EnvList splits key on commas, dropping empty items.
func EnvList(key string) ([]string, bool) {
	value, ok := EnvString(key)
	if !ok {
		return nil, false
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out, len(out) > 0
}

// ApplyServerEnv overrides cfg from the environment. Minute-valued variables
// keep the names used by earlier deployments.
func ApplyServerEnv(cfg *ServerConfig) error {
	if v, ok := EnvString("API_ADDR"); ok {
		cfg.Addr = v
	}
	if v, ok := os.LookupEnv("API_PREFIX"); ok {
		cfg.APIPrefix = strings.TrimSpace(v)
	}
	if v, ok := EnvString("BOOKS_CSV_PATH"); ok {
		cfg.DataPath = v
	}
	if v, ok := EnvString("AUTH_USERNAME"); ok {
		cfg.Username = v
	}
	if v, ok := EnvString("AUTH_PASSWORD"); ok {
		cfg.Password = v
	}
	if v, ok := EnvString("JWT_SECRET_KEY"); ok {
		cfg.JWTSecret = v
	}
	if v, ok := EnvString("JWT_ALGORITHM"); ok {
		cfg.JWTAlgorithm = strings.ToUpper(v)
	}

	// AUTH_TOKEN_EXPIRE_MINUTES wins over JWT_EXPIRE_MINUTES.
	for _, key := range []string{"JWT_EXPIRE_MINUTES", "AUTH_TOKEN_EXPIRE_MINUTES"} {
		minutes, ok, err := EnvInt(key)
		if err != nil {
			return err
		}
		if ok {
			cfg.TokenTTL = time.Duration(minutes) * time.Minute
		}
	}

	if v, ok := EnvList("API_CORS_ORIGINS"); ok {
		cfg.CORSAllowedOrigins = v
	}
	if n, ok, err := EnvInt("API_LOGIN_RATE_LIMIT"); err != nil {
		return err
	} else if ok {
		cfg.LoginRateLimit = n
	}
	if v, ok, err := EnvBool("API_VERBOSE"); err != nil {
		return err
	} else if ok {
		cfg.Verbose = v
	}
	return nil
}
