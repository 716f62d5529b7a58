// loads up the .env files and environment variables to be used internally by Codepad.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting Codepad reads from the environment.
type Config struct {
	Env     string
	Version string

	SrvAddr    string
	SrvPort    string
	CORSOrigin string

	RedisAddr         string
	RedisPort         string
	RedisPassword     string
	RedisDBNumber     int
	RedisTxMaxRetries int

	// Empty disables token verification on the websocket upgrade.
	AuthAccessSecret string

	PresenceHeartbeat    time.Duration
	RoomReconnectGrace   time.Duration
	MetricsFlushInterval time.Duration
}

// IsDev reports whether Codepad runs in the DEV environment.
func (c Config) IsDev() bool {
	return c.Env == "DEV"
}

// uses go package: godotenv to load up development enviroment variables.
// A missing file is not an error, the process environment is used as is.
func LoadDotEnv(files ...string) error {
	for _, file := range files {
		err := godotenv.Load(file)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", file, err)
		}
	}
	return nil
}

// Load reads Config from the environment, applying defaults for optional settings.
func Load() (Config, error) {
	var err error
	cfg := Config{
		Env:              getenv("ENV", "DEV"),
		Version:          getenv("VERSION", "dev"),
		SrvAddr:          getenv("SRV_ADDR", ""),
		SrvPort:          getenv("SRV_PORT", "8080"),
		CORSOrigin:       getenv("CORS_ORIGIN", "*"),
		RedisAddr:        getenv("REDIS_ADDR", "localhost"),
		RedisPort:        getenv("REDIS_PORT", "6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		AuthAccessSecret: os.Getenv("AUTH_ACCESS_SECRET"),
	}
	if cfg.RedisDBNumber, err = getint("REDIS_DB_NUMBER", 0); err != nil {
		return cfg, err
	}
	if cfg.RedisTxMaxRetries, err = getint("REDIS_TX_MAX_RETRIES", 5); err != nil {
		return cfg, err
	}
	if cfg.PresenceHeartbeat, err = getduration("PRESENCE_HEARTBEAT", 30*time.Second); err != nil {
		return cfg, err
	}
	if cfg.RoomReconnectGrace, err = getduration("ROOM_RECONNECT_GRACE", 0); err != nil {
		return cfg, err
	}
	if cfg.MetricsFlushInterval, err = getduration("METRICS_FLUSH_INTERVAL", time.Minute); err != nil {
		return cfg, err
	}
	if cfg.PresenceHeartbeat <= 0 {
		return cfg, errors.New("PRESENCE_HEARTBEAT must be positive")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return fallback
}

func getint(key string, fallback int) (int, error) {
	val := getenv(key, "")
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("couldn't parse ENV: %s: %w", key, err)
	}
	return n, nil
}

func getduration(key string, fallback time.Duration) (time.Duration, error) {
	val := getenv(key, "")
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("couldn't parse ENV: %s: %w", key, err)
	}
	return d, nil
}
