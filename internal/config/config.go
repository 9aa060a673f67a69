package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	DBHost         string
	DBUsername     string
	DBPassword     string
	DBName         string
	MaxConnections int32
	APIKeySecret   string
	RedisAddr      string
	Port           string
	Env            string
}

func Load() (*Config, error) {
	host := os.Getenv("HOST")
	if host == "" {
		return nil, fmt.Errorf("HOST environment variable is required")
	}

	username := os.Getenv("USERNAME")
	if username == "" {
		return nil, fmt.Errorf("USERNAME environment variable is required")
	}

	password := os.Getenv("PASSWORD")
	if password == "" {
		return nil, fmt.Errorf("PASSWORD environment variable is required")
	}

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME environment variable is required")
	}

	secret := os.Getenv("API_KEY_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("API_KEY_SECRET environment variable is required")
	}

	maxConns := int32(10)
	if raw := os.Getenv("MAX_CONNECTIONS"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_CONNECTIONS %q: %w", raw, err)
		}
		maxConns = int32(n)
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4545"
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &Config{
		DBHost:         host,
		DBUsername:     username,
		DBPassword:     password,
		DBName:         dbName,
		MaxConnections: maxConns,
		APIKeySecret:   secret,
		RedisAddr:      redisAddr,
		Port:           port,
		Env:            env,
	}, nil
}

// DBSource assembles the postgres connection string from the individual parts.
func (c *Config) DBSource() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?pool_max_conns=%d",
		c.DBUsername, c.DBPassword, c.DBHost, c.DBName, c.MaxConnections)
}
