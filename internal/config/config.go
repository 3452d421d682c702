package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Gateway  GatewayConfig
	Auth     AuthConfig
	Dispatch DispatchConfig
	Roster   RosterConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	PostgresURL string
}

type GatewayConfig struct {
	URL string
}

type AuthConfig struct {
	SigningKey string
	Issuer     string
	SessionTTL time.Duration
}

type DispatchConfig struct {
	// SendInterval is the fixed pause between consecutive gateway
	// sends. It rate-limits the external gateway and must stay > 0.
	SendInterval time.Duration
}

type RosterConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

func LoadAll() (*Config, error) {
	var errs []error

	postgresURL, err := requireEnv("POSTGRES_URL")
	if err != nil {
		errs = append(errs, err)
	}
	gatewayURL, err := requireEnv("GATEWAY_URL")
	if err != nil {
		errs = append(errs, err)
	}
	signingKey, err := requireEnv("JWT_SECRET")
	if err != nil {
		errs = append(errs, err)
	}

	sessionTTL, err := getEnvInt("SESSION_TTL_MINUTES", 60)
	if err != nil {
		errs = append(errs, err)
	}
	sendInterval, err := getEnvInt("SEND_INTERVAL_SECONDS", 10)
	if err != nil {
		errs = append(errs, err)
	}

	redisCfg, err := loadRedisConfig()
	if err != nil {
		errs = append(errs, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
		Database: DatabaseConfig{
			PostgresURL: postgresURL,
		},
		Gateway: GatewayConfig{
			URL: gatewayURL,
		},
		Auth: AuthConfig{
			SigningKey: signingKey,
			Issuer:     getEnv("JWT_ISSUER", "attendance-notify"),
			SessionTTL: time.Duration(sessionTTL) * time.Minute,
		},
		Dispatch: DispatchConfig{
			SendInterval: time.Duration(sendInterval) * time.Second,
		},
		Roster: RosterConfig{
			Path: getEnv("ROSTER_PATH", "alunos_atualizados.xlsx"),
		},
		Redis: redisCfg,
	}

	errs = append(errs, validate(cfg)...)

	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRedisConfig() (RedisConfig, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}, nil
	}

	db, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return RedisConfig{}, err
	}
	ttl, err := getEnvInt("REDIS_TTL_SECONDS", 86400)
	if err != nil {
		return RedisConfig{}, err
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		TTL:      time.Duration(ttl) * time.Second,
	}, nil
}

func validate(cfg *Config) []error {
	var errs []error
	if cfg.Dispatch.SendInterval <= 0 {
		errs = append(errs, errors.New("SEND_INTERVAL_SECONDS must be > 0"))
	}
	if cfg.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL_MINUTES must be > 0"))
	}
	if cfg.Roster.Path == "" {
		errs = append(errs, errors.New("ROSTER_PATH must not be empty"))
	}
	return errs
}

func requireEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return val, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for env %s: %s", key, v)
	}
	return i, nil
}

func joinErrors(errs []error) error {
	return errors.Join(errs...)
}
