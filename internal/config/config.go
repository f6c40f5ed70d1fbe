package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DataDir string

	JWTSecret  []byte
	TokenTTL   time.Duration
	BcryptCost int

	AdminName     string
	AdminPassword string

	LoginRateLimit float64
	CORSOrigins    []string
}

// Load reads .env when present and then the environment. SERVER_PORT and
// JWT_SECRET are required.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	var errs []error

	port, err := requiredInt("SERVER_PORT")
	if err != nil {
		errs = append(errs, err)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		errs = append(errs, missing("JWT_SECRET"))
	}

	ttl, err := durationDefault("TOKEN_TTL", time.Hour)
	if err != nil {
		errs = append(errs, err)
	}

	rateLimit, err := floatDefault("LOGIN_RATE_LIMIT", 5)
	if err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &Config{
		ServiceName: EnvDefault("SERVICE_NAME", "honestybar"),
		ServerPort:  port,
		LogLevel:    os.Getenv("LOG_LEVEL"),

		DataDir: EnvDefault("DATA_DIR", "data"),

		JWTSecret:  []byte(secret),
		TokenTTL:   ttl,
		BcryptCost: EnvIntDefault("BCRYPT_COST", 10),

		AdminName:     os.Getenv("ADMIN_NAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		LoginRateLimit: rateLimit,
		CORSOrigins:    CSV(os.Getenv("CORS_ORIGINS")),
	}, nil
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

func missing(key string) error {
	return fmt.Errorf("missing required env %s", key)
}

func requiredInt(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, missing(key)
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > 65535 {
		return 0, fmt.Errorf("env %s: invalid port %q", key, v)
	}
	return n, nil
}

func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("env %s: invalid duration %q", key, v)
	}
	return d, nil
}

func floatDefault(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("env %s: invalid rate %q", key, v)
	}
	return f, nil
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
