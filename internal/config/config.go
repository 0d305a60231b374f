package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultAPIURL = "http://localhost:8081"

// Client configures the terminal client and the CLI.
type Client struct {
	APIURL      string
	TokenFile   string
	LogFile     string
	LogLevel    string
	HTTPTimeout time.Duration
}

func LoadClient() (*Client, error) {
	_ = godotenv.Load()

	dir := configDir()
	cfg := &Client{
		APIURL:      strings.TrimSuffix(getEnv("TICKETING_API_URL", DefaultAPIURL), "/"),
		TokenFile:   getEnv("TICKETING_TOKEN_FILE", filepath.Join(dir, "session.json")),
		LogFile:     getEnv("TICKETING_LOG_FILE", filepath.Join(dir, "ticketing.log")),
		LogLevel:    getEnv("TICKETING_LOG_LEVEL", "info"),
		HTTPTimeout: getDuration("TICKETING_HTTP_TIMEOUT", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Client) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("TICKETING_API_URL cannot be empty")
	}

	parsed, err := url.Parse(c.APIURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("TICKETING_API_URL must be an absolute URL, got %q", c.APIURL)
	}

	if strings.TrimSpace(c.TokenFile) == "" {
		return fmt.Errorf("TICKETING_TOKEN_FILE cannot be empty")
	}

	if c.HTTPTimeout < 0 {
		return fmt.Errorf("TICKETING_HTTP_TIMEOUT cannot be negative")
	}

	return nil
}

// DevServer configures the local backend. An empty DatabaseURL keeps every
// store in memory.
type DevServer struct {
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RequestTimeout     time.Duration
	JWTSecret          string
	JWTTTL             time.Duration
	OTPTTL             time.Duration
	SeedFile           string
	CORSOrigins        []string
	RateLimitRPM       int
	AuthRateLimitRPM   int
	DatabaseURL        string
	DBMaxConns         int32
	DBMinConns         int32
}

func LoadDevServer() (*DevServer, error) {
	_ = godotenv.Load()

	cfg := &DevServer{
		ServerPort:         getEnv("DEVSERVER_PORT", "8081"),
		ServerReadTimeout:  getDuration("DEVSERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout: getDuration("DEVSERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:  getDuration("DEVSERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:     getDuration("DEVSERVER_REQUEST_TIMEOUT", 30*time.Second),
		JWTSecret:          getEnv("DEVSERVER_JWT_SECRET", "devserver-insecure-secret"),
		JWTTTL:             getDuration("DEVSERVER_JWT_TTL", 2*time.Hour),
		OTPTTL:             getDuration("DEVSERVER_OTP_TTL", 2*time.Minute),
		SeedFile:           strings.TrimSpace(os.Getenv("DEVSERVER_SEED")),
		CORSOrigins:        splitCSV(getEnv("DEVSERVER_CORS_ORIGINS", "*")),
		RateLimitRPM:       getInt("DEVSERVER_RATE_LIMIT_RPM", 600),
		AuthRateLimitRPM:   getInt("DEVSERVER_AUTH_RATE_LIMIT_RPM", 30),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DEVSERVER_DATABASE_URL")),
		DBMaxConns:         int32(getInt("DEVSERVER_DB_MAX_CONNS", 10)),
		DBMinConns:         int32(getInt("DEVSERVER_DB_MIN_CONNS", 1)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *DevServer) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("DEVSERVER_PORT cannot be empty")
	}

	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("DEVSERVER_JWT_SECRET must be at least 16 characters")
	}

	if c.JWTTTL <= 0 {
		return fmt.Errorf("DEVSERVER_JWT_TTL must be positive")
	}

	if c.OTPTTL <= 0 {
		return fmt.Errorf("DEVSERVER_OTP_TTL must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("DEVSERVER_REQUEST_TIMEOUT must be positive")
	}

	if c.RateLimitRPM <= 0 || c.AuthRateLimitRPM <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}

	if c.DatabaseURL != "" && (c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns) {
		return fmt.Errorf("DEVSERVER_DB_MIN_CONNS must be between 0 and DEVSERVER_DB_MAX_CONNS")
	}

	return nil
}

func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "ticketing")
	}
	return ".ticketing"
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
