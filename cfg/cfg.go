package cfg

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Secret struct {
	value []byte
}

func NewSecret(s string) Secret {
	return Secret{value: []byte(s)}
}
func (s Secret) Value() string {
	return string(s.value)
}
func (s Secret) Bytes() []byte {
	return s.value
}
func (s Secret) Wipe() {
	for i := range s.value {
		s.value[i] = 0
	}
}
func (s Secret) String() string {
	return "***REDACTED***"
}

type Cfg struct {
	Port           string
	PublicHost     string
	Environment    string
	LogLevel       string
	DatabasePath   string
	JWTSecret      Secret
	JWTFromVault   bool
	JWTAlgorithm   string
	TokenTTL       time.Duration
	BcryptCost     int
	HasherWorkers  int
	MaxSnippetSize int64
	RateLimit      RateLimitCfg
	TrustedProxies []string
	MetricsUser    string
	MetricsPass    Secret
	ContextTimeout time.Duration
	AllowedOrigins []string
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBQueryTimeout time.Duration
}

type RateLimitCfg struct {
	RPM               int
	Burst             int
	ConservativeLimit int
}

func Load() (*Cfg, error) {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	c := &Cfg{}
	c.Port = getEnv("PORT", "9000")
	c.PublicHost = getEnv("PUBLIC_HOST", "http://localhost:9000")
	c.Environment = getEnv("ENVIRONMENT", "development")
	c.LogLevel = getEnv("LOG_LEVEL", "info")
	c.DatabasePath = getEnv("DATABASE_PATH", "snipbin.db")
	c.JWTSecret = NewSecret(getEnv("JWT_SECRET", ""))
	c.JWTFromVault = getEnv("JWT_SECRET_FROM_PROVIDER", "false") == "true"
	c.JWTAlgorithm = getEnv("JWT_ALGORITHM", "HS256")
	var err error
	c.TokenTTL, err = getDuration("TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	c.BcryptCost, err = getInt("BCRYPT_COST", 12)
	if err != nil {
		return nil, err
	}
	c.HasherWorkers, err = getInt("HASHER_WORKER_COUNT", runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	c.MaxSnippetSize, err = getInt64("MAX_SNIPPET_SIZE", 256*1024)
	if err != nil {
		return nil, err
	}
	c.RateLimit.RPM, err = getInt("RATE_LIMIT_RPM", 120)
	if err != nil {
		return nil, err
	}
	c.RateLimit.Burst, err = getInt("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, err
	}
	c.RateLimit.ConservativeLimit, err = getInt("RATE_LIMIT_CONSERVATIVE", 10)
	if err != nil {
		return nil, err
	}
	c.TrustedProxies = getSlice("TRUSTED_PROXIES", []string{})
	c.MetricsUser = getEnv("METRICS_USER", "")
	c.MetricsPass = NewSecret(getEnv("METRICS_PASS", ""))
	c.ContextTimeout, err = getDuration("CONTEXT_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	c.AllowedOrigins = getSlice("ALLOWED_ORIGINS", []string{})
	c.DBMaxOpenConns, err = getInt("DB_MAX_OPEN_CONNS", 50)
	if err != nil {
		return nil, err
	}
	c.DBMaxIdleConns, err = getInt("DB_MAX_IDLE_CONNS", 10)
	if err != nil {
		return nil, err
	}
	c.DBQueryTimeout, err = getDuration("DB_QUERY_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func Validate(c *Cfg) error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.New("PORT must be a number")
	}
	u, err := url.Parse(c.PublicHost)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("PUBLIC_HOST must be an absolute URL, e.g. https://snip.example.com")
	}
	if c.DatabasePath == "" {
		return errors.New("DATABASE_PATH is required")
	}
	if c.JWTAlgorithm != "HS256" {
		return fmt.Errorf("unsupported JWT_ALGORITHM %q, only HS256 is supported", c.JWTAlgorithm)
	}
	if !c.JWTFromVault {
		if len(c.JWTSecret.Value()) == 0 {
			return errors.New("JWT_SECRET is required if JWT_SECRET_FROM_PROVIDER is false")
		}
		if len(c.JWTSecret.Value()) < 32 {
			return errors.New("JWT_SECRET must be at least 32 bytes")
		}
	}
	if c.TokenTTL < time.Minute {
		return errors.New("TOKEN_TTL must be at least 1 minute")
	}
	if c.TokenTTL > 24*time.Hour {
		return errors.New("TOKEN_TTL cannot exceed 24 hours")
	}
	if c.BcryptCost < 10 || c.BcryptCost > 20 {
		return errors.New("BCRYPT_COST must be between 10 and 20")
	}
	if c.HasherWorkers < 1 {
		return errors.New("HASHER_WORKER_COUNT must be at least 1")
	}
	if c.MaxSnippetSize <= 0 {
		return errors.New("MAX_SNIPPET_SIZE must be positive")
	}
	if c.MaxSnippetSize > 10*1024*1024 {
		return errors.New("MAX_SNIPPET_SIZE cannot exceed 10MB")
	}
	if c.RateLimit.RPM <= 0 {
		return errors.New("RATE_LIMIT_RPM must be positive")
	}
	for _, proxy := range c.TrustedProxies {
		if strings.Contains(proxy, "/") {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("invalid CIDR in TRUSTED_PROXIES: %s", proxy)
			}
		} else {
			if net.ParseIP(proxy) == nil {
				return fmt.Errorf("invalid IP in TRUSTED_PROXIES: %s", proxy)
			}
		}
	}
	if c.Environment == "production" {
		if c.MetricsUser == "" || c.MetricsPass.Value() == "" {
			return errors.New("METRICS_USER and METRICS_PASS are required in production")
		}
	}
	return nil
}

func (c *Cfg) Wipe() {
	c.JWTSecret.Wipe()
	c.MetricsPass.Wipe()
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
func getInt(key string, fallback int) (int, error) {
	s := getEnv(key, "")
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return v, nil
}
func getInt64(key string, fallback int64) (int64, error) {
	s := getEnv(key, "")
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return v, nil
}
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := getEnv(key, "")
	if s == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return v, nil
}
func getSlice(key string, fallback []string) []string {
	s := getEnv(key, "")
	if s == "" {
		return fallback
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
