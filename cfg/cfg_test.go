package cfg

import (
	"strings"
	"testing"
	"time"
)

func validTestCfg() *Cfg {
	return &Cfg{
		Port:           "9000",
		PublicHost:     "https://snip.example.com",
		Environment:    "test",
		DatabasePath:   ":memory:",
		JWTSecret:      NewSecret("0123456789ABCDEF0123456789ABCDEF"),
		JWTAlgorithm:   "HS256",
		TokenTTL:       15 * time.Minute,
		BcryptCost:     12,
		HasherWorkers:  4,
		MaxSnippetSize: 256 * 1024,
		RateLimit:      RateLimitCfg{RPM: 120, Burst: 20, ConservativeLimit: 10},
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789ABCDEF0123456789ABCDEF")
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.Port != "9000" {
		t.Errorf("Port = %q", c.Port)
	}
	if c.TokenTTL != 15*time.Minute {
		t.Errorf("TokenTTL = %v", c.TokenTTL)
	}
	if c.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d", c.BcryptCost)
	}
	if c.JWTAlgorithm != "HS256" {
		t.Errorf("JWTAlgorithm = %q", c.JWTAlgorithm)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(validTestCfg()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Cfg)
		want   string
	}{
		{"bad port", func(c *Cfg) { c.Port = "not-a-port" }, "PORT"},
		{"relative host", func(c *Cfg) { c.PublicHost = "snip.example.com" }, "PUBLIC_HOST"},
		{"missing db path", func(c *Cfg) { c.DatabasePath = "" }, "DATABASE_PATH"},
		{"short secret", func(c *Cfg) { c.JWTSecret = NewSecret("short") }, "JWT_SECRET"},
		{"rs256", func(c *Cfg) { c.JWTAlgorithm = "RS256" }, "JWT_ALGORITHM"},
		{"tiny ttl", func(c *Cfg) { c.TokenTTL = time.Second }, "TOKEN_TTL"},
		{"huge ttl", func(c *Cfg) { c.TokenTTL = 48 * time.Hour }, "TOKEN_TTL"},
		{"weak cost", func(c *Cfg) { c.BcryptCost = 4 }, "BCRYPT_COST"},
		{"bad proxy", func(c *Cfg) { c.TrustedProxies = []string{"not-an-ip"} }, "TRUSTED_PROXIES"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validTestCfg()
			tc.mutate(c)
			err := Validate(c)
			if err == nil {
				t.Fatal("invalid config accepted")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %s", err, tc.want)
			}
		})
	}
}

func TestValidateProductionRequiresMetricsAuth(t *testing.T) {
	c := validTestCfg()
	c.Environment = "production"
	if err := Validate(c); err == nil {
		t.Error("production without metrics credentials accepted")
	}
	c.MetricsUser = "ops"
	c.MetricsPass = NewSecret("hunter2")
	if err := Validate(c); err != nil {
		t.Errorf("production with metrics credentials rejected: %v", err)
	}
}

func TestSecretRedaction(t *testing.T) {
	s := NewSecret("top secret value")
	if got := s.String(); strings.Contains(got, "top secret") {
		t.Errorf("String() leaks the secret: %q", got)
	}
	if s.Value() != "top secret value" {
		t.Error("Value() does not round-trip")
	}
	s.Wipe()
	if strings.Contains(s.Value(), "top secret") {
		t.Error("Wipe() left the secret readable")
	}
}
