package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"snipbin/cfg"
	"snipbin/svc/api"
	"snipbin/svc/auth"
	"snipbin/svc/db"
	"snipbin/svc/lim"
	"snipbin/svc/svc"
	"snipbin/svc/util"
)

const testJWTSecret = "0123456789ABCDEF0123456789ABCDEF"

var envLoadOnce sync.Once

func loadTestEnv() {
	envLoadOnce.Do(func() {
		paths := []string{
			".env.test",
			"../.env.test",
		}
		for _, p := range paths {
			if absPath, err := filepath.Abs(p); err == nil {
				if _, err := os.Stat(absPath); err == nil {
					if err := godotenv.Load(absPath); err == nil {
						break
					}
				}
			}
		}
		util.InitLog("error", false)
	})
}

func createTestConfig() *cfg.Cfg {
	loadTestEnv()
	return &cfg.Cfg{
		Port:           "0",
		PublicHost:     "http://localhost:9000",
		Environment:    "test",
		LogLevel:       "error",
		DatabasePath:   ":memory:",
		JWTSecret:      cfg.NewSecret(testJWTSecret),
		JWTAlgorithm:   "HS256",
		TokenTTL:       15 * time.Minute,
		BcryptCost:     4,
		HasherWorkers:  4,
		MaxSnippetSize: 64 * 1024,
		RateLimit: cfg.RateLimitCfg{
			RPM:               100000,
			Burst:             10000,
			ConservativeLimit: 50000,
		},
		ContextTimeout: 30 * time.Second,
		DBMaxOpenConns: 50,
		DBMaxIdleConns: 10,
		DBQueryTimeout: 10 * time.Second,
	}
}

func createTestDB(t *testing.T, c *cfg.Cfg) *db.SQLite {
	t.Helper()
	dsn := fmt.Sprintf("file:memdb%d?mode=memory&cache=shared", time.Now().UnixNano())
	sqlDB, err := db.NewSQLiteWithConfig(dsn, c.DBMaxOpenConns, c.DBMaxIdleConns, c.DBQueryTimeout)
	if err != nil {
		t.Fatal(err)
	}
	return sqlDB
}

func createTestHasher(t *testing.T, c *cfg.Cfg) *auth.Hasher {
	t.Helper()
	hasher, err := auth.NewHasher(c.BcryptCost)
	if err != nil {
		t.Fatal(err)
	}
	if err := hasher.Start(c.HasherWorkers); err != nil {
		t.Fatal(err)
	}
	return hasher
}

func createTestTokens(t *testing.T, ttl time.Duration) *auth.Tokens {
	t.Helper()
	tokens, err := auth.NewTokens([]byte(testJWTSecret), ttl)
	if err != nil {
		t.Fatal(err)
	}
	return tokens
}

// setupTestServer wires a full server against an in-memory database and
// returns it with a cleanup that tears everything down in order.
func setupTestServer(t *testing.T) (*httptest.Server, func()) {
	t.Helper()
	c := createTestConfig()
	sqlDB := createTestDB(t, c)
	hasher := createTestHasher(t, c)
	tokens := createTestTokens(t, c.TokenTTL)
	accountSvc := svc.NewAccount(sqlDB, hasher, tokens)
	snippetSvc := svc.NewSnippet(sqlDB, c)
	limiter := lim.New(c.RateLimit.RPM, c.RateLimit.Burst, c.RateLimit.ConservativeLimit, c.TrustedProxies)
	server := api.NewServer(c, accountSvc, snippetSvc, limiter, sqlDB)
	ts := httptest.NewServer(server)
	cleanup := func() {
		ts.Close()
		limiter.Stop()
		hasher.Stop()
		sqlDB.Close()
	}
	return ts, cleanup
}

func postJSON(t *testing.T, url string, token string, payload interface{}) *http.Response {
	t.Helper()
	return doJSON(t, http.MethodPost, url, token, payload)
}

func doJSON(t *testing.T, method, url, token string, payload interface{}) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatal(err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func getWithToken(t *testing.T, url, token string) *http.Response {
	t.Helper()
	return doJSON(t, http.MethodGet, url, token, nil)
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}

func registerUser(t *testing.T, ts *httptest.Server, email, name, password string) {
	t.Helper()
	resp := postJSON(t, ts.URL+"/user/register", "", map[string]string{
		"email":    email,
		"name":     name,
		"password": password,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("register %s: status %d, body %s", email, resp.StatusCode, raw)
	}
}

func loginUser(t *testing.T, ts *httptest.Server, email, password string) string {
	t.Helper()
	resp := postJSON(t, ts.URL+"/user/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("login %s: status %d, body %s", email, resp.StatusCode, raw)
	}
	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decodeBody(t, resp, &body)
	if body.AccessToken == "" {
		t.Fatal("login returned empty access token")
	}
	if body.TokenType != "bearer" {
		t.Fatalf("token_type = %q, want bearer", body.TokenType)
	}
	return body.AccessToken
}

type snippetBody struct {
	UUID       string    `json:"uuid"`
	Title      string    `json:"title"`
	Code       string    `json:"code"`
	AuthorName string    `json:"author_name"`
	IsPublic   bool      `json:"is_public"`
	CreatedAt  time.Time `json:"created_at"`
	ShareLink  string    `json:"share_link"`
}

func createSnippet(t *testing.T, ts *httptest.Server, token string, payload map[string]interface{}) snippetBody {
	t.Helper()
	resp := postJSON(t, ts.URL+"/snippets/create_snippet", token, payload)
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("create snippet: status %d, body %s", resp.StatusCode, raw)
	}
	var sn snippetBody
	decodeBody(t, resp, &sn)
	if sn.UUID == "" {
		t.Fatal("create snippet returned empty uuid")
	}
	return sn
}
