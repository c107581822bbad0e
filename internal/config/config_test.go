package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_RequiresAPIBaseURL(t *testing.T) {
	os.Unsetenv("API_BASE_URL")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error when API_BASE_URL is missing")
	}
}

func TestLoad_WithAPIBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:8000/api/")
	t.Setenv("HOST", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIBaseURL != "http://localhost:8000/api" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.APIBaseURL)
	}
	if cfg.Port != "4200" {
		t.Errorf("expected default port 4200, got %s", cfg.Port)
	}
	if cfg.ListenAddr() != "127.0.0.1:4200" {
		t.Errorf("expected loopback listen address, got %s", cfg.ListenAddr())
	}
	if cfg.SessionStore != StoreFile {
		t.Errorf("expected default store %q, got %q", StoreFile, cfg.SessionStore)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %s", cfg.HTTPTimeout)
	}
	if cfg.DBMaxConns != 4 {
		t.Errorf("expected default max conns 4, got %d", cfg.DBMaxConns)
	}
}

func TestLoad_CORSOriginsSplit(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:8000")
	t.Setenv("CORS_ORIGINS", "http://a.local,http://b.local")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSOrigins)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}

func TestConfig_ListenAddr(t *testing.T) {
	tests := []struct {
		host, port, want string
	}{
		{"", "4200", "127.0.0.1:4200"},
		{"0.0.0.0", "8080", "0.0.0.0:8080"},
		{"::1", "4200", "[::1]:4200"},
	}
	for _, tt := range tests {
		c := &Config{Host: tt.host, Port: tt.port}
		if got := c.ListenAddr(); got != tt.want {
			t.Errorf("ListenAddr(%q, %q) = %s, want %s", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		return Config{APIBaseURL: "http://localhost:8000", SessionStore: StoreMemory}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"memory ok", func(c *Config) {}, false},
		{"relative url", func(c *Config) { c.APIBaseURL = "/api" }, true},
		{"unknown store", func(c *Config) { c.SessionStore = "etcd" }, true},
		{"redis without url", func(c *Config) { c.SessionStore = StoreRedis }, true},
		{"redis with url", func(c *Config) { c.SessionStore = StoreRedis; c.RedisURL = "redis://localhost:6379/0" }, false},
		{"postgres without dsn", func(c *Config) { c.SessionStore = StorePostgres }, true},
		{"file without path", func(c *Config) { c.SessionStore = StoreFile }, true},
		{"negative rps", func(c *Config) { c.RateLimitRPS = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
