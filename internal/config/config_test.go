package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:    HTTPConfig{Port: 8080},
		Content: ContentConfig{Root: "/srv/content", IndexRoot: "/srv/content"},
		Backend: BackendConfig{BaseURL: "http://localhost:8090"},
		Blob:    BlobConfig{Driver: BlobDriverFS},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"invalid port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"missing backend", func(c *Config) { c.Backend.BaseURL = "" }, "backend.base_url"},
		{"fs without root", func(c *Config) { c.Content.Root = "" }, "content.root"},
		{"s3 without bucket", func(c *Config) { c.Blob.Driver = BlobDriverS3 }, "blob.s3.bucket"},
		{"s3 with bucket", func(c *Config) {
			c.Blob.Driver = BlobDriverS3
			c.Blob.S3.Bucket = "content"
		}, ""},
		{"redis without addrs", func(c *Config) { c.Blob.Driver = BlobDriverRedis }, "blob.redis.addrs"},
		{"unknown driver", func(c *Config) { c.Blob.Driver = "ftp" }, `got "ftp"`},
		{"empty denylist tag", func(c *Config) {
			c.Denylist = map[string][]string{"animals": {"EknHomePageTag", " "}}
		}, "denylist.animals"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Content: ContentConfig{Root: "/srv/content"}}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Content.IndexRoot != "/srv/content" {
		t.Errorf("expected IndexRoot to follow Root, got %q", cfg.Content.IndexRoot)
	}
	if cfg.Content.MediaDir != "media" || cfg.Content.ShardName != "content.shard" {
		t.Errorf("unexpected layout defaults: %q %q", cfg.Content.MediaDir, cfg.Content.ShardName)
	}
	if cfg.Content.PoolSize <= 0 {
		t.Errorf("expected positive PoolSize, got %d", cfg.Content.PoolSize)
	}
	if cfg.Blob.Driver != BlobDriverFS {
		t.Errorf("expected fs driver, got %q", cfg.Blob.Driver)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Content: ContentConfig{Root: "/a", IndexRoot: "/b", PoolSize: 3},
		Blob:    BlobConfig{Driver: BlobDriverRedis},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Content.IndexRoot != "/b" || cfg.Content.PoolSize != 3 {
		t.Errorf("content overridden: %+v", cfg.Content)
	}
	if cfg.Blob.Driver != BlobDriverRedis {
		t.Errorf("expected redis driver, got %q", cfg.Blob.Driver)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("EKN_TEST_BRIDGE", "http://bridge:9000")
	data := []byte(`
http:
  port: 8080
content:
  root: ${EKN_TEST_ROOT:-/var/lib/ekn}
  default_domain: animals
backend:
  base_url: ${EKN_TEST_BRIDGE}
denylist:
  animals: [hidden, adult]
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Content.Root != "/var/lib/ekn" {
		t.Errorf("root = %q", cfg.Content.Root)
	}
	if cfg.Backend.BaseURL != "http://bridge:9000" {
		t.Errorf("base_url = %q", cfg.Backend.BaseURL)
	}
	if got := cfg.Denylist["animals"]; len(got) != 2 || got[1] != "adult" {
		t.Errorf("denylist = %v", got)
	}
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(p, []byte("http:\n  port: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(p); err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
