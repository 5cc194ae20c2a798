package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen addr = %s", cfg.Server.ListenAddr)
	}
	if cfg.Flags.Source != "static" || cfg.Flags.UseFirebaseStorage {
		t.Errorf("unexpected flag defaults: %+v", cfg.Flags)
	}
	if cfg.Backend.AWS.FoldersTable != "folders" || cfg.Backend.AWS.ImagesTable != "images" {
		t.Errorf("unexpected table defaults: %+v", cfg.Backend.AWS)
	}
	if cfg.Server.StorageOpTimeout != 10*time.Second {
		t.Errorf("storage op timeout = %s", cfg.Server.StorageOpTimeout)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imagedeck.yaml")
	content := []byte(`
server:
  listen_addr: ":9000"
backend:
  aws:
    bucket_name: from-file
    region: eu-west-1
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("IMAGEDECK_BACKEND__AWS__BUCKET_NAME", "from-env")
	t.Setenv("IMAGEDECK_FLAGS__USE_FIREBASE_STORAGE", "true")

	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile failed: %v", err)
	}

	if cfg.Server.ListenAddr != ":9000" {
		t.Errorf("listen addr = %s, want :9000", cfg.Server.ListenAddr)
	}
	if cfg.Backend.AWS.BucketName != "from-env" {
		t.Errorf("bucket = %s, env should win", cfg.Backend.AWS.BucketName)
	}
	if cfg.Backend.AWS.Region != "eu-west-1" {
		t.Errorf("region = %s", cfg.Backend.AWS.Region)
	}
	if !cfg.Flags.UseFirebaseStorage {
		t.Errorf("use_firebase_storage should be set from env")
	}
}

func TestLoadConfigJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imagedeck.json")
	if err := os.WriteFile(path, []byte(`{"log":{"level":"debug"}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile failed: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %s", cfg.Log.Level)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*AppConfig) {}},
		{name: "missing listen addr", mutate: func(c *AppConfig) { c.Server.ListenAddr = "" }, wantErr: true},
		{name: "cert without key", mutate: func(c *AppConfig) { c.Server.CertFile = "server.crt" }, wantErr: true},
		{name: "unknown flag source", mutate: func(c *AppConfig) { c.Flags.Source = "etcd" }, wantErr: true},
		{name: "http source without url", mutate: func(c *AppConfig) { c.Flags.Source = "http" }, wantErr: true},
		{name: "http source", mutate: func(c *AppConfig) {
			c.Flags.Source = "http"
			c.Flags.URL = "https://config.example.com/flags.json"
		}},
		{name: "unknown lock manager", mutate: func(c *AppConfig) { c.DLM.Type = "zookeeper" }, wantErr: true},
		{name: "firebase without bucket", mutate: func(c *AppConfig) { c.Backend.Firebase.ProjectID = "p" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAppConfig()
			tt.mutate(&cfg)
			err := validateConfig(&cfg)
			if tt.wantErr && err == nil {
				t.Error("expected error, got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
