package config

import (
	"os"
	"testing"
	"time"
)

func validEnv() map[string]string {
	return map[string]string{
		"SERVER_PORT":             "8080",
		"SERVER_HOST":             "0.0.0.0",
		"SERVER_BASE_URL":         "http://localhost:8080",
		"SERVER_READ_TIMEOUT":     "10s",
		"SERVER_WRITE_TIMEOUT":    "10s",
		"SERVER_IDLE_TIMEOUT":     "120s",
		"SERVER_SHUTDOWN_TIMEOUT": "30s",

		"DB_HOST":      "localhost",
		"DB_PORT":      "5432",
		"DB_USER":      "testuser",
		"DB_PASSWORD":  "testpass",
		"DB_NAME":      "testdb",
		"DB_SSLMODE":   "disable",
		"DB_MAX_CONNS": "25",
		"DB_MIN_CONNS": "5",

		"S3_ENDPOINT":    "localhost:9000",
		"S3_ACCESS_KEY":  "minioadmin",
		"S3_SECRET_KEY":  "minioadmin",
		"S3_BUCKET":      "assets",
		"S3_USE_SSL":     "false",
		"S3_PRESIGN_TTL": "5m",

		"APP_ENV":   "test",
		"LOG_LEVEL": "debug",
	}
}

func TestLoad_Success(t *testing.T) {
	for key, value := range validEnv() {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
	}
	if cfg.Server.BaseURL != "http://localhost:8080" {
		t.Errorf("Server.BaseURL = %s, want http://localhost:8080", cfg.Server.BaseURL)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 10s", cfg.Server.ReadTimeout)
	}

	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %s, want localhost", cfg.Database.Host)
	}
	if cfg.Database.MaxConns != 25 {
		t.Errorf("Database.MaxConns = %d, want 25", cfg.Database.MaxConns)
	}

	if cfg.Assets.Bucket != "assets" {
		t.Errorf("Assets.Bucket = %s, want assets", cfg.Assets.Bucket)
	}
	if cfg.Assets.UseSSL {
		t.Error("Assets.UseSSL = true, want false")
	}
	if cfg.Assets.PresignTTL != 5*time.Minute {
		t.Errorf("Assets.PresignTTL = %v, want 5m", cfg.Assets.PresignTTL)
	}

	if cfg.App.Environment != "test" {
		t.Errorf("App.Environment = %s, want test", cfg.App.Environment)
	}
	if cfg.App.ServiceName != "sharelinks" {
		t.Errorf("App.ServiceName = %s, want default sharelinks", cfg.App.ServiceName)
	}
}

func TestLoad_MissingRequiredVariable(t *testing.T) {
	tests := []struct {
		name       string
		skipEnvVar string
	}{
		{"missing SERVER_PORT", "SERVER_PORT"},
		{"missing DB_HOST", "DB_HOST"},
		{"missing DB_NAME", "DB_NAME"},
		{"missing S3_BUCKET", "S3_BUCKET"},
		{"missing APP_ENV", "APP_ENV"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for key, value := range validEnv() {
				if key == tt.skipEnvVar {
					continue
				}
				t.Setenv(key, value)
			}

			if _, err := Load(); err == nil {
				t.Errorf("Load() succeeded without %s, want error", tt.skipEnvVar)
			}
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name     string
		override map[string]string
	}{
		{"bad SSL mode", map[string]string{"DB_SSLMODE": "maybe"}},
		{"negative read timeout", map[string]string{"SERVER_READ_TIMEOUT": "-1s"}},
		{"min conns above max", map[string]string{"DB_MIN_CONNS": "50"}},
		{"bad environment", map[string]string{"APP_ENV": "prod-ish"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"zero presign TTL", map[string]string{"S3_PRESIGN_TTL": "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			env := validEnv()
			for key, value := range tt.override {
				env[key] = value
			}
			for key, value := range env {
				t.Setenv(key, value)
			}

			if _, err := Load(); err == nil {
				t.Error("Load() succeeded with invalid value, want error")
			}
		})
	}
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     "5432",
		User:     "svc",
		Password: "secret",
		Name:     "sharelinks",
		SSLMode:  "require",
	}

	want := "host=db.internal port=5432 user=svc password=secret dbname=sharelinks sslmode=require"
	if got := cfg.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}
