package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("APP_ENV", "development")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Reward.IdeaSubmissionPoints != 5 {
		t.Errorf("IdeaSubmissionPoints = %d, want 5", cfg.Reward.IdeaSubmissionPoints)
	}
	if cfg.Vault.KeyName != "idea-details" {
		t.Errorf("Vault.KeyName = %q, want idea-details", cfg.Vault.KeyName)
	}
	if cfg.Session.TTL != 12*time.Hour {
		t.Errorf("Session.TTL = %v, want 12h", cfg.Session.TTL)
	}
	if cfg.Log.Level != "INFO" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want INFO/json", cfg.Log)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("SEARCH_ENABLED", "true")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LOG_FORMAT", "Text")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("Session.TTL = %v, want 30m", cfg.Session.TTL)
	}
	if got := cfg.CORS.AllowedOrigins; len(got) != 2 || got[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", got)
	}
	if !cfg.Search.Enabled {
		t.Error("Search.Enabled = false, want true")
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("MaxOpenConns = %d, want fallback 25", cfg.Database.MaxOpenConns)
	}
	if cfg.Log.Level != "WARN" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v, want WARN/text", cfg.Log)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "missing jwt secret",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name: "production without db password",
			cfg: Config{
				JWT: JWTConfig{Secret: "s"},
				App: AppConfig{Env: "production"},
			},
			wantErr: true,
		},
		{
			name: "vault enabled without token",
			cfg: Config{
				JWT:   JWTConfig{Secret: "s"},
				Vault: VaultConfig{Enabled: true},
			},
			wantErr: true,
		},
		{
			name: "valid development config",
			cfg: Config{
				JWT: JWTConfig{Secret: "s"},
				App: AppConfig{Env: "development"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReadSkipsValidation(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_NAME", "iris_admin")

	if _, err := Load(); err == nil {
		t.Fatal("Load() without JWT_SECRET should fail")
	}
	cfg := Read()
	if cfg.Database.Name != "iris_admin" {
		t.Errorf("Database.Name = %q, want iris_admin", cfg.Database.Name)
	}
}
