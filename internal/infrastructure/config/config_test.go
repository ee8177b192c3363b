package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Recommend.Deployment != "cn" {
		t.Errorf("Deployment = %q, want cn", cfg.Recommend.Deployment)
	}
	if cfg.Recommend.CacheTTL != 30*time.Minute {
		t.Errorf("CacheTTL = %v, want 30m", cfg.Recommend.CacheTTL)
	}
	if cfg.Recommend.DefaultCount != 5 || cfg.Recommend.MaxCount != 10 {
		t.Errorf("counts = %d/%d, want 5/10", cfg.Recommend.DefaultCount, cfg.Recommend.MaxCount)
	}
	if cfg.Recommend.FitnessVenues != nil {
		t.Errorf("FitnessVenues = %v, want nil when unset", *cfg.Recommend.FitnessVenues)
	}
	if !cfg.Recommend.VenuesEnabled() {
		t.Error("VenuesEnabled() = false, want true for cn deployment")
	}
	if cfg.DedupWindow != time.Second {
		t.Errorf("DedupWindow = %v, want 1s", cfg.DedupWindow)
	}
	if cfg.Store.Driver != "memory" || cfg.Cache.Backend != "memory" {
		t.Errorf("store/cache = %q/%q, want memory/memory", cfg.Store.Driver, cfg.Cache.Backend)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DEPLOYMENT_REGION", "intl")
	t.Setenv("FITNESS_VENUES", "true")
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("DEDUP_WINDOW", "2s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Recommend.Deployment != "intl" {
		t.Errorf("Deployment = %q, want intl", cfg.Recommend.Deployment)
	}
	if cfg.Recommend.FitnessVenues == nil || !*cfg.Recommend.FitnessVenues {
		t.Error("FitnessVenues should be explicitly true")
	}
	if !cfg.Recommend.VenuesEnabled() {
		t.Error("VenuesEnabled() = false, explicit setting should win over deployment")
	}
	if cfg.RateLimit.Requests != 5 {
		t.Errorf("RateLimit.Requests = %d, want 5", cfg.RateLimit.Requests)
	}
	if cfg.DedupWindow != 2*time.Second {
		t.Errorf("DedupWindow = %v, want 2s", cfg.DedupWindow)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown deployment", map[string]string{"DEPLOYMENT_REGION": "mars"}},
		{"postgres without dsn", map[string]string{"APP_STORE_DRIVER": "postgres"}},
		{"unknown store", map[string]string{"APP_STORE_DRIVER": "sqlite"}},
		{"openrouter without key", map[string]string{"APP_OPENROUTER_ENABLED": "true"}},
		{"unknown cache backend", map[string]string{"APP_CACHE_BACKEND": "memcached"}},
		{"zero queue workers", map[string]string{"APP_QUEUE_WORKERS": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPENROUTER_API_KEY", "")
			t.Setenv("DATABASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Error("LoadConfig() error = nil, want validation error")
			}
		})
	}
}

func TestVenuesEnabled(t *testing.T) {
	off := false
	tests := []struct {
		name string
		rc   RecommendConfig
		want bool
	}{
		{"cn default", RecommendConfig{Deployment: "cn"}, true},
		{"intl default", RecommendConfig{Deployment: "intl"}, false},
		{"explicit off", RecommendConfig{Deployment: "CN", FitnessVenues: &off}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rc.VenuesEnabled(); got != tt.want {
				t.Errorf("VenuesEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "****"},
		{"short", "****"},
		{"sk-or-v1-abcdef123456", "sk-o...3456"},
	}
	for _, tt := range tests {
		if got := MaskAPIKey(tt.in); got != tt.want {
			t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
