package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("DEBUG_MODE", "")
	cfg := Load()
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL default = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.AuthURL != "https://auth.portaleargo.it/oauth2/auth" {
		t.Fatalf("AuthURL = %q", cfg.AuthURL)
	}
	if cfg.RedirectURI != "it.argosoft.didup.famiglia.new://login-callback" {
		t.Fatalf("RedirectURI = %q", cfg.RedirectURI)
	}
	if cfg.MaxRedirectHops != 10 {
		t.Fatalf("MaxRedirectHops = %d, want 10", cfg.MaxRedirectHops)
	}
	if cfg.ChallengeTimeoutSeconds != 15 || cfg.DashboardTimeoutSeconds != 30 {
		t.Fatalf("timeout defaults = %d, %d", cfg.ChallengeTimeoutSeconds, cfg.DashboardTimeoutSeconds)
	}
	if cfg.Debug {
		t.Fatalf("Debug should default to false")
	}
	if len(cfg.CorsOrigins) != 0 {
		t.Fatalf("CorsOrigins default = %v", cfg.CorsOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/app")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("DEBUG_MODE", "true")
	t.Setenv("ARGO_API_BASE", "https://proxy.example/api/rest/")
	t.Setenv("ARGO_MAX_REDIRECT_HOPS", "4")
	t.Setenv("ARGO_PROBE_TIMEOUT", "3")

	cfg := Load()
	if cfg.DatabaseURL != "postgres://localhost/app" {
		t.Fatalf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if len(cfg.CorsOrigins) != 2 || cfg.CorsOrigins[0] != "https://a.example" || cfg.CorsOrigins[1] != "https://b.example" {
		t.Fatalf("CorsOrigins = %v", cfg.CorsOrigins)
	}
	if !cfg.Debug {
		t.Fatalf("Debug should be true")
	}
	if cfg.APIBase != "https://proxy.example/api/rest/" {
		t.Fatalf("APIBase = %q", cfg.APIBase)
	}
	if cfg.MaxRedirectHops != 4 || cfg.ProbeTimeoutSeconds != 3 {
		t.Fatalf("overrides = %d, %d", cfg.MaxRedirectHops, cfg.ProbeTimeoutSeconds)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("ARGO_MAX_REDIRECT_HOPS", "many")
	cfg := Load()
	if cfg.MaxRedirectHops != 10 {
		t.Fatalf("MaxRedirectHops = %d, want fallback 10", cfg.MaxRedirectHops)
	}
}
