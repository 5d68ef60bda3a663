package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds runtime configuration loaded from environment variables.
// The provider URLs, timeouts and the redirect hop bound are empirical
// tuning against the Argo portal; they can be overridden without a rebuild.
type Config struct {
	DatabaseURL string
	CorsOrigins []string
	Debug       bool

	// Identity provider (OAuth2/PKCE) endpoints.
	AuthURL     string
	LoginURL    string
	TokenURL    string
	RedirectURI string
	ClientID    string
	Scope       string

	// Proprietary REST API bases, plus the legacy web UI page used by
	// the identity scrape fallback.
	APIBase       string
	APIBaseLegacy string
	LegacyWebURL  string
	UserAgent     string

	// Per-call timeouts, in seconds.
	ChallengeTimeoutSeconds int
	LoginTimeoutSeconds     int
	RedirectTimeoutSeconds  int
	TokenTimeoutSeconds     int
	ProbeTimeoutSeconds     int
	DashboardTimeoutSeconds int

	// Bound on the manual redirect follow during code retrieval.
	MaxRedirectHops int
}

func Load() Config {
	return Config{
		DatabaseURL: envOr("DATABASE_URL", ""),
		CorsOrigins: parseCSV(envOr("ALLOWED_ORIGINS", "")),
		Debug:       envOrBool("DEBUG_MODE", false),

		AuthURL:     envOr("ARGO_AUTH_URL", "https://auth.portaleargo.it/oauth2/auth"),
		LoginURL:    envOr("ARGO_LOGIN_URL", "https://www.portaleargo.it/auth/sso/login"),
		TokenURL:    envOr("ARGO_TOKEN_URL", "https://auth.portaleargo.it/oauth2/token"),
		RedirectURI: envOr("ARGO_REDIRECT_URI", "it.argosoft.didup.famiglia.new://login-callback"),
		ClientID:    envOr("ARGO_CLIENT_ID", "72fd6dea-d0ab-4bb9-8eaa-3ac24c84886c"),
		Scope:       envOr("ARGO_SCOPE", "openid offline profile user.roles argo"),

		APIBase:       envOr("ARGO_API_BASE", "https://www.portaleargo.it/appfamiglia/api/rest/"),
		APIBaseLegacy: envOr("ARGO_API_BASE_LEGACY", "https://www.portaleargo.it/famiglia/api/rest/"),
		LegacyWebURL:  envOr("ARGO_LEGACY_WEB_URL", "https://www.portaleargo.it/argoweb/famiglia/index.jsf"),
		UserAgent: envOr("ARGO_USER_AGENT",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/106.0.0.0 Safari/537.36"),

		ChallengeTimeoutSeconds: envOrInt("ARGO_CHALLENGE_TIMEOUT", 15),
		LoginTimeoutSeconds:     envOrInt("ARGO_LOGIN_TIMEOUT", 15),
		RedirectTimeoutSeconds:  envOrInt("ARGO_REDIRECT_TIMEOUT", 6),
		TokenTimeoutSeconds:     envOrInt("ARGO_TOKEN_TIMEOUT", 20),
		ProbeTimeoutSeconds:     envOrInt("ARGO_PROBE_TIMEOUT", 25),
		DashboardTimeoutSeconds: envOrInt("ARGO_DASHBOARD_TIMEOUT", 30),

		MaxRedirectHops: envOrInt("ARGO_MAX_REDIRECT_HOPS", 10),
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return strings.EqualFold(value, "true") || value == "1"
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
