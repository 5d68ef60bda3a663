package argo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/dende197/g-connect-backend/internal/config"
)

// Client talks to the Argo family portal: the OAuth2/PKCE endpoints, the
// proprietary REST API (primary and legacy bases) and the legacy web UI.
// It holds no session state; every login negotiates its own PKCE
// parameters and cookie jar.
type Client struct {
	opts Options
}

// Options is the explicit configuration for a Client. All values are
// required; FromConfig fills them from the runtime Config.
type Options struct {
	AuthURL     string
	LoginURL    string
	TokenURL    string
	RedirectURI string
	ClientID    string
	Scope       string

	APIBase       string
	APIBaseLegacy string
	LegacyWebURL  string
	UserAgent     string

	ChallengeTimeout time.Duration
	LoginTimeout     time.Duration
	RedirectTimeout  time.Duration
	TokenTimeout     time.Duration
	ProbeTimeout     time.Duration
	DashboardTimeout time.Duration

	MaxRedirectHops int

	Debug bool
}

func FromConfig(cfg config.Config) Options {
	return Options{
		AuthURL:     cfg.AuthURL,
		LoginURL:    cfg.LoginURL,
		TokenURL:    cfg.TokenURL,
		RedirectURI: cfg.RedirectURI,
		ClientID:    cfg.ClientID,
		Scope:       cfg.Scope,

		APIBase:       cfg.APIBase,
		APIBaseLegacy: cfg.APIBaseLegacy,
		LegacyWebURL:  cfg.LegacyWebURL,
		UserAgent:     cfg.UserAgent,

		ChallengeTimeout: time.Duration(cfg.ChallengeTimeoutSeconds) * time.Second,
		LoginTimeout:     time.Duration(cfg.LoginTimeoutSeconds) * time.Second,
		RedirectTimeout:  time.Duration(cfg.RedirectTimeoutSeconds) * time.Second,
		TokenTimeout:     time.Duration(cfg.TokenTimeoutSeconds) * time.Second,
		ProbeTimeout:     time.Duration(cfg.ProbeTimeoutSeconds) * time.Second,
		DashboardTimeout: time.Duration(cfg.DashboardTimeoutSeconds) * time.Second,

		MaxRedirectHops: cfg.MaxRedirectHops,

		Debug: cfg.Debug,
	}
}

func New(opts Options) *Client {
	if opts.MaxRedirectHops <= 0 {
		opts.MaxRedirectHops = 10
	}
	return &Client{opts: opts}
}

func (c *Client) debugf(format string, args ...interface{}) {
	if c.opts.Debug {
		log.Printf("argo: "+format, args...)
	}
}

// Headers builds the header set required by every per-profile REST
// call: bearer access token, per-profile token and school code.
func (c *Client) Headers(school, accessToken, profileToken string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "Application/json")
	h.Set("Accept", "Application/json")
	h.Set("Authorization", "Bearer "+accessToken)
	if school != "" {
		h.Set("x-cod-min", school)
	}
	if profileToken != "" {
		h.Set("x-auth-token", profileToken)
	}
	h.Set("User-Agent", c.opts.UserAgent)
	return h
}

// apiJSON performs one REST call and decodes the JSON body into a map.
// Non-2xx statuses and undecodable bodies are errors; the caller decides
// whether to fall through to the next strategy.
func (c *Client) apiJSON(ctx context.Context, method, rawURL string, headers http.Header, payload interface{}, timeout time.Duration) (map[string]interface{}, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: status %d", method, rawURL, resp.StatusCode)
	}
	decoded := map[string]interface{}{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	return decoded, nil
}
