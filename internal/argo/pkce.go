package argo

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/golang-jwt/jwt/v5"
)

// RawProfile is one linked student as returned by the provider's
// profile-login API: the secondary per-profile token plus the untouched
// upstream record.
type RawProfile struct {
	Token string
	Data  map[string]interface{}
}

// LoginResult is the outcome of a full PKCE negotiation. The cookie jar
// is kept because the identity scrape fallback needs the same
// authenticated web session.
type LoginResult struct {
	AccessToken    string
	TokenExpiresAt time.Time
	Profiles       []RawProfile
	Jar            http.CookieJar
}

var (
	loginChallengeRe = regexp.MustCompile(`login_challenge=([0-9a-fA-F]+)`)
	authCodeRe       = regexp.MustCompile(`code=([0-9a-zA-Z\-_.]+)`)
)

// Negotiate runs the Authorization-Code-with-PKCE exchange and the
// subsequent profile-login call. It either completes the whole chain or
// fails with a single *AuthError; there is no partial success.
func (c *Client) Negotiate(ctx context.Context, school, username, password string) (*LoginResult, error) {
	verifier, challenge, state, err := newPKCEParams()
	if err != nil {
		return nil, wrapAuth("pkce_params", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, wrapAuth("cookie_jar", err)
	}

	loginChallenge, err := c.fetchLoginChallenge(ctx, jar, challenge, state)
	if err != nil {
		return nil, wrapAuth("challenge", err)
	}
	c.debugf("login challenge acquired")

	next, err := c.postCredentials(ctx, jar, loginChallenge, school, username, password)
	if err != nil {
		return nil, wrapAuth("login", err)
	}

	code, err := c.followToCode(ctx, jar, next)
	if err != nil {
		return nil, wrapAuth("no_code", err)
	}
	c.debugf("authorization code obtained")

	accessToken, err := c.exchangeCode(ctx, verifier, code)
	if err != nil {
		return nil, wrapAuth("token", err)
	}

	profiles, err := c.profileLogin(ctx, accessToken)
	if err != nil {
		return nil, wrapAuth("profile_login", err)
	}
	c.debugf("negotiation complete, %d linked profile(s)", len(profiles))

	return &LoginResult{
		AccessToken:    accessToken,
		TokenExpiresAt: tokenExpiry(accessToken),
		Profiles:       profiles,
		Jar:            jar,
	}, nil
}

func newPKCEParams() (verifier, challenge, state string, err error) {
	raw := make([]byte, 64)
	if _, err = rand.Read(raw); err != nil {
		return
	}
	verifier = hex.EncodeToString(raw)
	digest := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(digest[:])
	stateRaw := make([]byte, 32)
	if _, err = rand.Read(stateRaw); err != nil {
		return
	}
	state = base64.RawURLEncoding.EncodeToString(stateRaw)
	return
}

// fetchLoginChallenge opens the authorization endpoint and recovers the
// login_challenge token. The provider usually puts it in the redirect
// URL, but sometimes only in a hidden form field of the returned HTML.
func (c *Client) fetchLoginChallenge(ctx context.Context, jar http.CookieJar, challenge, state string) (string, error) {
	endpoint, err := url.Parse(c.opts.AuthURL)
	if err != nil {
		return "", err
	}
	query := url.Values{
		"redirect_uri":          {c.opts.RedirectURI},
		"client_id":             {c.opts.ClientID},
		"response_type":         {"code"},
		"prompt":                {"login"},
		"state":                 {state},
		"scope":                 {c.opts.Scope},
		"code_challenge":        {challenge},
		"code_challenge_method": {"S256"},
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	client := &http.Client{Jar: jar, Timeout: c.opts.ChallengeTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	finalURL := resp.Request.URL.String()
	if match := loginChallengeRe.FindStringSubmatch(finalURL); match != nil {
		return match[1], nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err == nil {
		for _, name := range []string{"challenge", "login_challenge"} {
			if value, ok := doc.Find(`input[name="` + name + `"]`).Attr("value"); ok && value != "" {
				return value, nil
			}
		}
	}
	return "", fmt.Errorf("login_challenge not found (final url %s)", finalURL)
}

// postCredentials submits the login form with redirects disabled and
// returns the next hop. A 200-with-HTML response is scanned for an
// anchor carrying a code= parameter or a meta-refresh URL.
func (c *Client) postCredentials(ctx context.Context, jar http.CookieJar, loginChallenge, school, username, password string) (string, error) {
	form := url.Values{
		"challenge":              {loginChallenge},
		"client_id":              {c.opts.ClientID},
		"prefill":                {"true"},
		"famiglia_customer_code": {school},
		"username":               {username},
		"password":               {password},
		"login":                  {"true"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.LoginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.opts.UserAgent)

	client := &http.Client{
		Jar:     jar,
		Timeout: c.opts.LoginTimeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if location := resp.Header.Get("Location"); location != "" {
		return location, nil
	}
	if resp.StatusCode == http.StatusOK {
		if next := scanForCallback(resp); next != "" {
			return next, nil
		}
	}
	return "", fmt.Errorf("credential post rejected: status %d without redirect", resp.StatusCode)
}

func scanForCallback(resp *http.Response) string {
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}
	if href, ok := doc.Find(`a[href*="code="]`).Attr("href"); ok {
		return href
	}
	next := ""
	doc.Find(`meta[http-equiv]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		content, _ := sel.Attr("content")
		idx := strings.Index(strings.ToLower(content), "url=")
		if idx < 0 {
			return true
		}
		target := strings.TrimSpace(content[idx+4:])
		if strings.Contains(target, "code=") {
			next = target
			return false
		}
		return true
	})
	return next
}

// followToCode walks the redirect chain by hand, inspecting each
// Location for the authorization code. The hop bound guarantees
// termination against a looping provider; exhaustion without a code in
// practice means wrong credentials or an invalid school code, since the
// provider gives no explicit error at this stage.
func (c *Client) followToCode(ctx context.Context, jar http.CookieJar, next string) (string, error) {
	client := &http.Client{
		Jar:     jar,
		Timeout: c.opts.RedirectTimeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	base, err := url.Parse(c.opts.LoginURL)
	if err != nil {
		return "", err
	}
	location := next
	for hop := 0; hop <= c.opts.MaxRedirectHops; hop++ {
		if match := authCodeRe.FindStringSubmatch(location); match != nil {
			return match[1], nil
		}
		ref, err := url.Parse(location)
		if err != nil {
			break
		}
		target := base.ResolveReference(ref)
		if target.Scheme != "http" && target.Scheme != "https" {
			// App-scheme callback reached without a code: the chain failed.
			break
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		resp, err := client.Do(req)
		if err != nil {
			return "", err
		}
		resp.Body.Close()
		location = resp.Header.Get("Location")
		if location == "" {
			break
		}
		base = target
	}
	return "", authErrf("no_code", "codice di autorizzazione non concesso: credenziali o codice scuola errati")
}

func (c *Client) exchangeCode(ctx context.Context, verifier, code string) (string, error) {
	form := url.Values{
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {c.opts.RedirectURI},
		"code_verifier": {verifier},
		"client_id":     {c.opts.ClientID},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.opts.UserAgent)

	client := &http.Client{Timeout: c.opts.TokenTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange failed: status %d", resp.StatusCode)
	}
	payload := struct {
		AccessToken string `json:"access_token"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token exchange: no access_token in response")
	}
	return payload.AccessToken, nil
}

// profileLogin calls the provider's login API with the bearer token and
// an empty notification-options payload. Its data array is the raw list
// of linked students, each carrying its own per-profile token.
func (c *Client) profileLogin(ctx context.Context, accessToken string) ([]RawProfile, error) {
	payload := map[string]string{
		"clientID":                randomToken(64),
		"lista-x-auth-token":      "[]",
		"x-auth-token-corrente":   "null",
		"lista-opzioni-notifiche": "{}",
	}
	headers := c.Headers("", accessToken, "")
	decoded, err := c.apiJSON(ctx, http.MethodPost, c.opts.APIBase+"login", headers, payload, c.opts.ProbeTimeout)
	if err != nil {
		return nil, err
	}
	data := asSlice(decoded["data"])
	if data == nil {
		return nil, fmt.Errorf("profile login: no data array in response")
	}
	profiles := make([]RawProfile, 0, len(data))
	for _, entry := range data {
		record := asMap(entry)
		profiles = append(profiles, RawProfile{
			Token: str(record, "token"),
			Data:  record,
		})
	}
	return profiles, nil
}

func randomToken(n int) string {
	raw := make([]byte, n)
	_, _ = rand.Read(raw)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// tokenExpiry decodes the access token's exp claim without verifying the
// signature; verification belongs to the provider, we only surface the
// expiry to the client.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
