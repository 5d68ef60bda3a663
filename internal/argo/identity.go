package argo

import (
	"context"
	"net/http"
	"strings"
)

// Identity is the (possibly partial) outcome of the resolution cascade.
// Empty fields are valid; the caller substitutes display placeholders.
type Identity struct {
	Name  string
	Class string
}

type ResolveInput struct {
	School       string
	Username     string
	AccessToken  string
	ProfileToken string
	HintName     string
	HintClass    string
	// Jar is the authenticated web session from the PKCE phase, needed
	// by the HTML scrape fallback.
	Jar http.CookieJar
}

var resolutionProbes = []probe{
	{http.MethodGet, "dettaglioprofilo", nil},
	{http.MethodPost, "dashboard/dashboard", map[string]interface{}{
		"opzioni": map[string]bool{"intestazione": true},
	}},
	{http.MethodGet, "anagrafe", nil},
	{http.MethodGet, "alunno", nil},
	{http.MethodGet, "alunnoanagrafe", nil},
}

// ResolveIdentity recovers name and class for one selected profile. It
// never fails: whatever the cascade could not fill stays empty.
//
// The fast path trusts the enumeration hint unless the name is just the
// username echoed back, a shape several upstream failure modes share.
func (c *Client) ResolveIdentity(ctx context.Context, in ResolveInput) Identity {
	hintName := strings.TrimSpace(in.HintName)
	hintClass := NormalizeClass(in.HintClass)
	hintUsable := hintName != "" && !strings.EqualFold(hintName, strings.TrimSpace(in.Username))
	if hintUsable && IsCanonicalClass(hintClass) {
		return Identity{Name: strings.ToUpper(hintName), Class: hintClass}
	}

	headers := c.Headers(in.School, in.AccessToken, in.ProfileToken)
	ident := c.runProbes(ctx, headers, resolutionProbes)
	if ident.Name == "" && hintUsable {
		ident.Name = hintName
	}
	if NormalizeClass(ident.Class) == "" && hintClass != "" {
		ident.Class = hintClass
	}

	if (ident.Name == "" || NormalizeClass(ident.Class) == "") && in.Jar != nil {
		scraped := c.scrapeIdentity(ctx, in.Jar)
		if ident.Name == "" {
			ident.Name = scraped.Name
		}
		if NormalizeClass(ident.Class) == "" && scraped.Class != "" {
			ident.Class = scraped.Class
		}
	}

	ident.Name = strings.ToUpper(strings.TrimSpace(ident.Name))
	ident.Class = NormalizeClass(ident.Class)
	return ident
}
