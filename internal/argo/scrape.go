package argo

import (
	"context"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// The legacy web UI renders the student header into two fixed element
// IDs. The markup is undocumented and may change without notice, so this
// stays the cascade's last resort, isolated behind the same Identity
// shape as the structured probes.
const (
	scrapeNameSelector  = "#intesta-alunno"
	scrapeClassSelector = "#intesta-classe"
)

// scrapeIdentity fetches the legacy UI with the PKCE-phase cookie jar
// and pulls whatever the two header elements contain. Any failure
// degrades to an empty Identity.
func (c *Client) scrapeIdentity(ctx context.Context, jar http.CookieJar) Identity {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.LegacyWebURL, nil)
	if err != nil {
		return Identity{}
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	client := &http.Client{Jar: jar, Timeout: c.opts.ProbeTimeout}
	resp, err := client.Do(req)
	if err != nil {
		c.debugf("identity scrape: %v", err)
		return Identity{}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.debugf("identity scrape: status %d", resp.StatusCode)
		return Identity{}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		c.debugf("identity scrape: %v", err)
		return Identity{}
	}
	return Identity{
		Name:  strings.TrimSpace(doc.Find(scrapeNameSelector).First().Text()),
		Class: strings.TrimSpace(doc.Find(scrapeClassSelector).First().Text()),
	}
}
