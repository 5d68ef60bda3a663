package argo

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dende197/g-connect-backend/internal/models"
)

// probe is one identity data source. The portal exposes several
// partially-overlapping endpoints for the same student record; which of
// them answers depends on school and portal generation.
type probe struct {
	method  string
	path    string
	payload interface{}
}

var enumerationProbes = []probe{
	{http.MethodGet, "dettaglioprofilo", nil},
	{http.MethodPost, "curriculumalunno", map[string]string{}},
	{http.MethodPost, "schedaalunno", map[string]string{}},
	{http.MethodPost, "dashboard/dashboard", map[string]interface{}{
		"opzioni": map[string]bool{"intestazione": true},
	}},
}

// EnrichProfiles turns the raw profile-login records into display
// profiles. Enumeration is strictly sequential: concurrent identity
// lookups on the same account are unreliable upstream. A student whose
// every probe misses still appears with placeholder fields; one
// unresolvable child must not block access to siblings.
func (c *Client) EnrichProfiles(ctx context.Context, school, accessToken string, raw []RawProfile) []models.Profile {
	profiles := make([]models.Profile, 0, len(raw))
	for i, rp := range raw {
		name, class, schoolName := hintFromRecord(rp.Data)
		if name == "" || NormalizeClass(class) == "" {
			headers := c.Headers(school, accessToken, rp.Token)
			found := c.runProbes(ctx, headers, enumerationProbes)
			if name == "" {
				name = found.Name
			}
			if NormalizeClass(class) == "" && found.Class != "" {
				class = found.Class
			}
		}
		class = NormalizeClass(class)
		if name == "" {
			name = fmt.Sprintf("STUDENTE %d", i+1)
		}
		if class == "" {
			class = "N/D"
		}
		if schoolName == "" {
			schoolName = school
		}
		profiles = append(profiles, models.Profile{
			Index:     i,
			Name:      strings.ToUpper(name),
			Class:     class,
			School:    schoolName,
			AuthToken: rp.Token,
		})
	}
	return profiles
}

// runProbes tries each probe against the primary and then the legacy API
// base, merging partial fields and stopping at the first probe that
// completes the identity.
func (c *Client) runProbes(ctx context.Context, headers http.Header, probes []probe) Identity {
	var ident Identity
	for _, p := range probes {
		for _, base := range []string{c.opts.APIBase, c.opts.APIBaseLegacy} {
			decoded, err := c.apiJSON(ctx, p.method, base+p.path, headers, p.payload, c.opts.ProbeTimeout)
			if err != nil {
				c.debugf("probe %s %s: %v", p.method, p.path, err)
				continue
			}
			found := identityFromPayload(decoded)
			if ident.Name == "" {
				ident.Name = found.Name
			}
			if ident.Class == "" {
				ident.Class = found.Class
			}
			if ident.Name != "" && NormalizeClass(ident.Class) != "" {
				return ident
			}
		}
	}
	return ident
}

// hintFromRecord extracts the minimal identity guess the profile-login
// record already carries.
func hintFromRecord(record map[string]interface{}) (name, class, school string) {
	if record == nil {
		return "", "", ""
	}
	alunno := asMap(record["alunno"])
	name = studentName(alunno)
	if name == "" {
		name = studentName(record)
	}
	class = studentClass(alunno)
	if class == "" {
		class = studentClass(record)
	}
	if class == "" {
		class = studentClass(asMap(record["scheda"]))
	}
	school = str(record, "desScuola", "desDenominazione", "scuola")
	if school == "" {
		school = str(asMap(record["scheda"]), "desScuola", "desDenominazione")
	}
	return name, class, school
}

// identityFromPayload digs a name and class out of whatever shape a
// probe answered with: a data wrapper, an alunno block, a dashboard
// intestazione header, or plain top-level fields.
func identityFromPayload(m map[string]interface{}) Identity {
	if m == nil {
		return Identity{}
	}
	roots := []map[string]interface{}{m}
	if data := asMap(m["data"]); data != nil {
		roots = append(roots, data)
	}
	var ident Identity
	for _, root := range roots {
		nodes := []map[string]interface{}{
			asMap(root["alunno"]),
			asMap(root["intestazione"]),
			asMap(dig(root, "scheda", "alunno")),
			root,
		}
		for _, node := range nodes {
			if node == nil {
				continue
			}
			if ident.Name == "" {
				if found := studentName(node); found != "" {
					ident.Name = found
				} else if found := str(node, "alunno"); found != "" {
					// intestazione carries the name as a plain string
					ident.Name = found
				}
			}
			if ident.Class == "" {
				ident.Class = studentClass(node)
			}
		}
	}
	return ident
}
