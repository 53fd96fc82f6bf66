// Package verify checks caller-supplied certificate fields against the
// issuing platform's public verification page.
package verify

import (
	"encoding/csv"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// fallbackDomains are always trusted, even with no registry file.
var fallbackDomains = []string{
	"udemy.com", "coursera.org", "edx.org", "linkedin.com",
	"credential.net", "credly.com", "youracclaim.com",
	"accredible.com", "certmetrics.com",
}

// urlPatterns maps issuer keywords to known verification URL templates;
// %s is replaced by the certificate ID.
var urlPatterns = map[string][]string{
	"coursera": {
		"https://www.coursera.org/verify/%s",
		"https://www.coursera.org/account/accomplishments/certificate/%s",
	},
	"udemy": {
		"https://www.udemy.com/certificate/%s",
	},
	"edx": {
		"https://credentials.edx.org/credentials/%s",
		"https://courses.edx.org/certificates/%s",
	},
	"google": {
		"https://www.credential.net/%s",
	},
	"microsoft": {
		"https://www.credly.com/badges/%s",
		"https://learn.microsoft.com/api/credentials/share/%s",
	},
	"ibm": {
		"https://www.credly.com/badges/%s",
	},
	"aws": {
		"https://www.credly.com/badges/%s",
	},
}

// Registry holds the trusted organizations and their verification URLs.
type Registry struct {
	orgs    map[string]string
	domains map[string]struct{}
}

// NewRegistry returns a registry seeded with only the fallback domains.
func NewRegistry() *Registry {
	r := &Registry{
		orgs:    make(map[string]string),
		domains: make(map[string]struct{}),
	}
	for _, d := range fallbackDomains {
		r.domains[d] = struct{}{}
	}
	return r
}

// LoadRegistry reads a CSV of trusted organizations. Expected columns:
// "Organization Name" and "Verification URL". Rows without a URL are
// skipped.
func LoadRegistry(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trusted sources: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read trusted sources: %w", err)
	}
	if len(rows) == 0 {
		return NewRegistry(), nil
	}

	orgCol, urlCol := -1, -1
	for i, name := range rows[0] {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")) {
		case "Organization Name":
			orgCol = i
		case "Verification URL":
			urlCol = i
		}
	}
	if urlCol < 0 {
		return nil, fmt.Errorf("trusted sources: missing %q column", "Verification URL")
	}

	r := NewRegistry()
	for _, row := range rows[1:] {
		if urlCol >= len(row) {
			continue
		}
		verifyURL := normalizeURL(strings.TrimSpace(row[urlCol]))
		if verifyURL == "" {
			continue
		}
		if d := hostOf(verifyURL); d != "" {
			r.domains[d] = struct{}{}
		}
		if orgCol >= 0 && orgCol < len(row) {
			if org := strings.ToLower(strings.TrimSpace(row[orgCol])); org != "" {
				r.orgs[org] = verifyURL
			}
		}
	}
	return r, nil
}

// AddDomain marks a domain as trusted.
func (r *Registry) AddDomain(domain string) {
	r.domains[strings.ToLower(strings.TrimPrefix(domain, "www."))] = struct{}{}
}

// AddOrganization maps an organization to its verification base URL and
// trusts its domain.
func (r *Registry) AddOrganization(name, verifyURL string) {
	verifyURL = normalizeURL(verifyURL)
	r.orgs[strings.ToLower(strings.TrimSpace(name))] = verifyURL
	if d := hostOf(verifyURL); d != "" {
		r.domains[d] = struct{}{}
	}
}

// BaseURL returns the registered verification URL for an organization.
func (r *Registry) BaseURL(org string) (string, bool) {
	u, ok := r.orgs[strings.ToLower(strings.TrimSpace(org))]
	return u, ok
}

// Trusted reports whether the URL's host is a registered domain or a
// subdomain of one.
func (r *Registry) Trusted(rawURL string) bool {
	host := hostOf(rawURL)
	if host == "" {
		return false
	}
	if _, ok := r.domains[host]; ok {
		return true
	}
	for d := range r.domains {
		if strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Len returns the number of registered organizations.
func (r *Registry) Len() int { return len(r.orgs) }

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
}

// normalizeURL adds the https scheme when missing and strips the fragment.
// Query strings are kept; registry URLs may carry required parameters.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	if i := strings.IndexAny(raw, "#"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}
