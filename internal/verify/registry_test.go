package verify

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewRegistryFallbackDomains(t *testing.T) {
	r := NewRegistry()
	if !r.Trusted("https://www.coursera.org/verify/ABC123") {
		t.Fatal("coursera.org should be trusted by default")
	}
	if !r.Trusted("https://courses.edx.org/certificates/xyz") {
		t.Fatal("subdomains of trusted domains should be trusted")
	}
	if r.Trusted("https://evil.example.com/verify") {
		t.Fatal("unknown domain trusted")
	}
	if r.Trusted("https://notcoursera.org/verify") {
		t.Fatal("suffix match must respect the domain boundary")
	}
}

func TestLoadRegistryCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trusted.csv")
	csv := "Organization Name,Verification URL\n" +
		"Acme Institute,https://verify.acme-institute.example/certs\n" +
		"No URL Org,\n" +
		"Bare Domain,certs.example.org/check\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("Len = %d, want 2", r.Len())
	}

	base, ok := r.BaseURL("acme institute")
	if !ok || base != "https://verify.acme-institute.example/certs" {
		t.Fatalf("BaseURL = (%q, %v)", base, ok)
	}
	if _, ok := r.BaseURL("ACME INSTITUTE"); !ok {
		t.Fatal("organization lookup should be case-insensitive")
	}
	if !r.Trusted("https://verify.acme-institute.example/certs/42") {
		t.Fatal("loaded domain not trusted")
	}

	// Scheme-less URLs get https prepended.
	base, ok = r.BaseURL("bare domain")
	if !ok || base != "https://certs.example.org/check" {
		t.Fatalf("BaseURL = (%q, %v)", base, ok)
	}
}

func TestLoadRegistryMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("Name,URL\nfoo,bar\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRegistry(path); err == nil {
		t.Fatal("expected error for CSV without Verification URL column")
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestAddOrganizationTrustsDomain(t *testing.T) {
	r := NewRegistry()
	r.AddOrganization("Test Org", "https://certs.test-org.example/verify")
	if !r.Trusted("https://certs.test-org.example/verify/1") {
		t.Fatal("AddOrganization should trust the URL's domain")
	}
}
