package redact

import (
	"strings"
	"testing"
)

func TestStringScrubsBearerTokens(t *testing.T) {
	in := "call failed: Authorization: Bearer sk-abc123def456 rejected"
	out := String(in)
	if strings.Contains(out, "sk-abc123def456") {
		t.Fatalf("token survived redaction: %q", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Fatalf("no redaction marker in %q", out)
	}
}

func TestStringScrubsAPIKeys(t *testing.T) {
	out := String("config has api_key=supersecretvalue123")
	if strings.Contains(out, "supersecretvalue123") {
		t.Fatalf("api key survived: %q", out)
	}
}

func TestStringScrubsEmails(t *testing.T) {
	out := String("certificate issued to jane.doe@example.com yesterday")
	if strings.Contains(out, "jane.doe@example.com") {
		t.Fatalf("email survived: %q", out)
	}
	if !strings.Contains(out, "[REDACTED_EMAIL]") {
		t.Fatalf("no email marker in %q", out)
	}
}

func TestStringLeavesPlainText(t *testing.T) {
	in := "analysis 42 completed with score 0.37"
	if out := String(in); out != in {
		t.Fatalf("plain text altered: %q", out)
	}
}

func TestPersonalName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Jane Doe", "J. D."},
		{"jane marie doe", "J. M. D."},
		{"Prince", "P."},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range tests {
		if got := PersonalName(tc.in); got != tc.want {
			t.Errorf("PersonalName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
