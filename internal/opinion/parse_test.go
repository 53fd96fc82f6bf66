package opinion

import (
	"testing"
)

func TestParseOpinionPlainJSON(t *testing.T) {
	op, err := parseOpinion(`{"risk_score": 0.72, "confidence": 0.9, "reasoning": "uneven ELA", "analysis": "block spread"}`)
	if err != nil {
		t.Fatalf("parseOpinion: %v", err)
	}
	if op.RiskScore != 0.72 || op.Confidence != 0.9 {
		t.Fatalf("scores = (%v, %v)", op.RiskScore, op.Confidence)
	}
	if op.Reasoning != "uneven ELA" || op.Analysis != "block spread" {
		t.Fatalf("text fields = (%q, %q)", op.Reasoning, op.Analysis)
	}
}

func TestParseOpinionFencedJSON(t *testing.T) {
	reply := "Here is my assessment:\n```json\n{\"risk_score\": 0.4, \"confidence\": 0.8, \"reasoning\": \"ok\"}\n```\nLet me know if you need more."
	op, err := parseOpinion(reply)
	if err != nil {
		t.Fatalf("parseOpinion: %v", err)
	}
	if op.RiskScore != 0.4 {
		t.Fatalf("risk_score = %v, want 0.4", op.RiskScore)
	}
}

func TestParseOpinionEmbeddedInProse(t *testing.T) {
	reply := `Based on the signals, {"risk_score": 0.15, "confidence": 0.6, "reasoning": "clean"} overall.`
	op, err := parseOpinion(reply)
	if err != nil {
		t.Fatalf("parseOpinion: %v", err)
	}
	if op.RiskScore != 0.15 || op.Confidence != 0.6 {
		t.Fatalf("scores = (%v, %v)", op.RiskScore, op.Confidence)
	}
}

func TestParseOpinionClampsScores(t *testing.T) {
	op, err := parseOpinion(`{"risk_score": 1.7, "confidence": -0.2}`)
	if err != nil {
		t.Fatalf("parseOpinion: %v", err)
	}
	if op.RiskScore != 1 || op.Confidence != 0 {
		t.Fatalf("scores not clamped: (%v, %v)", op.RiskScore, op.Confidence)
	}
}

func TestParseOpinionRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no risk_score", `{"confidence": 0.9, "reasoning": "x"}`},
		{"no confidence", `{"risk_score": 0.5}`},
		{"not json", "I cannot assess this image."},
		{"empty", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseOpinion(tc.reply); err == nil {
				t.Fatalf("expected error for %q", tc.reply)
			}
		})
	}
}

func TestParseOpinionTrimsText(t *testing.T) {
	op, err := parseOpinion(`{"risk_score": 0.5, "confidence": 0.5, "reasoning": "  padded  ", "analysis": "\nnotes\n"}`)
	if err != nil {
		t.Fatalf("parseOpinion: %v", err)
	}
	if op.Reasoning != "padded" || op.Analysis != "notes" {
		t.Fatalf("text not trimmed: (%q, %q)", op.Reasoning, op.Analysis)
	}
}
