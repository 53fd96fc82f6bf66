package verify

import "testing"

func TestMatchNameExactSubstring(t *testing.T) {
	ok, score := matchName("Jane Doe", "This certifies that Jane Doe completed the course.", 0.70)
	if !ok || score != 1.0 {
		t.Fatalf("got (%v, %v), want (true, 1.0)", ok, score)
	}
}

func TestMatchNameIgnoresCaseAndPunctuation(t *testing.T) {
	ok, _ := matchName("JANE DOE", "awarded to jane-doe on completion", 0.70)
	if !ok {
		t.Fatal("case/punctuation variation should still match")
	}
}

func TestMatchNameAllTokens(t *testing.T) {
	ok, score := matchName("Jane Marie Doe", "Doe, Jane Marie — Certificate of Completion", 0.70)
	if !ok {
		t.Fatalf("all tokens present, got (%v, %v)", ok, score)
	}
}

func TestMatchNamePartialTokens(t *testing.T) {
	// One of two significant tokens present: score 0.7 + 0.2*0.5 = 0.8.
	ok, score := matchName("Jane Doe", "issued to jane for outstanding work", 0.70)
	if !ok {
		t.Fatalf("half-token match rejected at threshold 0.70 (score %v)", score)
	}
	if score < 0.79 || score > 0.81 {
		t.Fatalf("score = %v, want 0.8", score)
	}
}

func TestMatchNameRejectsUnrelated(t *testing.T) {
	ok, _ := matchName("Jane Doe", "quarterly revenue exceeded expectations this fiscal period", 0.70)
	if ok {
		t.Fatal("unrelated text should not match")
	}
}

func TestMatchNameEmptyInputs(t *testing.T) {
	if ok, _ := matchName("", "text", 0.70); ok {
		t.Fatal("empty name matched")
	}
	if ok, _ := matchName("Jane", "", 0.70); ok {
		t.Fatal("empty text matched")
	}
}

func TestSimilarityIdentical(t *testing.T) {
	if got := similarity("jane doe", "jane doe"); got != 1.0 {
		t.Fatalf("similarity of identical strings = %v", got)
	}
}

func TestSimilarityDisjoint(t *testing.T) {
	if got := similarity("aaaa", "bbbb"); got != 0 {
		t.Fatalf("similarity of disjoint strings = %v", got)
	}
}

func TestCleanName(t *testing.T) {
	if got := cleanName("  Dr. Jane-Marie   O'Doe  "); got != "dr janemarie odoe" {
		t.Fatalf("cleanName = %q", got)
	}
}
