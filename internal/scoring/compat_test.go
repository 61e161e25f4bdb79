package scoring_test

import (
	"testing"

	"github.com/nyashahama/realyou-backend/internal/scoring"
)

func TestNormalizeAndValidType(t *testing.T) {
	tests := []struct {
		in    string
		norm  string
		valid bool
	}{
		{"enfp", "ENFP", true},
		{" i-n-t-j ", "INTJ", true},
		{"ESTX", "ESTX", false},
		{"ENF", "ENF", false},
		{"ENFPS", "ENFPS", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := scoring.NormalizeType(tt.in); got != tt.norm {
			t.Errorf("NormalizeType(%q) = %q, want %q", tt.in, got, tt.norm)
		}
		if got := scoring.ValidType(tt.in); got != tt.valid {
			t.Errorf("ValidType(%q) = %v, want %v", tt.in, got, tt.valid)
		}
	}
}

func TestAllTypes(t *testing.T) {
	all := scoring.AllTypes()
	if len(all) != 16 {
		t.Fatalf("got %d types, want 16", len(all))
	}
	seen := map[string]bool{}
	for _, c := range all {
		if !scoring.ValidType(c) || seen[c] {
			t.Errorf("bad or repeated code %q", c)
		}
		seen[c] = true
	}
}

func TestCompatibilityScore(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"ENFP", "ENFP", 84}, // 50+8+10+8+8
		{"ENFP", "ISTJ", 27}, // 50-4-6-8-5
		{"ENFP", "INFJ", 59}, // 50-4+10+8-5
		{"enfp", "e n f p", 84},
		{"ENFP", "XXXX", 50},
		{"", "", 50},
	}
	for _, tt := range tests {
		if got := scoring.CompatibilityScore(tt.a, tt.b); got != tt.want {
			t.Errorf("CompatibilityScore(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCompatibilityLabel(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{95, "High Potential Match"},
		{75, "High Potential Match"},
		{74, "Good Fit With Friction Points"},
		{55, "Good Fit With Friction Points"},
		{40, "Mixed Match — Depends on Communication"},
		{39, "High Challenge Match"},
	}
	for _, tt := range tests {
		if got := scoring.CompatibilityLabel(tt.score); got != tt.want {
			t.Errorf("CompatibilityLabel(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestCompatibilityInsights(t *testing.T) {
	in := scoring.CompatibilityInsights("ENTJ", "ISTJ")
	if len(in.Strengths) != 4 || len(in.Challenges) != 4 {
		t.Fatalf("want one strength and challenge per axis, got %d/%d", len(in.Strengths), len(in.Challenges))
	}
	if in.Strengths[0] != "One of you brings energy and momentum; the other brings calm and reflection." {
		t.Errorf("EI strength = %q", in.Strengths[0])
	}
	if in.Strengths[2] != "You both value logic and straightforward problem solving when things get intense." {
		t.Errorf("TF strength = %q", in.Strengths[2])
	}
	if in.Strengths[3] != "You both like plans, clarity, and locking things in." {
		t.Errorf("JP strength = %q", in.Strengths[3])
	}

	empty := scoring.CompatibilityInsights("ENTJ", "nope")
	if empty.Strengths == nil || len(empty.Strengths) != 0 {
		t.Errorf("invalid pair should give empty non-nil lists, got %#v", empty)
	}
}

func TestLetters(t *testing.T) {
	ls := scoring.Letters("infp")
	if len(ls) != 4 {
		t.Fatalf("got %d letters, want 4", len(ls))
	}
	if ls[0].Title != "I — Introvert" || ls[3].Title != "P — Perceiving" {
		t.Errorf("titles = %q ... %q", ls[0].Title, ls[3].Title)
	}
	if scoring.Letters("bad") != nil {
		t.Error("invalid code should yield nil")
	}
}
