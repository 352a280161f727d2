package namecache

import "testing"

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"arsenal", "arsenol", 1},
		{"münchen", "munchen", 1},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := similarity("abc", "abc"); got != 1 {
		t.Errorf("identical strings should score 1, got %f", got)
	}
	if got := similarity("", ""); got != 1 {
		t.Errorf("empty strings should score 1, got %f", got)
	}
	// One edit over ten runes.
	if got := similarity("barcelonna", "barcelona"); got < 0.89 || got > 0.91 {
		t.Errorf("similarity = %f, want 0.9", got)
	}
}

func TestFoldName(t *testing.T) {
	if got := foldName("  Manchester   UNITED "); got != "manchester united" {
		t.Errorf("foldName() = %q", got)
	}
}
