package utils

import "testing"

func TestNormalizeTitle(t *testing.T) {
	if got := NormalizeTitle("  The   Lion KING "); got != "the lion king" {
		t.Errorf("Expected 'the lion king', got %q", got)
	}
}

func TestClosestTitle(t *testing.T) {
	titles := []string{"Anikulapo", "King of Boys", "Jagun Jagun", "The Black Book"}

	tests := []struct {
		query string
		want  int
	}{
		{"king of boys", 1},
		{"KING OF BOYS", 1},
		{"Kng of Boys", 1},
		{"Jagun Jagum", 2},
		{"black book the", -1},
		{"Completely different", -1},
		{"", -1},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := ClosestTitle(tt.query, titles); got != tt.want {
				t.Errorf("ClosestTitle(%q) = %d, want %d", tt.query, got, tt.want)
			}
		})
	}
}
