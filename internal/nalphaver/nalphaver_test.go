package nalphaver

import "testing"

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2.3", "1.2.3", 0},
		{"1.2.3", "1.2.3r", -1},
		{"1.2.3r", "1.2.3", 1},
		{"1.2.3r", "1.2.3rc1", -1}, // shorter suffix with same prefix sorts first
		{"2.0", "1.99", 1},
		{"1.0.0", "1", 0}, // missing trailing fields treated as (0, "")
		{"", "", 0},
	}
	for _, tt := range tests {
		got := Compare(tt.a, tt.b)
		if got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
