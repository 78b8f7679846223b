package telegram

import "testing"

func TestNormalizePeerKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"@AtlasDubaiBot", "atlasdubaibot"},
		{"AtlasDubaiBot", "atlasdubaibot"},
		{"  @SomeBot  ", "somebot"},
		{"123456789", "123456789"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizePeerKey(tt.in); got != tt.want {
			t.Fatalf("NormalizePeerKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
