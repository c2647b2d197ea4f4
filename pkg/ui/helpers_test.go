package ui

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"this is far too long", 10, "this is t…"},
		{"anything", 0, ""},
		{"日本語のレイヤー", 8, "日本語…"}, // wide runes count as two cells
	}
	for _, c := range cases {
		if got := truncate(c.in, c.width); got != c.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", c.in, c.width, got, c.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 5); got != "ab   " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("abcdef", 3); got != "abcdef" {
		t.Errorf("padRight must not cut: %q", got)
	}
}

func TestDefaultThemeStyles(t *testing.T) {
	th := TestTheme()
	// Styles must render text through unchanged; color codes are profile
	// dependent and not asserted here.
	for name, s := range map[string]string{
		"base":   th.Base.Render("layer"),
		"cursor": th.Cursor.Render("layer"),
		"header": th.Header.Render("layer"),
	} {
		if !strings.Contains(s, "layer") {
			t.Errorf("%s style dropped its text: %q", name, s)
		}
	}
}
