package app

import (
	"testing"
	"unicode/utf8"

	"github.com/eiannone/keyboard"
)

func TestMapKey(t *testing.T) {
	cases := []struct {
		char rune
		key  keyboard.Key
		want inputEvent
		ok   bool
	}{
		{'q', 0, inputEventQuit, true},
		{'Q', 0, inputEventQuit, true},
		{0, keyboard.KeyEsc, inputEventQuit, true},
		{0, keyboard.KeyCtrlC, inputEventQuit, true},
		{0, keyboard.KeySpace, inputEventToggleGhost, true},
		{'g', 0, inputEventToggleGhost, true},
		{'r', 0, inputEventToggleRecording, true},
		{'x', 0, 0, false},
	}
	for _, c := range cases {
		got, ok := mapKey(c.char, c.key)
		if ok != c.ok || (ok && got != c.want) {
			t.Fatalf("mapKey(%q, %v)=(%v, %v) want=(%v, %v)", c.char, c.key, got, ok, c.want, c.ok)
		}
	}
}

func TestStatusBarPadsToWidth(t *testing.T) {
	if got := statusBar("abc", 6); got != "abc   " {
		t.Fatalf("padded=%q", got)
	}
	if got := statusBar("abcdef", 4); got != "abcd" {
		t.Fatalf("truncated=%q", got)
	}
	if got := statusBar("abc", 0); got != "abc" {
		t.Fatalf("zero width=%q", got)
	}
}

func TestStatusBarTruncatesOnRunes(t *testing.T) {
	// A device label like "Microphone intégré" must not be cut inside a
	// multibyte sequence.
	got := statusBar("Microphone intégré", 16)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 16 {
		t.Fatalf("rune count=%d want=16", n)
	}
}
