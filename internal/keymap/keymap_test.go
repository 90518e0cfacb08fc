package keymap

import (
	"testing"
)

func TestAll_NoDuplicateKeys(t *testing.T) {
	seen := make(map[string]Action)
	for _, b := range All {
		for _, k := range b.Keys {
			if prev, ok := seen[k]; ok {
				t.Errorf("key %q bound to both %q and %q", k, prev, b.Action)
			}
			seen[k] = b.Action
		}
	}
}

func TestHint(t *testing.T) {
	want := "Press 0-9 to adjust volume. Press Ctrl+C to exit."
	if got := Hint(All); got != want {
		t.Errorf("Hint(All) = %q, want %q", got, want)
	}
}

func TestDisplayKeys(t *testing.T) {
	tests := []struct {
		keys []string
		want string
	}{
		{[]string{"0", "1", "2"}, "0-2"},
		{[]string{"1", "3"}, "1/3"},
		{[]string{"5"}, "5"},
		{[]string{"ctrl+c"}, "Ctrl+C"},
		{[]string{"q", "ctrl+c"}, "Q/Ctrl+C"},
		{[]string{"+"}, "+"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := displayKeys(tt.keys); got != tt.want {
				t.Errorf("displayKeys(%v) = %q, want %q", tt.keys, got, tt.want)
			}
		})
	}
}
