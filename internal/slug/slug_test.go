package slug

import (
	"strings"
	"testing"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name     string
		username string
		want     string
	}{
		{"already a slug", "domm", "domm"},
		{"uppercase", "DoMM", "domm"},
		{"inner whitespace", "john  doe", "johndoe"},
		{"tabs and newlines", "a\tb\nc", "abc"},
		{"punctuation", "j.o-h_n!", "john"},
		{"digits kept", "user_2024", "user2024"},
		{"accented letters dropped", "José", "jos"},
		{"non latin dropped", "пароль1", "1"},
		{"only symbols", "!!!", ""},
		{"empty", "", ""},
		{"truncated", strings.Repeat("ab", 20), strings.Repeat("ab", 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Derive(tt.username); got != tt.want {
				t.Errorf("Derive(%q) = %q, want %q", tt.username, got, tt.want)
			}
		})
	}
}

func TestDerive_Properties(t *testing.T) {
	inputs := []string{
		"domm",
		"  Spaced Out Name  ",
		"MiXeD-CaSe_123",
		strings.Repeat("x", 100),
		"émoji 🎉 name",
		"a b c d e f g h i j k l m n o p q r s t u v w x y z 0 1 2 3 4 5",
	}

	for _, in := range inputs {
		got := Derive(in)

		if again := Derive(got); again != got {
			t.Errorf("Derive not idempotent for %q: %q then %q", in, got, again)
		}
		if Derive(in) != got {
			t.Errorf("Derive not deterministic for %q", in)
		}
		if len(got) > MaxLength {
			t.Errorf("Derive(%q) length = %d, want <= %d", in, len(got), MaxLength)
		}
		for _, r := range got {
			if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
				t.Errorf("Derive(%q) = %q contains %q", in, got, r)
			}
		}
	}
}
