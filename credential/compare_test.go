package credential

import "testing"

func TestSecureCompare(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{name: "equal", a: "abcd", b: "abcd", want: true},
		{name: "equal long", a: "a-much-longer-credential-value", b: "a-much-longer-credential-value", want: true},
		{name: "last byte differs", a: "abcd", b: "abce", want: false},
		{name: "first byte differs", a: "abcd", b: "xbcd", want: false},
		{name: "shorter b", a: "abcd", b: "abc", want: false},
		{name: "longer b", a: "abc", b: "abcd", want: false},
		{name: "both empty", a: "", b: "", want: true},
		{name: "one empty", a: "", b: "a", want: false},
		// An input whose trailing byte equals the sentinel must not be
		// mistaken for a truncated equal value.
		{name: "sentinel suffix", a: "abc\x00", b: "abc", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SecureCompare(tt.a, tt.b); got != tt.want {
				t.Errorf("SecureCompare(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken(32)
	if err != nil {
		t.Fatalf("RandomToken() error = %v", err)
	}
	b, err := RandomToken(32)
	if err != nil {
		t.Fatalf("RandomToken() error = %v", err)
	}

	if a == b {
		t.Error("RandomToken() returned identical tokens")
	}
	// 32 bytes -> 43 base64url characters, no padding.
	if len(a) != 43 {
		t.Errorf("RandomToken() length = %d, want 43", len(a))
	}
}

func TestRandomToken_DefaultLength(t *testing.T) {
	tok, err := RandomToken(0)
	if err != nil {
		t.Fatalf("RandomToken() error = %v", err)
	}
	if len(tok) != 43 {
		t.Errorf("RandomToken(0) length = %d, want default 32-byte token", len(tok))
	}
}
