package session

import (
	"strings"
	"testing"
)

func TestGenerateKey(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		key, err := GenerateKey()
		if err != nil {
			t.Fatalf("GenerateKey() error = %v", err)
		}
		if len(key) != KeyLength {
			t.Fatalf("GenerateKey() = %q, want length %d", key, KeyLength)
		}
		if !ValidKey(key) {
			t.Fatalf("GenerateKey() = %q, contains symbols outside the alphabet", key)
		}
		seen[key] = struct{}{}
	}
	// 200 draws from 810000 keys collide occasionally but never collapse
	// to a handful of values.
	if len(seen) < 150 {
		t.Fatalf("200 draws produced only %d distinct keys", len(seen))
	}
}

func TestKeyAlphabetExcludesAmbiguousSymbols(t *testing.T) {
	if len(keyAlphabet) != 30 {
		t.Fatalf("alphabet has %d symbols, want 30", len(keyAlphabet))
	}
	for _, forbidden := range "IO0168" {
		if strings.ContainsRune(keyAlphabet, forbidden) {
			t.Errorf("alphabet contains ambiguous symbol %q", forbidden)
		}
	}
	for i := 0; i < len(keyAlphabet); i++ {
		if strings.Count(keyAlphabet, string(keyAlphabet[i])) != 1 {
			t.Errorf("alphabet symbol %q repeats", keyAlphabet[i])
		}
	}
}

// Walking the whole integer domain proves the encoding is a bijection and
// that a uniform draw makes every symbol equally likely in every position.
func TestEncodeKeyUniform(t *testing.T) {
	total := keySpace.Int64()
	if total != 810000 {
		t.Fatalf("key space = %d, want 810000", total)
	}

	counts := [KeyLength][256]int{}
	seen := make(map[string]struct{}, total)
	for n := int64(0); n < total; n++ {
		key := encodeKey(n)
		if len(key) != KeyLength {
			t.Fatalf("encodeKey(%d) = %q, want length %d", n, key, KeyLength)
		}
		seen[key] = struct{}{}
		for pos := 0; pos < KeyLength; pos++ {
			counts[pos][key[pos]]++
		}
	}
	if len(seen) != int(total) {
		t.Fatalf("encoding produced %d distinct keys, want %d", len(seen), total)
	}

	want := int(total) / len(keyAlphabet)
	for pos := 0; pos < KeyLength; pos++ {
		for i := 0; i < len(keyAlphabet); i++ {
			if got := counts[pos][keyAlphabet[i]]; got != want {
				t.Errorf("symbol %q at position %d occurs %d times, want %d", keyAlphabet[i], pos, got, want)
			}
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "ab3x", "AB3X"},
		{"surrounding space", "  AB3X \n", "AB3X"},
		{"already canonical", "QQZ7", "QQZ7"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeKey(tt.in); got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"valid", "AB3X", true},
		{"too short", "AB3", false},
		{"too long", "AB3XZ", false},
		{"excluded letter", "ABIO", false},
		{"excluded digit", "AB08", false},
		{"lowercase not normalized", "ab3x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidKey(tt.key); got != tt.want {
				t.Errorf("ValidKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}
