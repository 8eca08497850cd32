package session

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// KeyLength is the fixed length of a session key.
const KeyLength = 4

// keyAlphabet is the fixed 30-symbol alphabet keys are drawn from: uppercase
// letters without the look-alikes I and O, digits without 0, 1, 6 and 8.
const keyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ234579"

// keySpace is len(keyAlphabet)^KeyLength, the number of representable keys.
var keySpace = func() *big.Int {
	n := big.NewInt(1)
	for i := 0; i < KeyLength; i++ {
		n.Mul(n, big.NewInt(int64(len(keyAlphabet))))
	}
	return n
}()

// GenerateKey draws a uniformly random integer in [0, 30^4) and encodes it
// base-30 over the key alphabet, left-padded to KeyLength. Collision handling
// against live sessions is the registry's job.
func GenerateKey() (string, error) {
	n, err := rand.Int(rand.Reader, keySpace)
	if err != nil {
		return "", err
	}
	return encodeKey(n.Int64()), nil
}

// encodeKey maps an integer in [0, 30^4) to its fixed-width base-30 form.
// Every alphabet symbol is equally likely in every position for uniform n.
func encodeKey(n int64) string {
	base := int64(len(keyAlphabet))
	var buf [KeyLength]byte
	for i := KeyLength - 1; i >= 0; i-- {
		buf[i] = keyAlphabet[n%base]
		n /= base
	}
	return string(buf[:])
}

// NormalizeKey canonicalizes client-supplied keys: trimmed, uppercased.
// Key comparison is case-insensitive everywhere.
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// ValidKey reports whether a normalized key has the right length and alphabet.
func ValidKey(key string) bool {
	if len(key) != KeyLength {
		return false
	}
	for i := 0; i < len(key); i++ {
		if !strings.ContainsRune(keyAlphabet, rune(key[i])) {
			return false
		}
	}
	return true
}
