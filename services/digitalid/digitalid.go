package digitalid

import (
	"crypto/rand"
	"fmt"
)

// Alphabet excludes characters that read ambiguously on printed labels
// (0/O, 1/I/L, 5/S, 8/B).
const Alphabet = "ACDEFGHJKMNPQRTUVWXYZ234679"

// Length is the fixed size of a public address digital id.
const Length = 8

// maxUnbiasedByte is the largest multiple of len(Alphabet) that fits in a
// byte. Bytes at or above it are rejected so every alphabet character is
// equally likely; plain modulo would favor the first 256%27 characters.
const maxUnbiasedByte = 256 - 256%len(Alphabet)

// New generates a random digital id from the unambiguous alphabet.
func New() (string, error) {
	id := make([]byte, 0, Length)
	buf := make([]byte, Length)
	for len(id) < Length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxUnbiasedByte {
				continue
			}
			id = append(id, Alphabet[int(b)%len(Alphabet)])
			if len(id) == Length {
				break
			}
		}
	}
	return string(id), nil
}

// IsValid reports whether s has the shape of a digital id.
func IsValid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		found := false
		for j := 0; j < len(Alphabet); j++ {
			if s[i] == Alphabet[j] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
