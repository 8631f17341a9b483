// Package token generates the opaque credentials used for share links and
// webhook endpoints.
package token

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// Length is the fixed length of every generated token.
	Length = 32
)

// Generate returns a 32-character token drawn uniformly from [A-Za-z0-9].
// The token doubles as an unguessable credential, so bytes come from
// crypto/rand; rejection sampling keeps the distribution uniform over the
// 62-symbol alphabet.
func Generate() (string, error) {
	result := make([]byte, 0, Length)
	buf := make([]byte, Length*2)

	for len(result) < Length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			// 248 is the largest multiple of 62 that fits in a byte;
			// anything above it would bias the low symbols.
			if b >= 248 {
				continue
			}
			result = append(result, alphabet[int(b)%len(alphabet)])
			if len(result) == Length {
				break
			}
		}
	}

	return string(result), nil
}

// SecureCompare performs a constant-time comparison of two credentials
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
