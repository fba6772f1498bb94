// Package otp generates and checks six-digit verification codes.
//
// Codes are never stored in plaintext; callers persist HashCode(code) and
// compare candidates with VerifyCode. The digest is a single unsalted
// SHA-256, acceptable only because codes live for minutes.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"math/big"
)

const (
	Digits  = 6
	minCode = 100000
	span    = 900000 // 100000..999999
)

// GenerateCode draws a uniform code in [100000, 999999] from r.
// A nil r uses crypto/rand.
func GenerateCode(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	n, err := rand.Int(r, big.NewInt(span))
	if err != nil {
		return "", fmt.Errorf("otp: read random source: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+minCode), nil
}

// HashCode returns the base64 SHA-256 digest of code.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// VerifyCode reports whether candidate hashes to digest.
func VerifyCode(candidate, digest string) bool {
	if digest == "" {
		return false
	}
	got := HashCode(candidate)
	return subtle.ConstantTimeCompare([]byte(got), []byte(digest)) == 1
}
