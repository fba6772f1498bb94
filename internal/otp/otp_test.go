package otp

import (
	"bytes"
	"errors"
	"strconv"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy unavailable") }

func TestGenerateCodeRange(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := GenerateCode(nil)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != Digits {
			t.Fatalf("expected %d digits, got %q", Digits, code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("non numeric code %q", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code out of range: %d", n)
		}
		seen[code] = true
	}
	if len(seen) < 150 {
		t.Fatalf("expected mostly distinct codes, got %d unique of 200", len(seen))
	}
}

func TestGenerateCodeDeterministicSource(t *testing.T) {
	// rand.Int with an all-zero stream yields 0, the bottom of the range.
	code, err := GenerateCode(bytes.NewReader(make([]byte, 64)))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if code != "100000" {
		t.Fatalf("expected 100000, got %q", code)
	}
}

func TestGenerateCodeRandomFailure(t *testing.T) {
	code, err := GenerateCode(failingReader{})
	if err == nil {
		t.Fatal("expected error")
	}
	if code != "" {
		t.Fatalf("expected empty code on failure, got %q", code)
	}
}

func TestHashCodeDeterministic(t *testing.T) {
	a := HashCode("123456")
	if a != HashCode("123456") {
		t.Fatal("hash must be deterministic")
	}
	if a == HashCode("123457") {
		t.Fatal("different codes must hash differently")
	}
	if a == "123456" {
		t.Fatal("digest must not equal plaintext")
	}
}

func TestVerifyCode(t *testing.T) {
	digest := HashCode("654321")
	tests := []struct {
		name      string
		candidate string
		digest    string
		want      bool
	}{
		{name: "match", candidate: "654321", digest: digest, want: true},
		{name: "mismatch", candidate: "654320", digest: digest, want: false},
		{name: "empty digest", candidate: "654321", digest: "", want: false},
		{name: "empty candidate", candidate: "", digest: digest, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyCode(tt.candidate, tt.digest); got != tt.want {
				t.Fatalf("VerifyCode = %v, want %v", got, tt.want)
			}
		})
	}
}
