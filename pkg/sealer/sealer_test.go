package sealer

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
}

func TestSealOpenRoundTrip(t *testing.T) {
	s, err := New(testKey())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	token, err := s.Seal("254712345678", "20240101120000")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if strings.ContainsAny(token, "+/=") {
		t.Errorf("token %q is not URL safe", token)
	}

	first, second, err := s.Open(token)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if first != "254712345678" || second != "20240101120000" {
		t.Errorf("Open() = (%q, %q)", first, second)
	}
}

func TestSealProducesDistinctTokens(t *testing.T) {
	s, _ := New(testKey())
	a, _ := s.Seal("a", "b")
	b, _ := s.Seal("a", "b")
	if a == b {
		t.Error("expected random nonce to produce distinct tokens")
	}
}

func TestOpenRejectsTampered(t *testing.T) {
	s, _ := New(testKey())
	other, _ := New(base64.StdEncoding.EncodeToString([]byte("fedcba9876543210fedcba9876543210")))
	token, _ := s.Seal("a", "b")

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"short", "abc"},
		{"not base64", "!!!!"},
		{"truncated", token[:len(token)-2]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := s.Open(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Open(%q) error = %v, want ErrInvalidToken", tt.token, err)
			}
		})
	}

	if _, _, err := other.Open(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Open() with wrong key error = %v, want ErrInvalidToken", err)
	}
}

func TestNewRejectsBadKey(t *testing.T) {
	if _, err := New("not-base64!"); err == nil {
		t.Error("expected decode error")
	}
	if _, err := New(base64.StdEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Error("expected key size error")
	}
}

func TestSealRejectsSeparatorInFirst(t *testing.T) {
	s, _ := New(testKey())
	if _, err := s.Seal("a:b", "c"); err == nil {
		t.Error("expected error for separator in first value")
	}
}
