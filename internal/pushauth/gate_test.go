package pushauth

import (
	"errors"
	"fmt"
	"testing"
)

func TestGate_Check(t *testing.T) {
	cases := []struct {
		name     string
		expected string
		provided string
		ok       bool
	}{
		{"match", "s3cret", "s3cret", true},
		{"mismatch", "s3cret", "nope", false},
		{"empty provided", "s3cret", "", false},
		{"prefix", "s3cret", "s3cre", false},
		{"unset secret", "", "", false},
		{"unset secret with token", "", "anything", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewGate(tc.expected).Check(tc.provided)
			if tc.ok && err != nil {
				t.Fatalf("expected pass, got %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrGateRejected) {
				t.Fatalf("expected ErrGateRejected, got %v", err)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		header string
		token  string
		ok     bool
	}{
		"bearer":       {"Bearer abc.def.ghi", "abc.def.ghi", true},
		"lowercase":    {"bearer abc", "abc", true},
		"extra spaces": {"  Bearer   abc  ", "abc", true},
		"empty":        {"", "", false},
		"no token":     {"Bearer ", "", false},
		"basic":        {"Basic dXNlcjpwYXNz", "", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := BearerToken(tc.header)
			if tc.ok {
				if err != nil || got != tc.token {
					t.Fatalf("got (%q, %v), want %q", got, err, tc.token)
				}
				return
			}
			if !errors.Is(err, ErrMissingBearer) {
				t.Fatalf("expected ErrMissingBearer, got %v", err)
			}
		})
	}
}

func TestKind(t *testing.T) {
	if got := Kind(nil); got != "ok" {
		t.Fatalf("nil: %q", got)
	}
	if got := Kind(errors.New("other")); got != "unknown" {
		t.Fatalf("other: %q", got)
	}
	wrapped := fmt.Errorf("verify: %w", fmt.Errorf("%w: exp=...", ErrTokenExpired))
	if got := Kind(wrapped); got != "token_expired" {
		t.Fatalf("wrapped: %q", got)
	}
	joined := errors.Join(ErrUnknownSigningKey, errors.New("fetch failed"))
	if got := Kind(joined); got != "unknown_signing_key" {
		t.Fatalf("joined: %q", got)
	}
}
