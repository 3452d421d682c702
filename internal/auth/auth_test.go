package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const (
	testKey    = "test-secret"
	testIssuer = "attendance-notify"
)

func TestIssueAndParse_RoundTrip(t *testing.T) {
	t.Parallel()

	token, exp, err := Issue("Marcelo", testIssuer, testKey, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}
	if exp.Before(time.Now()) {
		t.Fatalf("expected future expiry, got %v", exp)
	}

	claims, err := Parse(token, testKey, testIssuer)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if claims.Username != "Marcelo" {
		t.Fatalf("expected username Marcelo, got %q", claims.Username)
	}
}

func TestParse_RejectsWrongKey(t *testing.T) {
	t.Parallel()

	token, _, err := Issue("Marcelo", testIssuer, testKey, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := Parse(token, "other-key", testIssuer); err == nil {
		t.Fatalf("expected error for wrong key, got nil")
	}
}

func TestParse_RejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	token, _, err := Issue("Marcelo", "someone-else", testKey, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := Parse(token, testKey, testIssuer); err == nil {
		t.Fatalf("expected error for issuer mismatch, got nil")
	}
}

func TestParse_RejectsExpiredToken(t *testing.T) {
	t.Parallel()

	token, _, err := Issue("Marcelo", testIssuer, testKey, -time.Minute)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := Parse(token, testKey, testIssuer); err == nil {
		t.Fatalf("expected error for expired token, got nil")
	}
}

func TestRequire_AttachesIdentity(t *testing.T) {
	t.Parallel()

	token, _, err := Issue("Simone", testIssuer, testKey, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	var gotUsername string
	handler := Require(testKey, testIssuer, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := Identity(r)
		if !ok {
			t.Fatalf("expected identity in context")
		}
		gotUsername = id.Username
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/classes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
	}
	if gotUsername != "Simone" {
		t.Fatalf("expected identity Simone, got %q", gotUsername)
	}
}

func TestRequire_RejectsMissingOrBadToken(t *testing.T) {
	t.Parallel()

	handler := Require(testKey, testIssuer, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run without a valid token")
	}))

	cases := []struct {
		name  string
		setup func(*http.Request)
	}{
		{"no header", func(r *http.Request) {}},
		{"not bearer", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }},
		{"garbage token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/classes", nil)
			tc.setup(req)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
		})
	}
}
