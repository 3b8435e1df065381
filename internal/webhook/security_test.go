package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyHMACSignature(t *testing.T) {
	body := []byte(`{"action":"opened"}`)
	secret := "webhook-secret"

	t.Run("Valid Signature", func(t *testing.T) {
		if err := verifyHMACSignature(body, signBody(body, secret), secret); err != nil {
			t.Errorf("expected valid signature to pass, got %v", err)
		}
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		err := verifyHMACSignature(body, signBody(body, "other-secret"), secret)
		if !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("expected ErrInvalidSignature, got %v", err)
		}
	})

	t.Run("Tampered Body", func(t *testing.T) {
		sig := signBody(body, secret)
		err := verifyHMACSignature([]byte(`{"action":"closed"}`), sig, secret)
		if !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("expected ErrInvalidSignature, got %v", err)
		}
	})

	t.Run("Missing Prefix", func(t *testing.T) {
		err := verifyHMACSignature(body, "deadbeef", secret)
		if !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("expected ErrInvalidSignature for bad format, got %v", err)
		}
	})

	t.Run("Invalid Hex", func(t *testing.T) {
		err := verifyHMACSignature(body, "sha256=not-hex!", secret)
		if !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("expected ErrInvalidSignature for bad hex, got %v", err)
		}
	})

	t.Run("Empty Secret", func(t *testing.T) {
		err := verifyHMACSignature(body, signBody(body, ""), "")
		if !errors.Is(err, ErrSecretNotSet) {
			t.Errorf("expected ErrSecretNotSet, got %v", err)
		}
	})
}

func TestVerifyBearerToken(t *testing.T) {
	t.Run("Valid Token", func(t *testing.T) {
		if err := verifyBearerToken("Bearer tok-123", "tok-123"); err != nil {
			t.Errorf("expected valid token to pass, got %v", err)
		}
	})

	t.Run("Wrong Token", func(t *testing.T) {
		err := verifyBearerToken("Bearer wrong", "tok-123")
		if !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("expected ErrInvalidSignature, got %v", err)
		}
	})

	t.Run("Missing Bearer Prefix", func(t *testing.T) {
		err := verifyBearerToken("tok-123", "tok-123")
		if !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("expected ErrInvalidSignature for missing prefix, got %v", err)
		}
	})

	t.Run("Empty Secret", func(t *testing.T) {
		err := verifyBearerToken("Bearer tok-123", "")
		if !errors.Is(err, ErrSecretNotSet) {
			t.Errorf("expected ErrSecretNotSet, got %v", err)
		}
	})
}

func TestValidateIPAddress(t *testing.T) {
	newRequest := func(remoteAddr string, headers map[string]string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/api/webhooks/github", nil)
		r.RemoteAddr = remoteAddr
		for k, v := range headers {
			r.Header.Set(k, v)
		}
		return r
	}

	t.Run("Empty Allowlist Permits All", func(t *testing.T) {
		v := NewSecurityValidator(SecurityConfig{})
		if err := v.ValidateIPAddress(newRequest("203.0.113.7:1234", nil)); err != nil {
			t.Errorf("expected no restriction, got %v", err)
		}
	})

	t.Run("Exact IP Allowed", func(t *testing.T) {
		v := NewSecurityValidator(SecurityConfig{AllowedIPs: []string{"192.0.2.1"}})
		if err := v.ValidateIPAddress(newRequest("192.0.2.1:1234", nil)); err != nil {
			t.Errorf("expected allowed IP to pass, got %v", err)
		}
	})

	t.Run("CIDR Range Allowed", func(t *testing.T) {
		v := NewSecurityValidator(SecurityConfig{AllowedIPs: []string{"10.0.0.0/8"}})
		if err := v.ValidateIPAddress(newRequest("10.1.2.3:1234", nil)); err != nil {
			t.Errorf("expected CIDR member to pass, got %v", err)
		}
	})

	t.Run("Unlisted IP Rejected", func(t *testing.T) {
		v := NewSecurityValidator(SecurityConfig{AllowedIPs: []string{"10.0.0.0/8"}})
		if err := v.ValidateIPAddress(newRequest("203.0.113.7:1234", nil)); err == nil {
			t.Error("expected unlisted IP to be rejected")
		}
	})

	t.Run("X-Forwarded-For First Hop Wins", func(t *testing.T) {
		v := NewSecurityValidator(SecurityConfig{AllowedIPs: []string{"192.0.2.1"}})
		r := newRequest("10.0.0.1:1234", map[string]string{
			"X-Forwarded-For": "192.0.2.1, 10.0.0.1",
		})
		if err := v.ValidateIPAddress(r); err != nil {
			t.Errorf("expected forwarded client IP to pass, got %v", err)
		}
	})
}

func TestRateLimiter(t *testing.T) {
	t.Run("Burst Then Reject", func(t *testing.T) {
		// 60/min gives burst 6; the 7th immediate request must fail.
		rl := newRateLimiter(60)
		for i := 0; i < 6; i++ {
			if err := rl.Allow("github"); err != nil {
				t.Fatalf("request %d unexpectedly limited: %v", i+1, err)
			}
		}
		if err := rl.Allow("github"); !errors.Is(err, ErrRateLimitExceeded) {
			t.Errorf("expected ErrRateLimitExceeded, got %v", err)
		}
	})

	t.Run("Sources Are Independent", func(t *testing.T) {
		rl := newRateLimiter(10)
		if err := rl.Allow("github"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := rl.Allow("github"); !errors.Is(err, ErrRateLimitExceeded) {
			t.Fatalf("expected second github request limited, got %v", err)
		}
		if err := rl.Allow("claude"); err != nil {
			t.Errorf("expected claude to have its own bucket, got %v", err)
		}
	})
}
