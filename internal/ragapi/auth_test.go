package ragapi

import (
	"testing"
	"time"

	"singularityio/internal/config"
)

func TestIssueAndResolveBearerTokenRoundTrip(t *testing.T) {
	token, err := IssueBearerToken("secret", "tenant-a", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	tenant, err := ResolveBearerToken("secret", token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tenant != "tenant-a" {
		t.Fatalf("expected tenant-a, got %q", tenant)
	}
}

func TestResolveBearerTokenRejectsWrongSecret(t *testing.T) {
	token, err := IssueBearerToken("secret", "tenant-a", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ResolveBearerToken("other-secret", token); err != ErrAuth {
		t.Fatalf("expected ErrAuth for tampered secret, got %v", err)
	}
}

func TestResolveBearerTokenRejectsExpiredToken(t *testing.T) {
	token, err := IssueBearerToken("secret", "tenant-a", -time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ResolveBearerToken("secret", token); err != ErrAuth {
		t.Fatalf("expected ErrAuth for expired token, got %v", err)
	}
}

func TestResolveBearerTokenRejectsMalformedToken(t *testing.T) {
	if _, err := ResolveBearerToken("secret", "not-a-token"); err != ErrAuth {
		t.Fatalf("expected ErrAuth for malformed token, got %v", err)
	}
}

func TestResolveAPIKeyLooksUpStaticTable(t *testing.T) {
	auth := config.AuthConfig{StaticAPIKeys: map[string]string{"k1": "tenant-b"}}
	tenant, err := ResolveAPIKey(auth, "k1")
	if err != nil || tenant != "tenant-b" {
		t.Fatalf("expected tenant-b, got %q err=%v", tenant, err)
	}
	if _, err := ResolveAPIKey(auth, "unknown"); err != ErrAuth {
		t.Fatalf("expected ErrAuth for unknown key, got %v", err)
	}
}

func TestResolveBearerHeaderRequiresBearerPrefix(t *testing.T) {
	auth := config.AuthConfig{SecretKey: "secret"}
	if _, err := ResolveBearerHeader(auth, "Basic abc"); err != ErrAuth {
		t.Fatalf("expected ErrAuth for non-bearer header, got %v", err)
	}
}
