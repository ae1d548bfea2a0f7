package auth

import (
	"strings"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	users := NewTokenIssuer(NamespaceUser, "user-secret", 0)
	token, err := users.Issue("u-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	subject, err := users.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if subject != "u-1" {
		t.Fatalf("subject = %q, want u-1", subject)
	}
}

func TestNamespacesAreNotInterchangeable(t *testing.T) {
	users := NewTokenIssuer(NamespaceUser, "user-secret", 0)
	workers := NewTokenIssuer(NamespaceWorker, "worker-secret", 0)

	workerToken, err := workers.Issue("w-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := users.Verify(workerToken); ReasonOf(err) != ReasonInvalidSignature {
		t.Fatalf("user namespace accepted worker token: %v", err)
	}

	userToken, err := users.Issue("u-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := workers.Verify(userToken); ReasonOf(err) != ReasonInvalidSignature {
		t.Fatalf("worker namespace accepted user token: %v", err)
	}
}

func TestScopeIsChecked(t *testing.T) {
	// same secret, different namespace
	users := NewTokenIssuer(NamespaceUser, "shared", 0)
	workers := NewTokenIssuer(NamespaceWorker, "shared", 0)

	token, err := workers.Issue("w-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := users.Verify(token); err == nil {
		t.Fatal("expected scope mismatch to be rejected")
	}
}

func TestVerifyReasons(t *testing.T) {
	issuer := NewTokenIssuer(NamespaceWorker, "worker-secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := issuer.Issue("w-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	issuer.now = time.Now

	valid, _ := issuer.Issue("w-1")
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA"

	tests := []struct {
		name  string
		token string
		want  Reason
	}{
		{"missing", "", ReasonMissing},
		{"malformed", "not-a-jwt", ReasonMalformed},
		{"expired", expired, ReasonExpired},
		{"bad signature", tampered, ReasonInvalidSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Verify(tt.token)
			if err == nil {
				t.Fatal("expected rejection")
			}
			if got := ReasonOf(err); got != tt.want {
				t.Fatalf("reason = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := BearerToken(tt.header)
		if (err == nil) != tt.ok {
			t.Fatalf("BearerToken(%q) error = %v", tt.header, err)
		}
		if got != tt.want {
			t.Fatalf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestChallenge(t *testing.T) {
	nonce, err := NewNonce()
	if err != nil {
		t.Fatalf("NewNonce() error = %v", err)
	}
	msg := ChallengeMessage(nonce)
	if msg != "Sign this message to authenticate: "+nonce {
		t.Fatalf("unexpected challenge %q", msg)
	}
}
