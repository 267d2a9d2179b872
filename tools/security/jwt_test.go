package security

import (
	"strings"
	"testing"
	"time"
)

var secret = []byte("unit-test-secret")

func TestGenerateAndVerify(t *testing.T) {
	opts := DefaultOptions(secret)
	tok, exp, err := Generate(opts, "user-42")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Error("expiry must be in the future")
	}

	sub, err := NewVerifier(opts).Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "user-42" {
		t.Errorf("subject = %q, want user-42", sub)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok, _, err := Generate(DefaultOptions(secret), "user-42")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	v := NewVerifier(DefaultOptions([]byte("different")))
	if _, err := v.Verify(tok); err == nil {
		t.Fatal("wrong secret must fail verification")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	opts := Options{Secret: secret, Alg: "HS256", TTL: -time.Minute}
	tok, _, err := Generate(opts, "user-42")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewVerifier(DefaultOptions(secret)).Verify(tok); err == nil {
		t.Fatal("expired token must fail verification")
	}
}

func TestVerifyRejectsTampered(t *testing.T) {
	tok, _, err := Generate(DefaultOptions(secret), "user-42")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	parts := strings.Split(tok, ".")
	parts[1] = parts[1][:len(parts[1])-2] + "xx"
	if _, err := NewVerifier(DefaultOptions(secret)).Verify(strings.Join(parts, ".")); err == nil {
		t.Fatal("tampered token must fail verification")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	if _, err := NewVerifier(DefaultOptions(secret)).Verify("not.a.token"); err == nil {
		t.Fatal("garbage must fail verification")
	}
}

func TestSigningAlgorithms(t *testing.T) {
	for _, alg := range []string{"HS256", "HS384", "HS512", "hs256"} {
		opts := Options{Secret: secret, Alg: alg, TTL: time.Hour}
		tok, _, err := Generate(opts, "u")
		if err != nil {
			t.Errorf("alg %s: %v", alg, err)
			continue
		}
		if _, err := NewVerifier(opts).Verify(tok); err != nil {
			t.Errorf("alg %s verify: %v", alg, err)
		}
	}
	if _, _, err := Generate(Options{Secret: secret, Alg: "RS256"}, "u"); err == nil {
		t.Error("non-HMAC alg must be rejected")
	}
}
