package authinfo

import (
	"encoding/base64"
	"testing"
	"time"
)

func token(payload string) string {
	return "x." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + ".y"
}

func TestEmailFromToken(t *testing.T) {
	if got := EmailFromToken(token(`{"email":" a@b.c "}`)); got != "a@b.c" {
		t.Fatalf("expected trimmed email, got %q", got)
	}
	if got := EmailFromToken("not-a-jwt"); got != "" {
		t.Fatalf("expected empty for garbage, got %q", got)
	}
	if got := EmailFromToken(""); got != "" {
		t.Fatalf("expected empty for blank token, got %q", got)
	}
}

func TestExpiryFromToken(t *testing.T) {
	cases := []string{
		`{"exp":1700000000}`,
		`{"exp":"1700000000"}`,
	}
	want := time.Unix(1700000000, 0).UTC()
	for _, payload := range cases {
		got, ok := ExpiryFromToken(token(payload))
		if !ok || !got.Equal(want) {
			t.Fatalf("payload %s: got %v ok=%v", payload, got, ok)
		}
	}

	if _, ok := ExpiryFromToken(token(`{"sub":"u1"}`)); ok {
		t.Fatal("expected no expiry without exp claim")
	}
	if _, ok := ExpiryFromToken(token(`{"exp":-5}`)); ok {
		t.Fatal("expected no expiry for non-positive exp")
	}
}
