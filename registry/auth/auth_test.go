package auth

import "testing"

func TestIssueAndVerifyToken(t *testing.T) {
	tok := IssueToken("secret", "alice")

	p, err := VerifyToken("secret", tok)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "alice" || p.Anonymous {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	tok := IssueToken("secret", "alice")
	if _, err := VerifyToken("different", tok); err == nil {
		t.Fatal("expected verification to fail with wrong secret")
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	tok := signToken("secret", "alice", 1) // Unix epoch + 1s, long expired
	if _, err := VerifyToken("secret", tok); err == nil {
		t.Fatal("expected verification to fail for expired token")
	}
}

func TestVerifyTokenMalformed(t *testing.T) {
	for _, tok := range []string{"", "a.b", "a.b.c.d"} {
		if _, err := VerifyToken("secret", tok); err == nil {
			t.Fatalf("expected malformed token %q to fail verification", tok)
		}
	}
}

func TestChallenge(t *testing.T) {
	got := Challenge("https://registry.example.com", "registry.example.com", "insufficient_scope")
	want := `Bearer realm="https://registry.example.com/token",service="registry.example.com",scope="access",error="insufficient_scope"`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
