package configuration

import "testing"

func TestParseFields(t *testing.T) {
	raw := []byte(`
storage_path: /var/lib/registry
listen_address: 0.0.0.0:5000
access_url: https://registry.example.com
app_secret: topsecret
credentials:
  - user_name: alice
    password_hash: "$2a$10$abcdefghijklmnopqrstuv"
`)

	c, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if c.StoragePath != "/var/lib/registry" {
		t.Fatalf("unexpected storage_path: %q", c.StoragePath)
	}
	if len(c.Credentials) != 1 || c.Credentials[0].UserName != "alice" {
		t.Fatalf("unexpected credentials: %+v", c.Credentials)
	}
}

func TestAddCredentialAndAuthenticate(t *testing.T) {
	c := &Configuration{}
	if err := c.AddCredential("bob", "hunter2"); err != nil {
		t.Fatal(err)
	}

	if !c.Authenticate("bob", "hunter2") {
		t.Fatal("expected authentication to succeed with correct password")
	}
	if c.Authenticate("bob", "wrong") {
		t.Fatal("expected authentication to fail with wrong password")
	}
	if c.Authenticate("nobody", "hunter2") {
		t.Fatal("expected authentication to fail for unknown user")
	}
}

func TestAddCredentialReplacesExisting(t *testing.T) {
	c := &Configuration{}
	if err := c.AddCredential("bob", "first"); err != nil {
		t.Fatal(err)
	}
	if err := c.AddCredential("bob", "second"); err != nil {
		t.Fatal(err)
	}

	if len(c.Credentials) != 1 {
		t.Fatalf("expected a single credential entry, got %d", len(c.Credentials))
	}
	if !c.Authenticate("bob", "second") {
		t.Fatal("expected updated password to authenticate")
	}
	if c.Authenticate("bob", "first") {
		t.Fatal("expected old password to no longer authenticate")
	}
}

func TestHasAnyCredentials(t *testing.T) {
	c := &Configuration{}
	if c.HasAnyCredentials() {
		t.Fatal("expected no credentials on fresh configuration")
	}
	c.AddCredential("alice", "pw")
	if !c.HasAnyCredentials() {
		t.Fatal("expected credentials after AddCredential")
	}
}
