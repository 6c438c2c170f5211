package digest

import "testing"

func TestParseValid(t *testing.T) {
	for _, s := range []string{
		"sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		"sha256:abc",
		"md5:abcdef",
	} {
		d, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", s, err)
		}
		if d.String() != s {
			t.Fatalf("round-trip mismatch: %q != %q", d.String(), s)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{
		"",
		"sha256",
		"sha256:",
		"sha256:ab",
		":abcdef",
		"sha256:abc:def",
		"sha256:abcsha1:abcdef",
	} {
		if _, err := Parse(s); err == nil {
			t.Fatalf("Parse(%q) unexpectedly succeeded", s)
		}
	}
}

func TestAlgorithmAndHex(t *testing.T) {
	d, err := Parse("sha256:deadbeef")
	if err != nil {
		t.Fatal(err)
	}
	if d.Algorithm() != "sha256" {
		t.Fatalf("unexpected algorithm: %q", d.Algorithm())
	}
	if d.Hex() != "deadbeef" {
		t.Fatalf("unexpected hex: %q", d.Hex())
	}
}

func TestFromBytes(t *testing.T) {
	d := FromBytes([]byte("hello"))
	expected := Digest("sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824")
	if d != expected {
		t.Fatalf("unexpected digest: %q != %q", d, expected)
	}
}

func TestEmptyDigestWellFormed(t *testing.T) {
	if Empty.Algorithm() != "sha256" {
		t.Fatalf("unexpected empty digest algorithm: %q", Empty.Algorithm())
	}
	if err := Empty.Validate(); err != nil {
		t.Fatalf("well-known empty digest failed validation: %v", err)
	}
}

func TestEquality(t *testing.T) {
	a, _ := Parse("sha256:abc")
	b, _ := Parse("sha256:abc")
	c, _ := Parse("sha256:abd")
	if a != b {
		t.Fatalf("expected equal digests")
	}
	if a == c {
		t.Fatalf("expected unequal digests")
	}
}
