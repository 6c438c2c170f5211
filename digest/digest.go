// Package digest provides the `alg:hex` content-addressing identifier used
// throughout the registry: blob paths, manifest revisions, and the
// Docker-Content-Digest response header all derive from this type.
package digest

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strings"
)

// Digest is a pair (algorithm, hex) formatted canonically as "alg:hex". A
// Digest parses successfully iff it contains exactly one ':', the algorithm
// is non-empty, and the hex portion has length >= 3.
type Digest string

var (
	// ErrDigestInvalidFormat is returned when a digest string does not
	// contain exactly one ':', or either side fails the length check.
	ErrDigestInvalidFormat = fmt.Errorf("invalid digest format")
)

// Parse validates s and returns it as a Digest.
func Parse(s string) (Digest, error) {
	d := Digest(s)
	if err := d.Validate(); err != nil {
		return "", err
	}
	return d, nil
}

// FromBytes digests p with sha256 and returns the canonical Digest.
func FromBytes(p []byte) Digest {
	h := sha256.Sum256(p)
	return Digest(fmt.Sprintf("sha256:%x", h[:]))
}

// FromReader consumes rd to EOF and returns its sha256 Digest.
func FromReader(rd io.Reader) (Digest, error) {
	h := sha256.New()
	if _, err := io.Copy(h, rd); err != nil {
		return "", err
	}
	return Digest(fmt.Sprintf("sha256:%x", h.Sum(nil))), nil
}

// Validate reports whether d is well-formed: exactly one ':', non-empty
// algorithm, and a hex portion of length >= 3.
func (d Digest) Validate() error {
	s := string(d)

	i := strings.Index(s, ":")
	if i < 0 || strings.Count(s, ":") != 1 {
		return ErrDigestInvalidFormat
	}

	alg, hex := s[:i], s[i+1:]
	if len(alg) == 0 {
		return ErrDigestInvalidFormat
	}
	if len(hex) < 3 {
		return ErrDigestInvalidFormat
	}

	return nil
}

// Algorithm returns the algorithm portion of the digest (the text before
// the first ':'), or "" if d contains no ':'. It does not validate d.
func (d Digest) Algorithm() string {
	i := strings.Index(string(d), ":")
	if i < 0 {
		return ""
	}
	return string(d)[:i]
}

// Hex returns the hex-encoded identifier portion of the digest.
func (d Digest) Hex() string {
	i := strings.Index(string(d), ":")
	if i < 0 {
		return ""
	}
	return string(d)[i+1:]
}

// String returns the canonical "alg:hex" form.
func (d Digest) String() string {
	return string(d)
}

// Empty is the well-known digest of the zero-length blob. It is permitted
// as a tag target but is never subject to garbage collection.
const Empty = Digest("sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855")
