package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/containerstack/registry/digest"
)

// ErrNotFound is returned when a requested tag, revision, manifest, or
// blob does not exist on disk.
type ErrNotFound struct {
	What string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found", e.What)
}

func readLink(path string) (digest.Digest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return digest.Parse(string(raw))
}

func writeLink(path string, d digest.Digest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(d.String()), 0o644)
}

// ListTags reads _manifests/tags/, including each immediate subdirectory
// whose current/link file exists, in filesystem order.
func (r *Repository) ListTags() ([]string, error) {
	entries, err := os.ReadDir(r.TagsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var tags []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(r.ManifestTagLinkPath(e.Name())); err == nil {
			tags = append(tags, e.Name())
		}
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// ListRevisions reads _manifests/revisions/sha256/ and returns the digest
// parsed from each <hex>/link file.
func (r *Repository) ListRevisions() ([]digest.Digest, error) {
	root := filepath.Join(r.RevisionsPath(), "sha256")
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []digest.Digest{}, nil
		}
		return nil, err
	}

	var revs []digest.Digest
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		linkPath := filepath.Join(root, e.Name(), "link")
		d, err := readLink(linkPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		revs = append(revs, d)
	}
	if revs == nil {
		revs = []digest.Digest{}
	}
	return revs, nil
}

// TagsPointingTo returns ListTags filtered to tags whose current/link
// resolves to d.
func (r *Repository) TagsPointingTo(d digest.Digest) ([]string, error) {
	tags, err := r.ListTags()
	if err != nil {
		return nil, err
	}

	var matching []string
	for _, tag := range tags {
		resolved, err := readLink(r.ManifestTagLinkPath(tag))
		if err != nil {
			continue
		}
		if resolved == d {
			matching = append(matching, tag)
		}
	}
	if matching == nil {
		matching = []string{}
	}
	return matching, nil
}

// ResolveManifestRef resolves ref to a manifest digest: if ref parses as a
// digest, it is used directly; otherwise it is read from the tag's
// current/link file.
func (r *Repository) ResolveManifestRef(ref string) (digest.Digest, error) {
	if d, err := digest.Parse(ref); err == nil {
		return d, nil
	}

	d, err := readLink(r.ManifestTagLinkPath(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return "", &ErrNotFound{What: "tag " + ref}
		}
		return "", err
	}
	return d, nil
}

// HasRevision reports whether d appears in ListRevisions.
func (r *Repository) HasRevision(d digest.Digest) (bool, error) {
	revs, err := r.ListRevisions()
	if err != nil {
		return false, err
	}
	for _, rev := range revs {
		if rev == d {
			return true, nil
		}
	}
	return false, nil
}

// ReadManifest loads the raw bytes of the manifest blob at d.
func (r *Repository) ReadManifest(d digest.Digest) ([]byte, error) {
	return os.ReadFile(r.Registry.BlobDataPath(d))
}

// WriteManifest computes D = sha256(raw), writes raw to D's blob path,
// records a revision link, and — if ref does not itself parse as a digest —
// records a tag link for ref pointing to D.
func (r *Repository) WriteManifest(ref string, raw []byte) (digest.Digest, error) {
	d := digest.FromBytes(raw)

	blobPath := r.Registry.BlobDataPath(d)
	if err := os.MkdirAll(filepath.Dir(blobPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(blobPath, raw, 0o644); err != nil {
		return "", err
	}

	if err := writeLink(r.ManifestRevisionPath(d), d); err != nil {
		return "", err
	}

	if _, err := digest.Parse(ref); err != nil {
		if err := writeLink(r.ManifestTagLinkPath(ref), d); err != nil {
			return "", err
		}
	}

	return d, nil
}

// DeleteManifest removes every tag directory pointing at d and d's revision
// link. It does not touch the blob itself; that is left to garbage
// collection.
func (r *Repository) DeleteManifest(d digest.Digest) error {
	tags, err := r.TagsPointingTo(d)
	if err != nil {
		return err
	}
	for _, tag := range tags {
		if err := os.RemoveAll(filepath.Join(r.TagsPath(), tag)); err != nil {
			return err
		}
	}

	revPath := filepath.Join(r.RevisionsPath(), d.Algorithm(), d.Hex())
	return os.RemoveAll(revPath)
}
