// Package storage implements the content-addressed blob store, repository
// catalog, resumable upload state machine, manifest link management, and
// mark-and-sweep garbage collector over the on-disk layout rooted at
// <storage_path>/docker/registry/v2/.
package storage

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/containerstack/registry/digest"
)

const baseDir = "docker/registry/v2"

// Registry is the storage-path-rooted entry point for every repository and
// blob operation.
type Registry struct {
	Root string // caller-supplied storage_path
}

// NewRegistry returns a Registry rooted at root.
func NewRegistry(root string) *Registry {
	return &Registry{Root: root}
}

func (reg *Registry) base() string {
	return filepath.Join(reg.Root, baseDir)
}

func (reg *Registry) blobsRoot() string {
	return filepath.Join(reg.base(), "blobs")
}

func (reg *Registry) repositoriesRoot() string {
	return filepath.Join(reg.base(), "repositories")
}

// BlobDataPath returns the path to d's data file: blobs/<alg>/<hex[0:2]>/<hex>/data.
func (reg *Registry) BlobDataPath(d digest.Digest) string {
	return filepath.Join(reg.BlobDir(d), "data")
}

// BlobDir returns the directory holding d's data file: blobs/<alg>/<hex[0:2]>/<hex>.
// This is what gets removed (recursively) when a blob is garbage collected.
func (reg *Registry) BlobDir(d digest.Digest) string {
	hex := d.Hex()
	shard := hex
	if len(hex) >= 2 {
		shard = hex[:2]
	}
	return filepath.Join(reg.blobsRoot(), d.Algorithm(), shard, hex)
}

// Repository returns a handle for the named repository (not guaranteed to
// exist on disk yet).
func (reg *Registry) Repository(name string) *Repository {
	return &Repository{Registry: reg, Name: name}
}

// Repository is a handle onto one repository's tag/revision/upload tree.
type Repository struct {
	Registry *Registry
	Name     string
}

// Path returns the repository's root directory.
func (r *Repository) Path() string {
	return filepath.Join(r.Registry.repositoriesRoot(), r.Name)
}

// ManifestsPath returns the repository's _manifests directory.
func (r *Repository) ManifestsPath() string {
	return filepath.Join(r.Path(), "_manifests")
}

// TagsPath returns the repository's _manifests/tags directory.
func (r *Repository) TagsPath() string {
	return filepath.Join(r.ManifestsPath(), "tags")
}

// RevisionsPath returns the repository's _manifests/revisions directory.
func (r *Repository) RevisionsPath() string {
	return filepath.Join(r.ManifestsPath(), "revisions")
}

// UploadsPath returns the repository's _uploads directory.
func (r *Repository) UploadsPath() string {
	return filepath.Join(r.Path(), "_uploads")
}

// ManifestTagLinkPath returns the link file recording the current manifest
// digest for tag.
func (r *Repository) ManifestTagLinkPath(tag string) string {
	return filepath.Join(r.TagsPath(), tag, "current", "link")
}

// ManifestRevisionPath returns the link file recording that d is a revision
// of this repository.
func (r *Repository) ManifestRevisionPath(d digest.Digest) string {
	return filepath.Join(r.RevisionsPath(), d.Algorithm(), d.Hex(), "link")
}

// UploadPath returns the in-progress upload file for uuid.
func (r *Repository) UploadPath(uuid string) string {
	return filepath.Join(r.UploadsPath(), uuid)
}

// Exists reports whether the repository has been initialized (has a
// _manifests directory).
func (r *Repository) Exists() bool {
	info, err := os.Stat(r.ManifestsPath())
	return err == nil && info.IsDir()
}

// ListRepositories performs a depth-first scan under repositories/, reporting
// every directory that directly contains a _manifests child. The walk does
// not descend into _manifests or _uploads. Results are sorted lexicographically.
func (reg *Registry) ListRepositories() ([]string, error) {
	root := reg.repositoriesRoot()
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return []string{}, nil
	}

	var names []string
	if err := scanRepositories(root, root, &names); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func scanRepositories(dir, root string, names *[]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if e.Name() == "_manifests" {
			rel, err := filepath.Rel(root, dir)
			if err != nil {
				return err
			}
			*names = append(*names, filepath.ToSlash(rel))
			return nil
		}
	}

	for _, e := range entries {
		if !e.IsDir() || e.Name() == "_uploads" {
			continue
		}
		if err := scanRepositories(filepath.Join(dir, e.Name()), root, names); err != nil {
			return err
		}
	}

	return nil
}

// Paginate applies the catalog's last/n pagination rule to a sorted name
// list: return names strictly after last (lexicographic), up to n. An empty
// last starts at index 0; an unknown last also starts at index 0. A
// negative or zero n is treated per caller convention (n<0 means "all");
// the empty-list case short-circuits before any index arithmetic, avoiding
// the unsigned-subtraction underflow a naive clamp would hit.
func Paginate(names []string, last string, n int) []string {
	if len(names) == 0 {
		return []string{}
	}

	start := 0
	if last != "" {
		for i, name := range names {
			if name == last {
				start = i + 1
				break
			}
		}
	}

	end := len(names)
	if n >= 0 && start+n < end {
		end = start + n
	}

	return names[start:end]
}
