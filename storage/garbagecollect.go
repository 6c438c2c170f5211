package storage

import (
	"os"
	"path/filepath"

	"github.com/containerstack/registry/digest"
	"github.com/containerstack/registry/manifest"
)

const maxManifestDepth = 32

// GCResult summarizes one garbage collection run.
type GCResult struct {
	Passes  int
	Deleted []digest.Digest
}

// CollectGarbage sweeps the entire storage root three times, deleting
// any blob that is not the empty blob and is not live, then prunes empty
// directories. Each pass may surface additional garbage uncovered by the
// previous pass's deletions (e.g. a manifest revision removed in pass N
// makes a manifest list unreadable, stranding its children for pass N+1).
func (reg *Registry) CollectGarbage() (*GCResult, error) {
	result := &GCResult{}

	for pass := 0; pass < 3; pass++ {
		result.Passes++

		blobs, err := reg.ListBlobs()
		if err != nil {
			return result, err
		}

		for _, b := range blobs {
			if b == digest.Empty {
				continue
			}

			live, err := reg.isBlobLive(b)
			if err != nil {
				continue // tolerate races; next pass converges
			}
			if live {
				continue
			}

			if err := os.RemoveAll(reg.BlobDir(b)); err != nil {
				continue
			}
			result.Deleted = append(result.Deleted, b)
		}

		if err := removeEmptyDirs(reg.base(), false); err != nil {
			return result, err
		}
	}

	return result, nil
}

// isBlobLive reports whether b is a tag target, a manifest revision, or
// transitively reachable from one of those roots through the manifest
// graph, across every repository. The empty blob is not special-cased here;
// CollectGarbage skips it before calling isBlobLive.
func (reg *Registry) isBlobLive(b digest.Digest) (bool, error) {
	repos, err := reg.ListRepositories()
	if err != nil {
		return false, err
	}

	for _, name := range repos {
		repo := reg.Repository(name)

		roots, err := repo.ListRevisions()
		if err != nil {
			return false, err
		}

		tags, err := repo.ListTags()
		if err != nil {
			return false, err
		}
		for _, tag := range tags {
			d, err := readLink(repo.ManifestTagLinkPath(tag))
			if err != nil {
				continue
			}
			if d != digest.Empty {
				roots = append(roots, d)
			}
		}

		for _, root := range roots {
			if root == b {
				return true, nil
			}

			live, err := reg.blobLiveFrom(b, root, root, 0)
			if err != nil {
				return false, err
			}
			if live {
				return true, nil
			}
		}
	}

	return false, nil
}

// blobLiveFrom recursively examines the manifest at upper (an image
// manifest or manifest list), looking for a reference to b. self is the
// manifest digest one level up; it is not consulted. The self-loop guard
// skips any child of a manifest list that equals upper itself.
func (reg *Registry) blobLiveFrom(b, upper, self digest.Digest, depth int) (bool, error) {
	if depth > maxManifestDepth {
		return false, nil
	}

	raw, err := os.ReadFile(reg.BlobDataPath(upper))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	env, err := manifest.Parse(raw)
	if err != nil {
		return false, nil
	}

	switch {
	case env.IsManifest():
		for _, ref := range env.References() {
			if digest.Digest(ref) == b {
				return true, nil
			}
		}
		return false, nil
	case env.IsManifestList():
		for _, child := range env.Manifests {
			cd := digest.Digest(child.Digest)
			if cd == b {
				return true, nil
			}
			if cd == upper {
				continue // self-loop guard
			}
			live, err := reg.blobLiveFrom(b, cd, upper, depth+1)
			if err != nil {
				return false, err
			}
			if live {
				return true, nil
			}
		}
		return false, nil
	default:
		// Unknown media type: treat as having no outgoing references.
		return false, nil
	}
}

// removeEmptyDirs recursively removes directories under path that contain
// no entries. The storage root itself (canRemove=false on the initial
// call) is never removed.
func removeEmptyDirs(path string, canRemove bool) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	found := len(entries) > 0
	for _, e := range entries {
		if e.IsDir() {
			if err := removeEmptyDirs(filepath.Join(path, e.Name()), true); err != nil {
				return err
			}
		}
	}

	if !found && canRemove {
		return os.Remove(path)
	}
	return nil
}
