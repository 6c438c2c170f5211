package storage

import (
	"os"
	"path/filepath"

	"github.com/containerstack/registry/digest"
)

// BlobInfo carries what handlers need to serve a GET/HEAD response without
// holding the file open longer than necessary.
type BlobInfo struct {
	Digest digest.Digest
	Size   int64
}

// StatBlob returns size information for d, or *ErrNotFound if absent.
func (reg *Registry) StatBlob(d digest.Digest) (*BlobInfo, error) {
	info, err := os.Stat(reg.BlobDataPath(d))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ErrNotFound{What: "blob " + d.String()}
		}
		return nil, err
	}
	return &BlobInfo{Digest: d, Size: info.Size()}, nil
}

// OpenBlob opens d's data file for streaming reads. Callers must Close it.
func (reg *Registry) OpenBlob(d digest.Digest) (*os.File, error) {
	f, err := os.Open(reg.BlobDataPath(d))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ErrNotFound{What: "blob " + d.String()}
		}
		return nil, err
	}
	return f, nil
}

// ListBlobs enumerates two levels of blobs/sha256/ and yields one digest
// per third-level directory.
func (reg *Registry) ListBlobs() ([]digest.Digest, error) {
	root := filepath.Join(reg.blobsRoot(), "sha256")
	shards, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []digest.Digest{}, nil
		}
		return nil, err
	}

	var blobs []digest.Digest
	for _, shard := range shards {
		if !shard.IsDir() {
			continue
		}
		hashes, err := os.ReadDir(filepath.Join(root, shard.Name()))
		if err != nil {
			return nil, err
		}
		for _, h := range hashes {
			if !h.IsDir() {
				continue
			}
			blobs = append(blobs, digest.Digest("sha256:"+h.Name()))
		}
	}
	if blobs == nil {
		blobs = []digest.Digest{}
	}
	return blobs, nil
}
