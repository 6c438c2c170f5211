package storage

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/containerstack/registry/digest"
	"github.com/containerstack/registry/internal/uuid"
)

// uuidPattern matches the subset of UUID-shaped strings the protocol
// accepts as upload session identifiers.
var uuidPattern = regexp.MustCompile(`^[0-9A-Za-z-]+$`)

// ValidUploadUUID reports whether s is an acceptable upload session id.
func ValidUploadUUID(s string) bool {
	return s != "" && uuidPattern.MatchString(s)
}

// uploadState caches the incremental sha256 hash for an in-progress upload
// so PATCH does not need to re-read previously written bytes. It is rebuilt
// from disk on first touch after a process restart.
type uploadState struct {
	mu   sync.Mutex
	hash hash.Hash
	size int64
}

var uploadStates sync.Map // uuid string -> *uploadState

// Upload is a handle onto one resumable blob upload session.
type Upload struct {
	Repo *Repository
	UUID string
}

// StartUpload creates an empty upload file under r's _uploads directory and
// mints a session UUID.
func (r *Repository) StartUpload() (*Upload, error) {
	id := uuid.NewString()
	path := r.UploadPath(id)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	f.Close()

	uploadStates.Store(id, &uploadState{hash: sha256.New()})
	return &Upload{Repo: r, UUID: id}, nil
}

// ResumeUpload returns a handle onto an existing upload session, or
// *ErrNotFound if uuid is invalid or the session file is gone.
func (r *Repository) ResumeUpload(uuid string) (*Upload, error) {
	if !ValidUploadUUID(uuid) {
		return nil, &ErrNotFound{What: "upload " + uuid}
	}
	if _, err := os.Stat(r.UploadPath(uuid)); err != nil {
		if os.IsNotExist(err) {
			return nil, &ErrNotFound{What: "upload " + uuid}
		}
		return nil, err
	}
	return &Upload{Repo: r, UUID: uuid}, nil
}

// Path returns the upload's on-disk file.
func (u *Upload) Path() string {
	return u.Repo.UploadPath(u.UUID)
}

func (u *Upload) state() (*uploadState, error) {
	if v, ok := uploadStates.Load(u.UUID); ok {
		return v.(*uploadState), nil
	}

	f, err := os.Open(u.Path())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return nil, err
	}

	st := &uploadState{hash: h, size: n}
	actual, _ := uploadStates.LoadOrStore(u.UUID, st)
	return actual.(*uploadState), nil
}

// Size returns the number of bytes written to the upload so far.
func (u *Upload) Size() (int64, error) {
	st, err := u.state()
	if err != nil {
		return 0, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.size, nil
}

// Append streams r onto the end of the upload file, updating the
// incremental hash as bytes are written, and returns the new total size.
func (u *Upload) Append(r io.Reader) (int64, error) {
	st, err := u.state()
	if err != nil {
		return 0, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	f, err := os.OpenFile(u.Path(), os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return st.size, err
	}
	defer f.Close()

	n, err := io.Copy(io.MultiWriter(f, st.hash), r)
	st.size += n
	if err != nil {
		return st.size, err
	}
	return st.size, nil
}

// ErrDigestMismatch is returned by Finalize when the accumulated content's
// hash does not match the digest the client claimed.
var ErrDigestMismatch = fmt.Errorf("digest mismatch")

// Finalize verifies the upload's accumulated sha256 against expected, then
// atomically renames the upload file into the blob store. On mismatch the
// upload file is left untouched so the client may retry or cancel.
func (u *Upload) Finalize(expected digest.Digest) error {
	st, err := u.state()
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	sum := st.hash.Sum(nil)
	actual := digest.Digest(fmt.Sprintf("sha256:%x", sum))
	if actual != expected {
		return ErrDigestMismatch
	}

	dataPath := u.Repo.Registry.BlobDataPath(expected)
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return err
	}
	if err := os.Rename(u.Path(), dataPath); err != nil {
		return err
	}

	uploadStates.Delete(u.UUID)
	return nil
}

// Cancel discards the upload session and its file.
func (u *Upload) Cancel() error {
	uploadStates.Delete(u.UUID)
	if err := os.Remove(u.Path()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
