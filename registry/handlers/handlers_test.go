package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/containerstack/registry/configuration"
	"github.com/containerstack/registry/digest"
	"github.com/containerstack/registry/manifest"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	root := t.TempDir()
	cfg := &configuration.Configuration{
		StoragePath:   root,
		ListenAddress: "127.0.0.1:0",
		AccessURL:     "http://registry.example.com",
		AppSecret:     "test-secret",
	}
	return NewApp(cfg)
}

func TestEmptyCatalog(t *testing.T) {
	app := newTestApp(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/v2/_catalog", nil)
	app.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var body struct {
		Repositories []string `json:"repositories"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Repositories) != 0 {
		t.Fatalf("expected empty catalog, got %v", body.Repositories)
	}
}

func pushBlob(t *testing.T, app *App, repo string, content []byte) digest.Digest {
	t.Helper()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/v2/"+repo+"/blobs/uploads/", nil)
	app.ServeHTTP(w, r)
	if w.Code != http.StatusAccepted {
		t.Fatalf("start upload: status = %d, body = %s", w.Code, w.Body.String())
	}
	location := w.Header().Get("Location")

	d := digest.FromBytes(content)

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPut, location+"?digest="+d.String(), strings.NewReader(string(content)))
	app.ServeHTTP(w, r)
	if w.Code != http.StatusCreated {
		t.Fatalf("finalize upload: status = %d, body = %s", w.Code, w.Body.String())
	}
	return d
}

func TestBlobPushAndFetch(t *testing.T) {
	app := newTestApp(t)
	content := []byte("hello registry")
	d := pushBlob(t, app, "library/app", content)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/v2/library/app/blobs/"+d.String(), nil)
	app.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Body.String() != string(content) {
		t.Fatalf("got body %q, want %q", w.Body.String(), content)
	}
	if got := w.Header().Get("Docker-Content-Digest"); got != d.String() {
		t.Fatalf("Docker-Content-Digest = %q, want %q", got, d.String())
	}
}

func TestManifestPushGetDeleteGC(t *testing.T) {
	app := newTestApp(t)
	repo := "library/app"

	configDigest := pushBlob(t, app, repo, []byte("config"))
	layerDigest := pushBlob(t, app, repo, []byte("layer"))

	env := manifest.Envelope{
		SchemaVersion: 2,
		MediaType:     manifest.DockerManifestSchema2,
		Config:        &manifest.Descriptor{MediaType: "application/vnd.docker.container.image.v1+json", Digest: configDigest.String()},
		Layers:        []manifest.Descriptor{{MediaType: "application/vnd.docker.image.rootfs.diff.tar.gzip", Digest: layerDigest.String()}},
	}
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPut, "/v2/"+repo+"/manifests/latest", strings.NewReader(string(raw)))
	app.ServeHTTP(w, r)
	if w.Code != http.StatusCreated {
		t.Fatalf("manifest push: status = %d, body = %s", w.Code, w.Body.String())
	}
	manifestDigest := digest.Digest(w.Header().Get("Docker-Content-Digest"))

	// Fetch by tag.
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/v2/"+repo+"/manifests/latest", nil)
	app.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("manifest get by tag: status = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Type") != manifest.DockerManifestSchema2 {
		t.Fatalf("Content-Type = %q", w.Header().Get("Content-Type"))
	}

	// Fetch by digest.
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/v2/"+repo+"/manifests/"+manifestDigest.String(), nil)
	app.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("manifest get by digest: status = %d, body = %s", w.Code, w.Body.String())
	}

	// Tags list should include "latest".
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/v2/"+repo+"/tags/list", nil)
	app.ServeHTTP(w, r)
	var tagsBody struct {
		Tags []string `json:"tags"`
	}
	json.Unmarshal(w.Body.Bytes(), &tagsBody)
	if len(tagsBody.Tags) != 1 || tagsBody.Tags[0] != "latest" {
		t.Fatalf("unexpected tags: %v", tagsBody.Tags)
	}

	// Delete the manifest by digest; this also triggers a GC sweep.
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodDelete, "/v2/"+repo+"/manifests/"+manifestDigest.String(), nil)
	app.ServeHTTP(w, r)
	if w.Code != http.StatusAccepted {
		t.Fatalf("manifest delete: status = %d, body = %s", w.Code, w.Body.String())
	}

	// The config and layer blobs are now unreachable and should be gone.
	result, err := app.Registry.CollectGarbage()
	if err != nil {
		t.Fatal(err)
	}
	_ = result

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/v2/"+repo+"/blobs/"+configDigest.String(), nil)
	app.ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected config blob collected, status = %d", w.Code)
	}
}

func TestUnauthenticatedWriteIsChallenged(t *testing.T) {
	app := newTestApp(t)
	app.Config.Credentials = nil
	app.Config.AddCredential("alice", "s3cret")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/v2/library/app/blobs/uploads/", nil)
	app.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("WWW-Authenticate"), "Bearer ") {
		t.Fatalf("WWW-Authenticate = %q", w.Header().Get("WWW-Authenticate"))
	}
}

func TestAnonymousReadRejectedWhenCredentialsConfigured(t *testing.T) {
	app := newTestApp(t)
	app.Config.AddCredential("alice", "s3cret")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/v2/_catalog", nil)
	app.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("WWW-Authenticate"), "Bearer ") {
		t.Fatalf("WWW-Authenticate = %q", w.Header().Get("WWW-Authenticate"))
	}
}

func TestAnonymousReadAllowedWithNoCredentialsConfigured(t *testing.T) {
	app := newTestApp(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/v2/_catalog", nil)
	app.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestTokenEndpointIssuesBearerToken(t *testing.T) {
	app := newTestApp(t)
	app.Config.AddCredential("alice", "s3cret")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/token", nil)
	r.SetBasicAuth("alice", "s3cret")
	app.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Token == "" {
		t.Fatal("expected non-empty token")
	}

	// The issued token should authenticate a subsequent write.
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/v2/library/app/blobs/uploads/", nil)
	r.Header.Set("Authorization", "Bearer "+body.Token)
	app.ServeHTTP(w, r)
	if w.Code != http.StatusAccepted {
		t.Fatalf("bearer-authenticated upload start: status = %d, body = %s", w.Code, w.Body.String())
	}
}
