package manifest

import "testing"

func TestParseImageManifest(t *testing.T) {
	raw := []byte(`{
		"schemaVersion": 2,
		"mediaType": "application/vnd.docker.distribution.manifest.v2+json",
		"config": {"mediaType": "application/vnd.docker.container.image.v1+json", "digest": "sha256:cfg", "size": 10},
		"layers": [
			{"mediaType": "application/vnd.docker.image.rootfs.diff.tar.gzip", "digest": "sha256:layer1", "size": 20}
		]
	}`)

	e, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !e.IsManifest() {
		t.Fatal("expected image manifest")
	}
	if e.IsManifestList() {
		t.Fatal("should not be a manifest list")
	}

	refs := e.References()
	if len(refs) != 2 || refs[0] != "sha256:cfg" || refs[1] != "sha256:layer1" {
		t.Fatalf("unexpected references: %v", refs)
	}
}

func TestParseManifestList(t *testing.T) {
	raw := []byte(`{
		"schemaVersion": 2,
		"mediaType": "application/vnd.docker.distribution.manifest.list.v2+json",
		"manifests": [
			{"mediaType": "application/vnd.docker.distribution.manifest.v2+json", "digest": "sha256:amd64"},
			{"mediaType": "application/vnd.docker.distribution.manifest.v2+json", "digest": "sha256:arm64"}
		]
	}`)

	e, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !e.IsManifestList() {
		t.Fatal("expected manifest list")
	}
	if e.IsManifest() {
		t.Fatal("should not be an image manifest")
	}

	refs := e.References()
	if len(refs) != 2 || refs[0] != "sha256:amd64" || refs[1] != "sha256:arm64" {
		t.Fatalf("unexpected references: %v", refs)
	}
}

func TestUnknownMediaTypeHasNoReferences(t *testing.T) {
	raw := []byte(`{"schemaVersion": 1, "mediaType": "application/vnd.something.weird+json"}`)

	e, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if e.IsManifest() || e.IsManifestList() {
		t.Fatal("unknown media type should not discriminate as either shape")
	}
	if refs := e.References(); refs != nil {
		t.Fatalf("expected nil references for unknown media type, got %v", refs)
	}
}
