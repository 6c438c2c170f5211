// Package manifest decodes the polymorphic manifest document stored at a
// manifest blob's data path: either a single-platform image manifest or a
// multi-platform manifest list, discriminated by mediaType.
package manifest

import "encoding/json"

const (
	// DockerManifestSchema2 is the media type of a single-platform image
	// manifest.
	DockerManifestSchema2 = "application/vnd.docker.distribution.manifest.v2+json"

	// DockerManifestListSchema2 is the media type of a multi-platform
	// manifest list.
	DockerManifestListSchema2 = "application/vnd.docker.distribution.manifest.list.v2+json"
)

// Descriptor references a blob by digest, as found in a manifest's config,
// layers, or a manifest list's manifests array.
type Descriptor struct {
	MediaType string `json:"mediaType"`
	Digest    string `json:"digest"`
	Size      int64  `json:"size,omitempty"`
}

// Envelope is the JSON document read off a manifest blob before it is
// discriminated into an image manifest or a manifest list. Unknown media
// types decode successfully but report no outgoing references, so garbage
// collection treats a manifest of an unrecognized type as pointing nowhere
// rather than failing the sweep.
type Envelope struct {
	SchemaVersion int          `json:"schemaVersion"`
	MediaType     string       `json:"mediaType"`
	Config        *Descriptor  `json:"config,omitempty"`
	Layers        []Descriptor `json:"layers,omitempty"`
	Manifests     []Descriptor `json:"manifests,omitempty"`
}

// Parse decodes raw manifest bytes into an Envelope.
func Parse(raw []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// IsManifest reports whether e is a single-platform image manifest.
func (e *Envelope) IsManifest() bool {
	return e.MediaType == DockerManifestSchema2 && e.Config != nil && e.Layers != nil
}

// IsManifestList reports whether e is a multi-platform manifest list.
func (e *Envelope) IsManifestList() bool {
	return e.MediaType == DockerManifestListSchema2 && e.Manifests != nil
}

// References returns every blob digest directly referenced by e: the
// config and layer digests for an image manifest, or the per-platform
// manifest digests for a manifest list. Unknown media types return nil.
func (e *Envelope) References() []string {
	switch {
	case e.IsManifest():
		refs := make([]string, 0, len(e.Layers)+1)
		refs = append(refs, e.Config.Digest)
		for _, l := range e.Layers {
			refs = append(refs, l.Digest)
		}
		return refs
	case e.IsManifestList():
		refs := make([]string, 0, len(e.Manifests))
		for _, m := range e.Manifests {
			refs = append(refs, m.Digest)
		}
		return refs
	default:
		return nil
	}
}
