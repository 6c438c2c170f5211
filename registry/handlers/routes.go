package handlers

import "github.com/gorilla/mux"

// Route names, used to look up a registered route's Handler via
// router.GetRoute(name) once its dispatcher is attached.
const (
	RouteNameBase           = "base"
	RouteNameToken          = "token"
	RouteNameCatalog        = "catalog"
	RouteNameTags           = "tags"
	RouteNameManifest       = "manifest"
	RouteNameBlob           = "blob"
	RouteNameBlobUploadBase = "blob-upload-base"
	RouteNameBlobUpload     = "blob-upload"
)

// router builds the skeleton mux.Router with every path pattern named but
// no handlers attached yet; dispatchers are wired in by app.register.
func router() *mux.Router {
	r := mux.NewRouter()

	r.Path("/v2/").Name(RouteNameBase)
	r.Path("/token").Name(RouteNameToken)
	r.Path("/v2/_catalog").Name(RouteNameCatalog)
	r.Path("/v2/{name:.+}/tags/list").Name(RouteNameTags)
	r.Path("/v2/{name:.+}/manifests/{reference}").Name(RouteNameManifest)
	r.Path("/v2/{name:.+}/blobs/uploads/").Name(RouteNameBlobUploadBase)
	r.Path("/v2/{name:.+}/blobs/uploads/{uuid}").Name(RouteNameBlobUpload)
	r.Path("/v2/{name:.+}/blobs/{digest}").Name(RouteNameBlob)

	return r
}
