package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/containerstack/registry/digest"
	"github.com/containerstack/registry/registry/api/errcode"
	"github.com/containerstack/registry/storage"
	"github.com/gorilla/handlers"
)

// chunkSize bounds how much of a blob's data is copied per Read/Write pair
// while streaming a GET response, so a single huge layer never forces the
// whole file into memory at once.
const chunkSize = 50 << 20 // 50 MiB

// blobDispatcher serves GET/HEAD /v2/<name>/blobs/<digest> and rejects
// DELETE: blobs are only ever reclaimed by the garbage collector.
func blobDispatcher(ctx *Context, r *http.Request) http.Handler {
	d, err := digest.Parse(ctx.vars["digest"])
	if err != nil {
		return errorHandler(errcode.ErrorCodeDigestInvalid)
	}

	return handlers.MethodHandler{
		"GET":    http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveBlob(ctx, w, r, d, true) }),
		"HEAD":   http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveBlob(ctx, w, r, d, false) }),
		"DELETE": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveBlobDeleteUnsupported(w, r) }),
	}
}

func serveBlob(ctx *Context, w http.ResponseWriter, r *http.Request, d digest.Digest, withBody bool) {
	info, err := ctx.App.Registry.StatBlob(d)
	if err != nil {
		if _, ok := err.(*storage.ErrNotFound); ok {
			errcode.ServeJSON(w, errcode.Errors{errcode.ErrorCodeBlobUnknown.WithDetail(d.String())})
			return
		}
		ctx.Log().Errorf("statting blob %s: %v", d, err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Docker-Content-Digest", d.String())
	w.Header().Set("ETag", d.String())
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))

	if !withBody {
		w.WriteHeader(http.StatusOK)
		return
	}

	f, err := ctx.App.Registry.OpenBlob(d)
	if err != nil {
		ctx.Log().Errorf("opening blob %s: %v", d, err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.WriteHeader(http.StatusOK)
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(w, f, buf); err != nil {
		ctx.Log().Errorf("streaming blob %s: %v", d, err)
	}
}

func serveBlobDeleteUnsupported(w http.ResponseWriter, r *http.Request) {
	errcode.ServeJSON(w, errcode.Errors{errcode.ErrorCodeUnsupported.WithDetail("blobs are automatically garbage collected")})
}

func errorHandler(code errcode.ErrorCode) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errcode.ServeJSON(w, errcode.Errors{code})
	})
}
