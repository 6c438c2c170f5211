package handlers

import (
	"fmt"
	"net/http"

	"github.com/containerstack/registry/digest"
	"github.com/containerstack/registry/events"
	"github.com/containerstack/registry/registry/api/errcode"
	"github.com/containerstack/registry/storage"
	"github.com/gorilla/handlers"
)

// blobUploadBaseDispatcher serves POST /v2/<name>/blobs/uploads/, starting
// a new resumable upload session.
func blobUploadBaseDispatcher(ctx *Context, r *http.Request) http.Handler {
	return handlers.MethodHandler{
		"POST": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startUpload(ctx, w, r)
		}),
	}
}

func startUpload(ctx *Context, w http.ResponseWriter, r *http.Request) {
	up, err := ctx.Repository.StartUpload()
	if err != nil {
		ctx.Log().Errorf("starting upload: %v", err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	setUploadHeaders(ctx, w, up.UUID, 0)
	w.WriteHeader(http.StatusAccepted)
}

// blobUploadDispatcher serves GET/PATCH/PUT/DELETE
// /v2/<name>/blobs/uploads/<uuid>.
func blobUploadDispatcher(ctx *Context, r *http.Request) http.Handler {
	id := ctx.vars["uuid"]
	if !storage.ValidUploadUUID(id) {
		return errorHandler(errcode.ErrorCodeBlobUploadInvalid)
	}

	return handlers.MethodHandler{
		"GET":    http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { uploadStatus(ctx, w, r, id) }),
		"PATCH":  http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { uploadAppend(ctx, w, r, id) }),
		"PUT":    http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { uploadFinalize(ctx, w, r, id) }),
		"DELETE": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { uploadCancel(ctx, w, r, id) }),
	}
}

func uploadStatus(ctx *Context, w http.ResponseWriter, r *http.Request, id string) {
	up, err := ctx.Repository.ResumeUpload(id)
	if err != nil {
		serveUploadNotFound(w, id, err)
		return
	}

	size, err := up.Size()
	if err != nil {
		ctx.Log().Errorf("reading upload size: %v", err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	setUploadHeaders(ctx, w, id, size)
	w.WriteHeader(http.StatusNoContent)
}

func uploadAppend(ctx *Context, w http.ResponseWriter, r *http.Request, id string) {
	up, err := ctx.Repository.ResumeUpload(id)
	if err != nil {
		serveUploadNotFound(w, id, err)
		return
	}

	size, err := up.Append(r.Body)
	if err != nil {
		ctx.Log().Errorf("appending to upload %s: %v", id, err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	setUploadHeaders(ctx, w, id, size)
	w.WriteHeader(http.StatusAccepted)
}

func uploadFinalize(ctx *Context, w http.ResponseWriter, r *http.Request, id string) {
	// The missing-session case is checked before the body is consumed,
	// matching the reference registry's actual behavior.
	up, err := ctx.Repository.ResumeUpload(id)
	if err != nil {
		serveUploadNotFound(w, id, err)
		return
	}

	expected, err := digest.Parse(r.URL.Query().Get("digest"))
	if err != nil {
		errcode.ServeJSON(w, errcode.Errors{errcode.ErrorCodeDigestInvalid})
		return
	}

	if r.ContentLength > 0 || r.Body != nil {
		if _, err := up.Append(r.Body); err != nil {
			ctx.Log().Errorf("appending final chunk to upload %s: %v", id, err)
			http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	if err := up.Finalize(expected); err != nil {
		if err == storage.ErrDigestMismatch {
			errcode.ServeJSON(w, errcode.Errors{errcode.ErrorCodeDigestInvalid.WithDetail(expected.String())})
			return
		}
		ctx.Log().Errorf("finalizing upload %s: %v", id, err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	ctx.App.Events.Publish(events.Event{
		Action:     events.ActionPush,
		Repository: ctx.Repository.Name,
		Digest:     expected.String(),
	})

	w.Header().Set("Docker-Content-Digest", expected.String())
	w.Header().Set("Location", blobLocation(ctx, expected))
	w.WriteHeader(http.StatusCreated)
}

func uploadCancel(ctx *Context, w http.ResponseWriter, r *http.Request, id string) {
	up, err := ctx.Repository.ResumeUpload(id)
	if err != nil {
		serveUploadNotFound(w, id, err)
		return
	}

	if err := up.Cancel(); err != nil {
		ctx.Log().Errorf("cancelling upload %s: %v", id, err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func serveUploadNotFound(w http.ResponseWriter, id string, err error) {
	if _, ok := err.(*storage.ErrNotFound); ok {
		errcode.ServeJSON(w, errcode.Errors{errcode.ErrorCodeBlobUploadUnknown.WithDetail(id)})
		return
	}
	errcode.ServeJSON(w, errcode.Errors{errcode.ErrorCodeBlobUploadInvalid.WithDetail(id)})
}

// setUploadHeaders sets the Location and Range headers for an in-progress
// upload's response, using the literal inclusive-upper range convention:
// "0-0" when nothing has been written, "0-(size-1)" otherwise.
func setUploadHeaders(ctx *Context, w http.ResponseWriter, uuid string, size int64) {
	w.Header().Set("Location", uploadLocation(ctx, uuid))
	w.Header().Set("Docker-Upload-UUID", uuid)
	if size == 0 {
		w.Header().Set("Range", "0-0")
	} else {
		w.Header().Set("Range", fmt.Sprintf("0-%d", size-1))
	}
}

func uploadLocation(ctx *Context, uuid string) string {
	return fmt.Sprintf("%s/v2/%s/blobs/uploads/%s", ctx.App.Config.AccessURL, ctx.Repository.Name, uuid)
}

func blobLocation(ctx *Context, d digest.Digest) string {
	return fmt.Sprintf("%s/v2/%s/blobs/%s", ctx.App.Config.AccessURL, ctx.Repository.Name, d.String())
}
