package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/containerstack/registry/digest"
	"github.com/containerstack/registry/events"
	"github.com/containerstack/registry/internal/dcontext"
	"github.com/containerstack/registry/manifest"
	"github.com/containerstack/registry/registry/api/errcode"
	"github.com/containerstack/registry/storage"
	"github.com/gorilla/handlers"
)

// manifestDispatcher serves GET/HEAD/PUT/DELETE
// /v2/<name>/manifests/<reference>, where reference is either a tag or a
// digest.
func manifestDispatcher(ctx *Context, r *http.Request) http.Handler {
	ref := ctx.vars["reference"]

	return handlers.MethodHandler{
		"GET":    http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveManifest(ctx, w, r, ref, true) }),
		"HEAD":   http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveManifest(ctx, w, r, ref, false) }),
		"PUT":    http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { putManifest(ctx, w, r, ref) }),
		"DELETE": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { deleteManifest(ctx, w, r, ref) }),
	}
}

func serveManifest(ctx *Context, w http.ResponseWriter, r *http.Request, ref string, withBody bool) {
	d, err := ctx.Repository.ResolveManifestRef(ref)
	if err != nil {
		serveManifestNotFound(w, ref, err)
		return
	}

	ok, err := ctx.Repository.HasRevision(d)
	if err != nil {
		ctx.Log().Errorf("checking revision %s: %v", d, err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !ok {
		errcode.ServeJSON(w, errcode.Errors{errcode.ErrorCodeManifestBlobUnknown.WithDetail(d.String())})
		return
	}

	raw, err := ctx.Repository.ReadManifest(d)
	if err != nil {
		ctx.Log().Errorf("reading manifest %s: %v", d, err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	contentType := manifest.DockerManifestSchema2
	if env, err := manifest.Parse(raw); err == nil && env.MediaType != "" {
		contentType = env.MediaType
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Docker-Content-Digest", d.String())
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))

	if !withBody {
		w.WriteHeader(http.StatusOK)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

func putManifest(ctx *Context, w http.ResponseWriter, r *http.Request, ref string) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		ctx.Log().Errorf("reading manifest body: %v", err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	if _, err := manifest.Parse(raw); err != nil {
		errcode.ServeJSON(w, errcode.Errors{errcode.ErrorCodeManifestInvalid.WithDetail(err.Error())})
		return
	}

	d, err := ctx.Repository.WriteManifest(ref, raw)
	if err != nil {
		ctx.Log().Errorf("writing manifest: %v", err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	ctx.App.Events.Publish(events.Event{
		Action:     events.ActionPush,
		Repository: ctx.Repository.Name,
		Digest:     d.String(),
		Tag:        tagIfNotDigest(ref),
	})

	w.Header().Set("Docker-Content-Digest", d.String())
	w.Header().Set("Location", manifestLocation(ctx, d.String()))
	w.WriteHeader(http.StatusCreated)
}

func deleteManifest(ctx *Context, w http.ResponseWriter, r *http.Request, ref string) {
	d, err := digest.Parse(ref)
	if err != nil {
		errcode.ServeJSON(w, errcode.Errors{errcode.ErrorCodeDigestInvalid.WithDetail("manifests may only be deleted by digest")})
		return
	}

	ok, err := ctx.Repository.HasRevision(d)
	if err != nil {
		ctx.Log().Errorf("checking revision %s: %v", d, err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !ok {
		errcode.ServeJSON(w, errcode.Errors{errcode.ErrorCodeManifestUnknown.WithDetail(d.String())})
		return
	}

	if err := ctx.Repository.DeleteManifest(d); err != nil {
		ctx.Log().Errorf("deleting manifest %s: %v", d, err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	ctx.App.Events.Publish(events.Event{
		Action:     events.ActionDelete,
		Repository: ctx.Repository.Name,
		Digest:     d.String(),
	})

	w.WriteHeader(http.StatusAccepted)

	// CollectGarbage takes no context, so a client disconnect cannot cut the
	// sweep short; the detached context only carries the request's values
	// into the error log.
	detached := dcontext.DetachedContext(ctx.Context)
	result, err := ctx.App.Registry.CollectGarbage()
	if err != nil {
		dcontext.GetLogger(detached).Errorf("collecting garbage after manifest delete: %v", err)
		return
	}
	if len(result.Deleted) > 0 {
		ctx.App.Events.Publish(events.Event{
			Action:     events.ActionGC,
			Repository: ctx.Repository.Name,
		})
	}
}

func serveManifestNotFound(w http.ResponseWriter, ref string, err error) {
	if _, ok := err.(*storage.ErrNotFound); ok {
		errcode.ServeJSON(w, errcode.Errors{errcode.ErrorCodeManifestUnknown.WithDetail(ref)})
		return
	}
	errcode.ServeJSON(w, errcode.Errors{errcode.ErrorCodeManifestInvalid.WithDetail(err.Error())})
}

func tagIfNotDigest(ref string) string {
	if _, err := digest.Parse(ref); err == nil {
		return ""
	}
	return ref
}

func manifestLocation(ctx *Context, ref string) string {
	return ctx.App.Config.AccessURL + "/v2/" + ctx.Repository.Name + "/manifests/" + ref
}
