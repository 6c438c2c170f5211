package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/containerstack/registry/registry/api/errcode"
	"github.com/containerstack/registry/storage"
	"github.com/gorilla/handlers"
)

// catalogDispatcher serves GET /v2/_catalog.
func catalogDispatcher(ctx *Context, r *http.Request) http.Handler {
	return handlers.MethodHandler{
		"GET": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			serveCatalog(ctx, w, r)
		}),
	}
}

type catalogResponse struct {
	Repositories []string `json:"repositories"`
}

func serveCatalog(ctx *Context, w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	n := -1
	if raw := q.Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			errcode.ServeJSON(w, errcode.Errors{errcode.ErrorCodePaginationNumberInvalid})
			return
		}
		n = parsed
	}

	names, err := ctx.App.Registry.ListRepositories()
	if err != nil {
		ctx.Log().Errorf("listing repositories: %v", err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	page := storage.Paginate(names, q.Get("last"), n)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(catalogResponse{Repositories: page})
}
