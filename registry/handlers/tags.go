package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/handlers"
)

// tagsDispatcher serves GET /v2/<name>/tags/list.
func tagsDispatcher(ctx *Context, r *http.Request) http.Handler {
	return handlers.MethodHandler{
		"GET": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			serveTagsList(ctx, w, r)
		}),
	}
}

type tagsListResponse struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

func serveTagsList(ctx *Context, w http.ResponseWriter, r *http.Request) {
	tags, err := ctx.Repository.ListTags()
	if err != nil {
		ctx.Log().Errorf("listing tags: %v", err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tagsListResponse{Name: ctx.Repository.Name, Tags: tags})
}
