package handlers

import (
	"context"
	"net/http"

	"github.com/containerstack/registry/internal/dcontext"
	"github.com/containerstack/registry/registry/auth"
	"github.com/containerstack/registry/storage"
	"github.com/gorilla/mux"
)

// Context carries per-request state: the parent App, the mux variables for
// this route, the resolved repository handle, and the authenticated
// principal. It is the receiver every dispatcher builds its handler struct
// around, mirroring the way the teacher threads one request-scoped value
// through its handler methods instead of re-deriving it from r each time.
type Context struct {
	context.Context

	App        *App
	Repository *storage.Repository
	Principal  auth.Principal
	vars       map[string]string
}

func newContext(ctx context.Context, app *App, r *http.Request) *Context {
	vars := mux.Vars(r)

	c := &Context{
		Context: ctx,
		App:     app,
		vars:    vars,
	}

	if name, ok := vars["name"]; ok {
		c.Repository = app.Registry.Repository(name)
	}

	return c
}

// Log returns a logger annotated with this request's repository, if any.
func (c *Context) Log() dcontext.Logger {
	if c.Repository != nil {
		return dcontext.GetLoggerWithField(c.Context, "repository", c.Repository.Name)
	}
	return dcontext.GetLogger(c.Context)
}
