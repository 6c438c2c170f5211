package handlers

import (
	"net/http"

	"github.com/containerstack/registry/configuration"
	"github.com/containerstack/registry/events"
	"github.com/containerstack/registry/internal/dcontext"
	"github.com/containerstack/registry/internal/uuid"
	"github.com/containerstack/registry/registry/api/errcode"
	"github.com/containerstack/registry/registry/auth"
	"github.com/containerstack/registry/storage"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// App is the registry's HTTP application: shared, read-after-startup state
// plus the configured router. One App instance serves every request.
type App struct {
	Config     *configuration.Configuration
	Registry   *storage.Registry
	Events     *events.Bus
	InstanceID string

	router *mux.Router
}

// dispatcher builds the http.Handler for one route from per-request
// context, the way the teacher's handler dispatchers do.
type dispatcher func(ctx *Context, r *http.Request) http.Handler

// NewApp wires a storage registry and router around cfg and returns an App
// ready to be wrapped in ServeHTTP middleware.
func NewApp(cfg *configuration.Configuration) *App {
	app := &App{
		Config:     cfg,
		Registry:   storage.NewRegistry(cfg.StoragePath),
		Events:     events.NewBus(),
		InstanceID: uuid.NewString(),
		router:     router(),
	}

	app.router.GetRoute(RouteNameToken).Handler(http.HandlerFunc(app.tokenHandler))

	app.register(RouteNameBase, apiBaseDispatcher)
	app.register(RouteNameCatalog, catalogDispatcher)
	app.register(RouteNameTags, tagsDispatcher)
	app.register(RouteNameManifest, manifestDispatcher)
	app.register(RouteNameBlob, blobDispatcher)
	app.register(RouteNameBlobUploadBase, blobUploadBaseDispatcher)
	app.register(RouteNameBlobUpload, blobUploadDispatcher)

	return app
}

// register attaches dispatch to the named route, building a Context on
// each request and enforcing the write-verb authentication rule before
// handing off to the dispatcher-built handler.
func (app *App) register(routeName string, dispatch dispatcher) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		reqCtx := dcontext.WithRegistryHost(dcontext.WithVersion(r.Context(), "2.0"), r.Host)
		ctx := newContext(reqCtx, app, r)

		principal, err := app.authenticate(r)
		if err != nil {
			app.challenge(w, ctx, err.Error())
			return
		}
		ctx.Principal = principal

		if isWriteMethod(r.Method) && principal.Anonymous {
			app.challenge(w, ctx, "insufficient_scope")
			return
		}

		dispatch(ctx, r).ServeHTTP(w, r)
	}

	route := app.router.GetRoute(routeName)
	if route == nil {
		return
	}
	route.Handler(http.HandlerFunc(handler))
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPut, http.MethodPost, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// authenticate resolves the request's Principal from HTTP Basic or a
// bearer token. Anonymous access is permitted for read verbs (enforced by
// the caller) only when the registry has no configured credentials.
func (app *App) authenticate(r *http.Request) (auth.Principal, error) {
	if bearer := r.Header.Get("Authorization"); len(bearer) > 7 && bearer[:7] == "Bearer " {
		return auth.VerifyToken(app.Config.AppSecret, bearer[7:])
	}

	if username, password, ok := r.BasicAuth(); ok {
		if app.Config.Authenticate(username, password) {
			return auth.Principal{Name: username}, nil
		}
		return auth.Principal{}, errAuthFailed
	}

	if app.Config.HasAnyCredentials() {
		return auth.Principal{}, errAuthRequired
	}

	return auth.AnonymousPrincipal, nil
}

var errAuthRequired = &authError{"authentication required"}

var errAuthFailed = &authError{"invalid credentials"}

type authError struct{ msg string }

func (e *authError) Error() string { return e.msg }

func (app *App) challenge(w http.ResponseWriter, ctx *Context, reason string) {
	w.Header().Set("WWW-Authenticate", auth.Challenge(app.Config.AccessURL, dcontext.GetRegistryHost(ctx), reason))
	errcode.ServeJSON(w, errcode.Errors{errcode.ErrorCodeUnauthorized})
}

// ServeHTTP wraps the router with Apache-style combined access logging,
// matching the teacher's use of gorilla/handlers at the outermost layer.
func (app *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handlers.CombinedLoggingHandler(loggingWriter{app}, app.router).ServeHTTP(w, r)
}

// loggingWriter adapts the App's structured logger to the io.Writer the
// combined log handler expects.
type loggingWriter struct{ app *App }

func (lw loggingWriter) Write(p []byte) (int, error) {
	dcontext.GetLogger(dcontext.Background()).Info(string(p))
	return len(p), nil
}
