package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/containerstack/registry/registry/auth"
)

// tokenHandler serves GET /token: HTTP Basic in, a signed opaque bearer
// token out. It is registered directly rather than through app.register
// since it performs its own Basic-auth check instead of the generic
// bearer-or-basic-or-anonymous resolution every other route uses.
func (app *App) tokenHandler(w http.ResponseWriter, r *http.Request) {
	username, password, ok := r.BasicAuth()
	if !ok || !app.Config.Authenticate(username, password) {
		w.Header().Set("WWW-Authenticate", auth.Challenge(app.Config.AccessURL, r.Host, "invalid_token"))
		http.Error(w, `{"error":"invalid_token"}`, http.StatusUnauthorized)
		return
	}

	token := auth.IssueToken(app.Config.AppSecret, username)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Token string `json:"token"`
	}{Token: token})
}
