// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountChi mounts passkey routes on a chi router.
//
// Example:
//
//	handler := passkeyhttp.NewHandler(svc)
//	r.Route("/api/v1/passkey", func(r chi.Router) {
//	    passkeyhttp.MountChi(r, handler)
//	})
func MountChi(r chi.Router, h *Handler) {
	r.Post("/register/options", h.RegisterOptions)
	r.Post("/register/verify", h.RegisterVerify)
	r.Post("/login/options", h.LoginOptions)
	r.Post("/login/verify", h.LoginVerify)
	r.Get("/user", h.UserStatus)
}

// RouteEntry represents a single route with its method, path, and handler.
type RouteEntry struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Routes returns a slice of route entries for manual mounting.
// Useful for frameworks not directly supported.
func (h *Handler) Routes() []RouteEntry {
	return []RouteEntry{
		{Method: "POST", Path: "/register/options", Handler: h.RegisterOptions},
		{Method: "POST", Path: "/register/verify", Handler: h.RegisterVerify},
		{Method: "POST", Path: "/login/options", Handler: h.LoginOptions},
		{Method: "POST", Path: "/login/verify", Handler: h.LoginVerify},
		{Method: "GET", Path: "/user", Handler: h.UserStatus},
	}
}

// MountStdlib mounts passkey routes on a stdlib http.ServeMux.
// The prefix should not include a trailing slash.
func MountStdlib(mux *http.ServeMux, prefix string, h *Handler) {
	mux.HandleFunc(prefix+"/register/options", h.RegisterOptions)
	mux.HandleFunc(prefix+"/register/verify", h.RegisterVerify)
	mux.HandleFunc(prefix+"/login/options", h.LoginOptions)
	mux.HandleFunc(prefix+"/login/verify", h.LoginVerify)
	mux.HandleFunc(prefix+"/user", h.UserStatus)
}
