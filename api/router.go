package api

import (
	"net/http"

	"envnotify/api/router/handlers"
	"envnotify/core"
	"envnotify/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the API handler. Paths are relative to the /api base path.
func NewRouter(editor *core.Editor) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	handlers.RegisterHealthRoutes(r)
	handlers.RegisterVersionRoutes(r)
	handlers.RegisterRuleRoutes(r, editor)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		logger.Error("API SUB-ROUTER CATCH-ALL: Unhandled route relative to /api: %s %s", req.Method, req.URL.Path)
		http.NotFound(w, req)
	})
	return r
}

// NewServerMux mounts the API under /api.
func NewServerMux(editor *core.Editor) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", NewRouter(editor)))
	return mux
}
