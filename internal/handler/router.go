package handler

import (
	"net/http"

	"notes-api/internal/middleware"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Auth      *AuthHandler
	User      *UserHandler
	Note      *NoteHandler
	Search    *SearchHandler
	Home      *HomeHandler
	WebSocket *WebSocketHandler
}

type RouterOptions struct {
	APIPrefix      string
	Verifier       middleware.TokenVerifier
	Metrics        *middleware.Metrics
	MetricsHandler http.Handler
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// NewRouter wires every route and wraps the router in the global middleware
// chain. Global middleware sits outside mux so it also covers unmatched
// routes and CORS preflights.
func NewRouter(h Handlers, opts RouterOptions) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(MethodNotAllowed)

	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}

	r.HandleFunc("/", h.Home.Home).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Home.Health).Methods(http.MethodGet)
	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.MetricsHandler).Methods(http.MethodGet)
	}
	if h.WebSocket != nil {
		r.HandleFunc("/ws", h.WebSocket.HandleConnection).Methods(http.MethodGet)
	}

	api := r.PathPrefix(opts.APIPrefix).Subrouter()

	api.HandleFunc("/auth/signup", h.Auth.Signup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", h.Auth.Logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh-token", h.Auth.Refresh).Methods(http.MethodPost)

	// Guarded per route: a catch-all subrouter here masks method mismatches
	// as 404s.
	protected := func(path string, fn http.HandlerFunc, method string) {
		api.Handle(path, middleware.RequireAuth(fn)).Methods(method)
	}

	protected("/user/authenticated", h.User.Authenticated, http.MethodGet)
	protected("/user/password", h.User.ChangePassword, http.MethodPatch)

	protected("/notes", h.Note.List, http.MethodGet)
	protected("/notes", h.Note.Create, http.MethodPost)
	protected("/notes/{id}", h.Note.Get, http.MethodGet)
	protected("/notes/{id}", h.Note.Update, http.MethodPatch)
	protected("/notes/{id}", h.Note.Delete, http.MethodDelete)
	protected("/notes/{id}/share", h.Note.Share, http.MethodPost)

	protected("/search", h.Search.Search, http.MethodGet)

	var handler http.Handler = r
	handler = middleware.LoggerMiddleware()(handler)
	handler = middleware.DeserializeUser(opts.Verifier)(handler)
	handler = middleware.CORSMiddleware(opts.AllowedOrigins, opts.AllowedMethods, opts.AllowedHeaders)(handler)
	handler = middleware.SecureHeaders(handler)
	handler = middleware.Recover(handler)
	handler = middleware.RequestID(handler)

	return handler
}
