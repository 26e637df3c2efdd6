package server

import (
	"net/http"

	"github.com/swapfeed/swapfeed/internal/utils"
	"github.com/swapfeed/swapfeed/pkg/pairing"
	"github.com/swapfeed/swapfeed/pkg/prefs"
)

// Server exposes the pairing engine's rendering-layer contract as a JSON API
// for a browser front end. The front end never mutates engine state directly;
// it calls these endpoints and re-renders from the returned snapshots.
type Server struct {
	Engine   *pairing.Engine
	Prefs    *prefs.Store
	Username string
	Password string
}

func New(engine *pairing.Engine, store *prefs.Store, user, pass string) *Server {
	return &Server{
		Engine:   engine,
		Prefs:    store,
		Username: user,
		Password: pass,
	}
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/feed", s.basicAuth(s.handleFeed))
	mux.HandleFunc("POST /api/submit", s.basicAuth(s.handleSubmit))
	mux.HandleFunc("POST /api/more", s.basicAuth(s.handleMore))
	mux.HandleFunc("GET /api/suggest", s.basicAuth(s.handleSuggest))
	mux.HandleFunc("GET /api/prefs", s.basicAuth(s.handleGetPrefs))
	mux.HandleFunc("PUT /api/prefs", s.basicAuth(s.handlePutPrefs))

	return mux
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
