package api

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/starford/canti/internal/auth"
	"github.com/starford/canti/internal/catalog"
	"github.com/starford/canti/internal/songs"
)

// Login attempts allowed per client: a burst of five, then one every 12s.
const (
	loginBurst = 5
	loginEvery = 12
)

// Deps holds everything the router serves.
type Deps struct {
	// Auth is nil when authentication is disabled.
	Auth    *auth.Service
	Catalog *catalog.Service
	Songs   *songs.Lister
	Lyrics  *songs.LyricsWriter
	Search  Searcher
	// DB, if non-nil, is pinged by GET /health.
	DB Pinger
	// Events, if non-nil, is mounted at GET /api/events.
	Events http.Handler

	SongsDir       string
	StaticDir      string
	AllowedOrigins []string
	// LoginLimit overrides the default login rate when non-zero.
	LoginLimit rate.Limit
}

// NewRouter creates the chi router with every route mounted.
func NewRouter(d Deps) chi.Router {
	h := &Handler{
		auth:    d.Auth,
		catalog: d.Catalog,
		songs:   d.Songs,
		lyrics:  d.Lyrics,
		search:  d.Search,
		db:      d.DB,
	}
	files := NewSongFileHandler(d.SongsDir)

	limit := d.LoginLimit
	if limit == 0 {
		limit = rate.Limit(1.0 / loginEvery)
	}
	limiter := newLoginLimiter(limit, loginBurst)
	requireAuth := Authenticator(d.Auth)

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.With(limiter.middleware).Post("/login", h.Login)

		r.Get("/canti", h.GetCatalog)
		r.With(requireAuth).Post("/canti", h.SaveCatalog)
		r.With(requireAuth).Get("/canti/history", h.History)

		r.Get("/songs-list", h.ListSongs)
		r.Get("/songs/search", h.SearchSongs)

		if d.Events != nil {
			r.Get("/events", d.Events.ServeHTTP)
		}
	})

	r.Get("/canti/{filename}", files.ServeFile)
	r.With(requireAuth).Post("/crea-canto", h.CreateLyrics)

	if d.StaticDir != "" {
		if info, err := os.Stat(d.StaticDir); err == nil && info.IsDir() {
			r.Handle("/*", http.FileServer(http.Dir(d.StaticDir)))
		} else {
			slog.Warn("static dir not found, frontend disabled", slog.String("dir", d.StaticDir))
		}
	}

	return r
}
