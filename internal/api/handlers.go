package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/starford/canti/internal/apperr"
	"github.com/starford/canti/internal/auth"
	"github.com/starford/canti/internal/catalog"
	"github.com/starford/canti/internal/index"
	"github.com/starford/canti/internal/songs"
)

const (
	maxCatalogBytes = 1 << 20
	maxFormBytes    = 1 << 20
	defaultHistory  = 20
	defaultResults  = 20
)

// Searcher finds indexed song pages.
type Searcher interface {
	Search(query string, limit int) ([]index.SearchResult, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping() error
}

// Handler holds API route handlers.
type Handler struct {
	auth    *auth.Service
	catalog *catalog.Service
	songs   *songs.Lister
	lyrics  *songs.LyricsWriter
	search  Searcher
	db      Pinger
}

// Health handles GET /health. It answers 503 when the index database is
// unreachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			slog.Error("health: index unreachable", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Login handles POST /api/login.
//
//	@Summary		Exchange credentials for a bearer token
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	LoginResponse
//	@Failure		400		{object}	errResponse
//	@Failure		401		{object}	errResponse
//	@Failure		429		{object}	errResponse
//	@Router			/api/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeJSON(w, http.StatusNotFound, errorBody("authentication is disabled"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, "login", fmt.Errorf("%w: %v", apperr.ErrValidation, err))
		return
	}
	tok, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: tok.Value, ExpiresAt: tok.ExpiresAt})
}

// GetCatalog handles GET /api/canti.
//
//	@Summary		Current Sunday catalog
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	Catalog
//	@Router			/api/canti [get]
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Get(r.Context()))
}

// SaveCatalog handles POST /api/canti.
//
//	@Summary		Replace the Sunday catalog
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			body	body		Catalog	true	"New catalog"
//	@Success		200		{object}	Catalog
//	@Failure		400		{object}	errResponse
//	@Failure		401		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/api/canti [post]
func (h *Handler) SaveCatalog(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCatalogBytes)
	doc, err := catalog.Decode(r.Body)
	if err != nil {
		writeError(w, r, "decode catalog", err)
		return
	}
	saved, err := h.catalog.Update(r.Context(), doc, savedBy(r))
	if err != nil {
		writeError(w, r, "save catalog", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// History handles GET /api/canti/history.
//
//	@Summary		Recent catalog revisions
//	@Tags			catalog
//	@Produce		json
//	@Param			limit	query		int	false	"Max revisions"
//	@Success		200		{object}	HistoryResponse
//	@Security		BearerAuth
//	@Router			/api/canti/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultHistory)
	revs, err := h.catalog.History(r.Context(), limit)
	if err != nil {
		writeError(w, r, "history", err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Revisions: revs})
}

// ListSongs handles GET /api/songs-list.
//
//	@Summary		Display names of the song pages
//	@Tags			songs
//	@Produce		json
//	@Success		200	{array}		string
//	@Failure		404	{object}	errResponse
//	@Router			/api/songs-list [get]
func (h *Handler) ListSongs(w http.ResponseWriter, r *http.Request) {
	names, err := h.songs.List(r.Context())
	if err != nil {
		writeError(w, r, "list songs", err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// SearchSongs handles GET /api/songs/search.
//
//	@Summary		Full-text search across song pages
//	@Tags			songs
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/api/songs/search [get]
func (h *Handler) SearchSongs(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	results, err := h.search.Search(q, queryInt(r, "limit", defaultResults))
	if err != nil {
		writeError(w, r, "search", err)
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// CreateLyrics handles POST /crea-canto (urlencoded or multipart form).
//
//	@Summary		Store a new lyrics sheet
//	@Tags			songs
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			title				formData	string	true	"Title"
//	@Param			lyrics				formData	string	true	"Lyrics"
//	@Param			youtubeLink			formData	string	false	"YouTube URL"
//	@Param			minicoraleNumber	formData	string	false	"Minicorale number"
//	@Param			assembleaNumber		formData	string	false	"Assemblea number"
//	@Success		201	{object}	CreateLyricsResponse
//	@Failure		400	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/crea-canto [post]
func (h *Handler) CreateLyrics(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := parseForm(r); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid form"))
		return
	}
	sheet := songs.LyricsSheet{
		Title:            r.FormValue("title"),
		Lyrics:           r.FormValue("lyrics"),
		YouTubeLink:      r.FormValue("youtubeLink"),
		MinicoraleNumber: r.FormValue("minicoraleNumber"),
		AssembleaNumber:  r.FormValue("assembleaNumber"),
	}
	name, err := h.lyrics.Create(r.Context(), sheet)
	if err != nil {
		writeError(w, r, "create lyrics", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateLyricsResponse{Filename: name})
}

func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxFormBytes)
	}
	return r.ParseForm()
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
