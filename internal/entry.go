// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/canti/internal/api"
	"github.com/starford/canti/internal/auth"
	"github.com/starford/canti/internal/catalog"
	"github.com/starford/canti/internal/index"
	"github.com/starford/canti/internal/mcpserver"
	"github.com/starford/canti/internal/publish"
	"github.com/starford/canti/internal/songs"
	"github.com/starford/canti/internal/sse"
	"github.com/starford/canti/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// components are the stores and services shared by every command.
type components struct {
	logger  *slog.Logger
	db      *index.DB
	pages   storage.Provider
	lister  *songs.Lister
	lyrics  *songs.LyricsWriter
	store   *catalog.Store
	catalog *catalog.Service
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// githubPublisher returns the injected publisher, else a GitHub client when the
// configuration asks for one, else nil.
func (a *application) githubPublisher(required bool) (catalog.Publisher, error) {
	if a.publisher != nil {
		return a.publisher, nil
	}
	gh := a.config.GitHub
	if !required && !gh.PublishOnSave {
		return nil, nil
	}
	if required && !gh.Enabled() {
		return nil, errors.New("github: token, owner and repo must be configured")
	}
	pub, err := publish.New(gh.PublishOptions(), nil)
	if err != nil {
		return nil, fmt.Errorf("init publisher: %w", err)
	}
	return pub, nil
}

// build opens the database and wires the stores. The caller closes c.db.
func build(cfg *Config, logger *slog.Logger, opts ...catalog.ServiceOption) (*components, error) {
	for _, dir := range []string{
		filepath.Dir(cfg.Catalog.Path),
		filepath.Dir(cfg.SQLite.Path),
		cfg.Lyrics.Dir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	catalogFiles, err := storage.NewFS(filepath.Dir(cfg.Catalog.Path))
	if err != nil {
		return nil, fmt.Errorf("init catalog storage: %w", err)
	}
	pages, err := storage.NewFS(cfg.Songs.Dir)
	if err != nil {
		return nil, fmt.Errorf("init songs storage: %w", err)
	}
	lyricsFiles, err := storage.NewFS(cfg.Lyrics.Dir)
	if err != nil {
		return nil, fmt.Errorf("init lyrics storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	version, err := db.SchemaVersion()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init index: %w", err)
	}
	logger.Info("index ready",
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Int("schema_version", version))

	store := catalog.NewStore(catalogFiles, filepath.Base(cfg.Catalog.Path), logger)
	opts = append([]catalog.ServiceOption{catalog.WithHistory(db)}, opts...)

	return &components{
		logger: logger,
		db:     db,
		pages:  pages,
		lister: songs.NewLister(pages, cfg.Songs.Extension,
			songs.WithSeparator(cfg.Songs.Separator),
			songs.WithTitleCase(cfg.Songs.TitleCase)),
		lyrics:  songs.NewLyricsWriter(lyricsFiles),
		store:   store,
		catalog: catalog.NewService(store, logger, opts...),
	}, nil
}

func (c *components) songIndex() index.Songs {
	return index.Songs{Files: c.pages, Ext: c.lister.Extension(), Name: c.lister.DisplayName}
}

// syncSongs indexes the songs directory when it exists.
func (c *components) syncSongs() bool {
	if info, err := os.Stat(c.pages.Root()); err != nil || !info.IsDir() {
		c.logger.Warn("songs dir not found, index left empty", slog.String("dir", c.pages.Root()))
		return false
	}
	if err := index.Sync(c.db, c.songIndex(), c.logger); err != nil {
		c.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return true
}

func newAuth(cfg *Config, logger *slog.Logger) (*auth.Service, error) {
	if !cfg.Auth.AuthEnabled() {
		logger.Warn("authentication disabled, every route is open")
		return nil, nil
	}
	creds, err := auth.NewCredentials(cfg.Auth.AuthUsers())
	if err != nil {
		return nil, fmt.Errorf("init credentials: %w", err)
	}
	tokens, err := auth.NewTokens([]byte(cfg.Auth.Secret), cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init tokens: %w", err)
	}
	logger.Info("authentication enabled",
		slog.Int("users", creds.Len()),
		slog.Duration("token_ttl", tokens.TTL()))
	return auth.NewService(creds, tokens, logger), nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg, app.logOutput)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("songs_dir", cfg.Songs.Dir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svcOpts := []catalog.ServiceOption{catalog.WithSaveCallback(broker.PublishCatalog)}
	pub, err := app.githubPublisher(false)
	if err != nil {
		return err
	}
	if pub != nil {
		svcOpts = append(svcOpts, catalog.WithPublisher(pub))
		logger.Info("publishing enabled",
			slog.String("repo", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo),
			slog.String("path", cfg.GitHub.Path))
	}

	c, err := build(cfg, logger, svcOpts...)
	if err != nil {
		return err
	}
	defer c.db.Close()

	authSvc, err := newAuth(cfg, logger)
	if err != nil {
		return err
	}

	watchSongs := c.syncSongs() && cfg.Songs.Watch

	router := api.NewRouter(api.Deps{
		Auth:           authSvc,
		Catalog:        c.catalog,
		Songs:          c.lister,
		Lyrics:         c.lyrics,
		Search:         c.db,
		DB:             c.db,
		Events:         broker,
		SongsDir:       cfg.Songs.Dir,
		StaticDir:      cfg.Static.Dir,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown waits for active handlers; open event streams end only when
	// the broker closes their channels.
	httpServer.RegisterOnShutdown(broker.Close)

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if watchSongs {
		g.Go(func() error {
			return index.Watch(gCtx, c.db, c.songIndex(), logger, broker.PublishSongEvent)
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		// Ends the watcher too.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdio. Logs go to stderr because stdout
// carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(cfg, app.logOutput)
	slog.SetDefault(logger)

	var svcOpts []catalog.ServiceOption
	pub, err := app.githubPublisher(false)
	if err != nil {
		return err
	}
	if pub != nil {
		svcOpts = append(svcOpts, catalog.WithPublisher(pub))
	}

	c, err := build(cfg, logger, svcOpts...)
	if err != nil {
		return err
	}
	defer c.db.Close()
	c.syncSongs()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(c.catalog, c.lister, c.pages, c.lyrics, c.db).ServeStdio()
}

// Publish commits the catalog file currently on disk to GitHub.
func Publish(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(cfg, app.logOutput)

	pub, err := app.githubPublisher(true)
	if err != nil {
		return err
	}

	c, err := build(cfg, logger)
	if err != nil {
		return err
	}
	defer c.db.Close()

	if err := c.catalog.Publish(ctx, pub); err != nil {
		return fmt.Errorf("publish %s: %w", cfg.Catalog.Path, err)
	}
	logger.Info("catalog published",
		slog.String("repo", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo),
		slog.String("path", cfg.GitHub.Path))
	return nil
}
