// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the catalog and the song pages over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/canti/internal/catalog"
	"github.com/starford/canti/internal/index"
	"github.com/starford/canti/internal/parser"
	"github.com/starford/canti/internal/songs"
	"github.com/starford/canti/internal/storage"
)

const (
	catalogFormatURI = "canti://catalog-format"
	mcpSavedBy       = "mcp"
	defaultLimit     = 20
)

// Server wraps the MCP server with the canti tools.
type Server struct {
	mcp     *server.MCPServer
	catalog *catalog.Service
	lister  *songs.Lister
	pages   storage.Provider
	lyrics  *songs.LyricsWriter
	db      *index.DB
}

// New creates a new MCP server with all tools registered.
func New(cat *catalog.Service, lister *songs.Lister, pages storage.Provider, lyrics *songs.LyricsWriter, db *index.DB) *Server {
	s := &Server{catalog: cat, lister: lister, pages: pages, lyrics: lyrics, db: db}

	s.mcp = server.NewMCPServer(
		"Canti",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_catalog",
		mcp.WithDescription("Return the songs chosen for the current Sunday as JSON."),
	), s.getCatalog)

	s.mcp.AddTool(mcp.NewTool("update_catalog",
		mcp.WithDescription("Replace the Sunday catalog. The document MUST follow the catalog "+
			"format contract; read it first via get_catalog_contract or the "+
			catalogFormatURI+" resource."),
		mcp.WithString("document", mcp.Required(), mcp.Description(`JSON object with "domenica" and "canti"`)),
	), s.updateCatalog)

	s.mcp.AddTool(mcp.NewTool("list_songs",
		mcp.WithDescription("List the song pages with file name and display title."),
	), s.listSongs)

	s.mcp.AddTool(mcp.NewTool("search_songs",
		mcp.WithDescription("Full-text search through song titles and page text."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchSongs)

	s.mcp.AddTool(mcp.NewTool("read_song",
		mcp.WithDescription("Read the title and visible text of a song page."),
		mcp.WithString("name", mcp.Required(), mcp.Description("File name as returned by list_songs (e.g. ave-maria.html)")),
	), s.readSong)

	s.mcp.AddTool(mcp.NewTool("create_lyrics",
		mcp.WithDescription("Store a new lyrics sheet. Fails if a sheet with the same title exists."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Song title")),
		mcp.WithString("lyrics", mcp.Required(), mcp.Description("Full lyrics text")),
		mcp.WithString("youtube_link", mcp.Description("Optional YouTube URL")),
		mcp.WithString("minicorale_number", mcp.Description("Optional number in the minicorale book")),
		mcp.WithString("assemblea_number", mcp.Description("Optional number in the assemblea book")),
	), s.createLyrics)

	s.mcp.AddTool(mcp.NewTool("get_catalog_contract",
		mcp.WithDescription("Returns the catalog format contract. "+
			"Call this before update_catalog to ensure correct structure."),
	), s.getCatalogContract)

	s.mcp.AddResource(
		mcp.NewResource(catalogFormatURI, "Catalog Format Contract",
			mcp.WithResourceDescription("JSON format of the weekly catalog document."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCatalogFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getCatalog(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.catalog.Get(ctx))
}

func (s *Server) updateCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := catalog.Decode(strings.NewReader(raw))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	saved, err := s.catalog.Update(ctx, doc, mcpSavedBy)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(saved)
}

func (s *Server) listSongs(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.lister.Files(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(files)
}

func (s *Server) searchSongs(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, req.GetInt("limit", defaultLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	return jsonResult(results)
}

func (s *Server) readSong(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !strings.EqualFold(path.Ext(name), s.lister.Extension()) {
		return mcp.NewToolResultError(fmt.Sprintf("not a song page: %s", name)), nil
	}
	data, err := s.pages.Read(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name)), nil
	}
	page, err := parser.ParseSong(data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title := page.Title
	if title == "" {
		title = s.lister.DisplayName(name)
	}
	return mcp.NewToolResultText(title + "\n\n" + page.Body), nil
}

func (s *Server) createLyrics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sheet := songs.LyricsSheet{
		Title:            req.GetString("title", ""),
		Lyrics:           req.GetString("lyrics", ""),
		YouTubeLink:      req.GetString("youtube_link", ""),
		MinicoraleNumber: req.GetString("minicorale_number", ""),
		AssembleaNumber:  req.GetString("assemblea_number", ""),
	}
	name, err := s.lyrics.Create(ctx, sheet)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", name)), nil
}

func (s *Server) getCatalogContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CatalogFormatContract), nil
}

func (s *Server) readCatalogFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      catalogFormatURI,
			MIMEType: "text/markdown",
			Text:     CatalogFormatContract,
		},
	}, nil
}

