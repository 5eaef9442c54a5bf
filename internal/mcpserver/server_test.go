package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/canti/internal/catalog"
	"github.com/starford/canti/internal/index"
	"github.com/starford/canti/internal/models"
	"github.com/starford/canti/internal/songs"
	"github.com/starford/canti/internal/storage"
	"github.com/starford/canti/internal/testutil"
)

type testEnv struct {
	srv   *Server
	pages storage.Provider
	db    *index.DB
}

func testServer(t *testing.T) testEnv {
	t.Helper()
	logger := testutil.Logger()
	db := testutil.TestDB(t)

	_, pages := testutil.TestDir(t)
	_, catalogFiles := testutil.TestDir(t)
	_, lyricsFiles := testutil.TestDir(t)

	store := catalog.NewStore(catalogFiles, "canti.json", logger)
	cat := catalog.NewService(store, logger, catalog.WithHistory(db))
	lister := songs.NewLister(pages, ".html", songs.WithTitleCase(true))

	return testEnv{
		srv:   New(cat, lister, pages, songs.NewLyricsWriter(lyricsFiles), db),
		pages: pages,
		db:    db,
	}
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"get_catalog":          srv.getCatalog,
		"update_catalog":       srv.updateCatalog,
		"list_songs":           srv.listSongs,
		"search_songs":         srv.searchSongs,
		"read_song":            srv.readSong,
		"create_lyrics":        srv.createLyrics,
		"get_catalog_contract": srv.getCatalogContract,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestUpdateAndGetCatalog(t *testing.T) {
	env := testServer(t)

	r := callTool(t, env.srv, "update_catalog", map[string]interface{}{
		"document": `{"domenica":" 23 giugno 2025 ","canti":["Inno",{"title":"Gloria","link":"https://example.org"}]}`,
	})
	if r.IsError {
		t.Fatalf("update failed: %s", resultText(r))
	}

	r = callTool(t, env.srv, "get_catalog", nil)
	var got models.Catalog
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.WeekDate != "23 giugno 2025" || len(got.Songs) != 2 || got.Songs[1].Link != "https://example.org" {
		t.Errorf("catalog = %+v", got)
	}

	revs, err := env.db.Revisions(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(revs) != 1 || revs[0].SavedBy != "mcp" {
		t.Errorf("revisions = %+v", revs)
	}
}

func TestUpdateCatalog_MissingField(t *testing.T) {
	env := testServer(t)
	r := callTool(t, env.srv, "update_catalog", map[string]interface{}{
		"document": `{"domenica":"23 giugno 2025"}`,
	})
	if !r.IsError {
		t.Error("expected error for missing canti")
	}
}

func TestListAndReadSong(t *testing.T) {
	env := testServer(t)
	_ = env.pages.Write("ave-maria.html", []byte("<html><head><title>Ave Maria</title></head><body><p>Ave Maria, piena di grazia</p></body></html>"))
	_ = env.pages.Write("senza-titolo.html", []byte("<p>testo</p>"))

	r := callTool(t, env.srv, "list_songs", nil)
	text := resultText(r)
	if !strings.Contains(text, `"ave-maria.html"`) || !strings.Contains(text, `"Senza Titolo"`) {
		t.Errorf("list = %s", text)
	}

	r = callTool(t, env.srv, "read_song", map[string]interface{}{"name": "ave-maria.html"})
	if got := resultText(r); got != "Ave Maria\n\nAve Maria, piena di grazia" {
		t.Errorf("read = %q", got)
	}

	r = callTool(t, env.srv, "read_song", map[string]interface{}{"name": "senza-titolo.html"})
	if got := resultText(r); !strings.HasPrefix(got, "Senza Titolo\n\n") {
		t.Errorf("fallback title missing: %q", got)
	}
}

func TestReadSong_MissingOrForeign(t *testing.T) {
	env := testServer(t)
	if r := callTool(t, env.srv, "read_song", map[string]interface{}{"name": "nope.html"}); !r.IsError {
		t.Error("expected error for missing song")
	}
	if r := callTool(t, env.srv, "read_song", map[string]interface{}{"name": "../secret.txt"}); !r.IsError {
		t.Error("expected error for non-song file")
	}
}

func TestSearchSongs(t *testing.T) {
	env := testServer(t)
	_ = env.pages.Write("magnificat.html", []byte("<title>Magnificat</title><p>anima mia</p>"))
	songsIdx := index.Songs{Files: env.pages, Ext: ".html"}
	if err := index.Sync(env.db, songsIdx, testutil.Logger()); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, env.srv, "search_songs", map[string]interface{}{"query": "Magnificat"})
	if !strings.Contains(resultText(r), "magnificat.html") {
		t.Errorf("search = %s", resultText(r))
	}

	r = callTool(t, env.srv, "search_songs", map[string]interface{}{"query": "inesistente"})
	if strings.TrimSpace(resultText(r)) != "[]" {
		t.Errorf("empty search = %q", resultText(r))
	}
}

func TestCreateLyrics(t *testing.T) {
	env := testServer(t)
	args := map[string]interface{}{"title": "Città di Dio", "lyrics": "Città di Dio\nluce del mondo"}

	r := callTool(t, env.srv, "create_lyrics", args)
	if got := resultText(r); got != "created: citta-di-dio.txt" {
		t.Errorf("create = %q", got)
	}

	r = callTool(t, env.srv, "create_lyrics", args)
	if !r.IsError {
		t.Error("expected error for duplicate sheet")
	}

	r = callTool(t, env.srv, "create_lyrics", map[string]interface{}{"title": "Solo titolo"})
	if !r.IsError {
		t.Error("expected error without lyrics")
	}
}

func TestCatalogContract(t *testing.T) {
	env := testServer(t)
	r := callTool(t, env.srv, "get_catalog_contract", nil)
	if resultText(r) != CatalogFormatContract {
		t.Error("contract text mismatch")
	}

	contents, err := env.srv.readCatalogFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != "canti://catalog-format" {
		t.Errorf("resource contents = %+v", contents[0])
	}
}
