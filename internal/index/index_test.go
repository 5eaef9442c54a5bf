package index

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/canti/internal/apperr"
	"github.com/starford/canti/internal/models"
	"github.com/starford/canti/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "canti-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testSongs(t *testing.T) (string, Songs) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, Songs{
		Files: store,
		Ext:   ".html",
		Name:  func(name string) string { return strings.TrimSuffix(name, ".html") },
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM songs`).Scan(&count); err != nil {
		t.Fatalf("songs table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM revisions`).Scan(&count); err != nil {
		t.Fatalf("revisions table missing: %v", err)
	}
}

func TestUpsertAndGetSong(t *testing.T) {
	db := testDB(t)
	row := SongRow{Name: "inno.html", Title: "Inno", Checksum: "abc123", UpdatedAt: time.Now()}
	if err := db.UpsertSong(row, "Lodate il Signore"); err != nil {
		t.Fatalf("UpsertSong: %v", err)
	}
	got, err := db.GetSong("inno.html")
	if err != nil {
		t.Fatalf("GetSong: %v", err)
	}
	if got.Title != "Inno" || got.Checksum != "abc123" {
		t.Errorf("got %+v", got)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertSong(SongRow{Name: "up.html", Title: "Old", Checksum: "1"}, "old body")
	_ = db.UpsertSong(SongRow{Name: "up.html", Title: "New", Checksum: "2"}, "new body")

	sums, err := db.AllChecksums()
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 1 || sums["up.html"] != "2" {
		t.Errorf("checksums = %v", sums)
	}
}

func TestDeleteSong(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertSong(SongRow{Name: "del.html", Checksum: "x"}, "body")

	if err := db.DeleteSong("del.html"); err != nil {
		t.Fatalf("DeleteSong: %v", err)
	}
	if _, err := db.GetSong("del.html"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertSong(SongRow{Name: "s.html", Title: "Cerca", Checksum: "1"}, "parolaunica appare qui")

	results, err := db.Search("parolaunica", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "s.html" {
		t.Errorf("search results = %+v, want 1 hit for s.html", results)
	}
}

func TestSearch_EveryWordMustMatch(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertSong(SongRow{Name: "alleluia.html", Title: "Alleluia", Checksum: "1"}, "Alleluia il Signore è risorto")
	_ = db.UpsertSong(SongRow{Name: "natale.html", Title: "Tu scendi dalle stelle", Checksum: "2"}, "Alleluia è nato il Natale")

	results, err := db.Search("alleluia risorto", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "alleluia.html" {
		t.Errorf("results = %+v, want only alleluia.html", results)
	}
}

func TestSearch_PunctuationIsNotSyntax(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertSong(SongRow{Name: "a.html", Title: "A", Checksum: "1"}, "testo")

	for _, q := range []string{`"`, `alleluia-"risorto`, `a OR`, `(`, `100%_`} {
		if _, err := db.Search(q, 10); err != nil {
			t.Errorf("Search(%q): %v", q, err)
		}
	}
	if res, err := db.Search("   ", 10); err != nil || len(res) != 0 {
		t.Errorf("blank query = %+v, %v", res, err)
	}
}

func TestRevisions_NewestFirst(t *testing.T) {
	db := testDB(t)
	base := time.Date(2025, 6, 20, 10, 0, 0, 0, time.UTC)
	for i, week := range []string{"15 giugno 2025", "22 giugno 2025", "29 giugno 2025"} {
		rev := models.Revision{
			ID:       week,
			WeekDate: week,
			Songs:    []models.Song{{Title: "Inno"}, {ID: "7", Title: "Gloria", Link: "https://example.org/g"}},
			Checksum: "c",
			SavedBy:  "admin",
			SavedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.RecordRevision(rev); err != nil {
			t.Fatalf("RecordRevision: %v", err)
		}
	}

	revs, err := db.Revisions(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(revs) != 2 {
		t.Fatalf("len = %d, want 2", len(revs))
	}
	if revs[0].WeekDate != "29 giugno 2025" || revs[1].WeekDate != "22 giugno 2025" {
		t.Errorf("order = %q, %q", revs[0].WeekDate, revs[1].WeekDate)
	}
	if len(revs[0].Songs) != 2 || revs[0].Songs[1].Link != "https://example.org/g" {
		t.Errorf("songs = %+v", revs[0].Songs)
	}
	if !revs[0].SavedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("saved_at = %v", revs[0].SavedAt)
	}
}

func TestRevisions_DuplicateIDFails(t *testing.T) {
	db := testDB(t)
	rev := models.Revision{ID: "same", WeekDate: "x", SavedAt: time.Now()}
	if err := db.RecordRevision(rev); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordRevision(rev); err == nil {
		t.Error("expected error for duplicate revision id")
	}
}

func TestSync_IndexesAndRemovesStale(t *testing.T) {
	db := testDB(t)
	dir, songs := testSongs(t)

	_ = os.WriteFile(filepath.Join(dir, "inno.html"), []byte("<title>Inno alla gioia</title><p>testo</p>"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "senza-titolo.html"), []byte("<p>solo testo</p>"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "note.txt"), []byte("ignored"), 0o644)

	if err := Sync(db, songs, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	sums, _ := db.AllChecksums()
	if len(sums) != 2 {
		t.Fatalf("indexed %d songs, want 2: %v", len(sums), sums)
	}
	got, _ := db.GetSong("senza-titolo.html")
	if got == nil || got.Title != "senza-titolo" {
		t.Errorf("fallback title = %+v", got)
	}

	_ = os.Remove(filepath.Join(dir, "inno.html"))
	if err := Sync(db, songs, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if _, err := db.GetSong("inno.html"); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("stale song should be removed")
	}
}

func TestSync_UnchangedChecksumSkipped(t *testing.T) {
	db := testDB(t)
	dir, songs := testSongs(t)
	_ = os.WriteFile(filepath.Join(dir, "a.html"), []byte("<title>A</title>"), 0o644)
	_ = Sync(db, songs, quietLogger())

	// A manual title change survives a sync when the file is unchanged.
	_, _ = db.conn.Exec(`UPDATE songs SET title = 'manual' WHERE name = 'a.html'`)
	_ = Sync(db, songs, quietLogger())

	got, _ := db.GetSong("a.html")
	if got.Title != "manual" {
		t.Errorf("title = %q, unchanged file should not be reindexed", got.Title)
	}
}
