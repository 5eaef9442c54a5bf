package index

import (
	"os"
	"testing"
	"time"
)

func TestLoadMigrations_Ordered(t *testing.T) {
	ms, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	if len(ms) == 0 {
		t.Fatal("no migrations embedded")
	}
	for i := 1; i < len(ms); i++ {
		if ms[i].version <= ms[i-1].version {
			t.Errorf("migrations out of order: %s before %s", ms[i-1].name, ms[i].name)
		}
	}
}

func TestSchemaVersion_LatestAfterOpen(t *testing.T) {
	db := testDB(t)
	ms, err := loadMigrations()
	if err != nil {
		t.Fatal(err)
	}
	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if want := ms[len(ms)-1].version; v != want {
		t.Errorf("version = %d, want %d", v, want)
	}
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	f, err := os.CreateTemp("", "canti-reopen-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.UpsertSong(SongRow{Name: "ave-maria.html", Title: "Ave Maria", Checksum: "c1", UpdatedAt: time.Now()}, "Ave Maria piena di grazia"); err != nil {
		t.Fatalf("UpsertSong: %v", err)
	}
	db.Close()

	db, err = Open(f.Name())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	got, err := db.GetSong("ave-maria.html")
	if err != nil {
		t.Fatalf("GetSong after reopen: %v", err)
	}
	if got.Title != "Ave Maria" {
		t.Errorf("song after reopen = %+v", got)
	}
}
