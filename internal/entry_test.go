package internal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/canti/internal/apperr"
)

type recordingPublisher struct {
	content []byte
}

func (p *recordingPublisher) Publish(_ context.Context, content []byte) error {
	p.content = content
	return nil
}

func tempConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Catalog.Path = filepath.Join(dir, "data", "canti.json")
	cfg.SQLite.Path = filepath.Join(dir, "data", "canti.db")
	cfg.Songs.Dir = filepath.Join(dir, "canti")
	cfg.Lyrics.Dir = filepath.Join(dir, "testi")
	return cfg
}

func TestNewApplication_RequiresConfig(t *testing.T) {
	if _, err := newApplication(nil, os.Stderr); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestBuild_CreatesDirectories(t *testing.T) {
	cfg := tempConfig(t)
	var logs bytes.Buffer
	c, err := build(cfg, newLogger(cfg, &logs))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer c.db.Close()

	if !strings.Contains(logs.String(), `"schema_version":2`) {
		t.Errorf("startup log missing schema version: %s", logs.String())
	}

	for _, dir := range []string{filepath.Dir(cfg.Catalog.Path), cfg.Lyrics.Dir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
	if c.syncSongs() {
		t.Error("syncSongs should report false without a songs dir")
	}
}

func TestPublish_WithoutGitHubConfig(t *testing.T) {
	cfg := tempConfig(t)
	err := Publish(context.Background(), WithConfig(cfg), WithLogOutput(&bytes.Buffer{}))
	if err == nil || !strings.Contains(err.Error(), "github") {
		t.Fatalf("expected github config error, got %v", err)
	}
}

func TestPublish_SendsFileOnDisk(t *testing.T) {
	cfg := tempConfig(t)
	doc := []byte(`{"domenica":"23 giugno 2025","canti":["Alleluia"]}`)
	if err := os.MkdirAll(filepath.Dir(cfg.Catalog.Path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.Catalog.Path, doc, 0o644); err != nil {
		t.Fatal(err)
	}

	pub := &recordingPublisher{}
	var logs bytes.Buffer
	err := Publish(context.Background(), WithConfig(cfg), WithPublisher(pub), WithLogOutput(&logs))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !bytes.Equal(pub.content, doc) {
		t.Errorf("published %q, want %q", pub.content, doc)
	}
	if !strings.Contains(logs.String(), "catalog published") {
		t.Errorf("missing log line: %s", logs.String())
	}
}

func TestPublish_MissingCatalogFile(t *testing.T) {
	cfg := tempConfig(t)
	err := Publish(context.Background(), WithConfig(cfg),
		WithPublisher(&recordingPublisher{}), WithLogOutput(&bytes.Buffer{}))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
