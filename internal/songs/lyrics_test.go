package songs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/starford/canti/internal/apperr"
)

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Alleluia, è risorto!": "alleluia-e-risorto",
		"  Pane di Vita  ":     "pane-di-vita",
		"Canto n. 12":          "canto-n-12",
		"!!!":                  "",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLyricsWriter_Create(t *testing.T) {
	fs := songsDir(t, nil)
	w := NewLyricsWriter(fs)

	name, err := w.Create(context.Background(), LyricsSheet{
		Title:            "Santo è il Signore",
		Lyrics:           "Santo, santo, santo\r\nil Signore",
		YouTubeLink:      "https://youtu.be/abc",
		MinicoraleNumber: "12",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if name != "santo-e-il-signore.txt" {
		t.Errorf("name = %q", name)
	}
	data, err := fs.Read(name)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := "Titolo: Santo è il Signore\nNumero minicorale: 12\nYouTube: https://youtu.be/abc\n\nSanto, santo, santo\nil Signore\n"
	if string(data) != want {
		t.Errorf("content = %q\nwant      %q", data, want)
	}

	_, err = w.Create(context.Background(), LyricsSheet{Title: "Santo è il signore", Lyrics: "x"})
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestLyricsWriter_ConcurrentSameTitle(t *testing.T) {
	fs := songsDir(t, nil)
	w := NewLyricsWriter(fs)

	const n = 6
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			_, err := w.Create(context.Background(), LyricsSheet{
				Title:  "Pane di Vita",
				Lyrics: fmt.Sprintf("strofa %d", i),
			})
			errs <- err
		}(i)
	}
	created := 0
	for i := 0; i < n; i++ {
		err := <-errs
		switch {
		case err == nil:
			created++
		case !errors.Is(err, apperr.ErrAlreadyExists):
			t.Errorf("Create: %v", err)
		}
	}
	if created != 1 {
		t.Errorf("%d sheets created, want 1", created)
	}
}

func TestLyricsWriter_Validation(t *testing.T) {
	w := NewLyricsWriter(songsDir(t, nil))
	cases := []LyricsSheet{
		{Title: "", Lyrics: "x"},
		{Title: "Titolo", Lyrics: "   "},
		{Title: "???", Lyrics: "x"},
		{Title: "Titolo", Lyrics: "x", YouTubeLink: "not a url"},
		{Title: "Titolo", Lyrics: "x", AssembleaNumber: "dodici"},
	}
	for _, sheet := range cases {
		_, err := w.Create(context.Background(), sheet)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("Create(%+v) = %v, want ErrValidation", sheet, err)
		}
	}
}

func TestLyricsSheet_RenderKeepsTrailingNewline(t *testing.T) {
	out := string(LyricsSheet{Title: "A", Lyrics: "riga\n"}.Render())
	if strings.HasSuffix(out, "\n\n") {
		t.Errorf("unexpected double newline: %q", out)
	}
}
