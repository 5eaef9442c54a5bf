package songs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/starford/canti/internal/apperr"
	"github.com/starford/canti/internal/storage"
)

const lyricsExt = ".txt"

// LyricsSheet is the content of a new plain-text song sheet.
type LyricsSheet struct {
	Title            string
	Lyrics           string
	YouTubeLink      string
	MinicoraleNumber string
	AssembleaNumber  string
}

// Validate checks the required fields and the optional link.
func (s LyricsSheet) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Title, validation.Required, validation.By(hasSlug)),
		validation.Field(&s.Lyrics, validation.Required),
		validation.Field(&s.YouTubeLink, is.URL),
		validation.Field(&s.MinicoraleNumber, is.Digit),
		validation.Field(&s.AssembleaNumber, is.Digit),
	)
}

func hasSlug(v any) error {
	if s, _ := v.(string); Slug(s) == "" {
		return validation.NewError("validation_slug", "must contain letters or digits")
	}
	return nil
}

// Render produces the file content.
func (s LyricsSheet) Render() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Titolo: %s\n", s.Title)
	if s.MinicoraleNumber != "" {
		fmt.Fprintf(&b, "Numero minicorale: %s\n", s.MinicoraleNumber)
	}
	if s.AssembleaNumber != "" {
		fmt.Fprintf(&b, "Numero assemblea: %s\n", s.AssembleaNumber)
	}
	if s.YouTubeLink != "" {
		fmt.Fprintf(&b, "YouTube: %s\n", s.YouTubeLink)
	}
	b.WriteString("\n")
	b.WriteString(strings.ReplaceAll(s.Lyrics, "\r\n", "\n"))
	if !strings.HasSuffix(s.Lyrics, "\n") {
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// Slug lowercases title, strips diacritics, and joins alphanumeric runs
// with "-": "Alleluia, è risorto!" → "alleluia-e-risorto".
func Slug(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, title)
	if err != nil {
		plain = title
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(plain) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

// LyricsWriter stores lyrics sheets as <slug>.txt files.
type LyricsWriter struct {
	files storage.Provider
}

// NewLyricsWriter creates a writer rooted at files.
func NewLyricsWriter(files storage.Provider) *LyricsWriter {
	return &LyricsWriter{files: files}
}

// Create validates sheet and writes it, returning the file name.
// An existing sheet with the same name yields apperr.ErrAlreadyExists.
func (w *LyricsWriter) Create(_ context.Context, sheet LyricsSheet) (string, error) {
	sheet.Title = strings.TrimSpace(sheet.Title)
	sheet.YouTubeLink = strings.TrimSpace(sheet.YouTubeLink)
	sheet.MinicoraleNumber = strings.TrimSpace(sheet.MinicoraleNumber)
	sheet.AssembleaNumber = strings.TrimSpace(sheet.AssembleaNumber)
	if strings.TrimSpace(sheet.Lyrics) == "" {
		sheet.Lyrics = ""
	}
	if err := sheet.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	name := Slug(sheet.Title) + lyricsExt
	if err := w.files.Create(name, sheet.Render()); err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("lyrics %s: %w", name, apperr.ErrAlreadyExists)
		}
		return "", fmt.Errorf("lyrics %s: %w", name, err)
	}
	return name, nil
}
