// Package catalog owns the week's song schedule: decoding and normalising
// updates, persisting the JSON document, and recording its history.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/canti/internal/apperr"
	"github.com/starford/canti/internal/models"
)

var months = [...]string{
	"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno",
	"luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre",
}

// FormatWeekDate renders t as an Italian date label, e.g. "23 giugno 2025".
func FormatWeekDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), months[t.Month()-1], t.Year())
}

// Default returns the document served when nothing has been saved yet.
func Default(now time.Time) *models.Catalog {
	return &models.Catalog{
		WeekDate: FormatWeekDate(now),
		Songs:    []models.Song{},
	}
}

// Decode reads an update from r. Absent and null fields are left at their
// zero value so that Validate reports them.
func Decode(r io.Reader) (*models.Catalog, error) {
	var raw struct {
		WeekDate *string        `json:"domenica"`
		Songs    *[]models.Song `json:"canti"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON body: %v", apperr.ErrValidation, err)
	}
	c := &models.Catalog{}
	if raw.WeekDate != nil {
		c.WeekDate = *raw.WeekDate
	}
	if raw.Songs != nil {
		c.Songs = *raw.Songs
		if c.Songs == nil {
			c.Songs = []models.Song{}
		}
	}
	return c, nil
}

// Normalize trims the date label and every entry, dropping entries whose
// title is empty. A nil song list stays nil.
func Normalize(c *models.Catalog) *models.Catalog {
	out := &models.Catalog{WeekDate: strings.TrimSpace(c.WeekDate)}
	if c.Songs == nil {
		return out
	}
	out.Songs = make([]models.Song, 0, len(c.Songs))
	for _, s := range c.Songs {
		s.Title = strings.TrimSpace(s.Title)
		if s.Title == "" {
			continue
		}
		s.ID = strings.TrimSpace(s.ID)
		s.Link = strings.TrimSpace(s.Link)
		out.Songs = append(out.Songs, s)
	}
	return out
}

// Validate checks that both fields are present.
func Validate(c *models.Catalog) error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.WeekDate, validation.Required),
		validation.Field(&c.Songs, validation.NotNil),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return nil
}

// Encode renders the on-disk form of c.
func Encode(c *models.Catalog) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("catalog: encode: %w", err)
	}
	return append(data, '\n'), nil
}
