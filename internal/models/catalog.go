package models

import (
	"bytes"
	"encoding/json"
)

// Catalog is the week's song schedule: a date label and an ordered song list.
type Catalog struct {
	WeekDate string `json:"domenica"`
	Songs    []Song `json:"canti"`
}

// Song is one entry of the schedule. On the wire it is either a bare title
// string or an object carrying an id and/or a link.
type Song struct {
	ID    string
	Title string
	Link  string
}

type songObject struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Link  string `json:"link,omitempty"`
}

// MarshalJSON encodes title-only entries as strings, everything else as objects.
func (s Song) MarshalJSON() ([]byte, error) {
	if s.ID == "" && s.Link == "" {
		return json.Marshal(s.Title)
	}
	return json.Marshal(songObject(s))
}

// UnmarshalJSON accepts both the string and the object form.
func (s *Song) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var title string
		if err := json.Unmarshal(trimmed, &title); err != nil {
			return err
		}
		*s = Song{Title: title}
		return nil
	}
	var obj songObject
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}
	*s = Song(obj)
	return nil
}
