// Package models defines the domain types for canti.
package models

import "time"

// FileMetadata is a lightweight representation returned by list operations.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Revision is one recorded save of the catalog document.
type Revision struct {
	ID       string    `json:"id"`
	WeekDate string    `json:"domenica"`
	Songs    []Song    `json:"canti"`
	Checksum string    `json:"checksum"`
	SavedBy  string    `json:"saved_by"`
	SavedAt  time.Time `json:"saved_at"`
}

// SongFile is an indexed song page from the songs directory.
type SongFile struct {
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
