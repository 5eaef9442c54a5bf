// Package storage defines the flat-directory file abstraction shared by the
// catalog file, the song pages, and the lyrics sheets.
package storage

import "github.com/starford/canti/internal/models"

// Provider is the interface for file operations under one root directory.
type Provider interface {
	// Root returns the absolute root directory.
	Root() string
	// List returns metadata for every regular file directly under dir whose
	// name ends with ext (all files when ext is empty).
	List(dir, ext string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Create writes a new file at path; an existing file yields an error
	// wrapping os.ErrExist.
	Create(path string, content []byte) error
}
