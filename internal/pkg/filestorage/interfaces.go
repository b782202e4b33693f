package filestorage

import (
	"io"
)

// FileInfo describes a stored file
type FileInfo struct {
	Path     string // Path or URL under which the file is reachable
	Filename string // Original filename
	FileSize int64  // Size in bytes
}

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// Save stores the content of r under subPath and returns where it was stored
	Save(r io.Reader, filename, subPath string) (*FileInfo, error)

	// DeleteFile removes a file from storage
	DeleteFile(filePath string) error

	// GetFullPath returns the full filesystem path for a given file URL
	GetFullPath(fileURL string) string
}
