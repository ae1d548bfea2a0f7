package storage

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// Folder is a top-level key prefix.
type Folder string

const (
	FolderUploads     Folder = "uploads"
	FolderSubmissions Folder = "submissions"
)

// ValidKey reports whether key lives directly under one of the known
// folders and names a zip archive.
func ValidKey(key string) bool {
	return ValidKeyIn(key, FolderUploads) || ValidKeyIn(key, FolderSubmissions)
}

// ValidKeyIn reports whether key is a zip archive under folder.
// The extension check is case-insensitive, the prefix check is not.
func ValidKeyIn(key string, folder Folder) bool {
	if !strings.HasPrefix(key, string(folder)+"/") {
		return false
	}
	return strings.HasSuffix(strings.ToLower(key), ".zip")
}

// NewObjectKey returns folder/<uuid>.<ext>, keeping the extension of fileName.
func NewObjectKey(folder Folder, fileName string) string {
	ext := strings.TrimPrefix(path.Ext(fileName), ".")
	if ext == "" {
		ext = "zip"
	}
	return string(folder) + "/" + uuid.NewString() + "." + ext
}
