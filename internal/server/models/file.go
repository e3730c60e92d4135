// Package models defines server-side data models persisted in the database.
package models

import "time"

// FileType is the kind of a file record.
type FileType string

const (
	FileTypeFolder FileType = "folder"
	FileTypeFile   FileType = "file"
	FileTypeImage  FileType = "image"
)

// File is the metadata of a folder, file or image. Content lives in blob
// storage under StorageKey; folders have no StorageKey.
type File struct {
	ID     string   `json:"id"`
	UserID string   `json:"userId"`
	Name   string   `json:"name"`
	Type   FileType `json:"type"`
	// ParentID is "0" for top-level records, otherwise the id of a folder.
	ParentID string `json:"parentId"`
	IsPublic bool   `json:"isPublic"`

	// StorageKey is the blob key of the original upload. Thumbnails are
	// stored next to it as StorageKey_<width>.
	StorageKey string    `json:"-"`
	CreatedAt  time.Time `json:"-"`
}

// IsFolder reports whether the record is a folder.
func (f *File) IsFolder() bool {
	return f.Type == FileTypeFolder
}

// ThumbnailTask asks the thumbnail worker to derive resized variants of an
// image record.
type ThumbnailTask struct {
	FileID string `json:"fileId"`
	UserID string `json:"userId"`
}
