package services

import (
	"context"
	"errors"
	"mime"
	"path/filepath"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/thumbnails"
	"github.com/gabriel-vasile/mimetype"
)

// Content is the payload of a file or one of its thumbnails.
type Content struct {
	Name     string
	MimeType string
	Data     []byte
}

// ResolveContent returns the bytes of fileID, or of its thumbnail of the
// given width when size is set. Public files are readable without a token;
// private ones only with a token of the owner (common.ErrorForbidden
// otherwise). Folders yield common.ErrorNoContent. Unknown widths and
// thumbnails that were not generated yet yield common.ErrorNotFound.
func (s *FileService) ResolveContent(ctx context.Context, fileID, token, size string) (*Content, error) {
	file, err := s.find(ctx, s.repomanager.Files(s.db), fileID)
	if err != nil {
		return nil, err
	}

	requesterID := ""
	if token != "" {
		requesterID, err = s.sessions.ResolveSession(ctx, token)
		if err != nil && !errors.Is(err, common.ErrorUnauthorized) {
			return nil, err
		}
	}

	if err := authorize(file, requesterID, true); err != nil {
		return nil, err
	}
	if file.IsFolder() {
		return nil, common.ErrorNoContent
	}

	key := file.StorageKey
	if size != "" {
		width, ok := thumbnails.ParseWidth(size)
		if !ok {
			return nil, common.ErrorNotFound
		}
		key = thumbnails.VariantKey(key, width)
	}

	data, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	return &Content{Name: file.Name, MimeType: mimeTypeFor(file.Name, data), Data: data}, nil
}

// mimeTypeFor prefers the extension of name and sniffs data otherwise.
func mimeTypeFor(name string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return mimetype.Detect(data).String()
}
