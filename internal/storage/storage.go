// Package storage keeps the featured images of events.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"

	"github.com/farellandr/runnershive/internal/errdef"
	"github.com/farellandr/runnershive/internal/models"
)

// ImageStore saves uploads and resolves a stored reference to a public URL.
type ImageStore interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, ref string) error
	URL(ref string) string
}

type UploadConfig struct {
	MaxSizeBytes     int64
	AllowedMimeTypes []string
}

var DefaultImageUploadConfig = UploadConfig{
	MaxSizeBytes: 5 * 1024 * 1024, // 5MB
	AllowedMimeTypes: []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
	},
}

// upload is an opened, checked file ready to be written to a backend.
type upload struct {
	file      multipart.File
	size      int64
	mimeType  string
	extension string
}

// open validates size and sniffed content type and rewinds the file.
func open(fileHeader *multipart.FileHeader, config UploadConfig) (*upload, error) {
	if fileHeader.Size > config.MaxSizeBytes {
		return nil, errdef.NewBadRequest("file size exceeds maximum limit of %d MB", config.MaxSizeBytes/(1024*1024))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		src.Close()
		return nil, err
	}

	if !mimetype.EqualsAny(mtype.String(), config.AllowedMimeTypes...) {
		src.Close()
		return nil, errdef.NewBadRequest("invalid file type. Allowed types: %v", config.AllowedMimeTypes)
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}

	return &upload{file: src, size: fileHeader.Size, mimeType: mtype.String(), extension: mtype.Extension()}, nil
}

func isPlaceholder(ref string) bool {
	return ref == "" || ref == models.PlaceholderImage
}
