package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore writes images below a directory that the router serves under
// a URL prefix.
type LocalStore struct {
	dir    string
	prefix string
	subdir string
	config UploadConfig
}

func NewLocalStore(dir, prefix string) *LocalStore {
	return &LocalStore{
		dir:    dir,
		prefix: strings.TrimRight(prefix, "/"),
		subdir: "event_images",
		config: DefaultImageUploadConfig,
	}
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Save(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	up, err := open(fileHeader, s.config)
	if err != nil {
		return "", err
	}
	defer up.file.Close()

	uploadPath := filepath.Join(s.dir, s.subdir)
	if err := os.MkdirAll(uploadPath, os.ModePerm); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s%s", uuid.New().String(), up.extension)
	dst, err := os.Create(filepath.Join(uploadPath, filename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, up.file); err != nil {
		return "", err
	}

	return path.Join(s.subdir, filename), nil
}

func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	if isPlaceholder(ref) {
		return nil
	}

	full := filepath.Join(s.dir, filepath.FromSlash(path.Clean("/"+ref)))
	err := os.Remove(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *LocalStore) URL(ref string) string {
	if isPlaceholder(ref) {
		return ""
	}
	return s.prefix + "/" + ref
}
