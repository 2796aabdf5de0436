package storage

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// CloudinaryStore uploads images to a Cloudinary folder. References are
// Cloudinary public ids.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
	config UploadConfig
	logger *zap.Logger
}

func NewCloudinaryStore(cloudinaryURL string, logger *zap.Logger) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %v", err)
	}
	cld.Config.URL.Secure = true

	return &CloudinaryStore{cld: cld, folder: "events", config: DefaultImageUploadConfig, logger: logger}, nil
}

func (s *CloudinaryStore) Save(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	up, err := open(fileHeader, s.config)
	if err != nil {
		return "", err
	}
	defer up.file.Close()

	result, err := s.cld.Upload.Upload(ctx, up.file, uploader.UploadParams{
		Folder: s.folder,
		Tags:   []string{"runnershive"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image %s: %w", fileHeader.Filename, err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload image %s: %s", fileHeader.Filename, result.Error.Message)
	}

	return result.PublicID, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, ref string) error {
	if isPlaceholder(ref) {
		return nil
	}

	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: ref})
	return err
}

func (s *CloudinaryStore) URL(ref string) string {
	if isPlaceholder(ref) {
		return ""
	}

	image, err := s.cld.Image(ref)
	if err != nil {
		s.logger.Warn("failed to build image url", zap.String("ref", ref), zap.Error(err))
		return ""
	}

	url, err := image.String()
	if err != nil {
		s.logger.Warn("failed to build image url", zap.String("ref", ref), zap.Error(err))
		return ""
	}

	return url
}
