package media

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"citizen-registry/internal/config"
	"citizen-registry/internal/domain"
)

var (
	ImageTypes    = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
	EvidenceTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif", "application/pdf"}
)

type Service interface {
	// Upload stores the file under prefix and returns its public URL. The
	// content type must be one of allowed.
	Upload(ctx context.Context, prefix string, upload domain.Upload, allowed []string) (*domain.StoredObject, error)
	Remove(ctx context.Context, objectPath string) error
}

type service struct {
	minioClient *minio.Client
	cfg         *config.Config
}

func NewService(minioClient *minio.Client, cfg *config.Config) Service {
	return &service{
		minioClient: minioClient,
		cfg:         cfg,
	}
}

func (s *service) Upload(ctx context.Context, prefix string, upload domain.Upload, allowed []string) (*domain.StoredObject, error) {
	if err := CheckUpload(upload, allowed); err != nil {
		return nil, err
	}
	if s.minioClient == nil {
		return nil, domain.NewRemoteUnavailable("upload", fmt.Errorf("object storage is not configured"))
	}

	objectPath := fmt.Sprintf("%s/%s/%s%s", prefix, time.Now().Format("2006/01"), uuid.New().String(), strings.ToLower(path.Ext(upload.FileName)))

	_, err := s.minioClient.PutObject(ctx, s.cfg.MinIOBucket, objectPath, upload.Reader, upload.Size, minio.PutObjectOptions{
		ContentType: upload.MimeType,
	})
	if err != nil {
		return nil, domain.NewRemoteUnavailable("upload", fmt.Errorf("failed to upload to MinIO: %w", err))
	}

	return &domain.StoredObject{Path: objectPath, URL: s.publicURL(objectPath)}, nil
}

func (s *service) Remove(ctx context.Context, objectPath string) error {
	if s.minioClient == nil {
		return nil
	}
	return s.minioClient.RemoveObject(ctx, s.cfg.MinIOBucket, objectPath, minio.RemoveObjectOptions{})
}

func (s *service) publicURL(objectPath string) string {
	scheme := "http"
	if s.cfg.MinIOPublicUseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.MinIOPublicEndpoint, s.cfg.MinIOBucket, url.PathEscape(objectPath))
}

// CheckUpload enforces the size limit and the allowed content types.
func CheckUpload(upload domain.Upload, allowed []string) error {
	if upload.Reader == nil || upload.Size <= 0 {
		return domain.NewFieldError("file", "is required")
	}
	if upload.Size > domain.MaxUploadSize {
		return domain.NewFieldError("file", "must be 10MB or smaller")
	}

	mime := strings.ToLower(strings.TrimSpace(strings.SplitN(upload.MimeType, ";", 2)[0]))
	for _, a := range allowed {
		if mime == a {
			return nil
		}
	}
	return domain.NewFieldError("file", "unsupported file type "+upload.MimeType)
}
