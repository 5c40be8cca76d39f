package media_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citizen-registry/internal/config"
	"citizen-registry/internal/domain"
	"citizen-registry/internal/service/media"
)

func upload(mime string, size int64) domain.Upload {
	return domain.Upload{FileName: "scan.PNG", MimeType: mime, Size: size, Reader: strings.NewReader("x")}
}

func TestCheckUpload(t *testing.T) {
	tests := []struct {
		name    string
		upload  domain.Upload
		allowed []string
		wantErr string
	}{
		{name: "Image Accepted", upload: upload("image/png", 1024), allowed: media.ImageTypes},
		{name: "Content Type Parameters Ignored", upload: upload("Image/JPEG; charset=binary", 1024), allowed: media.ImageTypes},
		{name: "PDF Evidence Accepted", upload: upload("application/pdf", 1024), allowed: media.EvidenceTypes},
		{name: "PDF Photo Rejected", upload: upload("application/pdf", 1024), allowed: media.ImageTypes, wantErr: "unsupported file type"},
		{name: "Too Large", upload: upload("image/png", domain.MaxUploadSize+1), allowed: media.ImageTypes, wantErr: "10MB"},
		{name: "Empty", upload: domain.Upload{MimeType: "image/png"}, allowed: media.ImageTypes, wantErr: "is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := media.CheckUpload(tt.upload, tt.allowed)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.True(t, domain.IsValidation(err))
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields["file"], tt.wantErr)
		})
	}
}

func TestUploadWithoutStorage(t *testing.T) {
	svc := media.NewService(nil, &config.Config{})

	_, err := svc.Upload(context.Background(), "photos", upload("image/png", 10), media.ImageTypes)
	assert.True(t, domain.IsRemoteUnavailable(err))

	_, err = svc.Upload(context.Background(), "photos", upload("text/plain", 10), media.ImageTypes)
	assert.True(t, domain.IsValidation(err))

	assert.NoError(t, svc.Remove(context.Background(), "photos/2026/10/x.png"))
}
