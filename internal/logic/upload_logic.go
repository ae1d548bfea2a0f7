package logic

import (
	"context"
	"strings"

	"github.com/GANESH4511/Dataverse/internal/logger"
	"github.com/GANESH4511/Dataverse/internal/storage"
)

// UploadLogic hands out presigned upload URLs.
type UploadLogic struct {
	presigner storage.Presigner
}

// NewUploadLogic creates the upload logic. A nil presigner makes every
// request fail with an external error.
func NewUploadLogic(presigner storage.Presigner) *UploadLogic {
	return &UploadLogic{presigner: presigner}
}

// RequestUpload returns a URL for uploading a zip archive into folder.
func (u *UploadLogic) RequestUpload(ctx context.Context, folder storage.Folder, fileName, contentType string) (*storage.PresignedUpload, error) {
	fileName = strings.TrimSpace(fileName)
	contentType = strings.TrimSpace(contentType)
	if fileName == "" || contentType == "" {
		return nil, validation("fileName and contentType are required")
	}
	if !strings.Contains(strings.ToLower(contentType), "zip") {
		return nil, validation("Only ZIP files are allowed")
	}
	if u.presigner == nil {
		return nil, external("Failed to generate pre-signed URL", nil)
	}

	upload, err := u.presigner.PresignUpload(ctx, folder, fileName, contentType)
	if err != nil {
		logger.Error("Pre-signed URL generation failed: %v", err)
		return nil, external("Failed to generate pre-signed URL", err)
	}
	return upload, nil
}
