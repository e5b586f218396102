package storage

import (
	"context"
	"io"
	"log"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/vberk/incident_triage_api/config"
)

type Cloudinary struct {
	CLD *cloudinary.Cloudinary
}

func NewCloudinary(cfg *config.Config) *Cloudinary {
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		log.Fatalf("Failed to initialize Cloudinary: %v", err)
	}

	return &Cloudinary{CLD: cld}
}

// UploadIncidentImage stores an attached photo and returns the reference URL
// persisted on the incident. The file keeps no caller-provided name.
func (c *Cloudinary) UploadIncidentImage(ctx context.Context, file io.Reader, folder string) (string, error) {
	resp, err := c.CLD.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:   folder,
		PublicID: uuid.NewString(),
	})
	if err != nil {
		return "", err
	}
	return resp.SecureURL, nil
}
