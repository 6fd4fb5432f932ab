package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryUploader stores evidence images in a Cloudinary account.
type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryUploader creates an uploader for the given account.
func NewCloudinaryUploader(cloudName, apiKey, apiSecret string) (*CloudinaryUploader, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, ErrNotConfigured
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &CloudinaryUploader{cld: cld}, nil
}

// setUploadPrefix points the uploader at another API root.
func (c *CloudinaryUploader) setUploadPrefix(prefix string) {
	c.cld.Config.API.UploadPrefix = prefix
	c.cld.Upload.Config.API.UploadPrefix = prefix
}

// Upload sends localPath and returns the secure URL of the stored image.
func (c *CloudinaryUploader) Upload(ctx context.Context, localPath string) (string, error) {
	resp, err := c.cld.Upload.Upload(ctx, localPath, uploader.UploadParams{ResourceType: "image"})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return "", errors.New("cloudinary: response has no secure_url")
	}
	return resp.SecureURL, nil
}
