package notify

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// LocalUploader leaves evidence where it is and reports a file:// URL.
type LocalUploader struct{}

// Upload returns the absolute file URL of localPath.
func (LocalUploader) Upload(ctx context.Context, localPath string) (string, error) {
	abs, err := filepath.Abs(localPath)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("evidence %s: %w", localPath, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
