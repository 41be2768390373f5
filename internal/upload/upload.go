// Package upload sends finished output files to an object store through a
// pre-signed PUT URL.
package upload

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/vk/bremsim/internal/ctxlog"
)

// ErrStatus reports a non-2xx answer from the object store.
var ErrStatus = errors.New("upload: unexpected status")

// Result describes a completed upload.
type Result struct {
	Status      string
	Size        int64
	ContentType string
}

// Uploader reuses one HTTP client, and so its TCP connections, for every
// upload.
type Uploader struct {
	client *http.Client
}

// New returns an Uploader whose requests time out after timeout. Zero means
// no timeout beyond the caller's context.
func New(timeout time.Duration) *Uploader {
	return &Uploader{client: &http.Client{Timeout: timeout}}
}

// NewWithClient returns an Uploader using client.
func NewWithClient(client *http.Client) *Uploader {
	return &Uploader{client: client}
}

// Put uploads the file at path to url.
func (u *Uploader) Put(ctx context.Context, path, url string) (Result, error) {
	logger := ctxlog.FromContext(ctx).With("action", "upload")

	file, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open source file '%s': %w", path, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("failed to get file stats for '%s': %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, file)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create upload request: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size()

	logger.Info("Uploading file.", "source", path, "size", stat.Size(), "contentType", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to execute upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	logger.Info("Successfully uploaded file.", "status", resp.Status)
	return Result{Status: resp.Status, Size: stat.Size(), ContentType: contentType}, nil
}
