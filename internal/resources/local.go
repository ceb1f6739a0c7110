package resources

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// LocalFileResource reads a file from the local filesystem.
type LocalFileResource struct {
	path string
}

// NewLocalFileResource creates a resource for a filesystem path.
func NewLocalFileResource(path string) *LocalFileResource {
	return &LocalFileResource{path: path}
}

func (r *LocalFileResource) Identifier() string {
	return r.path
}

func (r *LocalFileResource) Exists(ctx context.Context) bool {
	info, err := os.Stat(r.path)
	return err == nil && !info.IsDir()
}

func (r *LocalFileResource) Fetch(ctx context.Context) *models.FetchResult {
	content, err := os.ReadFile(r.path)
	if err != nil {
		return models.FetchFailure(models.NewTransportError(
			fmt.Sprintf("reading %s", r.path), err))
	}

	meta := models.ResourceMetadata{
		ContentType: mime.TypeByExtension(filepath.Ext(r.path)),
		Size:        int64(len(content)),
	}
	if info, err := os.Stat(r.path); err == nil {
		mod := info.ModTime()
		meta.LastModified = &mod
	}

	return &models.FetchResult{
		Content:  content,
		Metadata: meta,
		Success:  true,
	}
}

// Metadata stats the file without reading it.
func (r *LocalFileResource) Metadata(ctx context.Context) (*models.ResourceMetadata, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		return nil, models.NewTransportError(fmt.Sprintf("stat %s", r.path), err)
	}
	mod := info.ModTime()
	return &models.ResourceMetadata{
		ContentType:  mime.TypeByExtension(filepath.Ext(r.path)),
		Size:         info.Size(),
		LastModified: &mod,
	}, nil
}

func (r *LocalFileResource) Stream(ctx context.Context, chunkSize int) (io.ReadCloser, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, models.NewTransportError(fmt.Sprintf("opening %s", r.path), err)
	}
	return f, nil
}
