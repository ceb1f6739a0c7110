package resources

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// ZipEntryResource reads a single named entry out of a zip archive on disk.
// Supporting documents arrive from the catalogue bundled this way.
type ZipEntryResource struct {
	archivePath string
	entryName   string
}

// NewZipEntryResource creates a resource for one entry in an archive.
func NewZipEntryResource(archivePath, entryName string) *ZipEntryResource {
	return &ZipEntryResource{archivePath: archivePath, entryName: entryName}
}

func (r *ZipEntryResource) Identifier() string {
	return fmt.Sprintf("zip://%s#%s", r.archivePath, r.entryName)
}

// Exists checks the archive's central directory without extracting.
func (r *ZipEntryResource) Exists(ctx context.Context) bool {
	reader, err := zip.OpenReader(r.archivePath)
	if err != nil {
		return false
	}
	defer reader.Close()

	for _, f := range reader.File {
		if f.Name == r.entryName {
			return true
		}
	}
	return false
}

func (r *ZipEntryResource) Fetch(ctx context.Context) *models.FetchResult {
	reader, err := zip.OpenReader(r.archivePath)
	if err != nil {
		return models.FetchFailure(models.NewTransportError(
			fmt.Sprintf("opening archive %s", r.archivePath), err))
	}
	defer reader.Close()

	for _, f := range reader.File {
		if f.Name != r.entryName {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return models.FetchFailure(models.NewTransportError(
				fmt.Sprintf("opening entry %s", r.entryName), err))
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return models.FetchFailure(models.NewTransportError(
				fmt.Sprintf("reading entry %s", r.entryName), err))
		}

		mod := f.Modified
		return &models.FetchResult{
			Content: content,
			Metadata: models.ResourceMetadata{
				ContentType:  mime.TypeByExtension(filepath.Ext(r.entryName)),
				Size:         int64(len(content)),
				LastModified: &mod,
			},
			Success: true,
		}
	}

	return models.FetchFailure(models.NewTransportError(
		fmt.Sprintf("entry %s not found in %s", r.entryName, r.archivePath), nil))
}
