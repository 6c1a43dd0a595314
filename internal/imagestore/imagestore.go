package imagestore

import (
	"context"
	"errors"
	"io"

	"github.com/danilwladich/2rnik/internal/apperr"
)

// Image is a stored object reference: the id deletes it, the URL serves it.
type Image struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Store accepts binary uploads and deletes objects by id.
type Store interface {
	Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (Image, error)
	Delete(ctx context.Context, id string) error
}

var errNotConfigured = errors.New("image storage not configured")

// Disabled stands in when no object storage is configured. Uploads are
// rejected with an upload error; deletes are no-ops.
type Disabled struct{}

func (Disabled) Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (Image, error) {
	return Image{}, apperr.Upload(errNotConfigured)
}

func (Disabled) Delete(ctx context.Context, id string) error {
	return nil
}
