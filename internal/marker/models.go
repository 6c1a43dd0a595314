package marker

import (
	"io"
	"time"

	"github.com/danilwladich/2rnik/internal/imagestore"
)

// Marker is a geolocated point of interest. It stays in the moderation
// queue until confirmed; only confirmed markers are publicly visible.
type Marker struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Address   string             `json:"address"`
	Lat       float64            `json:"lat"`
	Lng       float64            `json:"lng"`
	Images    []imagestore.Image `json:"images"`
	AddedBy   string             `json:"added_by"`
	Confirmed bool               `json:"confirmed"`
	CreatedAt time.Time          `json:"created_at"`
}

// BoundingBox is the viewport filter; comparisons against it are strict.
type BoundingBox struct {
	LatMin float64
	LatMax float64
	LngMin float64
	LngMax float64
}

// Upload is one incoming image file of a submission.
type Upload struct {
	Name        string
	Content     io.Reader
	Size        int64
	ContentType string
}

// Submission is the create-marker input.
type Submission struct {
	Name    string
	Address string
	Lat     float64
	Lng     float64
	Images  []Upload
	AddedBy string
	IsAdmin bool
}

// DeleteResult reports the delete saga outcome: the record is always
// removed, image deletions may partially fail.
type DeleteResult struct {
	FailedImages []string `json:"failed_images,omitempty"`
}
