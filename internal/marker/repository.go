package marker

import "context"

// Repository persists markers, favorites and moderation reports. Two
// interchangeable implementations exist: postgres and the headless CMS.
type Repository interface {
	Insert(ctx context.Context, m Marker) (Marker, error)
	GetByID(ctx context.Context, id string) (Marker, error)
	ListVisible(ctx context.Context, box BoundingBox, page, pageSize int) ([]Marker, error)
	ListPending(ctx context.Context, page, pageSize int) ([]Marker, error)
	SetConfirmed(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error

	AddFavorite(ctx context.Context, markerID, userID string) error
	RemoveFavorite(ctx context.Context, markerID, userID string) error
	InsertReport(ctx context.Context, markerID, reporterID, reason string) error
}
