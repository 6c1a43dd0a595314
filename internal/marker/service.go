package marker

import (
	"context"
	"fmt"
	"log"

	"github.com/danilwladich/2rnik/internal/apperr"
	"github.com/danilwladich/2rnik/internal/imagestore"

	"github.com/google/uuid"
)

const maxImages = 6

type Service struct {
	repo   Repository
	images imagestore.Store
}

func NewService(repo Repository, images imagestore.Store) *Service {
	return &Service{repo: repo, images: images}
}

// Create validates the submission, uploads its images and persists the
// marker. Submissions from admins skip the moderation queue.
func (s *Service) Create(ctx context.Context, sub Submission) (Marker, error) {
	if err := validateSubmission(sub); err != nil {
		return Marker{}, err
	}

	var uploaded []imagestore.Image
	for i, up := range sub.Images {
		name := fmt.Sprintf("marker_%d_%s", i, uuid.NewString())
		img, err := s.images.Upload(ctx, name, up.Content, up.Size, up.ContentType)
		if err != nil {
			s.cleanupImages(ctx, uploaded)
			return Marker{}, apperr.Upload(err)
		}
		uploaded = append(uploaded, img)
	}

	created, err := s.repo.Insert(ctx, Marker{
		Name:      sub.Name,
		Address:   sub.Address,
		Lat:       sub.Lat,
		Lng:       sub.Lng,
		Images:    uploaded,
		AddedBy:   sub.AddedBy,
		Confirmed: sub.IsAdmin,
	})
	if err != nil {
		s.cleanupImages(ctx, uploaded)
		return Marker{}, err
	}
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Marker, error) {
	return s.repo.GetByID(ctx, id)
}

// ListVisible returns confirmed markers strictly inside the box. Unconfirmed
// markers are excluded unconditionally.
func (s *Service) ListVisible(ctx context.Context, box BoundingBox, page, pageSize int) ([]Marker, error) {
	if box.LatMin >= box.LatMax || box.LngMin >= box.LngMax {
		return nil, apperr.Validation("invalid bounding box")
	}
	return s.repo.ListVisible(ctx, box, page, pageSize)
}

func (s *Service) ListPending(ctx context.Context, page, pageSize int) ([]Marker, error) {
	return s.repo.ListPending(ctx, page, pageSize)
}

// Confirm is a blind one-way transition; confirming twice is a no-op.
func (s *Service) Confirm(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.SetConfirmed(ctx, id)
}

// Delete removes the marker's images first, collecting per-image failures,
// then removes the record regardless. The result reports images that could
// not be deleted instead of claiming full success.
func (s *Service) Delete(ctx context.Context, id string) (DeleteResult, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}

	var result DeleteResult
	for _, img := range m.Images {
		if err := s.images.Delete(ctx, img.ID); err != nil {
			log.Printf("delete marker image %s: %v", img.ID, err)
			result.FailedImages = append(result.FailedImages, img.ID)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Service) Favorite(ctx context.Context, markerID, userID string) error {
	if _, err := s.repo.GetByID(ctx, markerID); err != nil {
		return err
	}
	return s.repo.AddFavorite(ctx, markerID, userID)
}

func (s *Service) Unfavorite(ctx context.Context, markerID, userID string) error {
	return s.repo.RemoveFavorite(ctx, markerID, userID)
}

func (s *Service) Report(ctx context.Context, markerID, reporterID, reason string) error {
	if _, err := s.repo.GetByID(ctx, markerID); err != nil {
		return err
	}
	return s.repo.InsertReport(ctx, markerID, reporterID, reason)
}

func (s *Service) cleanupImages(ctx context.Context, images []imagestore.Image) {
	for _, img := range images {
		if err := s.images.Delete(ctx, img.ID); err != nil {
			log.Printf("cleanup uploaded image %s: %v", img.ID, err)
		}
	}
}

func validateSubmission(sub Submission) error {
	if sub.Name == "" {
		return apperr.ValidationField("name", "name required")
	}
	if sub.Lat < -90 || sub.Lat > 90 {
		return apperr.ValidationField("lat", "latitude must be between -90 and 90")
	}
	if sub.Lng < -180 || sub.Lng > 180 {
		return apperr.ValidationField("lng", "longitude must be between -180 and 180")
	}
	if len(sub.Images) == 0 {
		return apperr.ValidationField("images", "at least one image required")
	}
	if len(sub.Images) > maxImages {
		return apperr.ValidationField("images", fmt.Sprintf("at most %d images allowed", maxImages))
	}
	return nil
}
