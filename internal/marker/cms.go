package marker

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/danilwladich/2rnik/internal/apperr"
	"github.com/danilwladich/2rnik/internal/cms"
	"github.com/danilwladich/2rnik/internal/imagestore"
)

type CMSRepository struct {
	client *cms.Client
}

func NewCMSRepository(client *cms.Client) *CMSRepository {
	return &CMSRepository{client: client}
}

type markerAttrs struct {
	Name      string             `json:"name"`
	Address   string             `json:"address"`
	Lat       float64            `json:"lat"`
	Lng       float64            `json:"lng"`
	Images    []imagestore.Image `json:"images"`
	AddedBy   *userRelation      `json:"addedBy,omitempty"`
	Confirmed bool               `json:"confirmed"`
	CreatedAt time.Time          `json:"createdAt,omitempty"`
}

type userRelation struct {
	Data *struct {
		ID int `json:"id"`
	} `json:"data"`
}

func (a markerAttrs) toMarker(id int) Marker {
	m := Marker{
		ID:        strconv.Itoa(id),
		Name:      a.Name,
		Address:   a.Address,
		Lat:       a.Lat,
		Lng:       a.Lng,
		Images:    a.Images,
		Confirmed: a.Confirmed,
		CreatedAt: a.CreatedAt,
	}
	if a.AddedBy != nil && a.AddedBy.Data != nil {
		m.AddedBy = strconv.Itoa(a.AddedBy.Data.ID)
	}
	return m
}

func (r *CMSRepository) Insert(ctx context.Context, m Marker) (Marker, error) {
	addedBy, err := strconv.Atoi(m.AddedBy)
	if err != nil {
		return Marker{}, apperr.Validation("invalid user id")
	}

	body := cms.Payload[map[string]any]{Data: map[string]any{
		"name":      m.Name,
		"address":   m.Address,
		"lat":       m.Lat,
		"lng":       m.Lng,
		"images":    m.Images,
		"addedBy":   addedBy,
		"confirmed": m.Confirmed,
	}}

	var out cms.Document[markerAttrs]
	if err := r.client.Post(ctx, "/api/markers", body, &out); err != nil {
		return Marker{}, apperr.Upstream(err)
	}

	created := out.Data.Attributes.toMarker(out.Data.ID)
	created.AddedBy = m.AddedBy
	created.Images = m.Images
	return created, nil
}

func (r *CMSRepository) GetByID(ctx context.Context, id string) (Marker, error) {
	params := url.Values{}
	params.Set("populate", "addedBy")

	var out cms.Document[markerAttrs]
	if err := r.client.Get(ctx, "/api/markers/"+id, params, &out); err != nil {
		return Marker{}, mapCMSError(err)
	}
	return out.Data.Attributes.toMarker(out.Data.ID), nil
}

func (r *CMSRepository) ListVisible(ctx context.Context, box BoundingBox, page, pageSize int) ([]Marker, error) {
	params := url.Values{}
	params.Set("populate", "addedBy")
	params.Set("filters[confirmed][$eq]", "true")
	params.Set("filters[lat][$gt]", formatCoord(box.LatMin))
	params.Set("filters[lat][$lt]", formatCoord(box.LatMax))
	params.Set("filters[lng][$gt]", formatCoord(box.LngMin))
	params.Set("filters[lng][$lt]", formatCoord(box.LngMax))
	return r.list(ctx, params, page, pageSize)
}

func (r *CMSRepository) ListPending(ctx context.Context, page, pageSize int) ([]Marker, error) {
	params := url.Values{}
	params.Set("populate", "addedBy")
	params.Set("filters[confirmed][$eq]", "false")
	params.Set("sort", "createdAt:asc")
	return r.list(ctx, params, page, pageSize)
}

func (r *CMSRepository) list(ctx context.Context, params url.Values, page, pageSize int) ([]Marker, error) {
	params.Set("pagination[page]", strconv.Itoa(page))
	params.Set("pagination[pageSize]", strconv.Itoa(pageSize))

	var out cms.List[markerAttrs]
	if err := r.client.Get(ctx, "/api/markers", params, &out); err != nil {
		return nil, apperr.Upstream(err)
	}

	var markers []Marker
	for _, entry := range out.Data {
		markers = append(markers, entry.Attributes.toMarker(entry.ID))
	}
	return markers, nil
}

func (r *CMSRepository) SetConfirmed(ctx context.Context, id string) error {
	body := cms.Payload[map[string]any]{Data: map[string]any{"confirmed": true}}
	if err := r.client.Put(ctx, "/api/markers/"+id, body, nil); err != nil {
		return mapCMSError(err)
	}
	return nil
}

func (r *CMSRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Delete(ctx, "/api/markers/"+id); err != nil {
		return mapCMSError(err)
	}
	return nil
}

func (r *CMSRepository) AddFavorite(ctx context.Context, markerID, userID string) error {
	existing, err := r.findFavorite(ctx, markerID, userID)
	if err != nil {
		return err
	}
	if existing != 0 {
		return nil
	}

	body := cms.Payload[map[string]string]{Data: map[string]string{
		"markerId": markerID,
		"userId":   userID,
	}}
	if err := r.client.Post(ctx, "/api/favorites", body, nil); err != nil {
		return apperr.Upstream(err)
	}
	return nil
}

func (r *CMSRepository) RemoveFavorite(ctx context.Context, markerID, userID string) error {
	existing, err := r.findFavorite(ctx, markerID, userID)
	if err != nil {
		return err
	}
	if existing == 0 {
		return nil
	}
	if err := r.client.Delete(ctx, "/api/favorites/"+strconv.Itoa(existing)); err != nil {
		return apperr.Upstream(err)
	}
	return nil
}

type favoriteAttrs struct {
	MarkerID string `json:"markerId"`
	UserID   string `json:"userId"`
}

func (r *CMSRepository) findFavorite(ctx context.Context, markerID, userID string) (int, error) {
	params := url.Values{}
	params.Set("filters[markerId][$eq]", markerID)
	params.Set("filters[userId][$eq]", userID)

	var out cms.List[favoriteAttrs]
	if err := r.client.Get(ctx, "/api/favorites", params, &out); err != nil {
		return 0, apperr.Upstream(err)
	}
	if len(out.Data) == 0 {
		return 0, nil
	}
	return out.Data[0].ID, nil
}

func (r *CMSRepository) InsertReport(ctx context.Context, markerID, reporterID, reason string) error {
	body := cms.Payload[map[string]string]{Data: map[string]string{
		"markerId":   markerID,
		"reporterId": reporterID,
		"reason":     reason,
	}}
	if err := r.client.Post(ctx, "/api/reports", body, nil); err != nil {
		return apperr.Upstream(err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func mapCMSError(err error) error {
	var statusErr *cms.StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		return apperr.NotFound("marker not found")
	}
	return apperr.Upstream(err)
}
