package marker

import (
	"context"
	"errors"

	"github.com/danilwladich/2rnik/internal/apperr"
	"github.com/danilwladich/2rnik/internal/db"
	"github.com/danilwladich/2rnik/internal/imagestore"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PostgresRepository struct {
	db db.Querier
}

func NewPostgresRepository(db db.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, m Marker) (Marker, error) {
	m.ID = uuid.NewString()
	row := r.db.QueryRow(ctx, `
		INSERT INTO markers (id, name, address, lat, lng, added_by, confirmed)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, m.ID, m.Name, m.Address, m.Lat, m.Lng, m.AddedBy, m.Confirmed)
	if err := row.Scan(&m.CreatedAt); err != nil {
		return Marker{}, apperr.Upstream(err)
	}

	for i, img := range m.Images {
		if _, err := r.db.Exec(ctx, `
			INSERT INTO marker_images (id, marker_id, url, position)
			VALUES ($1,$2,$3,$4)
		`, img.ID, m.ID, img.URL, i); err != nil {
			return Marker{}, apperr.Upstream(err)
		}
	}
	return m, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Marker, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, address, lat, lng, added_by, confirmed, created_at
		FROM markers WHERE id=$1
	`, id)

	var m Marker
	err := row.Scan(&m.ID, &m.Name, &m.Address, &m.Lat, &m.Lng, &m.AddedBy, &m.Confirmed, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Marker{}, apperr.NotFound("marker not found")
	}
	if err != nil {
		return Marker{}, apperr.Upstream(err)
	}

	images, err := r.loadImages(ctx, []string{m.ID})
	if err != nil {
		return Marker{}, err
	}
	m.Images = images[m.ID]
	return m, nil
}

func (r *PostgresRepository) ListVisible(ctx context.Context, box BoundingBox, page, pageSize int) ([]Marker, error) {
	return r.listMarkers(ctx, `
		SELECT id, name, address, lat, lng, added_by, confirmed, created_at
		FROM markers
		WHERE confirmed = TRUE
		  AND lat > $1 AND lat < $2
		  AND lng > $3 AND lng < $4
		LIMIT $5 OFFSET $6
	`, box.LatMin, box.LatMax, box.LngMin, box.LngMax, pageSize, (page-1)*pageSize)
}

func (r *PostgresRepository) ListPending(ctx context.Context, page, pageSize int) ([]Marker, error) {
	return r.listMarkers(ctx, `
		SELECT id, name, address, lat, lng, added_by, confirmed, created_at
		FROM markers
		WHERE confirmed = FALSE
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`, pageSize, (page-1)*pageSize)
}

func (r *PostgresRepository) listMarkers(ctx context.Context, sql string, args ...any) ([]Marker, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	defer rows.Close()

	var markers []Marker
	var ids []string
	for rows.Next() {
		var m Marker
		if err := rows.Scan(&m.ID, &m.Name, &m.Address, &m.Lat, &m.Lng, &m.AddedBy, &m.Confirmed, &m.CreatedAt); err != nil {
			return nil, apperr.Upstream(err)
		}
		ids = append(ids, m.ID)
		markers = append(markers, m)
	}

	images, err := r.loadImages(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range markers {
		markers[i].Images = images[markers[i].ID]
	}
	return markers, nil
}

func (r *PostgresRepository) loadImages(ctx context.Context, markerIDs []string) (map[string][]imagestore.Image, error) {
	if len(markerIDs) == 0 {
		return map[string][]imagestore.Image{}, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, marker_id, url
		FROM marker_images WHERE marker_id = ANY($1)
		ORDER BY position
	`, markerIDs)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	defer rows.Close()

	images := map[string][]imagestore.Image{}
	for rows.Next() {
		var img imagestore.Image
		var markerID string
		if err := rows.Scan(&img.ID, &markerID, &img.URL); err != nil {
			return nil, apperr.Upstream(err)
		}
		images[markerID] = append(images[markerID], img)
	}
	return images, nil
}

func (r *PostgresRepository) SetConfirmed(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `UPDATE markers SET confirmed = TRUE WHERE id=$1`, id); err != nil {
		return apperr.Upstream(err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM marker_images WHERE marker_id=$1`, id); err != nil {
		return apperr.Upstream(err)
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM markers WHERE id=$1`, id)
	if err != nil {
		return apperr.Upstream(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("marker not found")
	}
	return nil
}

func (r *PostgresRepository) AddFavorite(ctx context.Context, markerID, userID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO favorites (id, marker_id, user_id)
		VALUES ($1,$2,$3)
		ON CONFLICT (marker_id, user_id) DO NOTHING
	`, uuid.NewString(), markerID, userID)
	if err != nil {
		return apperr.Upstream(err)
	}
	return nil
}

func (r *PostgresRepository) RemoveFavorite(ctx context.Context, markerID, userID string) error {
	if _, err := r.db.Exec(ctx, `
		DELETE FROM favorites WHERE marker_id=$1 AND user_id=$2
	`, markerID, userID); err != nil {
		return apperr.Upstream(err)
	}
	return nil
}

func (r *PostgresRepository) InsertReport(ctx context.Context, markerID, reporterID, reason string) error {
	if _, err := r.db.Exec(ctx, `
		INSERT INTO marker_reports (id, marker_id, reporter_id, reason)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), markerID, reporterID, reason); err != nil {
		return apperr.Upstream(err)
	}
	return nil
}
