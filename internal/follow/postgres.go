package follow

import (
	"context"

	"github.com/danilwladich/2rnik/internal/apperr"
	"github.com/danilwladich/2rnik/internal/db"

	"github.com/google/uuid"
)

type PostgresRepository struct {
	db db.Querier
}

func NewPostgresRepository(db db.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, whoID, whomID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO follows (id, who_follow_id, whom_follow_id)
		VALUES ($1,$2,$3)
		ON CONFLICT (who_follow_id, whom_follow_id) DO NOTHING
	`, uuid.NewString(), whoID, whomID)
	if err != nil {
		return apperr.Upstream(err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByPair(ctx context.Context, whoID, whomID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM follows WHERE who_follow_id=$1 AND whom_follow_id=$2
	`, whoID, whomID)
	if err != nil {
		return false, apperr.Upstream(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) CountFollowers(ctx context.Context, username string) (int, error) {
	return r.count(ctx, `
		SELECT COUNT(*) FROM follows f
		JOIN users u ON u.id = f.whom_follow_id
		WHERE u.username=$1
	`, username)
}

func (r *PostgresRepository) CountFollowings(ctx context.Context, username string) (int, error) {
	return r.count(ctx, `
		SELECT COUNT(*) FROM follows f
		JOIN users u ON u.id = f.who_follow_id
		WHERE u.username=$1
	`, username)
}

func (r *PostgresRepository) count(ctx context.Context, sql, username string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, sql, username).Scan(&n); err != nil {
		return 0, apperr.Upstream(err)
	}
	return n, nil
}

func (r *PostgresRepository) ListFollowers(ctx context.Context, username string, page, pageSize int) ([]UserRef, int, error) {
	total, err := r.CountFollowers(ctx, username)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.list(ctx, `
		SELECT who.id, who.username, COALESCE(who.avatar_url,'')
		FROM follows f
		JOIN users whom ON whom.id = f.whom_follow_id
		JOIN users who ON who.id = f.who_follow_id
		WHERE whom.username=$1
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3
	`, username, page, pageSize)
	return items, total, err
}

func (r *PostgresRepository) ListFollowings(ctx context.Context, username string, page, pageSize int) ([]UserRef, int, error) {
	total, err := r.CountFollowings(ctx, username)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.list(ctx, `
		SELECT whom.id, whom.username, COALESCE(whom.avatar_url,'')
		FROM follows f
		JOIN users who ON who.id = f.who_follow_id
		JOIN users whom ON whom.id = f.whom_follow_id
		WHERE who.username=$1
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3
	`, username, page, pageSize)
	return items, total, err
}

func (r *PostgresRepository) list(ctx context.Context, sql, username string, page, pageSize int) ([]UserRef, error) {
	offset := (page - 1) * pageSize
	rows, err := r.db.Query(ctx, sql, username, pageSize, offset)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	defer rows.Close()

	var refs []UserRef
	for rows.Next() {
		var ref UserRef
		if err := rows.Scan(&ref.ID, &ref.Username, &ref.AvatarURL); err != nil {
			return nil, apperr.Upstream(err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
