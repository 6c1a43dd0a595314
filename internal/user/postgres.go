package user

import (
	"context"
	"encoding/json"
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

const userColumns = `id, username, email, password_hash,
	       COALESCE(bio,''), COALESCE(country,''), COALESCE(city,''), COALESCE(date_of_birth,''),
	       COALESCE(social_links,'{}'), avatar_id, avatar_url, blocked, role, created_at`

func (r *PostgresRepository) Insert(ctx context.Context, u User) (User, error) {
	u.ID = uuid.NewString()
	if u.Role == "" {
		u.Role = RoleUser
	}
	links, err := json.Marshal(u.SocialLinks)
	if err != nil {
		return User{}, apperr.Upstream(err)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO users (id, username, email, password_hash, bio, country, city, date_of_birth, social_links, blocked, role)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.Bio, u.Country, u.City, u.DateOfBirth, links, u.Blocked, u.Role)
	if err := row.Scan(&u.CreatedAt); err != nil {
		return User{}, apperr.Upstream(err)
	}
	return u, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (User, error) {
	return r.getBy(ctx, `WHERE id=$1`, id)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (User, error) {
	return r.getBy(ctx, `WHERE username=$1`, username)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getBy(ctx, `WHERE email=$1`, email)
}

func (r *PostgresRepository) getBy(ctx context.Context, where string, arg any) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+where, arg)
	return scanUser(row)
}

func scanUser(row pgx.Row) (User, error) {
	var (
		u        User
		links    []byte
		avatarID *string
		avatarURL *string
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.Bio, &u.Country, &u.City, &u.DateOfBirth,
		&links, &avatarID, &avatarURL, &u.Blocked, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return User{}, apperr.Upstream(err)
	}
	if len(links) > 0 {
		_ = json.Unmarshal(links, &u.SocialLinks)
	}
	if avatarID != nil && avatarURL != nil {
		u.Avatar = &imagestore.Image{ID: *avatarID, URL: *avatarURL}
	}
	return u, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, p Profile) (User, error) {
	links, err := json.Marshal(p.SocialLinks)
	if err != nil {
		return User{}, apperr.Upstream(err)
	}
	if _, err := r.db.Exec(ctx, `
		UPDATE users
		SET bio=$2, country=$3, city=$4, date_of_birth=$5, social_links=$6
		WHERE id=$1
	`, id, p.Bio, p.Country, p.City, p.DateOfBirth, links); err != nil {
		return User{}, apperr.Upstream(err)
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) UpdateUsername(ctx context.Context, id, username string) (User, error) {
	if _, err := r.db.Exec(ctx, `UPDATE users SET username=$2 WHERE id=$1`, id, username); err != nil {
		return User{}, apperr.Upstream(err)
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if _, err := r.db.Exec(ctx, `UPDATE users SET password_hash=$2 WHERE id=$1`, id, passwordHash); err != nil {
		return apperr.Upstream(err)
	}
	return nil
}

func (r *PostgresRepository) SetAvatar(ctx context.Context, id string, avatar *imagestore.Image) (User, error) {
	var avatarID, avatarURL *string
	if avatar != nil {
		avatarID, avatarURL = &avatar.ID, &avatar.URL
	}
	if _, err := r.db.Exec(ctx, `UPDATE users SET avatar_id=$2, avatar_url=$3 WHERE id=$1`, id, avatarID, avatarURL); err != nil {
		return User{}, apperr.Upstream(err)
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	if _, err := r.db.Exec(ctx, `UPDATE users SET blocked=$2 WHERE id=$1`, id, blocked); err != nil {
		return apperr.Upstream(err)
	}
	return nil
}
