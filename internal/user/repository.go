package user

import (
	"context"

	"github.com/danilwladich/2rnik/internal/imagestore"
)

// Repository persists users. Two interchangeable implementations exist: the
// postgres one and the headless-CMS one, selected at startup. Lookups return
// a not-found error from the apperr taxonomy when the user is absent; users
// are never hard-deleted.
type Repository interface {
	Insert(ctx context.Context, u User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	UpdateProfile(ctx context.Context, id string, p Profile) (User, error)
	UpdateUsername(ctx context.Context, id, username string) (User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetAvatar(ctx context.Context, id string, avatar *imagestore.Image) (User, error)
	SetBlocked(ctx context.Context, id string, blocked bool) error
}
