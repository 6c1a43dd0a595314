package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danilwladich/2rnik/internal/apperr"
	"github.com/danilwladich/2rnik/internal/cms"
	"github.com/danilwladich/2rnik/internal/imagestore"
)

// CMSRepository stores users in the headless CMS. The users collection is
// flat (no data/attributes envelope), matching the CMS auth plugin.
type CMSRepository struct {
	client *cms.Client
}

func NewCMSRepository(client *cms.Client) *CMSRepository {
	return &CMSRepository{client: client}
}

type cmsUser struct {
	ID           int               `json:"id,omitempty"`
	Username     string            `json:"username"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"passwordHash,omitempty"`
	Bio          string            `json:"bio,omitempty"`
	Country      string            `json:"country,omitempty"`
	City         string            `json:"city,omitempty"`
	DateOfBirth  string            `json:"dateOfBirth,omitempty"`
	SocialLinks  map[string]string `json:"socialLinks,omitempty"`
	Avatar       *imagestore.Image `json:"avatar"`
	Blocked      bool              `json:"blocked"`
	Role         *cmsRole          `json:"role,omitempty"`
	CreatedAt    time.Time         `json:"createdAt,omitempty"`
}

type cmsRole struct {
	Name string `json:"name"`
}

func (u cmsUser) toUser() User {
	role := RoleUser
	if u.Role != nil && strings.EqualFold(u.Role.Name, RoleAdmin) {
		role = RoleAdmin
	}
	return User{
		ID:           fmt.Sprint(u.ID),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Bio:          u.Bio,
		Country:      u.Country,
		City:         u.City,
		DateOfBirth:  u.DateOfBirth,
		SocialLinks:  u.SocialLinks,
		Avatar:       u.Avatar,
		Blocked:      u.Blocked,
		Role:         role,
		CreatedAt:    u.CreatedAt,
	}
}

func (r *CMSRepository) Insert(ctx context.Context, u User) (User, error) {
	body := cmsUser{
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Bio:          u.Bio,
		Country:      u.Country,
		City:         u.City,
		DateOfBirth:  u.DateOfBirth,
		SocialLinks:  u.SocialLinks,
		Blocked:      u.Blocked,
	}
	var created cmsUser
	if err := r.client.Post(ctx, "/api/users", body, &created); err != nil {
		return User{}, mapCMSError(err)
	}
	out := created.toUser()
	out.PasswordHash = u.PasswordHash
	if u.Role == RoleAdmin {
		out.Role = RoleAdmin
	}
	return out, nil
}

func (r *CMSRepository) GetByID(ctx context.Context, id string) (User, error) {
	params := url.Values{}
	params.Set("populate", "role,avatar")

	var out cmsUser
	if err := r.client.Get(ctx, "/api/users/"+id, params, &out); err != nil {
		return User{}, mapCMSError(err)
	}
	return out.toUser(), nil
}

func (r *CMSRepository) GetByUsername(ctx context.Context, username string) (User, error) {
	return r.findOne(ctx, "filters[username][$eq]", username)
}

func (r *CMSRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.findOne(ctx, "filters[email][$eq]", email)
}

func (r *CMSRepository) findOne(ctx context.Context, filter, value string) (User, error) {
	params := url.Values{}
	params.Set(filter, value)
	params.Set("populate", "role,avatar")

	var out []cmsUser
	if err := r.client.Get(ctx, "/api/users", params, &out); err != nil {
		return User{}, mapCMSError(err)
	}
	if len(out) == 0 {
		return User{}, apperr.NotFound("user not found")
	}
	return out[0].toUser(), nil
}

func (r *CMSRepository) UpdateProfile(ctx context.Context, id string, p Profile) (User, error) {
	body := map[string]any{
		"bio":         p.Bio,
		"country":     p.Country,
		"city":        p.City,
		"dateOfBirth": p.DateOfBirth,
		"socialLinks": p.SocialLinks,
	}
	return r.update(ctx, id, body)
}

func (r *CMSRepository) UpdateUsername(ctx context.Context, id, username string) (User, error) {
	return r.update(ctx, id, map[string]any{"username": username})
}

func (r *CMSRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.update(ctx, id, map[string]any{"passwordHash": passwordHash})
	return err
}

func (r *CMSRepository) SetAvatar(ctx context.Context, id string, avatar *imagestore.Image) (User, error) {
	return r.update(ctx, id, map[string]any{"avatar": avatar})
}

func (r *CMSRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	_, err := r.update(ctx, id, map[string]any{"blocked": blocked})
	return err
}

func (r *CMSRepository) update(ctx context.Context, id string, body map[string]any) (User, error) {
	var out cmsUser
	if err := r.client.Put(ctx, "/api/users/"+id, body, &out); err != nil {
		return User{}, mapCMSError(err)
	}
	return r.GetByID(ctx, id)
}

func mapCMSError(err error) error {
	var statusErr *cms.StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		return apperr.NotFound("user not found")
	}
	return apperr.Upstream(err)
}
