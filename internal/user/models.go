package user

import (
	"time"

	"github.com/danilwladich/2rnik/internal/imagestore"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string            `json:"id"`
	Username     string            `json:"username"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"-"`
	Bio          string            `json:"bio,omitempty"`
	Country      string            `json:"country,omitempty"`
	City         string            `json:"city,omitempty"`
	DateOfBirth  string            `json:"date_of_birth,omitempty"`
	SocialLinks  map[string]string `json:"social_links,omitempty"`
	Avatar       *imagestore.Image `json:"avatar,omitempty"`
	Blocked      bool              `json:"blocked"`
	Role         string            `json:"role"`
	CreatedAt    time.Time         `json:"created_at"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Profile holds the editable profile fields.
type Profile struct {
	Bio         string            `json:"bio"`
	Country     string            `json:"country"`
	City        string            `json:"city"`
	DateOfBirth string            `json:"date_of_birth"`
	SocialLinks map[string]string `json:"social_links"`
}
