package user

import (
	"context"
	"io"
	"log"

	"github.com/danilwladich/2rnik/internal/apperr"
	"github.com/danilwladich/2rnik/internal/imagestore"

	"golang.org/x/crypto/bcrypt"
)

// SessionBlocker flags blocked users so their live sessions are rejected.
// Implemented by auth.Sessions; a nil-safe no-op is fine without redis.
type SessionBlocker interface {
	SetBlocked(ctx context.Context, userID string, blocked bool) error
}

type Service struct {
	repo     Repository
	images   imagestore.Store
	sessions SessionBlocker
}

func NewService(repo Repository, images imagestore.Store, sessions SessionBlocker) *Service {
	return &Service{repo: repo, images: images, sessions: sessions}
}

// AvatarUpload is the incoming avatar file.
type AvatarUpload struct {
	Name        string
	Content     io.Reader
	Size        int64
	ContentType string
}

func (s *Service) Profile(ctx context.Context, username string) (User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, p Profile) (User, error) {
	return s.repo.UpdateProfile(ctx, userID, p)
}

// ChangeAvatar replaces the user's avatar: the previous object is removed
// best effort, the new one uploaded, then the reference persisted.
func (s *Service) ChangeAvatar(ctx context.Context, userID string, upload AvatarUpload) (User, error) {
	current, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if current.Avatar != nil {
		if err := s.images.Delete(ctx, current.Avatar.ID); err != nil {
			log.Printf("delete old avatar %s: %v", current.Avatar.ID, err)
		}
	}

	img, err := s.images.Upload(ctx, upload.Name, upload.Content, upload.Size, upload.ContentType)
	if err != nil {
		return User{}, apperr.Upload(err)
	}
	return s.repo.SetAvatar(ctx, userID, &img)
}

func (s *Service) RemoveAvatar(ctx context.Context, userID string) (User, error) {
	current, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if current.Avatar != nil {
		if err := s.images.Delete(ctx, current.Avatar.ID); err != nil {
			log.Printf("delete avatar %s: %v", current.Avatar.ID, err)
		}
	}
	return s.repo.SetAvatar(ctx, userID, nil)
}

func (s *Service) ChangeUsername(ctx context.Context, userID, username, password string) (User, error) {
	if username == "" {
		return User{}, apperr.ValidationField("username", "username required")
	}

	current, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(current.PasswordHash), []byte(password)) != nil {
		return User{}, apperr.ValidationField("password", "wrong password")
	}
	if current.Username == username {
		return current, nil
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return User{}, apperr.Conflict("username", "username already taken")
	} else if !apperr.IsNotFound(err) {
		return User{}, err
	}

	return s.repo.UpdateUsername(ctx, userID, username)
}

func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return apperr.ValidationField("password", "password must be at least 6 characters")
	}

	current, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(current.PasswordHash), []byte(currentPassword)) != nil {
		return apperr.ValidationField("currentPassword", "wrong password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Upstream(err)
	}
	return s.repo.UpdatePassword(ctx, userID, string(hash))
}

// SetBlocked is the admin moderation switch. The redis flag cuts off live
// sessions; the persisted flag stops future logins.
func (s *Service) SetBlocked(ctx context.Context, userID string, blocked bool) error {
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.SetBlocked(ctx, userID, blocked); err != nil {
		return err
	}
	if s.sessions != nil {
		if err := s.sessions.SetBlocked(ctx, userID, blocked); err != nil {
			log.Printf("flag blocked user %s: %v", userID, err)
		}
	}
	return nil
}
