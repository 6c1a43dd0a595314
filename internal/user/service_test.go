package user

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/danilwladich/2rnik/internal/apperr"
	"github.com/danilwladich/2rnik/internal/imagestore"

	"golang.org/x/crypto/bcrypt"
)

type fakeRepo struct {
	users     map[string]User
	updateErr error
}

func newFakeRepo(users ...User) *fakeRepo {
	r := &fakeRepo{users: map[string]User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeRepo) Insert(_ context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = "user-" + strconv.Itoa(len(r.users)+1)
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	r.users[u.ID] = u
	return u, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, apperr.NotFound("user not found")
	}
	return u, nil
}

func (r *fakeRepo) GetByUsername(_ context.Context, username string) (User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, apperr.NotFound("user not found")
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, apperr.NotFound("user not found")
}

func (r *fakeRepo) UpdateProfile(ctx context.Context, id string, p Profile) (User, error) {
	if r.updateErr != nil {
		return User{}, r.updateErr
	}
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	u.Bio, u.Country, u.City, u.DateOfBirth, u.SocialLinks = p.Bio, p.Country, p.City, p.DateOfBirth, p.SocialLinks
	r.users[id] = u
	return u, nil
}

func (r *fakeRepo) UpdateUsername(ctx context.Context, id, username string) (User, error) {
	if r.updateErr != nil {
		return User{}, r.updateErr
	}
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	u.Username = username
	r.users[id] = u
	return u, nil
}

func (r *fakeRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.PasswordHash = passwordHash
	r.users[id] = u
	return nil
}

func (r *fakeRepo) SetAvatar(ctx context.Context, id string, avatar *imagestore.Image) (User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	u.Avatar = avatar
	r.users[id] = u
	return u, nil
}

func (r *fakeRepo) SetBlocked(ctx context.Context, id string, blocked bool) error {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.Blocked = blocked
	r.users[id] = u
	return nil
}

type fakeImages struct {
	uploaded  []string
	deleted   []string
	uploadErr error
	deleteErr error
}

func (f *fakeImages) Upload(_ context.Context, name string, r io.Reader, _ int64, _ string) (imagestore.Image, error) {
	if f.uploadErr != nil {
		return imagestore.Image{}, f.uploadErr
	}
	io.Copy(io.Discard, r)
	f.uploaded = append(f.uploaded, name)
	return imagestore.Image{ID: name, URL: "https://img/" + name}, nil
}

func (f *fakeImages) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeBlocker struct {
	blocked map[string]bool
}

func (f *fakeBlocker) SetBlocked(_ context.Context, userID string, blocked bool) error {
	if f.blocked == nil {
		f.blocked = map[string]bool{}
	}
	f.blocked[userID] = blocked
	return nil
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(hash)
}

func TestChangeUsername(t *testing.T) {
	repo := newFakeRepo(
		User{ID: "user-1", Username: "alice", PasswordHash: hashOf(t, "secret123")},
		User{ID: "user-2", Username: "bob"},
	)
	svc := NewService(repo, &fakeImages{}, nil)

	u, err := svc.ChangeUsername(context.Background(), "user-1", "alice2", "secret123")
	if err != nil {
		t.Fatalf("change username: %v", err)
	}
	if u.Username != "alice2" {
		t.Fatalf("expected renamed user, got %q", u.Username)
	}
}

func TestChangeUsernameWrongPassword(t *testing.T) {
	repo := newFakeRepo(User{ID: "user-1", Username: "alice", PasswordHash: hashOf(t, "secret123")})
	svc := NewService(repo, &fakeImages{}, nil)

	_, err := svc.ChangeUsername(context.Background(), "user-1", "alice2", "wrong")
	ae, ok := apperr.As(err)
	if !ok || ae.Field != "password" {
		t.Fatalf("expected password field error, got %v", err)
	}
}

func TestChangeUsernameTaken(t *testing.T) {
	repo := newFakeRepo(
		User{ID: "user-1", Username: "alice", PasswordHash: hashOf(t, "secret123")},
		User{ID: "user-2", Username: "bob"},
	)
	svc := NewService(repo, &fakeImages{}, nil)

	_, err := svc.ChangeUsername(context.Background(), "user-1", "bob", "secret123")
	ae, ok := apperr.As(err)
	if !ok || ae.Field != "username" {
		t.Fatalf("expected username conflict, got %v", err)
	}
}

func TestChangeUsernameSameNameNoop(t *testing.T) {
	repo := newFakeRepo(User{ID: "user-1", Username: "alice", PasswordHash: hashOf(t, "secret123")})
	svc := NewService(repo, &fakeImages{}, nil)

	u, err := svc.ChangeUsername(context.Background(), "user-1", "alice", "secret123")
	if err != nil || u.Username != "alice" {
		t.Fatalf("expected noop, got %v %v", u, err)
	}
}

func TestChangePassword(t *testing.T) {
	repo := newFakeRepo(User{ID: "user-1", PasswordHash: hashOf(t, "secret123")})
	svc := NewService(repo, &fakeImages{}, nil)

	if err := svc.ChangePassword(context.Background(), "user-1", "secret123", "newsecret"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	stored := repo.users["user-1"].PasswordHash
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte("newsecret")) != nil {
		t.Fatalf("expected new password stored")
	}
}

func TestChangePasswordValidation(t *testing.T) {
	repo := newFakeRepo(User{ID: "user-1", PasswordHash: hashOf(t, "secret123")})
	svc := NewService(repo, &fakeImages{}, nil)

	if err := svc.ChangePassword(context.Background(), "user-1", "secret123", "short"); err == nil {
		t.Fatalf("expected length validation error")
	}

	err := svc.ChangePassword(context.Background(), "user-1", "wrong", "newsecret")
	ae, ok := apperr.As(err)
	if !ok || ae.Field != "currentPassword" {
		t.Fatalf("expected currentPassword field error, got %v", err)
	}
}

func TestChangeAvatarReplacesOld(t *testing.T) {
	repo := newFakeRepo(User{ID: "user-1", Avatar: &imagestore.Image{ID: "old", URL: "https://img/old"}})
	images := &fakeImages{}
	svc := NewService(repo, images, nil)

	u, err := svc.ChangeAvatar(context.Background(), "user-1", AvatarUpload{
		Name:        "avatar_user-1",
		Content:     bytes.NewReader([]byte("png")),
		Size:        3,
		ContentType: "image/png",
	})
	if err != nil {
		t.Fatalf("change avatar: %v", err)
	}
	if len(images.deleted) != 1 || images.deleted[0] != "old" {
		t.Fatalf("expected old avatar deleted, got %v", images.deleted)
	}
	if u.Avatar == nil || !strings.HasPrefix(u.Avatar.URL, "https://img/") {
		t.Fatalf("expected new avatar set, got %+v", u.Avatar)
	}
}

func TestChangeAvatarUploadError(t *testing.T) {
	repo := newFakeRepo(User{ID: "user-1"})
	svc := NewService(repo, &fakeImages{uploadErr: errors.New("store down")}, nil)

	_, err := svc.ChangeAvatar(context.Background(), "user-1", AvatarUpload{Name: "a", Content: bytes.NewReader(nil)})
	if _, ok := apperr.As(err); !ok {
		t.Fatalf("expected upload error, got %v", err)
	}
}

func TestRemoveAvatar(t *testing.T) {
	repo := newFakeRepo(User{ID: "user-1", Avatar: &imagestore.Image{ID: "old"}})
	images := &fakeImages{}
	svc := NewService(repo, images, nil)

	u, err := svc.RemoveAvatar(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("remove avatar: %v", err)
	}
	if u.Avatar != nil || len(images.deleted) != 1 {
		t.Fatalf("expected avatar removed")
	}
}

func TestSetBlockedFlagsSessions(t *testing.T) {
	repo := newFakeRepo(User{ID: "user-1"})
	blocker := &fakeBlocker{}
	svc := NewService(repo, &fakeImages{}, blocker)

	if err := svc.SetBlocked(context.Background(), "user-1", true); err != nil {
		t.Fatalf("set blocked: %v", err)
	}
	if !repo.users["user-1"].Blocked || !blocker.blocked["user-1"] {
		t.Fatalf("expected user blocked in repo and sessions")
	}

	if err := svc.SetBlocked(context.Background(), "missing", true); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
