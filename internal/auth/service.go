package auth

import (
	"context"
	"time"

	"github.com/danilwladich/2rnik/internal/apperr"
	"github.com/danilwladich/2rnik/internal/session"
	"github.com/danilwladich/2rnik/internal/user"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const sessionTTL = 7 * 24 * time.Hour

type Service struct {
	secret   []byte
	users    user.Repository
	sessions *session.Store
}

type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func NewService(secret string, users user.Repository, sessions *session.Store) *Service {
	return &Service{
		secret:   []byte(secret),
		users:    users,
		sessions: sessions,
	}
}

type RegisterRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	RecaptchaToken string `json:"recaptchaToken"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Register checks email then username for duplicates (field-level errors),
// hashes the password and persists the new user.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (user.User, string, error) {
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return user.User{}, "", apperr.Validation("email, username, password required")
	}
	if len(req.Password) < 6 {
		return user.User{}, "", apperr.ValidationField("password", "password must be at least 6 characters")
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return user.User{}, "", apperr.Conflict("email", "user with this email already exists")
	} else if !apperr.IsNotFound(err) {
		return user.User{}, "", err
	}
	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return user.User{}, "", apperr.Conflict("username", "username already taken")
	} else if !apperr.IsNotFound(err) {
		return user.User{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, "", apperr.Upstream(err)
	}

	created, err := s.users.Insert(ctx, user.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         user.RoleUser,
	})
	if err != nil {
		return user.User{}, "", err
	}

	token, err := s.SignToken(created)
	if err != nil {
		return user.User{}, "", err
	}
	return created, token, nil
}

// Login accepts an email or a username as the identifier.
func (s *Service) Login(ctx context.Context, req LoginRequest) (user.User, string, error) {
	if req.Identifier == "" || req.Password == "" {
		return user.User{}, "", apperr.Validation("identifier and password required")
	}

	u, err := s.users.GetByEmail(ctx, req.Identifier)
	if apperr.IsNotFound(err) {
		u, err = s.users.GetByUsername(ctx, req.Identifier)
	}
	if apperr.IsNotFound(err) {
		return user.User{}, "", apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return user.User{}, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return user.User{}, "", apperr.Unauthorized("invalid credentials")
	}
	if u.Blocked {
		return user.User{}, "", apperr.Forbidden("user is blocked")
	}

	token, err := s.SignToken(u)
	if err != nil {
		return user.User{}, "", err
	}
	return u, token, nil
}

func (s *Service) Me(ctx context.Context, userID string) (user.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Logout denylists the token id for its remaining lifetime.
func (s *Service) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if err := s.sessions.Revoke(ctx, jti, time.Until(expiresAt)); err != nil {
		return apperr.Upstream(err)
	}
	return nil
}

func (s *Service) SignToken(u user.User) (string, error) {
	claims := Claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", apperr.Upstream(err)
	}
	return signed, nil
}

func (s *Service) ParseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, apperr.Unauthorized("token invalid")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, apperr.Unauthorized("token invalid")
	}
	return claims, nil
}
