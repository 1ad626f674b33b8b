package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"shipdesk/internal/apperr"
	"shipdesk/internal/auth"
	"shipdesk/internal/models"
	"shipdesk/internal/storage/pgshipments"
)

type Repository interface {
	CreateUser(ctx context.Context, in models.UserCreateInput, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint64) (*models.User, error)

	InsertRefreshToken(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RotateRefreshToken(ctx context.Context, oldHash, newHash string, userID uint64, expiresAt time.Time) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

type Service struct {
	repo       Repository
	issuer     *auth.TokenIssuer
	refreshTTL time.Duration

	limiter    RateLimiter
	loginLimit int64
}

func New(repo Repository, issuer *auth.TokenIssuer, refreshTTL time.Duration, limiter RateLimiter, loginLimit int64) *Service {
	return &Service{
		repo:       repo,
		issuer:     issuer,
		refreshTTL: refreshTTL,
		limiter:    limiter,
		loginLimit: loginLimit,
	}
}

func (s *Service) Register(ctx context.Context, in models.UserCreateInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" {
		return nil, apperr.New(apperr.KindBadInput, "email is required")
	}
	if len(in.Password) < 8 {
		return nil, apperr.New(apperr.KindBadInput, "password must be at least 8 characters")
	}
	if in.FirstName == "" || in.LastName == "" {
		return nil, apperr.New(apperr.KindBadInput, "first and last name are required")
	}
	if in.Role == "" {
		in.Role = models.RoleEmployee
	}
	if !models.ValidRole(in.Role) {
		return nil, apperr.Newf(apperr.KindBadInput, "unknown role %q", in.Role)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.CreateUser(ctx, in, hash)
	if errors.Is(err, pgshipments.ErrDuplicate) {
		return nil, apperr.New(apperr.KindBadInput, "email already registered")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if s.limiter != nil && s.loginLimit > 0 {
		ok, _, err := s.limiter.Allow(ctx, loginKey(email), s.loginLimit, time.Minute)
		if err == nil && !ok {
			return nil, apperr.New(apperr.KindUnauthenticated, "too many login attempts, try again later")
		}
		// A limiter outage must not lock everyone out.
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !auth.CheckPasswordHash(password, u.PasswordHash) {
		return nil, apperr.New(apperr.KindUnauthenticated, "invalid email or password")
	}
	if !u.IsActive {
		return nil, apperr.New(apperr.KindForbidden, "user account is disabled")
	}

	return s.issuePair(ctx, u)
}

// Refresh rotates the refresh token: the presented token is revoked and a new
// one issued in the same transaction.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	oldHash := auth.HashRefreshToken(refreshToken)

	t, err := s.repo.GetRefreshTokenByHash(ctx, oldHash)
	if err != nil {
		return nil, err
	}
	if t == nil || t.RevokedAt != nil || time.Now().After(t.ExpiresAt) {
		return nil, apperr.New(apperr.KindUnauthenticated, "invalid or expired refresh token")
	}

	u, err := s.repo.GetUserByID(ctx, t.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.New(apperr.KindUnauthenticated, "invalid or expired refresh token")
	}
	if !u.IsActive {
		return nil, apperr.New(apperr.KindForbidden, "user account is disabled")
	}

	newToken := uuid.NewString()
	if err := s.repo.RotateRefreshToken(ctx, oldHash, auth.HashRefreshToken(newToken), u.ID, time.Now().Add(s.refreshTTL)); err != nil {
		return nil, err
	}

	access, err := s.issuer.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: newToken, User: u}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.repo.RevokeRefreshToken(ctx, auth.HashRefreshToken(refreshToken))
}

// Authenticate verifies a bearer access token and re-reads the user row, so
// role and active status are never trusted from the token payload alone.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.issuer.Verify(accessToken)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindUnauthenticated, "invalid or expired token")
	}

	u, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.New(apperr.KindUnauthenticated, "unknown user")
	}
	if !u.IsActive {
		return nil, apperr.New(apperr.KindForbidden, "user account is disabled")
	}
	return u, nil
}

func (s *Service) issuePair(ctx context.Context, u *models.User) (*TokenPair, error) {
	access, err := s.issuer.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}

	refresh := uuid.NewString()
	if err := s.repo.InsertRefreshToken(ctx, u.ID, auth.HashRefreshToken(refresh), time.Now().Add(s.refreshTTL)); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, User: u}, nil
}

func loginKey(email string) string {
	return fmt.Sprintf("login:%s", email)
}
