package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shipdesk/internal/apperr"
	"shipdesk/internal/auth"
	"shipdesk/internal/models"
	"shipdesk/internal/storage/pgshipments"
)

type fakeRepo struct {
	usersByEmail map[string]*models.User
	usersByID    map[uint64]*models.User
	tokens       map[string]*models.RefreshToken

	createErr error
	nextID    uint64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		usersByEmail: map[string]*models.User{},
		usersByID:    map[uint64]*models.User{},
		tokens:       map[string]*models.RefreshToken{},
		nextID:       1,
	}
}

func (f *fakeRepo) CreateUser(ctx context.Context, in models.UserCreateInput, passwordHash string) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.usersByEmail[in.Email]; ok {
		return nil, pgshipments.ErrDuplicate
	}
	u := &models.User{
		ID: f.nextID, Email: in.Email, PasswordHash: passwordHash,
		FirstName: in.FirstName, LastName: in.LastName, Role: in.Role, IsActive: true,
	}
	f.nextID++
	f.usersByEmail[u.Email] = u
	f.usersByID[u.ID] = u
	return u, nil
}

func (f *fakeRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.usersByEmail[email], nil
}

func (f *fakeRepo) GetUserByID(ctx context.Context, id uint64) (*models.User, error) {
	return f.usersByID[id], nil
}

func (f *fakeRepo) InsertRefreshToken(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	f.tokens[tokenHash] = &models.RefreshToken{UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeRepo) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	return f.tokens[tokenHash], nil
}

func (f *fakeRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	if t, ok := f.tokens[tokenHash]; ok && t.RevokedAt == nil {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

func (f *fakeRepo) RotateRefreshToken(ctx context.Context, oldHash, newHash string, userID uint64, expiresAt time.Time) error {
	_ = f.RevokeRefreshToken(context.Background(), oldHash)
	return f.InsertRefreshToken(context.Background(), userID, newHash, expiresAt)
}

type fakeLimiter struct {
	counts map[string]int64
	limit  int64
}

func (l *fakeLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	l.counts[key]++
	return l.counts[key] <= limit, l.counts[key], nil
}

func newService(repo Repository, limiter RateLimiter) *Service {
	issuer := auth.NewTokenIssuer("test-secret", 15*time.Minute)
	return New(repo, issuer, 24*time.Hour, limiter, 3)
}

func TestService_Register_Validation(t *testing.T) {
	s := newService(newFakeRepo(), nil)

	_, err := s.Register(context.Background(), models.UserCreateInput{Password: "longenough", FirstName: "A", LastName: "B"})
	require.True(t, apperr.IsKind(err, apperr.KindBadInput))

	_, err = s.Register(context.Background(), models.UserCreateInput{Email: "a@b.c", Password: "short", FirstName: "A", LastName: "B"})
	require.True(t, apperr.IsKind(err, apperr.KindBadInput))

	_, err = s.Register(context.Background(), models.UserCreateInput{Email: "a@b.c", Password: "longenough", FirstName: "A", LastName: "B", Role: "SUPERUSER"})
	require.True(t, apperr.IsKind(err, apperr.KindBadInput))
}

func TestService_Register_DefaultsRoleAndLowercasesEmail(t *testing.T) {
	repo := newFakeRepo()
	s := newService(repo, nil)

	u, err := s.Register(context.Background(), models.UserCreateInput{
		Email: "  Ops@ShipDesk.IO ", Password: "longenough", FirstName: "A", LastName: "B",
	})
	require.NoError(t, err)
	require.Equal(t, "ops@shipdesk.io", u.Email)
	require.Equal(t, models.RoleEmployee, u.Role)
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	repo := newFakeRepo()
	s := newService(repo, nil)

	in := models.UserCreateInput{Email: "a@b.c", Password: "longenough", FirstName: "A", LastName: "B"}
	_, err := s.Register(context.Background(), in)
	require.NoError(t, err)

	_, err = s.Register(context.Background(), in)
	require.True(t, apperr.IsKind(err, apperr.KindBadInput))
}

func TestService_LoginRefreshLogout(t *testing.T) {
	repo := newFakeRepo()
	s := newService(repo, nil)
	ctx := context.Background()

	_, err := s.Register(ctx, models.UserCreateInput{Email: "a@b.c", Password: "longenough", FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	_, err = s.Login(ctx, "a@b.c", "wrong")
	require.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))

	pair, err := s.Login(ctx, "a@b.c", "longenough")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	// Access token verifies and re-reads the user row.
	u, err := s.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "a@b.c", u.Email)

	// Refresh rotates: the old token stops working.
	next, err := s.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = s.Refresh(ctx, pair.RefreshToken)
	require.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))

	// Logout revokes the current token.
	require.NoError(t, s.Logout(ctx, next.RefreshToken))
	_, err = s.Refresh(ctx, next.RefreshToken)
	require.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))
}

func TestService_Login_InactiveUser(t *testing.T) {
	repo := newFakeRepo()
	s := newService(repo, nil)
	ctx := context.Background()

	u, err := s.Register(ctx, models.UserCreateInput{Email: "a@b.c", Password: "longenough", FirstName: "A", LastName: "B"})
	require.NoError(t, err)
	u.IsActive = false

	_, err = s.Login(ctx, "a@b.c", "longenough")
	require.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestService_Login_RateLimited(t *testing.T) {
	repo := newFakeRepo()
	lim := &fakeLimiter{counts: map[string]int64{}}
	s := newService(repo, lim)
	ctx := context.Background()

	_, err := s.Register(ctx, models.UserCreateInput{Email: "a@b.c", Password: "longenough", FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = s.Login(ctx, "a@b.c", "longenough")
		require.NoError(t, err)
	}
	_, err = s.Login(ctx, "a@b.c", "longenough")
	require.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))
}

func TestService_Authenticate_InactiveAfterIssue(t *testing.T) {
	repo := newFakeRepo()
	s := newService(repo, nil)
	ctx := context.Background()

	_, err := s.Register(ctx, models.UserCreateInput{Email: "a@b.c", Password: "longenough", FirstName: "A", LastName: "B"})
	require.NoError(t, err)
	pair, err := s.Login(ctx, "a@b.c", "longenough")
	require.NoError(t, err)

	// Deactivation takes effect immediately, the token stays syntactically valid.
	repo.usersByEmail["a@b.c"].IsActive = false
	_, err = s.Authenticate(ctx, pair.AccessToken)
	require.True(t, apperr.IsKind(err, apperr.KindForbidden))
}
