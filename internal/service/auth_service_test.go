package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/uni-dcs/records-api/internal/models"
	"github.com/uni-dcs/records-api/pkg/config"
	appErrors "github.com/uni-dcs/records-api/pkg/errors"
)

type authStoreStub struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	revokedAll    string
	stored        []*models.RefreshToken
}

func (s *authStoreStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *authStoreStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authStoreStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (s *authStoreStub) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	s.users[id].PasswordHash = passwordHash
	return nil
}

func (s *authStoreStub) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if s.refreshTokens == nil {
		s.refreshTokens = map[string]*models.RefreshToken{}
	}
	s.refreshTokens[token.Token] = token
	s.stored = append(s.stored, token)
	return nil
}

func (s *authStoreStub) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := s.refreshTokens[token]; ok {
		return stored, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authStoreStub) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range s.refreshTokens {
		if token.ID == id {
			token.Revoked = true
		}
	}
	return nil
}

func (s *authStoreStub) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	s.revokedAll = userID
	return nil
}

func authFixture(t *testing.T) (*AuthService, *authStoreStub) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	store := &authStoreStub{users: map[string]*models.User{
		"usr-1": {
			ID:           "usr-1",
			Email:        "ada@uni.edu",
			PasswordHash: string(hash),
			FullName:     "Ada Obi",
			Role:         models.RoleAdmin,
			Active:       true,
		},
	}}
	cfg := config.JWTConfig{
		Secret:            "test-secret",
		Expiration:        time.Hour,
		RefreshExpiration: 24 * time.Hour,
		Issuer:            "records-api",
	}
	return NewAuthService(store, cfg, nil, nil), store
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, store := authFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@uni.edu", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "usr-1", resp.User.ID)
	require.Len(t, store.stored, 1)

	claims, err := svc.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := authFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@uni.edu", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	svc, _ := authFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@uni.edu", Password: "secret123"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, store := authFixture(t)
	store.users["usr-1"].Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@uni.edu", Password: "secret123"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInactiveAccount))
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, store := authFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@uni.edu", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.True(t, store.refreshTokens[login.RefreshToken].Revoked, "used token must be revoked")
}

func TestRefreshRevokedTokenRevokesFamily(t *testing.T) {
	svc, store := authFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@uni.edu", Password: "secret123"})
	require.NoError(t, err)
	store.refreshTokens[login.RefreshToken].Revoked = true

	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
	assert.Equal(t, "usr-1", store.revokedAll)
}

func TestChangePasswordVerifiesOldCredential(t *testing.T) {
	svc, store := authFixture(t)

	err := svc.ChangePassword(context.Background(), "usr-1", models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newsecret"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))

	require.NoError(t, svc.ChangePassword(context.Background(), "usr-1", models.ChangePasswordRequest{OldPassword: "secret123", NewPassword: "newsecret"}))
	assert.Equal(t, "usr-1", store.revokedAll)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(store.users["usr-1"].PasswordHash), []byte("newsecret")))
}

func TestParseTokenRejectsTampering(t *testing.T) {
	svc, _ := authFixture(t)

	_, err := svc.ParseToken("not-a-token")
	require.Error(t, err)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@uni.edu", Password: "secret123"})
	require.NoError(t, err)

	other := NewAuthService(&authStoreStub{}, config.JWTConfig{Secret: "other-secret", Expiration: time.Hour}, nil, nil)
	_, err = other.ParseToken(resp.AccessToken)
	require.Error(t, err)
}
