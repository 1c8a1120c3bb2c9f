package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-dcs/records-api/internal/dto"
	"github.com/uni-dcs/records-api/internal/models"
	appErrors "github.com/uni-dcs/records-api/pkg/errors"
)

type sessionStoreStub struct {
	sessions       map[string]*models.AcademicSession
	current        *models.AcademicSession
	created        *models.AcademicSession
	setCurrentID   string
	setActiveID    string
	setActiveValue bool
	deletedID      string
}

func (s *sessionStoreStub) List(ctx context.Context, filter models.SessionFilter) ([]models.AcademicSession, error) {
	out := make([]models.AcademicSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, *session)
	}
	return out, nil
}

func (s *sessionStoreStub) FindByID(ctx context.Context, id string) (*models.AcademicSession, error) {
	return s.FindByTokenOrID(ctx, id)
}

func (s *sessionStoreStub) FindByToken(ctx context.Context, token string) (*models.AcademicSession, error) {
	return s.FindByTokenOrID(ctx, token)
}

func (s *sessionStoreStub) FindByTokenOrID(ctx context.Context, ref string) (*models.AcademicSession, error) {
	for _, session := range s.sessions {
		if session.Token == ref || session.ID == ref {
			copied := *session
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *sessionStoreStub) FindCurrent(ctx context.Context) (*models.AcademicSession, error) {
	if s.current == nil {
		return nil, sql.ErrNoRows
	}
	copied := *s.current
	return &copied, nil
}

func (s *sessionStoreStub) Create(ctx context.Context, session *models.AcademicSession) error {
	session.ID = "ses-new"
	s.created = session
	return nil
}

func (s *sessionStoreStub) Update(ctx context.Context, session *models.AcademicSession) error {
	return nil
}

func (s *sessionStoreStub) SetActive(ctx context.Context, id string, active bool) error {
	s.setActiveID = id
	s.setActiveValue = active
	return nil
}

func (s *sessionStoreStub) SetCurrent(ctx context.Context, id string) error {
	s.setCurrentID = id
	return nil
}

func (s *sessionStoreStub) Delete(ctx context.Context, id string) error {
	s.deletedID = id
	return nil
}

func sessionFixture(id, token string, active, current bool) *models.AcademicSession {
	return &models.AcademicSession{
		ID:        id,
		Token:     token,
		StartDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC),
		IsActive:  active,
		IsCurrent: current,
	}
}

func TestSessionCreateValidatesToken(t *testing.T) {
	svc := NewSessionService(&sessionStoreStub{sessions: map[string]*models.AcademicSession{}}, nil, nil)

	cases := []string{"2024-2025", "24/25", "2024/2024", "2024/2026", "abcd/efgh"}
	for _, token := range cases {
		_, err := svc.Create(context.Background(), dto.CreateSessionRequest{
			Token:     token,
			StartDate: "2024-09-01T00:00:00Z",
			EndDate:   "2025-07-31T00:00:00Z",
		})
		require.Error(t, err, "token %q", token)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation), "token %q", token)
	}
}

func TestSessionCreateStartsActive(t *testing.T) {
	store := &sessionStoreStub{sessions: map[string]*models.AcademicSession{}}
	svc := NewSessionService(store, nil, nil)

	session, err := svc.Create(context.Background(), dto.CreateSessionRequest{
		Token:     "2024/2025",
		StartDate: "2024-09-01T00:00:00Z",
		EndDate:   "2025-07-31T00:00:00Z",
		IsCurrent: true,
	})
	require.NoError(t, err)
	assert.True(t, session.IsActive)
	assert.True(t, session.IsCurrent)
	assert.Equal(t, "ses-new", store.setCurrentID)
}

func TestSessionCreateRejectsInvertedDates(t *testing.T) {
	svc := NewSessionService(&sessionStoreStub{sessions: map[string]*models.AcademicSession{}}, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateSessionRequest{
		Token:     "2024/2025",
		StartDate: "2025-07-31T00:00:00Z",
		EndDate:   "2024-09-01T00:00:00Z",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSessionGetAcceptsTokenOrID(t *testing.T) {
	store := &sessionStoreStub{sessions: map[string]*models.AcademicSession{
		"ses-1": sessionFixture("ses-1", "2024/2025", true, true),
	}}
	svc := NewSessionService(store, nil, nil)

	byToken, err := svc.Get(context.Background(), "2024/2025")
	require.NoError(t, err)
	byID, err := svc.Get(context.Background(), "ses-1")
	require.NoError(t, err)
	assert.Equal(t, byToken.ID, byID.ID)
}

func TestEnsureMutableAdminBypassesClosedSession(t *testing.T) {
	store := &sessionStoreStub{sessions: map[string]*models.AcademicSession{
		"ses-1": sessionFixture("ses-1", "2023/2024", false, false),
	}}
	svc := NewSessionService(store, nil, nil)

	err := svc.EnsureMutable(context.Background(), "2023/2024", models.RoleLecturer)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrSessionClosed))

	require.NoError(t, svc.EnsureMutable(context.Background(), "2023/2024", models.RoleAdmin))
}

func TestEnsureMutableMissingSessionIsNotFound(t *testing.T) {
	svc := NewSessionService(&sessionStoreStub{sessions: map[string]*models.AcademicSession{}}, nil, nil)

	err := svc.EnsureMutable(context.Background(), "2019/2020", models.RoleLecturer)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestResolveTokenFallsBackToCurrent(t *testing.T) {
	current := sessionFixture("ses-2", "2024/2025", true, true)
	store := &sessionStoreStub{
		sessions: map[string]*models.AcademicSession{
			"ses-1": sessionFixture("ses-1", "2023/2024", false, false),
			"ses-2": current,
		},
		current: current,
	}
	svc := NewSessionService(store, nil, nil)

	token, err := svc.ResolveToken(context.Background(), "2023/2024")
	require.NoError(t, err)
	assert.Equal(t, "2023/2024", token)

	token, err = svc.ResolveToken(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "2024/2025", token)
}

func TestDeleteRefusesCurrentSession(t *testing.T) {
	store := &sessionStoreStub{sessions: map[string]*models.AcademicSession{
		"ses-1": sessionFixture("ses-1", "2024/2025", true, true),
	}}
	svc := NewSessionService(store, nil, nil)

	err := svc.Delete(context.Background(), "2024/2025")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Empty(t, store.deletedID)
}

func TestCloseAndReopen(t *testing.T) {
	store := &sessionStoreStub{sessions: map[string]*models.AcademicSession{
		"ses-1": sessionFixture("ses-1", "2024/2025", true, false),
	}}
	svc := NewSessionService(store, nil, nil)

	session, err := svc.Close(context.Background(), "2024/2025")
	require.NoError(t, err)
	assert.False(t, session.IsActive)
	assert.Equal(t, "ses-1", store.setActiveID)
	assert.False(t, store.setActiveValue)
}
