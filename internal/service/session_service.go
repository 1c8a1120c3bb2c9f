package service

import (
	"context"
	"database/sql"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uni-dcs/records-api/internal/dto"
	"github.com/uni-dcs/records-api/internal/models"
	appErrors "github.com/uni-dcs/records-api/pkg/errors"
)

var sessionTokenPattern = regexp.MustCompile(`^\d{4}/\d{4}$`)

type sessionStore interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.AcademicSession, error)
	FindByID(ctx context.Context, id string) (*models.AcademicSession, error)
	FindByToken(ctx context.Context, token string) (*models.AcademicSession, error)
	FindByTokenOrID(ctx context.Context, ref string) (*models.AcademicSession, error)
	FindCurrent(ctx context.Context) (*models.AcademicSession, error)
	Create(ctx context.Context, session *models.AcademicSession) error
	Update(ctx context.Context, session *models.AcademicSession) error
	SetActive(ctx context.Context, id string, active bool) error
	SetCurrent(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// SessionService manages the academic session lifecycle and gates
// session-scoped mutations.
type SessionService struct {
	repo      sessionStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService builds a SessionService with sane defaults.
func NewSessionService(repo sessionStore, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, validator: validate, logger: logger}
}

// List returns sessions matching the filter, newest first.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.AcademicSession, error) {
	sessions, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, nil
}

// Get loads a session by token or id.
func (s *SessionService) Get(ctx context.Context, ref string) (*models.AcademicSession, error) {
	session, err := s.repo.FindByTokenOrID(ctx, ref)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// Current returns the session flagged current, if any.
func (s *SessionService) Current(ctx context.Context) (*models.AcademicSession, error) {
	session, err := s.repo.FindCurrent(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no current session is set")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current session")
	}
	return session, nil
}

// Create opens a new academic session. The token must be consecutive
// years in YYYY/YYYY form. New sessions start active; at most one
// session is current at a time.
func (s *SessionService) Create(ctx context.Context, req dto.CreateSessionRequest) (*models.AcademicSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if err := validateSessionToken(req.Token); err != nil {
		return nil, err
	}

	start, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be RFC3339")
	}
	end, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be RFC3339")
	}
	if !end.After(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be after start_date")
	}

	session := &models.AcademicSession{
		Token:     req.Token,
		StartDate: start,
		EndDate:   end,
		IsActive:  true,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		if isDuplicate(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "session token already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	if req.IsCurrent {
		if err := s.repo.SetCurrent(ctx, session.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark session current")
		}
		session.IsCurrent = true
	}

	s.logger.Info("session created", zap.String("token", session.Token), zap.Bool("current", session.IsCurrent))
	return session, nil
}

// Update adjusts the date window of a session.
func (s *SessionService) Update(ctx context.Context, ref string, req dto.UpdateSessionRequest) (*models.AcademicSession, error) {
	session, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	if req.StartDate != nil {
		start, err := time.Parse(time.RFC3339, *req.StartDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be RFC3339")
		}
		session.StartDate = start
	}
	if req.EndDate != nil {
		end, err := time.Parse(time.RFC3339, *req.EndDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be RFC3339")
		}
		session.EndDate = end
	}
	if !session.EndDate.After(session.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be after start_date")
	}

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	return session, nil
}

// Close marks a session inactive, freezing its results and exams for
// non-admin callers. Closing never touches the current flag.
func (s *SessionService) Close(ctx context.Context, ref string) (*models.AcademicSession, error) {
	return s.setActive(ctx, ref, false)
}

// Reopen reactivates a closed session.
func (s *SessionService) Reopen(ctx context.Context, ref string) (*models.AcademicSession, error) {
	return s.setActive(ctx, ref, true)
}

func (s *SessionService) setActive(ctx context.Context, ref string, active bool) (*models.AcademicSession, error) {
	session, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if session.IsActive == active {
		return session, nil
	}
	if err := s.repo.SetActive(ctx, session.ID, active); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session state")
	}
	session.IsActive = active
	s.logger.Info("session lifecycle change", zap.String("token", session.Token), zap.Bool("active", active))
	return session, nil
}

// SetCurrent promotes the session to current, demoting any other.
func (s *SessionService) SetCurrent(ctx context.Context, ref string) (*models.AcademicSession, error) {
	session, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetCurrent(ctx, session.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark session current")
	}
	session.IsCurrent = true
	s.logger.Info("session marked current", zap.String("token", session.Token))
	return session, nil
}

// Delete removes a session. The current session cannot be deleted.
func (s *SessionService) Delete(ctx context.Context, ref string) error {
	session, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}
	if session.IsCurrent {
		return appErrors.Clone(appErrors.ErrConflict, "cannot delete the current session")
	}
	if err := s.repo.Delete(ctx, session.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	return nil
}

// ResolveToken resolves the session token a write should land in. An
// explicit reference wins; otherwise the current session is used.
func (s *SessionService) ResolveToken(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		session, err := s.Get(ctx, explicit)
		if err != nil {
			return "", err
		}
		return session.Token, nil
	}
	current, err := s.Current(ctx)
	if err != nil {
		return "", err
	}
	return current.Token, nil
}

// EnsureMutable enforces the session gate on result and exam writes.
// Admins bypass the gate; everyone else is refused when the session is
// closed. A missing session is NotFound, not a policy refusal.
func (s *SessionService) EnsureMutable(ctx context.Context, sessionRef string, role models.UserRole) error {
	session, err := s.Get(ctx, sessionRef)
	if err != nil {
		return err
	}
	if role == models.RoleAdmin {
		return nil
	}
	if !session.IsActive {
		return appErrors.Clone(appErrors.ErrSessionClosed, "")
	}
	return nil
}

func validateSessionToken(token string) error {
	if !sessionTokenPattern.MatchString(token) {
		return appErrors.Clone(appErrors.ErrValidation, "session token must be in YYYY/YYYY format")
	}
	first, _ := strconv.Atoi(token[:4])
	second, _ := strconv.Atoi(token[5:])
	if second != first+1 {
		return appErrors.Clone(appErrors.ErrValidation, "session years must be consecutive")
	}
	return nil
}
