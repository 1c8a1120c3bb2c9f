package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uni-dcs/records-api/internal/models"
)

const sessionColumns = `id, token, start_date, end_date, is_current, is_active, created_at, updated_at`

// SessionRepository handles persistence for academic sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository instantiates a session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// List returns sessions matching provided filters, newest first.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.AcademicSession, error) {
	base := fmt.Sprintf("SELECT %s FROM academic_sessions WHERE 1=1", sessionColumns)
	var conditions []string
	var args []interface{}

	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.IsCurrent != nil {
		conditions = append(conditions, fmt.Sprintf("is_current = $%d", len(args)+1))
		args = append(args, *filter.IsCurrent)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}
	base += " ORDER BY start_date DESC"

	var sessions []models.AcademicSession
	if err := r.db.SelectContext(ctx, &sessions, base, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// FindByID loads a session by identifier.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.AcademicSession, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_sessions WHERE id = $1", sessionColumns)
	var session models.AcademicSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByToken loads a session by its YYYY/YYYY token.
func (r *SessionRepository) FindByToken(ctx context.Context, token string) (*models.AcademicSession, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_sessions WHERE token = $1", sessionColumns)
	var session models.AcademicSession
	if err := r.db.GetContext(ctx, &session, query, token); err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByTokenOrID resolves a session from either storage form. Clients
// historically sent ids where tokens were expected; a single lookup
// accepting both keeps those requests working.
func (r *SessionRepository) FindByTokenOrID(ctx context.Context, ref string) (*models.AcademicSession, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_sessions WHERE token = $1 OR id = $1", sessionColumns)
	var session models.AcademicSession
	if err := r.db.GetContext(ctx, &session, query, ref); err != nil {
		return nil, err
	}
	return &session, nil
}

// FindCurrent returns the session flagged current.
func (r *SessionRepository) FindCurrent(ctx context.Context) (*models.AcademicSession, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_sessions WHERE is_current = TRUE LIMIT 1", sessionColumns)
	var session models.AcademicSession
	if err := r.db.GetContext(ctx, &session, query); err != nil {
		return nil, err
	}
	return &session, nil
}

// Create inserts a new academic session.
func (r *SessionRepository) Create(ctx context.Context, session *models.AcademicSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	const query = `INSERT INTO academic_sessions (id, token, start_date, end_date, is_current, is_active, created_at, updated_at)
        VALUES (:id, :token, :start_date, :end_date, :is_current, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", translateUnique(err))
	}
	return nil
}

// Update modifies session dates.
func (r *SessionRepository) Update(ctx context.Context, session *models.AcademicSession) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE academic_sessions SET start_date = :start_date, end_date = :end_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// SetActive toggles the open/closed lifecycle flag.
func (r *SessionRepository) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE academic_sessions SET is_active = $2, updated_at = $3 WHERE id = $1`, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set session active: %w", err)
	}
	return nil
}

// SetCurrent marks the provided session current and demotes the rest in
// one transaction, keeping the at-most-one-current invariant.
func (r *SessionRepository) SetCurrent(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set current tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `UPDATE academic_sessions SET is_current = FALSE, updated_at = $1 WHERE is_current = TRUE AND id <> $2`, now, id); err != nil {
		return fmt.Errorf("demote current sessions: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE academic_sessions SET is_current = TRUE, updated_at = $2 WHERE id = $1`, id, now); err != nil {
		return fmt.Errorf("promote session: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit set current tx: %w", err)
	}
	return nil
}

// Delete removes a session permanently.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM academic_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
