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

const resultSelect = `SELECT r.id, r.student_id, r.course_id, r.session_token, r.semester, r.ca, r.exam, r.total,
        r.grade, r.uploaded_by, r.created_at, r.updated_at,
        u.full_name AS student_name, u.matric_no, c.code AS course_code, c.title AS course_title,
        c.credit_unit, c.level
        FROM results r
        JOIN users u ON u.id = r.student_id
        JOIN courses c ON c.id = r.course_id`

// ResultRepository handles persistence for graded results.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository instantiates a result repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// List returns result details matching provided filters with a total count.
func (r *ResultRepository) List(ctx context.Context, filter models.ResultFilter) ([]models.ResultDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("r.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("r.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.SessionToken != "" {
		conditions = append(conditions, fmt.Sprintf("r.session_token = $%d", len(args)+1))
		args = append(args, filter.SessionToken)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("r.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.UploadedBy != "" {
		conditions = append(conditions, fmt.Sprintf("r.uploaded_by = $%d", len(args)+1))
		args = append(args, filter.UploadedBy)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("%s%s ORDER BY c.code ASC, u.matric_no ASC LIMIT %d OFFSET %d", resultSelect, where, size, offset)

	var results []models.ResultDetail
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list results: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM results r" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count results: %w", err)
	}

	return results, total, nil
}

// FindByID loads a bare result row.
func (r *ResultRepository) FindByID(ctx context.Context, id string) (*models.Result, error) {
	const query = `SELECT id, student_id, course_id, session_token, semester, ca, exam, total, grade,
        uploaded_by, created_at, updated_at FROM results WHERE id = $1`
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		return nil, err
	}
	return &result, nil
}

// FindDetailByID loads a result with joined display fields.
func (r *ResultRepository) FindDetailByID(ctx context.Context, id string) (*models.ResultDetail, error) {
	query := resultSelect + " WHERE r.id = $1"
	var result models.ResultDetail
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		return nil, err
	}
	return &result, nil
}

// Create inserts a new result. The unique (student, course, session)
// index surfaces as ErrDuplicate.
func (r *ResultRepository) Create(ctx context.Context, result *models.Result) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if result.CreatedAt.IsZero() {
		result.CreatedAt = now
	}
	result.UpdatedAt = now

	const query = `INSERT INTO results (id, student_id, course_id, session_token, semester, ca, exam, total, grade,
                uploaded_by, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :session_token, :semester, :ca, :exam, :total, :grade,
                :uploaded_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create result: %w", translateUnique(err))
	}
	return nil
}

// Update rewrites the score columns of an existing result.
func (r *ResultRepository) Update(ctx context.Context, result *models.Result) error {
	result.UpdatedAt = time.Now().UTC()
	const query = `UPDATE results SET ca = :ca, exam = :exam, total = :total, grade = :grade, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("update result: %w", err)
	}
	return nil
}

// Upsert inserts the result, or on a (student, course, session) collision
// overwrites the stored scores in place. Used by bulk import where a
// re-uploaded sheet replaces earlier rows. Returns true when a new row
// was created.
func (r *ResultRepository) Upsert(ctx context.Context, result *models.Result) (bool, error) {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if result.CreatedAt.IsZero() {
		result.CreatedAt = now
	}
	result.UpdatedAt = now

	const query = `INSERT INTO results (id, student_id, course_id, session_token, semester, ca, exam, total, grade,
                uploaded_by, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :session_token, :semester, :ca, :exam, :total, :grade,
                :uploaded_by, :created_at, :updated_at)
        ON CONFLICT (student_id, course_id, session_token) DO UPDATE SET
                ca = EXCLUDED.ca, exam = EXCLUDED.exam, total = EXCLUDED.total, grade = EXCLUDED.grade,
                semester = EXCLUDED.semester, uploaded_by = EXCLUDED.uploaded_by, updated_at = EXCLUDED.updated_at
        RETURNING (xmax = 0) AS inserted`
	rows, err := r.db.NamedQueryContext(ctx, query, result)
	if err != nil {
		return false, fmt.Errorf("upsert result: %w", err)
	}
	defer rows.Close()

	inserted := false
	if rows.Next() {
		if err := rows.Scan(&inserted); err != nil {
			return false, fmt.Errorf("upsert result scan: %w", err)
		}
	}
	return inserted, nil
}

// Delete removes a result permanently.
func (r *ResultRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM results WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	return nil
}

// ListForAggregation returns a student's result details for GPA, CGPA
// and transcript computation. An empty sessionToken spans all sessions.
func (r *ResultRepository) ListForAggregation(ctx context.Context, studentID, sessionToken string) ([]models.ResultDetail, error) {
	query := resultSelect + " WHERE r.student_id = $1"
	args := []interface{}{studentID}
	if sessionToken != "" {
		query += " AND r.session_token = $2"
		args = append(args, sessionToken)
	}
	query += " ORDER BY r.session_token ASC, r.semester ASC, c.code ASC"

	var results []models.ResultDetail
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("list results for aggregation: %w", err)
	}
	return results, nil
}

// ListBySession returns every result detail in a session, unpaginated.
// Session statistics walk the full set grouped by student.
func (r *ResultRepository) ListBySession(ctx context.Context, sessionToken string) ([]models.ResultDetail, error) {
	query := resultSelect + " WHERE r.session_token = $1 ORDER BY u.matric_no ASC, c.code ASC"
	var results []models.ResultDetail
	if err := r.db.SelectContext(ctx, &results, query, sessionToken); err != nil {
		return nil, fmt.Errorf("list session results: %w", err)
	}
	return results, nil
}
