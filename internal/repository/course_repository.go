package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uni-dcs/records-api/internal/models"
)

const courseSelect = `SELECT c.id, c.code, c.title, c.description, c.lecturer_id, c.department_id, c.level,
        c.credit_unit, c.semester, c.session_token, c.is_active, c.created_at, c.updated_at,
        c.registration_open, c.registration_deadline, c.registration_open_date, c.max_students,
        u.full_name AS lecturer_name, d.name AS department_name,
        (SELECT COUNT(*) FROM course_registrations cr WHERE cr.course_id = c.id) AS roster_count
        FROM courses c
        JOIN users u ON u.id = c.lecturer_id
        JOIN departments d ON d.id = c.department_id`

// CourseAvailability pairs a course row with the acting student's
// membership, resolved in the same query as the roster count.
type CourseAvailability struct {
	models.CourseDetail
	IsRegistered bool `db:"is_registered"`
}

// CourseRepository handles persistence for courses and their rosters.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository instantiates a course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns course details matching provided filters with a total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("c.department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.LecturerID != "" {
		conditions = append(conditions, fmt.Sprintf("c.lecturer_id = $%d", len(args)+1))
		args = append(args, filter.LecturerID)
	}
	if filter.SessionToken != "" {
		conditions = append(conditions, fmt.Sprintf("c.session_token = $%d", len(args)+1))
		args = append(args, filter.SessionToken)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("c.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Level != nil {
		conditions = append(conditions, fmt.Sprintf("c.level = $%d", len(args)+1))
		args = append(args, *filter.Level)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("c.is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
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

	query := fmt.Sprintf("%s%s ORDER BY c.code ASC LIMIT %d OFFSET %d", courseSelect, where, size, offset)

	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM courses c" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	return courses, total, nil
}

// ListBySession returns every course detail for a session, unpaginated.
// Used by registration statistics which re-evaluate the window per course.
func (r *CourseRepository) ListBySession(ctx context.Context, sessionToken string) ([]models.CourseDetail, error) {
	query := courseSelect + " WHERE c.session_token = $1 ORDER BY c.code ASC"
	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, sessionToken); err != nil {
		return nil, fmt.Errorf("list session courses: %w", err)
	}
	return courses, nil
}

// FindByID loads a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, code, title, description, lecturer_id, department_id, level, credit_unit, semester,
        session_token, is_active, created_at, updated_at,
        registration_open, registration_deadline, registration_open_date, max_students
        FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindDetailByID loads a course with joined display fields.
func (r *CourseRepository) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	query := courseSelect + " WHERE c.id = $1"
	var course models.CourseDetail
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	if course.RegistrationOpenDate == nil {
		course.RegistrationOpenDate = &now
	}

	const query = `INSERT INTO courses (id, code, title, description, lecturer_id, department_id, level, credit_unit,
                semester, session_token, is_active, created_at, updated_at,
                registration_open, registration_deadline, registration_open_date, max_students)
        VALUES (:id, :code, :title, :description, :lecturer_id, :department_id, :level, :credit_unit,
                :semester, :session_token, :is_active, :created_at, :updated_at,
                :registration_open, :registration_deadline, :registration_open_date, :max_students)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", translateUnique(err))
	}
	return nil
}

// Update modifies an existing course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET code = :code, title = :title, description = :description,
                lecturer_id = :lecturer_id, department_id = :department_id, level = :level,
                credit_unit = :credit_unit, semester = :semester, session_token = :session_token,
                is_active = :is_active, updated_at = :updated_at,
                registration_open = :registration_open, registration_deadline = :registration_deadline,
                registration_open_date = :registration_open_date, max_students = :max_students
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", translateUnique(err))
	}
	return nil
}

// Delete removes a course permanently.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// CountResults returns the number of results referencing the course.
func (r *CourseRepository) CountResults(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM results WHERE course_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count course results: %w", err)
	}
	return count, nil
}

// BulkSetDeadline stamps a registration deadline on every course in the
// session, optionally restricted to one department. Returns rows touched.
func (r *CourseRepository) BulkSetDeadline(ctx context.Context, sessionToken, departmentID string, deadline time.Time) (int64, error) {
	query := `UPDATE courses SET registration_deadline = $1, updated_at = $2 WHERE session_token = $3`
	args := []interface{}{deadline, time.Now().UTC(), sessionToken}
	if departmentID != "" {
		query += " AND department_id = $4"
		args = append(args, departmentID)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk set deadline: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk set deadline rows: %w", err)
	}
	return affected, nil
}

// RosterCount returns the current enrollment for a course.
func (r *CourseRepository) RosterCount(ctx context.Context, courseID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM course_registrations WHERE course_id = $1`, courseID); err != nil {
		return 0, fmt.Errorf("count roster: %w", err)
	}
	return count, nil
}

// IsRegistered reports whether the student is on the course roster.
func (r *CourseRepository) IsRegistered(ctx context.Context, courseID, studentID string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM course_registrations WHERE course_id = $1 AND student_id = $2 LIMIT 1`, courseID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check registration: %w", err)
	}
	return true, nil
}

// AppendToRoster adds the student to the roster. When maxStudents is
// set the insert is conditional on the live roster count, so two racing
// registrations cannot exceed capacity. Returns false when the course
// is full; ErrDuplicate when the student is already on the roster.
func (r *CourseRepository) AppendToRoster(ctx context.Context, courseID, studentID string, maxStudents *int) (bool, error) {
	now := time.Now().UTC()
	if maxStudents == nil {
		const query = `INSERT INTO course_registrations (course_id, student_id, registered_at) VALUES ($1, $2, $3)`
		if _, err := r.db.ExecContext(ctx, query, courseID, studentID, now); err != nil {
			return false, fmt.Errorf("append roster: %w", translateUnique(err))
		}
		return true, nil
	}

	const query = `INSERT INTO course_registrations (course_id, student_id, registered_at)
        SELECT $1, $2, $3
        WHERE (SELECT COUNT(*) FROM course_registrations WHERE course_id = $1) < $4`
	res, err := r.db.ExecContext(ctx, query, courseID, studentID, now, *maxStudents)
	if err != nil {
		return false, fmt.Errorf("append roster: %w", translateUnique(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append roster rows: %w", err)
	}
	return affected > 0, nil
}

// RemoveFromRoster drops the student from the roster. Returns false
// when the student was not registered.
func (r *CourseRepository) RemoveFromRoster(ctx context.Context, courseID, studentID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM course_registrations WHERE course_id = $1 AND student_id = $2`, courseID, studentID)
	if err != nil {
		return false, fmt.Errorf("remove from roster: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove from roster rows: %w", err)
	}
	return affected > 0, nil
}

// ListAvailability returns courses for a department/level/session with
// the student's membership resolved per row.
func (r *CourseRepository) ListAvailability(ctx context.Context, studentID, departmentID string, level int, sessionToken string) ([]CourseAvailability, error) {
	query := `SELECT c.id, c.code, c.title, c.description, c.lecturer_id, c.department_id, c.level,
        c.credit_unit, c.semester, c.session_token, c.is_active, c.created_at, c.updated_at,
        c.registration_open, c.registration_deadline, c.registration_open_date, c.max_students,
        u.full_name AS lecturer_name, d.name AS department_name,
        (SELECT COUNT(*) FROM course_registrations cr WHERE cr.course_id = c.id) AS roster_count,
        EXISTS(SELECT 1 FROM course_registrations cr WHERE cr.course_id = c.id AND cr.student_id = $1) AS is_registered
        FROM courses c
        JOIN users u ON u.id = c.lecturer_id
        JOIN departments d ON d.id = c.department_id
        WHERE c.department_id = $2 AND c.level = $3 AND c.session_token = $4 AND c.is_active = TRUE
        ORDER BY c.code ASC`
	var rows []CourseAvailability
	if err := r.db.SelectContext(ctx, &rows, query, studentID, departmentID, level, sessionToken); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return rows, nil
}

// ListRoster returns the students enrolled in a course, in matric order.
func (r *CourseRepository) ListRoster(ctx context.Context, courseID string) ([]models.User, error) {
	const query = `SELECT u.id, u.email, u.password_hash, u.full_name, u.role, u.active, u.last_login,
        u.created_at, u.updated_at, u.matric_no, u.department_id, u.level, u.program,
        u.staff_id, u.rank, u.specialization
        FROM users u
        JOIN course_registrations cr ON cr.student_id = u.id
        WHERE cr.course_id = $1
        ORDER BY u.matric_no ASC`
	var students []models.User
	if err := r.db.SelectContext(ctx, &students, query, courseID); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return students, nil
}

// ListRegistered returns the courses the student is enrolled in for a session.
func (r *CourseRepository) ListRegistered(ctx context.Context, studentID, sessionToken string) ([]models.CourseDetail, error) {
	query := courseSelect + ` JOIN course_registrations reg ON reg.course_id = c.id AND reg.student_id = $1
        WHERE c.session_token = $2 ORDER BY c.code ASC`
	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, studentID, sessionToken); err != nil {
		return nil, fmt.Errorf("list registered courses: %w", err)
	}
	return courses, nil
}
