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

const examColumns = `id, course_id, title, exam_type, duration, total_marks, passing_marks, instructions,
        session_token, semester, is_active, start_at, end_at, created_by, created_at, updated_at`

const questionColumns = `id, exam_id, position, question_type, text, marks, options, correct_answer, model_answer`

// ExamRepository handles persistence for exams and their questions.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository instantiates an exam repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// List returns exams matching provided filters, newest first.
func (r *ExamRepository) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, error) {
	base := fmt.Sprintf("SELECT %s FROM exams WHERE 1=1", examColumns)
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.SessionToken != "" {
		conditions = append(conditions, fmt.Sprintf("session_token = $%d", len(args)+1))
		args = append(args, filter.SessionToken)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.CreatedBy != "" {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}
	base += " ORDER BY created_at DESC"

	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, base, args...); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return exams, nil
}

// FindByID loads an exam with its questions in position order.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	query := fmt.Sprintf("SELECT %s FROM exams WHERE id = $1", examColumns)
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, err
	}

	questionQuery := fmt.Sprintf("SELECT %s FROM exam_questions WHERE exam_id = $1 ORDER BY position ASC", questionColumns)
	if err := r.db.SelectContext(ctx, &exam.Questions, questionQuery, id); err != nil {
		return nil, fmt.Errorf("load exam questions: %w", err)
	}
	return &exam, nil
}

// Create inserts a new exam together with any initial questions, in one
// transaction. TotalMarks is set from the question sum before insert.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = now
	}
	exam.UpdatedAt = now

	total := 0
	for i := range exam.Questions {
		q := &exam.Questions[i]
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		q.ExamID = exam.ID
		q.Position = i + 1
		total += q.Marks
	}
	exam.TotalMarks = total

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create exam tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const examQuery = `INSERT INTO exams (id, course_id, title, exam_type, duration, total_marks, passing_marks,
                instructions, session_token, semester, is_active, start_at, end_at, created_by, created_at, updated_at)
        VALUES (:id, :course_id, :title, :exam_type, :duration, :total_marks, :passing_marks,
                :instructions, :session_token, :semester, :is_active, :start_at, :end_at, :created_by, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, examQuery, exam); err != nil {
		return fmt.Errorf("create exam: %w", translateUnique(err))
	}

	const questionQuery = `INSERT INTO exam_questions (id, exam_id, position, question_type, text, marks, options, correct_answer, model_answer)
        VALUES (:id, :exam_id, :position, :question_type, :text, :marks, :options, :correct_answer, :model_answer)`
	for i := range exam.Questions {
		if _, err = tx.NamedExecContext(ctx, questionQuery, &exam.Questions[i]); err != nil {
			return fmt.Errorf("create exam question: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create exam tx: %w", err)
	}
	return nil
}

// Update modifies exam metadata. Questions and the derived total are
// untouched here; use the question operations for those.
func (r *ExamRepository) Update(ctx context.Context, exam *models.Exam) error {
	exam.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exams SET title = :title, exam_type = :exam_type, duration = :duration,
                passing_marks = :passing_marks, instructions = :instructions, is_active = :is_active,
                start_at = :start_at, end_at = :end_at, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	return nil
}

// Delete removes an exam and its questions permanently.
func (r *ExamRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete exam tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM exam_questions WHERE exam_id = $1`, id); err != nil {
		return fmt.Errorf("delete exam questions: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM exams WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete exam tx: %w", err)
	}
	return nil
}

// AddQuestion appends a question at the next position and recomputes the
// exam's total marks in the same transaction.
func (r *ExamRepository) AddQuestion(ctx context.Context, examID string, question *models.ExamQuestion) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	question.ExamID = examID

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add question tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = tx.GetContext(ctx, &question.Position, `SELECT COALESCE(MAX(position), 0) + 1 FROM exam_questions WHERE exam_id = $1`, examID); err != nil {
		return fmt.Errorf("next question position: %w", err)
	}

	const query = `INSERT INTO exam_questions (id, exam_id, position, question_type, text, marks, options, correct_answer, model_answer)
        VALUES (:id, :exam_id, :position, :question_type, :text, :marks, :options, :correct_answer, :model_answer)`
	if _, err = tx.NamedExecContext(ctx, query, question); err != nil {
		return fmt.Errorf("add question: %w", err)
	}

	if err = recomputeTotalMarks(ctx, tx, examID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit add question tx: %w", err)
	}
	return nil
}

// UpdateQuestion rewrites a question and recomputes the exam total.
func (r *ExamRepository) UpdateQuestion(ctx context.Context, question *models.ExamQuestion) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update question tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE exam_questions SET question_type = :question_type, text = :text, marks = :marks,
                options = :options, correct_answer = :correct_answer, model_answer = :model_answer
        WHERE id = :id AND exam_id = :exam_id`
	var res sql.Result
	res, err = tx.NamedExecContext(ctx, query, question)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	affected, raErr := res.RowsAffected()
	if raErr != nil {
		err = fmt.Errorf("update question rows: %w", raErr)
		return err
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = recomputeTotalMarks(ctx, tx, question.ExamID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update question tx: %w", err)
	}
	return nil
}

// DeleteQuestion removes a question and recomputes the exam total.
func (r *ExamRepository) DeleteQuestion(ctx context.Context, examID, questionID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete question tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx, `DELETE FROM exam_questions WHERE id = $1 AND exam_id = $2`, questionID, examID)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	affected, raErr := res.RowsAffected()
	if raErr != nil {
		err = fmt.Errorf("delete question rows: %w", raErr)
		return err
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = recomputeTotalMarks(ctx, tx, examID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete question tx: %w", err)
	}
	return nil
}

func recomputeTotalMarks(ctx context.Context, tx *sqlx.Tx, examID string) error {
	const query = `UPDATE exams SET
                total_marks = (SELECT COALESCE(SUM(marks), 0) FROM exam_questions WHERE exam_id = $1),
                updated_at = $2
        WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, examID, time.Now().UTC()); err != nil {
		return fmt.Errorf("recompute total marks: %w", err)
	}
	return nil
}
