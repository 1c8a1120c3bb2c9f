package models

import (
	"time"

	"github.com/lib/pq"
)

// ExamType classifies the assessment instrument.
type ExamType string

const (
	ExamTypeObjective ExamType = "objective"
	ExamTypeTheory    ExamType = "theory"
	ExamTypeMixed     ExamType = "mixed"
)

// QuestionType classifies a single exam question.
type QuestionType string

const (
	QuestionObjective QuestionType = "objective"
	QuestionTheory    QuestionType = "theory"
)

// Exam is a structured assessment bound to a course/session/semester.
// TotalMarks is always the sum of the contained question marks and is
// recomputed whenever a question is added, updated or removed.
type Exam struct {
	ID           string     `db:"id" json:"id"`
	CourseID     string     `db:"course_id" json:"course_id"`
	Title        string     `db:"title" json:"title"`
	ExamType     ExamType   `db:"exam_type" json:"exam_type"`
	Duration     int        `db:"duration" json:"duration"`
	TotalMarks   int        `db:"total_marks" json:"total_marks"`
	PassingMarks int        `db:"passing_marks" json:"passing_marks"`
	Instructions string     `db:"instructions" json:"instructions"`
	SessionToken string     `db:"session_token" json:"session"`
	Semester     Semester   `db:"semester" json:"semester"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	StartAt      *time.Time `db:"start_at" json:"start_at,omitempty"`
	EndAt        *time.Time `db:"end_at" json:"end_at,omitempty"`
	CreatedBy    string     `db:"created_by" json:"created_by"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`

	Questions []ExamQuestion `json:"questions,omitempty"`
}

// ExamQuestion is one ordered question inside an exam.
type ExamQuestion struct {
	ID            string         `db:"id" json:"id"`
	ExamID        string         `db:"exam_id" json:"exam_id"`
	Position      int            `db:"position" json:"position"`
	QuestionType  QuestionType   `db:"question_type" json:"question_type"`
	Text          string         `db:"text" json:"text"`
	Marks         int            `db:"marks" json:"marks"`
	Options       pq.StringArray `db:"options" json:"options,omitempty"`
	CorrectAnswer *string        `db:"correct_answer" json:"correct_answer,omitempty"`
	ModelAnswer   *string        `db:"model_answer" json:"model_answer,omitempty"`
}

// ExamFilter captures filtering for exam listings.
type ExamFilter struct {
	CourseID     string
	SessionToken string
	Semester     Semester
	IsActive     *bool
	CreatedBy    string
}
