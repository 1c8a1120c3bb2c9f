package models

import "time"

// LetterGrade is the letter outcome of a graded result.
type LetterGrade string

const (
	GradeA LetterGrade = "A"
	GradeB LetterGrade = "B"
	GradeC LetterGrade = "C"
	GradeD LetterGrade = "D"
	GradeE LetterGrade = "E"
	GradeF LetterGrade = "F"
)

// Result records one student's outcome in one course for one session.
// Total and Grade are derived on every write to CA or Exam. Exactly one
// result may exist per (student, course, session), enforced by a unique
// index.
type Result struct {
	ID           string      `db:"id" json:"id"`
	StudentID    string      `db:"student_id" json:"student_id"`
	CourseID     string      `db:"course_id" json:"course_id"`
	SessionToken string      `db:"session_token" json:"session"`
	Semester     Semester    `db:"semester" json:"semester"`
	CA           float64     `db:"ca" json:"ca"`
	Exam         float64     `db:"exam" json:"exam"`
	Total        float64     `db:"total" json:"total"`
	Grade        LetterGrade `db:"grade" json:"grade"`
	UploadedBy   string      `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// ResultDetail joins student and course display fields onto a result.
type ResultDetail struct {
	Result
	StudentName string `db:"student_name" json:"student_name"`
	MatricNo    string `db:"matric_no" json:"matric_no"`
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseTitle string `db:"course_title" json:"course_title"`
	CreditUnit  int    `db:"credit_unit" json:"credit_unit"`
	Level       int    `db:"level" json:"level"`
}

// ResultFilter captures filtering for result listings.
type ResultFilter struct {
	StudentID    string
	CourseID     string
	SessionToken string
	Semester     Semester
	UploadedBy   string
	Page         int
	PageSize     int
}
