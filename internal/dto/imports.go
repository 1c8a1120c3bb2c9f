package dto

import "github.com/uni-dcs/records-api/internal/models"

// ImportResultRow is one row of a bulk result upload.
type ImportResultRow struct {
	MatricNo string  `json:"matric_no" validate:"required"`
	CA       float64 `json:"ca" validate:"min=0,max=40"`
	Exam     float64 `json:"exam" validate:"min=0,max=60"`
}

// ImportResultsRequest uploads a sheet of scores for one course.
type ImportResultsRequest struct {
	CourseID string            `json:"course_id" validate:"required,uuid"`
	Session  string            `json:"session,omitempty"`
	Semester models.Semester   `json:"semester" validate:"required,oneof=First Second"`
	// Rows are validated one by one so a bad row is reported, not fatal.
	Rows []ImportResultRow `json:"rows" validate:"required,min=1"`
}

// ImportRowError describes one rejected row, keyed by its sheet position.
type ImportRowError struct {
	Row      int    `json:"row"`
	MatricNo string `json:"matric_no,omitempty"`
	Reason   string `json:"reason"`
}

// ImportRowSuccess records one row that landed, with the score and
// letter grade derived for it.
type ImportRowSuccess struct {
	Row      int                `json:"row"`
	MatricNo string             `json:"matric_no"`
	Total    float64            `json:"total"`
	Grade    models.LetterGrade `json:"grade"`
	Updated  bool               `json:"updated"`
}

// ImportReport summarises a bulk result upload. Failed rows never abort
// the batch. Both arrays are always present, even when empty, and every
// count is derived from their lengths.
type ImportReport struct {
	Success  []ImportRowSuccess `json:"success"`
	Failed   []ImportRowError   `json:"failed"`
	Duration string             `json:"duration"`
}

// Total is the number of rows processed.
func (r *ImportReport) Total() int { return len(r.Success) + len(r.Failed) }

// Created counts success rows that inserted a fresh result.
func (r *ImportReport) Created() int {
	n := 0
	for _, row := range r.Success {
		if !row.Updated {
			n++
		}
	}
	return n
}

// Updated counts success rows that replaced an earlier result.
func (r *ImportReport) Updated() int { return len(r.Success) - r.Created() }

// ImportStudentRow is one row of a bulk student upload.
type ImportStudentRow struct {
	MatricNo string `json:"matric_no" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Level    int    `json:"level" validate:"required,oneof=100 200 300 400 500"`
	Program  string `json:"program,omitempty"`
}

// ImportStudentsRequest uploads a sheet of students into a department.
type ImportStudentsRequest struct {
	DepartmentID string             `json:"department_id" validate:"required,uuid"`
	Rows         []ImportStudentRow `json:"rows" validate:"required,min=1"`
}

// ImportStudentSuccess records one provisioned student account.
type ImportStudentSuccess struct {
	Row       int    `json:"row"`
	MatricNo  string `json:"matric_no"`
	StudentID string `json:"student_id"`
	Email     string `json:"email"`
}

// StudentImportReport mirrors ImportReport for account onboarding.
type StudentImportReport struct {
	Success  []ImportStudentSuccess `json:"success"`
	Failed   []ImportRowError       `json:"failed"`
	Duration string                 `json:"duration"`
}

// Total is the number of rows processed.
func (r *StudentImportReport) Total() int { return len(r.Success) + len(r.Failed) }
