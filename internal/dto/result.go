package dto

import "github.com/uni-dcs/records-api/internal/models"

// CreateResultRequest records a student's scores for a course.
type CreateResultRequest struct {
	StudentID string          `json:"student_id" validate:"required,uuid"`
	CourseID  string          `json:"course_id" validate:"required,uuid"`
	Session   string          `json:"session,omitempty"`
	Semester  models.Semester `json:"semester" validate:"required,oneof=First Second"`
	CA        float64         `json:"ca" validate:"min=0,max=40"`
	Exam      float64         `json:"exam" validate:"min=0,max=60"`
}

// UpdateResultRequest rewrites scores on an existing result. Nil fields
// keep the stored value; total and grade are rederived either way.
type UpdateResultRequest struct {
	CA   *float64 `json:"ca,omitempty" validate:"omitempty,min=0,max=40"`
	Exam *float64 `json:"exam,omitempty" validate:"omitempty,min=0,max=60"`
}
