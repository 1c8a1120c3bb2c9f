package dto

import (
	"time"

	"github.com/uni-dcs/records-api/internal/models"
)

// CreateCourseRequest creates a new course offering.
type CreateCourseRequest struct {
	Code         string          `json:"code" validate:"required"`
	Title        string          `json:"title" validate:"required"`
	Description  *string         `json:"description,omitempty"`
	LecturerID   string          `json:"lecturer_id" validate:"required,uuid"`
	DepartmentID string          `json:"department_id" validate:"required,uuid"`
	Level        int             `json:"level" validate:"required,oneof=100 200 300 400 500"`
	CreditUnit   int             `json:"credit_unit" validate:"required,min=1,max=6"`
	Semester     models.Semester `json:"semester" validate:"required,oneof=First Second"`
	Session      string          `json:"session,omitempty"`
	MaxStudents  *int            `json:"max_students,omitempty" validate:"omitempty,min=1"`
}

// UpdateCourseRequest modifies an existing course. Nil fields are kept.
type UpdateCourseRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	LecturerID  *string `json:"lecturer_id,omitempty" validate:"omitempty,uuid"`
	Level       *int    `json:"level,omitempty" validate:"omitempty,oneof=100 200 300 400 500"`
	CreditUnit  *int    `json:"credit_unit,omitempty" validate:"omitempty,min=1,max=6"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// RegistrationSettingsRequest adjusts a course's registration window.
type RegistrationSettingsRequest struct {
	RegistrationOpen     *bool      `json:"registration_open,omitempty"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty"`
	RegistrationOpenDate *time.Time `json:"registration_open_date,omitempty"`
	MaxStudents          *int       `json:"max_students,omitempty" validate:"omitempty,min=1"`
}

// BulkDeadlineRequest stamps a deadline on every course in a session,
// optionally restricted to one department.
type BulkDeadlineRequest struct {
	Deadline     time.Time `json:"deadline" validate:"required"`
	Session      string    `json:"session,omitempty"`
	DepartmentID string    `json:"department_id,omitempty" validate:"omitempty,uuid"`
}
