package dto

import "github.com/uni-dcs/records-api/internal/models"

// CreateUserRequest provisions an account for any role. Role-specific
// profile fields are required exactly when the role matches.
type CreateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=6"`
	FullName string          `json:"full_name" validate:"required"`
	Role     models.UserRole `json:"role" validate:"required,oneof=ADMIN LECTURER STUDENT"`

	MatricNo     string `json:"matric_no,omitempty"`
	DepartmentID string `json:"department_id,omitempty" validate:"omitempty,uuid"`
	Level        int    `json:"level,omitempty" validate:"omitempty,min=100,max=900"`
	Program      string `json:"program,omitempty"`

	StaffID        string `json:"staff_id,omitempty"`
	Rank           string `json:"rank,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}

// UpdateUserRequest modifies mutable account attributes. Nil fields are kept.
type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	FullName *string `json:"full_name,omitempty"`
	Active   *bool   `json:"active,omitempty"`

	DepartmentID   *string `json:"department_id,omitempty" validate:"omitempty,uuid"`
	Level          *int    `json:"level,omitempty" validate:"omitempty,min=100,max=900"`
	Program        *string `json:"program,omitempty"`
	Rank           *string `json:"rank,omitempty"`
	Specialization *string `json:"specialization,omitempty"`
}

// CreateDepartmentRequest creates a department.
type CreateDepartmentRequest struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required,uppercase"`
}

// UpdateDepartmentRequest renames a department. Nil fields are kept.
type UpdateDepartmentRequest struct {
	Name *string `json:"name,omitempty"`
	Code *string `json:"code,omitempty" validate:"omitempty,uppercase"`
}
