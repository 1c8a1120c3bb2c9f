package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleLecturer UserRole = "LECTURER"
	RoleStudent  UserRole = "STUDENT"
)

// User represents an application user stored in the users table.
// Role-specific attributes live in nullable columns and are only
// populated for the matching role.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`

	MatricNo     *string `db:"matric_no" json:"-"`
	DepartmentID *string `db:"department_id" json:"-"`
	Level        *int    `db:"level" json:"-"`
	Program      *string `db:"program" json:"-"`

	StaffID        *string `db:"staff_id" json:"-"`
	Rank           *string `db:"rank" json:"-"`
	Specialization *string `db:"specialization" json:"-"`
}

// StudentProfile carries the student-only attributes of a user.
type StudentProfile struct {
	MatricNo     string `json:"matric_no"`
	DepartmentID string `json:"department_id"`
	Level        int    `json:"level"`
	Program      string `json:"program,omitempty"`
}

// LecturerProfile carries the lecturer-only attributes of a user.
type LecturerProfile struct {
	StaffID        string `json:"staff_id"`
	DepartmentID   string `json:"department_id"`
	Rank           string `json:"rank,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}

// UserDetail is the API view of a user with its role profile attached.
type UserDetail struct {
	ID        string           `json:"id"`
	Email     string           `json:"email"`
	FullName  string           `json:"full_name"`
	Role      UserRole         `json:"role"`
	Active    bool             `json:"active"`
	LastLogin *time.Time       `json:"last_login,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Student   *StudentProfile  `json:"student,omitempty"`
	Lecturer  *LecturerProfile `json:"lecturer,omitempty"`
}

// Detail builds the role-tagged API view of the user.
func (u *User) Detail() UserDetail {
	detail := UserDetail{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		Active:    u.Active,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
	switch u.Role {
	case RoleStudent:
		profile := &StudentProfile{}
		if u.MatricNo != nil {
			profile.MatricNo = *u.MatricNo
		}
		if u.DepartmentID != nil {
			profile.DepartmentID = *u.DepartmentID
		}
		if u.Level != nil {
			profile.Level = *u.Level
		}
		if u.Program != nil {
			profile.Program = *u.Program
		}
		detail.Student = profile
	case RoleLecturer:
		profile := &LecturerProfile{}
		if u.StaffID != nil {
			profile.StaffID = *u.StaffID
		}
		if u.DepartmentID != nil {
			profile.DepartmentID = *u.DepartmentID
		}
		if u.Rank != nil {
			profile.Rank = *u.Rank
		}
		if u.Specialization != nil {
			profile.Specialization = *u.Specialization
		}
		detail.Lecturer = profile
	}
	return detail
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role         *UserRole
	Active       *bool
	DepartmentID string
	Level        *int
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
