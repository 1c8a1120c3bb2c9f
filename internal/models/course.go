package models

import "time"

// Semester identifies the half of an academic session.
type Semester string

const (
	SemesterFirst  Semester = "First"
	SemesterSecond Semester = "Second"
)

// Course models a course offering for one session/semester at a level.
type Course struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Title        string    `db:"title" json:"title"`
	Description  *string   `db:"description" json:"description,omitempty"`
	LecturerID   string    `db:"lecturer_id" json:"lecturer_id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Level        int       `db:"level" json:"level"`
	CreditUnit   int       `db:"credit_unit" json:"credit_unit"`
	Semester     Semester  `db:"semester" json:"semester"`
	SessionToken string    `db:"session_token" json:"session"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Registration window controls. The open flag, both window bounds and
	// the capacity are evaluated together at call time, never persisted as
	// a combined status.
	RegistrationOpen     bool       `db:"registration_open" json:"registration_open"`
	RegistrationDeadline *time.Time `db:"registration_deadline" json:"registration_deadline,omitempty"`
	RegistrationOpenDate *time.Time `db:"registration_open_date" json:"registration_open_date,omitempty"`
	MaxStudents          *int       `db:"max_students" json:"max_students,omitempty"`
}

// CourseDetail joins display fields onto the course row.
type CourseDetail struct {
	Course
	LecturerName   string `db:"lecturer_name" json:"lecturer_name"`
	DepartmentName string `db:"department_name" json:"department_name"`
	RosterCount    int    `db:"roster_count" json:"roster_count"`
}

// CourseRegistrationStatus annotates a course with live window state for
// a particular student.
type CourseRegistrationStatus struct {
	CourseDetail
	IsRegistered       bool `json:"is_registered"`
	IsRegistrationOpen bool `json:"is_registration_open"`
	CanRegister        bool `json:"can_register"`
}

// CourseFilter captures filtering for course listings.
type CourseFilter struct {
	DepartmentID string
	LecturerID   string
	SessionToken string
	Semester     Semester
	Level        *int
	IsActive     *bool
	Page         int
	PageSize     int
}

// RosterEntry records one student's membership of a course roster.
type RosterEntry struct {
	CourseID     string    `db:"course_id" json:"course_id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	RegisteredAt time.Time `db:"registered_at" json:"registered_at"`
}
