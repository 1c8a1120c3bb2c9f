package models

import "time"

// AcademicSession models an academic year window such as 2024/2025.
// IsActive gates non-admin mutation of results and exams belonging to
// the session; IsCurrent marks the session used for registration.
type AcademicSession struct {
	ID        string    `db:"id" json:"id"`
	Token     string    `db:"token" json:"token"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	IsCurrent bool      `db:"is_current" json:"is_current"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SessionFilter defines filters supported by session list endpoints.
type SessionFilter struct {
	IsActive  *bool
	IsCurrent *bool
	Page      int
	PageSize  int
}
