package dto

// CreateSessionRequest creates a new academic session.
type CreateSessionRequest struct {
	Token     string `json:"token" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	IsCurrent bool   `json:"is_current"`
}

// UpdateSessionRequest adjusts the date window of a session.
type UpdateSessionRequest struct {
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
}
