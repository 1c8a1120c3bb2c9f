package dto

import (
	"time"

	"github.com/uni-dcs/records-api/internal/models"
)

// ExamQuestionInput is one question supplied when creating or editing an exam.
type ExamQuestionInput struct {
	QuestionType  models.QuestionType `json:"question_type" validate:"required,oneof=objective theory"`
	Text          string              `json:"text" validate:"required"`
	Marks         int                 `json:"marks" validate:"required,min=1"`
	Options       []string            `json:"options,omitempty"`
	CorrectAnswer *string             `json:"correct_answer,omitempty"`
	ModelAnswer   *string             `json:"model_answer,omitempty"`
}

// CreateExamRequest creates an exam with optional initial questions.
type CreateExamRequest struct {
	CourseID     string              `json:"course_id" validate:"required,uuid"`
	Title        string              `json:"title" validate:"required"`
	ExamType     models.ExamType     `json:"exam_type" validate:"required,oneof=objective theory mixed"`
	Duration     int                 `json:"duration" validate:"required,min=1"`
	PassingMarks int                 `json:"passing_marks" validate:"min=0"`
	Instructions string              `json:"instructions,omitempty"`
	Session      string              `json:"session,omitempty"`
	Semester     models.Semester     `json:"semester" validate:"required,oneof=First Second"`
	StartAt      *time.Time          `json:"start_at,omitempty"`
	EndAt        *time.Time          `json:"end_at,omitempty"`
	Questions    []ExamQuestionInput `json:"questions,omitempty" validate:"dive"`
}

// UpdateExamRequest modifies exam metadata. Nil fields are kept.
type UpdateExamRequest struct {
	Title        *string    `json:"title,omitempty"`
	Duration     *int       `json:"duration,omitempty" validate:"omitempty,min=1"`
	PassingMarks *int       `json:"passing_marks,omitempty" validate:"omitempty,min=0"`
	Instructions *string    `json:"instructions,omitempty"`
	IsActive     *bool      `json:"is_active,omitempty"`
	StartAt      *time.Time `json:"start_at,omitempty"`
	EndAt        *time.Time `json:"end_at,omitempty"`
}
