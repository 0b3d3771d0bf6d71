package models

import (
	"time"

	"github.com/google/uuid"
)

// StudySession tracks one block of studying and the spaced-repetition
// schedule derived from it. RevisionDates is append-only: it starts with the
// initial revision date computed at creation, and every completed revision
// appends the next scheduled date. NextRevision always mirrors the last
// element of RevisionDates.
type StudySession struct {
	ID            uuid.UUID   `json:"id"`
	UserID        uuid.UUID   `json:"user_id"`
	Subject       string      `json:"subject"`
	Topic         string      `json:"topic"`
	StartTime     time.Time   `json:"start_time"`
	EndTime       time.Time   `json:"end_time"`
	RevisionDates []time.Time `json:"revision_dates"`
	NextRevision  time.Time   `json:"next_revision"`
	Completed     bool        `json:"completed"`
	Notes         string      `json:"notes,omitempty"`
	Version       int         `json:"-"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type CreateSessionRequest struct {
	Subject   string     `json:"subject"`
	Topic     string     `json:"topic"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Notes     string     `json:"notes"`
}

type CompleteSessionRequest struct {
	SessionID  string `json:"session_id"`
	Difficulty int    `json:"difficulty"`
}
