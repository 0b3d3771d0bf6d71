package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Kr-bhairav/Study-Optimizer/internal/models"
	"github.com/Kr-bhairav/Study-Optimizer/internal/repository"
	"github.com/Kr-bhairav/Study-Optimizer/internal/revision"
)

// How far ahead of "now" a pending revision counts as due.
const dueWindow = 24 * time.Hour

// SessionStore is the persistence surface the session service needs.
// *repository.SessionRepo implements it.
type SessionStore interface {
	Create(ctx context.Context, s *models.StudySession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.StudySession, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.StudySession, error)
	DueBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.StudySession, error)
	UpdateRevision(ctx context.Context, s *models.StudySession) error
}

// SessionService owns the study-session lifecycle: creation with the
// bootstrap revision date, listing, the completion transition that advances
// the spaced-repetition schedule, and due-reminder queries.
type SessionService struct {
	store SessionStore
	now   func() time.Time
}

func NewSessionService(store SessionStore) *SessionService {
	return &SessionService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and persists a new session. The first revision is
// scheduled a fixed day after the study block ends; the difficulty-driven
// schedule only starts once the session is completed.
func (s *SessionService) Create(ctx context.Context, userID uuid.UUID, req models.CreateSessionRequest) (*models.StudySession, error) {
	fieldErrors := make(map[string]string)

	if req.Subject == "" {
		fieldErrors["subject"] = "Subject is required"
	}
	if req.Topic == "" {
		fieldErrors["topic"] = "Topic is required"
	}
	if req.StartTime == nil {
		fieldErrors["start_time"] = "Start time is required"
	}
	if req.EndTime == nil {
		fieldErrors["end_time"] = "End time is required"
	}
	if req.StartTime != nil && req.EndTime != nil && !req.EndTime.After(*req.StartTime) {
		fieldErrors["end_time"] = "End time must be after start time"
	}

	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	startTime := req.StartTime.UTC()
	endTime := req.EndTime.UTC()
	nextRevision := revision.InitialRevision(endTime)

	session := &models.StudySession{
		UserID:        userID,
		Subject:       req.Subject,
		Topic:         req.Topic,
		StartTime:     startTime,
		EndTime:       endTime,
		RevisionDates: []time.Time{nextRevision},
		NextRevision:  nextRevision,
		Completed:     false,
		Notes:         req.Notes,
	}

	if err := s.store.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// ListByOwner returns all of userID's sessions, ascending by start time.
func (s *SessionService) ListByOwner(ctx context.Context, userID uuid.UUID) ([]models.StudySession, error) {
	return s.store.ListByUser(ctx, userID)
}

// Complete records a finished review. The difficulty rating (1 = remembered
// easily, 5 = forgotten) feeds the scheduler: the next revision lands
// round(2^n / difficulty) days from now, where n is the number of revisions
// already on the books. The new date is appended to the history and the
// session is marked completed.
func (s *SessionService) Complete(ctx context.Context, callerID, sessionID uuid.UUID, difficulty int) (*models.StudySession, error) {
	if difficulty < revision.MinDifficulty || difficulty > revision.MaxDifficulty {
		return nil, &InvalidInputError{Message: "Difficulty must be between 1 and 5"}
	}

	session, err := s.store.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Study session not found"}
		}
		return nil, err
	}

	if session.UserID != callerID {
		return nil, &ForbiddenError{Message: "You do not own this study session"}
	}

	priorRevisions := len(session.RevisionDates)
	nextRevision, err := revision.Next(s.now(), priorRevisions, difficulty)
	if err != nil {
		return nil, &InvalidInputError{Message: err.Error()}
	}

	session.RevisionDates = append(session.RevisionDates, nextRevision)
	session.NextRevision = nextRevision
	session.Completed = true

	if err := s.store.UpdateRevision(ctx, session); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, &ConflictError{Message: "Study session was updated concurrently, please retry"}
		}
		return nil, err
	}

	return session, nil
}

// DueReminders returns userID's sessions whose next revision falls within
// the next 24 hours and that have not been completed. The completed flag
// never resets, so a session appears here at most once even as its
// schedule keeps advancing.
func (s *SessionService) DueReminders(ctx context.Context, userID uuid.UUID) ([]models.StudySession, error) {
	now := s.now()
	return s.store.DueBetween(ctx, userID, now, now.Add(dueWindow))
}
