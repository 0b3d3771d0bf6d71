package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kr-bhairav/Study-Optimizer/internal/models"
)

// ErrVersionConflict is returned when a conditional update lost a race
// against a concurrent write to the same session.
var ErrVersionConflict = errors.New("session was modified concurrently")

type SessionRepo struct {
	pool *pgxpool.Pool
}

// DueReminder pairs a due session with its owner's contact details for the
// reminder mailer.
type DueReminder struct {
	Session  models.StudySession
	Email    string
	FullName string
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

const sessionColumns = `id, user_id, subject, topic, start_time, end_time, revision_dates, next_revision, completed, notes, version, created_at, updated_at`

func (r *SessionRepo) Create(ctx context.Context, s *models.StudySession) error {
	s.ID = uuid.New()
	s.Version = 1

	query := `
		INSERT INTO study_sessions (id, user_id, subject, topic, start_time, end_time, revision_dates, next_revision, completed, notes, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		s.ID, s.UserID, s.Subject, s.Topic, s.StartTime, s.EndTime,
		s.RevisionDates, s.NextRevision, s.Completed, s.Notes, s.Version,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *SessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.StudySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM study_sessions WHERE id = $1`

	s := &models.StudySession{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.Subject, &s.Topic, &s.StartTime, &s.EndTime,
		&s.RevisionDates, &s.NextRevision, &s.Completed, &s.Notes, &s.Version,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListByUser returns all sessions owned by userID, oldest study block first.
func (r *SessionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.StudySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM study_sessions WHERE user_id = $1 ORDER BY start_time ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSessions(rows)
}

// DueBetween returns userID's incomplete sessions whose next revision falls
// inside [from, to].
func (r *SessionRepo) DueBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.StudySession, error) {
	query := `SELECT ` + sessionColumns + `
		FROM study_sessions
		WHERE user_id = $1
		  AND next_revision >= $2
		  AND next_revision <= $3
		  AND completed = FALSE`

	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSessions(rows)
}

// AllDueWithOwners returns every incomplete session due in [from, to] across
// all users, joined with the owner's contact details.
func (r *SessionRepo) AllDueWithOwners(ctx context.Context, from, to time.Time) ([]DueReminder, error) {
	query := `
		SELECT s.id, s.user_id, s.subject, s.topic, s.start_time, s.end_time,
		       s.revision_dates, s.next_revision, s.completed, s.notes, s.version,
		       s.created_at, s.updated_at,
		       u.email, u.full_name
		FROM study_sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.next_revision >= $1
		  AND s.next_revision <= $2
		  AND s.completed = FALSE
		  AND u.is_active = TRUE`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []DueReminder
	for rows.Next() {
		var d DueReminder
		s := &d.Session
		err := rows.Scan(
			&s.ID, &s.UserID, &s.Subject, &s.Topic, &s.StartTime, &s.EndTime,
			&s.RevisionDates, &s.NextRevision, &s.Completed, &s.Notes, &s.Version,
			&s.CreatedAt, &s.UpdatedAt,
			&d.Email, &d.FullName,
		)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, d)
	}
	return reminders, rows.Err()
}

// UpdateRevision persists a completion transition. The write is conditional
// on the version the caller read; a concurrent update makes it fail with
// ErrVersionConflict instead of silently losing revision history.
func (r *SessionRepo) UpdateRevision(ctx context.Context, s *models.StudySession) error {
	query := `
		UPDATE study_sessions
		SET revision_dates = $1,
		    next_revision = $2,
		    completed = $3,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $4 AND version = $5
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		s.RevisionDates, s.NextRevision, s.Completed, s.ID, s.Version,
	).Scan(&s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrVersionConflict
	}
	if err != nil {
		return err
	}

	s.Version++
	return nil
}

func scanSessions(rows pgx.Rows) ([]models.StudySession, error) {
	var sessions []models.StudySession
	for rows.Next() {
		var s models.StudySession
		err := rows.Scan(
			&s.ID, &s.UserID, &s.Subject, &s.Topic, &s.StartTime, &s.EndTime,
			&s.RevisionDates, &s.NextRevision, &s.Completed, &s.Notes, &s.Version,
			&s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
