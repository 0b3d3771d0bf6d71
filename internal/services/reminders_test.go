package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Kr-bhairav/Study-Optimizer/internal/models"
	"github.com/Kr-bhairav/Study-Optimizer/internal/repository"
)

type fakeDueLister struct {
	reminders []repository.DueReminder
	err       error
	from, to  time.Time
}

func (f *fakeDueLister) AllDueWithOwners(ctx context.Context, from, to time.Time) ([]repository.DueReminder, error) {
	f.from, f.to = from, to
	return f.reminders, f.err
}

type fakeMailer struct {
	sent    []string
	failFor map[string]error
}

func (f *fakeMailer) SendRevisionReminderEmail(to, name, subject, topic string, dueAt time.Time) error {
	if err, ok := f.failFor[to]; ok {
		return err
	}
	f.sent = append(f.sent, to)
	return nil
}

func dueReminder(email, name, subject, topic string, dueAt time.Time) repository.DueReminder {
	return repository.DueReminder{
		Session: models.StudySession{
			ID:           uuid.New(),
			Subject:      subject,
			Topic:        topic,
			NextRevision: dueAt,
		},
		Email:    email,
		FullName: name,
	}
}

func TestReminderPassSendsOnePerDueSession(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	lister := &fakeDueLister{
		reminders: []repository.DueReminder{
			dueReminder("a@example.com", "Alice", "Physics", "Optics", now.Add(2*time.Hour)),
			dueReminder("b@example.com", "Bob", "History", "Rome", now.Add(20*time.Hour)),
		},
	}
	mailer := &fakeMailer{}

	s := NewReminderScheduler(lister, mailer, "0 * * * *")
	sent := s.runOnce(context.Background(), now)

	if sent != 2 {
		t.Errorf("sent = %d, expected 2", sent)
	}
	if !lister.from.Equal(now) || !lister.to.Equal(now.Add(24*time.Hour)) {
		t.Errorf("queried window [%v, %v], expected [%v, %v]", lister.from, lister.to, now, now.Add(24*time.Hour))
	}
}

func TestReminderPassIsolatesFailures(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	lister := &fakeDueLister{
		reminders: []repository.DueReminder{
			dueReminder("broken@example.com", "Alice", "Physics", "Optics", now),
			dueReminder("ok@example.com", "Bob", "History", "Rome", now),
		},
	}
	mailer := &fakeMailer{
		failFor: map[string]error{"broken@example.com": errors.New("smtp unavailable")},
	}

	s := NewReminderScheduler(lister, mailer, "0 * * * *")
	sent := s.runOnce(context.Background(), now)

	if sent != 1 {
		t.Errorf("sent = %d, expected 1", sent)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "ok@example.com" {
		t.Errorf("expected only ok@example.com to be mailed, got %v", mailer.sent)
	}
}

func TestReminderPassSkipsMissingEmail(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	lister := &fakeDueLister{
		reminders: []repository.DueReminder{
			dueReminder("", "Ghost", "Physics", "Optics", now),
		},
	}
	mailer := &fakeMailer{}

	s := NewReminderScheduler(lister, mailer, "0 * * * *")
	if sent := s.runOnce(context.Background(), now); sent != 0 {
		t.Errorf("sent = %d, expected 0", sent)
	}
}

func TestReminderPassSurvivesStoreFailure(t *testing.T) {
	lister := &fakeDueLister{err: errors.New("connection refused")}
	mailer := &fakeMailer{}

	s := NewReminderScheduler(lister, mailer, "0 * * * *")
	if sent := s.runOnce(context.Background(), time.Now().UTC()); sent != 0 {
		t.Errorf("sent = %d, expected 0", sent)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("no mail should be sent when the store fails, got %v", mailer.sent)
	}
}
