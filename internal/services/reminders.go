package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Kr-bhairav/Study-Optimizer/internal/repository"
)

// DueReminderLister loads every incomplete session due inside a window,
// across all users, with the owner's contact details attached.
// *repository.SessionRepo implements it.
type DueReminderLister interface {
	AllDueWithOwners(ctx context.Context, from, to time.Time) ([]repository.DueReminder, error)
}

// ReminderMailer delivers a single revision reminder. *EmailService
// implements it.
type ReminderMailer interface {
	SendRevisionReminderEmail(to, name, subject, topic string, dueAt time.Time) error
}

// ReminderScheduler sends revision-reminder emails on a cron cadence
// (hourly by default). A failed send only skips that one session; the
// schedule itself never stops on errors.
type ReminderScheduler struct {
	store    DueReminderLister
	mailer   ReminderMailer
	cronSpec string
	cron     *cron.Cron
	now      func() time.Time
}

func NewReminderScheduler(store DueReminderLister, mailer ReminderMailer, cronSpec string) *ReminderScheduler {
	return &ReminderScheduler{
		store:    store,
		mailer:   mailer,
		cronSpec: cronSpec,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *ReminderScheduler) Start() error {
	if s.store == nil || s.mailer == nil {
		return nil
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.cronSpec, func() {
		s.runOnce(context.Background(), s.now())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("Reminder scheduler started (cron %q)", s.cronSpec)
	return nil
}

func (s *ReminderScheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// runOnce performs a single reminder pass as of now and reports how many
// reminders were sent.
func (s *ReminderScheduler) runOnce(ctx context.Context, now time.Time) int {
	reminders, err := s.store.AllDueWithOwners(ctx, now, now.Add(dueWindow))
	if err != nil {
		log.Printf("reminder pass: failed to load due sessions: %v", err)
		return 0
	}

	sent := 0
	for _, reminder := range reminders {
		if reminder.Email == "" {
			continue
		}

		session := reminder.Session
		if err := s.mailer.SendRevisionReminderEmail(reminder.Email, reminder.FullName, session.Subject, session.Topic, session.NextRevision); err != nil {
			log.Printf("reminder pass: failed to send to %s for session %s: %v", reminder.Email, session.ID, err)
			continue
		}
		sent++
	}

	log.Printf("Sent %d revision reminders", sent)
	return sent
}
