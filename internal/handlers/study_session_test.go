package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Kr-bhairav/Study-Optimizer/internal/middleware"
	"github.com/Kr-bhairav/Study-Optimizer/internal/models"
	"github.com/Kr-bhairav/Study-Optimizer/internal/repository"
	"github.com/Kr-bhairav/Study-Optimizer/internal/services"
)

type memorySessionStore struct {
	sessions map[uuid.UUID]*models.StudySession
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[uuid.UUID]*models.StudySession)}
}

func (m *memorySessionStore) Create(ctx context.Context, s *models.StudySession) error {
	s.ID = uuid.New()
	s.Version = 1
	copied := *s
	m.sessions[s.ID] = &copied
	return nil
}

func (m *memorySessionStore) GetByID(ctx context.Context, id uuid.UUID) (*models.StudySession, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (m *memorySessionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.StudySession, error) {
	var out []models.StudySession
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memorySessionStore) DueBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.StudySession, error) {
	var out []models.StudySession
	for _, s := range m.sessions {
		if s.UserID != userID || s.Completed {
			continue
		}
		if s.NextRevision.Before(from) || s.NextRevision.After(to) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *memorySessionStore) UpdateRevision(ctx context.Context, s *models.StudySession) error {
	stored, ok := m.sessions[s.ID]
	if !ok || stored.Version != s.Version {
		return repository.ErrVersionConflict
	}
	s.Version++
	copied := *s
	m.sessions[s.ID] = &copied
	return nil
}

func newSessionHandler(store *memorySessionStore) *StudySessionHandler {
	return NewStudySessionHandler(services.NewSessionService(store))
}

func authedRequest(method, target string, body []byte, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

type sessionEnvelope struct {
	Session models.StudySession `json:"session"`
}

func TestCreateSession(t *testing.T) {
	store := newMemorySessionStore()
	h := newSessionHandler(store)
	userID := uuid.New()

	body, _ := json.Marshal(map[string]interface{}{
		"subject":    "Physics",
		"topic":      "Optics",
		"start_time": "2024-01-01T09:00:00Z",
		"end_time":   "2024-01-01T10:00:00Z",
		"notes":      "lenses",
	})

	rr := httptest.NewRecorder()
	h.Create(rr, authedRequest(http.MethodPost, "/api/v1/sessions", body, userID))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, expected 201; body: %s", rr.Code, rr.Body.String())
	}

	var resp sessionEnvelope
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	expectedNext := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	if !resp.Session.NextRevision.Equal(expectedNext) {
		t.Errorf("next_revision = %v, expected %v", resp.Session.NextRevision, expectedNext)
	}
	if len(resp.Session.RevisionDates) != 1 {
		t.Errorf("revision_dates length = %d, expected 1", len(resp.Session.RevisionDates))
	}
	if resp.Session.Completed {
		t.Errorf("new session should not be completed")
	}
}

func TestCreateSessionValidationFailure(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing subject", map[string]interface{}{
			"topic":      "Optics",
			"start_time": "2024-01-01T09:00:00Z",
			"end_time":   "2024-01-01T10:00:00Z",
		}},
		{"missing end time", map[string]interface{}{
			"subject":    "Physics",
			"topic":      "Optics",
			"start_time": "2024-01-01T09:00:00Z",
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemorySessionStore()
			h := newSessionHandler(store)

			body, _ := json.Marshal(tc.body)
			rr := httptest.NewRecorder()
			h.Create(rr, authedRequest(http.MethodPost, "/api/v1/sessions", body, uuid.New()))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, expected 400", rr.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if resp.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("error code = %q, expected VALIDATION_ERROR", resp.Error.Code)
			}
			if len(store.sessions) != 0 {
				t.Errorf("no session should be persisted on validation failure")
			}
		})
	}
}

func TestCreateSessionInvalidBody(t *testing.T) {
	h := newSessionHandler(newMemorySessionStore())

	rr := httptest.NewRecorder()
	h.Create(rr, authedRequest(http.MethodPost, "/api/v1/sessions", []byte("{not json"), uuid.New()))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, expected 400", rr.Code)
	}
}

func TestCompleteSession(t *testing.T) {
	store := newMemorySessionStore()
	h := newSessionHandler(store)
	userID := uuid.New()

	createBody, _ := json.Marshal(map[string]interface{}{
		"subject":    "Physics",
		"topic":      "Optics",
		"start_time": "2024-01-01T09:00:00Z",
		"end_time":   "2024-01-01T10:00:00Z",
	})
	rr := httptest.NewRecorder()
	h.Create(rr, authedRequest(http.MethodPost, "/api/v1/sessions", createBody, userID))

	var created sessionEnvelope
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}

	completeBody, _ := json.Marshal(map[string]interface{}{
		"session_id": created.Session.ID.String(),
		"difficulty": 2,
	})
	rr = httptest.NewRecorder()
	h.Complete(rr, authedRequest(http.MethodPut, "/api/v1/sessions/complete", completeBody, userID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200; body: %s", rr.Code, rr.Body.String())
	}

	var updated sessionEnvelope
	if err := json.NewDecoder(rr.Body).Decode(&updated); err != nil {
		t.Fatalf("failed to decode complete response: %v", err)
	}

	if !updated.Session.Completed {
		t.Errorf("session should be completed")
	}
	if len(updated.Session.RevisionDates) != 2 {
		t.Errorf("revision_dates length = %d, expected 2", len(updated.Session.RevisionDates))
	}
	last := updated.Session.RevisionDates[len(updated.Session.RevisionDates)-1]
	if !updated.Session.NextRevision.Equal(last) {
		t.Errorf("next_revision should equal the last revision date")
	}
}

func TestCompleteSessionInvalidID(t *testing.T) {
	h := newSessionHandler(newMemorySessionStore())

	body, _ := json.Marshal(map[string]interface{}{
		"session_id": "not-a-uuid",
		"difficulty": 3,
	})
	rr := httptest.NewRecorder()
	h.Complete(rr, authedRequest(http.MethodPut, "/api/v1/sessions/complete", body, uuid.New()))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, expected 400", rr.Code)
	}
}

func TestCompleteSessionInvalidDifficulty(t *testing.T) {
	h := newSessionHandler(newMemorySessionStore())

	body, _ := json.Marshal(map[string]interface{}{
		"session_id": uuid.NewString(),
		"difficulty": 0,
	})
	rr := httptest.NewRecorder()
	h.Complete(rr, authedRequest(http.MethodPut, "/api/v1/sessions/complete", body, uuid.New()))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error.Code != "INVALID_INPUT" {
		t.Errorf("error code = %q, expected INVALID_INPUT", resp.Error.Code)
	}
}

func TestCompleteSessionNotOwned(t *testing.T) {
	store := newMemorySessionStore()
	h := newSessionHandler(store)
	owner := uuid.New()

	createBody, _ := json.Marshal(map[string]interface{}{
		"subject":    "Physics",
		"topic":      "Optics",
		"start_time": "2024-01-01T09:00:00Z",
		"end_time":   "2024-01-01T10:00:00Z",
	})
	rr := httptest.NewRecorder()
	h.Create(rr, authedRequest(http.MethodPost, "/api/v1/sessions", createBody, owner))

	var created sessionEnvelope
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}

	completeBody, _ := json.Marshal(map[string]interface{}{
		"session_id": created.Session.ID.String(),
		"difficulty": 3,
	})
	rr = httptest.NewRecorder()
	h.Complete(rr, authedRequest(http.MethodPut, "/api/v1/sessions/complete", completeBody, uuid.New()))

	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, expected 403", rr.Code)
	}
}

func TestListSessionsOrderedByStartTime(t *testing.T) {
	store := newMemorySessionStore()
	h := newSessionHandler(store)
	userID := uuid.New()

	starts := []string{
		"2024-01-03T09:00:00Z",
		"2024-01-01T09:00:00Z",
		"2024-01-02T09:00:00Z",
	}
	for _, start := range starts {
		st, _ := time.Parse(time.RFC3339, start)
		end := st.Add(time.Hour)
		body, _ := json.Marshal(map[string]interface{}{
			"subject":    "Math",
			"topic":      "Algebra",
			"start_time": st.Format(time.RFC3339),
			"end_time":   end.Format(time.RFC3339),
		})
		rr := httptest.NewRecorder()
		h.Create(rr, authedRequest(http.MethodPost, "/api/v1/sessions", body, userID))
		if rr.Code != http.StatusCreated {
			t.Fatalf("create status = %d, expected 201", rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	h.List(rr, authedRequest(http.MethodGet, "/api/v1/sessions", nil, userID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rr.Code)
	}

	var resp struct {
		Sessions []models.StudySession `json:"sessions"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(resp.Sessions))
	}
	for i := 1; i < len(resp.Sessions); i++ {
		if resp.Sessions[i].StartTime.Before(resp.Sessions[i-1].StartTime) {
			t.Errorf("sessions out of order at index %d", i)
		}
	}
}

func TestRemindersExcludeCompletedAndFarFuture(t *testing.T) {
	store := newMemorySessionStore()
	h := newSessionHandler(store)
	userID := uuid.New()
	now := time.Now().UTC()

	seed := func(next time.Time, completed bool) uuid.UUID {
		id := uuid.New()
		store.sessions[id] = &models.StudySession{
			ID:            id,
			UserID:        userID,
			Subject:       "Chemistry",
			Topic:         "Acids",
			NextRevision:  next,
			RevisionDates: []time.Time{next},
			Completed:     completed,
			Version:       1,
		}
		return id
	}

	dueID := seed(now.Add(6*time.Hour), false)
	seed(now.Add(48*time.Hour), false)
	seed(now.Add(6*time.Hour), true)

	rr := httptest.NewRecorder()
	h.Reminders(rr, authedRequest(http.MethodGet, "/api/v1/sessions/reminders", nil, userID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rr.Code)
	}

	var resp struct {
		Reminders []models.StudySession `json:"reminders"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Reminders) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(resp.Reminders))
	}
	if resp.Reminders[0].ID != dueID {
		t.Errorf("expected session %s, got %s", dueID, resp.Reminders[0].ID)
	}
}
