package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"home_climate/internal/models"
	"home_climate/internal/service"
)

func TestLogsHandler_ListAndValidation(t *testing.T) {
	auth := &mockAuth{parseID: 99, parseAdmin: true}
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.ClimateEvent{
		{EventID: "e1", OccurredAt: now, Type: models.EventProgramActivated, Description: "program winter activated"},
		{EventID: "e2", OccurredAt: now.Add(1 * time.Second), Type: models.EventArchiveCompacted, Description: "compaction tick"},
	}
	logs := &mockEventLog{resp: events}
	s := &service.Service{
		Authorization: auth,
		EventLog:      logs,
	}
	r := newTestRouter(s)

	// Missing/invalid 'from' → 400
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs/?from=notatime", nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	// Valid range and type (lowercase type should be normalized to upper in service call)
	w = httptest.NewRecorder()
	q := "/api/v1/logs/?from=" + now.Format(time.RFC3339) + "&to=" + now.Add(2*time.Second).Format(time.RFC3339) + "&type=archive_compacted"
	req = httptest.NewRequest(http.MethodGet, q, nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                   `json:"count"`
		Events []models.ClimateEvent `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastType != "ARCHIVE_COMPACTED" {
		t.Fatalf("expected lastType ARCHIVE_COMPACTED, got %q", logs.lastType)
	}
}

func TestLogsHandler_DateOnlyBoundsAndErrors(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{
		Authorization: &mockAuth{parseID: 1, parseAdmin: true},
		EventLog:      logs,
	})

	if w := doGet(r, "/api/v1/logs/?from=2025-08-01&to=2025-08-01", nil); w.Code != http.StatusOK {
		t.Fatalf("date-only range: status=%d body=%s", w.Code, w.Body.String())
	}
	wantTo := time.Date(2025, 8, 1, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	if !logs.lastFrom.Equal(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)) || !logs.lastTo.Equal(wantTo) {
		t.Fatalf("unexpected bounds: from=%v to=%v", logs.lastFrom, logs.lastTo)
	}

	logs.err = service.ErrUnknownEventType
	if w := doGet(r, "/api/v1/logs/?type=boiler_on", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", w.Code)
	}

	logs.err = errors.New("database is locked")
	if w := doGet(r, "/api/v1/logs/", nil); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on store failure, got %d", w.Code)
	}
}
