package servicelog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/markknapp83-del/Service-Log-App-sub002/internal/platform/auth"
)

func newTestLogHandler(repo *mockLogRepo, resolver *mockResolver) (*Handler, *echo.Echo) {
	svc := NewService(repo, resolver, zerolog.Nop())
	return NewHandler(svc), echo.New()
}

func submitBody(clientID, activityID, outcomeID uuid.UUID) string {
	return fmt.Sprintf(`{
		"clientId": %q,
		"activityId": %q,
		"serviceDate": "2026-08-14",
		"patientCount": 1,
		"entries": [{"appointmentType": "new", "outcomeId": %q}]
	}`, clientID, activityID, outcomeID)
}

func TestHandler_Submit(t *testing.T) {
	repo := newMockLogRepo()
	h, e := newTestLogHandler(repo, &mockResolver{})

	body := submitBody(uuid.New(), uuid.New(), uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/service-logs", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithUser(req.Context(), "user-7", []string{"clinician"}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Submit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var log ServiceLog
	json.Unmarshal(rec.Body.Bytes(), &log)
	if log.CreatedBy != "user-7" {
		t.Errorf("createdBy = %q", log.CreatedBy)
	}
	if len(repo.logs) != 1 {
		t.Errorf("stored %d logs, want 1", len(repo.logs))
	}
}

func TestHandler_Submit_InvalidReturns422WithResult(t *testing.T) {
	h, e := newTestLogHandler(newMockLogRepo(), &mockResolver{})

	body := `{"serviceDate": "2026-08-14", "patientCount": 2, "entries": []}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/service-logs", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Submit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var result ValidationResult
	json.Unmarshal(rec.Body.Bytes(), &result)
	if result.Valid || len(result.Form) == 0 {
		t.Errorf("result = %+v, want aggregated form errors", result)
	}
}

func TestHandler_Get_UnknownLog(t *testing.T) {
	h, e := newTestLogHandler(newMockLogRepo(), &mockResolver{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/service-logs/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.Get(c)
	if err == nil {
		t.Fatal("expected error for unknown log")
	}
}

func TestHandler_List_EmptyPage(t *testing.T) {
	h, e := newTestLogHandler(newMockLogRepo(), &mockResolver{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/service-logs", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var page struct {
		Data    []*ServiceLog `json:"data"`
		Total   int           `json:"total"`
		HasMore bool          `json:"hasMore"`
	}
	json.Unmarshal(rec.Body.Bytes(), &page)
	if page.Data == nil {
		t.Errorf("data = null, want empty JSON array: %s", rec.Body.String())
	}
	if page.Total != 0 || page.HasMore {
		t.Errorf("page = %+v", page)
	}
}
