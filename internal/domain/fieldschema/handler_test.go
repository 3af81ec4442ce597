package fieldschema

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler(t *testing.T) (*Handler, *Service, *echo.Echo) {
	t.Helper()
	svc := NewService(newMockRepo())
	return NewHandler(svc), svc, echo.New()
}

func TestHandler_ResolveFields(t *testing.T) {
	h, svc, e := newTestHandler(t)
	clientID := uuid.New()
	mustCreate(t, svc, CreateFieldInput{Label: "Notes", Type: TypeText, DisplayOrder: 1})
	mustCreate(t, svc, CreateFieldInput{Label: "Priority", Type: TypeDropdown, DisplayOrder: 2, ClientID: &clientID, Choices: []string{"High"}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fields?client_id="+clientID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ResolveFields(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var fields []*FieldDefinition
	json.Unmarshal(rec.Body.Bytes(), &fields)
	if len(fields) != 2 {
		t.Errorf("expected 2 fields, got %d", len(fields))
	}
}

func TestHandler_ResolveFields_BadClientID(t *testing.T) {
	h, _, e := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fields?client_id=not-a-uuid", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ResolveFields(c); err == nil {
		t.Error("expected error for malformed client_id")
	}
}

func TestHandler_ResolveFields_EmptySetIsJSONArray(t *testing.T) {
	h, _, e := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fields", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ResolveFields(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected empty JSON array, got %s", body)
	}
}

func TestHandler_CreateField(t *testing.T) {
	h, _, e := newTestHandler(t)

	body := `{"label":"Priority","type":"dropdown","order":1,"required":true,"choices":["High","Low"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/fields", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateField(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var def FieldDefinition
	json.Unmarshal(rec.Body.Bytes(), &def)
	if def.Type != TypeDropdown || len(def.Choices) != 2 {
		t.Errorf("unexpected field: %+v", def)
	}
}

func TestHandler_CreateField_ResponseKeysAreCamelCase(t *testing.T) {
	h, _, e := newTestHandler(t)
	clientID := uuid.New()

	body := `{"label":"Priority","type":"dropdown","order":1,"required":true,"clientId":"` + clientID.String() + `","choices":["High"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/fields", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateField(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var payload map[string]json.RawMessage
	json.Unmarshal(rec.Body.Bytes(), &payload)
	for _, key := range []string{"clientId", "createdAt", "updatedAt"} {
		if _, ok := payload[key]; !ok {
			t.Errorf("response missing %q: %s", key, rec.Body.String())
		}
	}
	for _, key := range []string{"client_id", "created_at", "updated_at"} {
		if _, ok := payload[key]; ok {
			t.Errorf("response carries snake_case key %q", key)
		}
	}

	var choices []map[string]json.RawMessage
	json.Unmarshal(payload["choices"], &choices)
	if len(choices) != 1 {
		t.Fatalf("expected 1 choice, got %d", len(choices))
	}
	if _, ok := choices[0]["fieldId"]; !ok {
		t.Errorf("choice missing fieldId: %s", payload["choices"])
	}
}

func TestHandler_CreateField_Invalid(t *testing.T) {
	h, _, e := newTestHandler(t)

	body := `{"label":"Priority","type":"dropdown"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/fields", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateField(c); err == nil {
		t.Error("expected error for dropdown without choices")
	}
}

func TestHandler_UpdateField_TypeChange(t *testing.T) {
	h, svc, e := newTestHandler(t)
	def := mustCreate(t, svc, CreateFieldInput{Label: "Notes", Type: TypeText})

	body := `{"type":"number"}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(def.ID.String())

	if err := h.UpdateField(c); err == nil {
		t.Error("expected type change to be rejected")
	}
}
