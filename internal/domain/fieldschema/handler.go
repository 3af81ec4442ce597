package fieldschema

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/markknapp83-del/Service-Log-App-sub002/internal/platform/auth"
)

// Handler provides REST endpoints for field resolution and administration.
type Handler struct {
	svc *Service
}

// NewHandler creates a new field schema handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers field schema routes on the API group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Any authenticated staff member resolves fields when composing a form.
	api.GET("/fields", h.ResolveFields, auth.RequireRole("candidate", "clinician"))

	adminGroup := api.Group("/admin/fields", auth.RequireRole("admin"))
	adminGroup.GET("", h.ListFields)
	adminGroup.POST("", h.CreateField)
	adminGroup.GET("/:id", h.GetField)
	adminGroup.PUT("/:id", h.UpdateField)
	adminGroup.DELETE("/:id", h.DeleteField)
	adminGroup.PUT("/:id/choices", h.ReplaceChoices)
}

// ResolveFields handles GET /api/v1/fields?client_id=...
func (h *Handler) ResolveFields(c echo.Context) error {
	var clientID *uuid.UUID
	if raw := c.QueryParam("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "client_id must be a valid uuid")
		}
		clientID = &id
	}

	fields, err := h.svc.Resolve(c.Request().Context(), clientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load custom fields")
	}
	if fields == nil {
		fields = []*FieldDefinition{}
	}
	return c.JSON(http.StatusOK, fields)
}

// ListFields handles GET /api/v1/admin/fields
func (h *Handler) ListFields(c echo.Context) error {
	fields, err := h.svc.ListAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if fields == nil {
		fields = []*FieldDefinition{}
	}
	return c.JSON(http.StatusOK, fields)
}

// GetField handles GET /api/v1/admin/fields/:id
func (h *Handler) GetField(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid field id")
	}
	def, err := h.svc.GetField(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "field not found")
	}
	return c.JSON(http.StatusOK, def)
}

// CreateField handles POST /api/v1/admin/fields
func (h *Handler) CreateField(c echo.Context) error {
	var input CreateFieldInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	def, err := h.svc.CreateField(c.Request().Context(), input)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, def)
}

// UpdateField handles PUT /api/v1/admin/fields/:id
func (h *Handler) UpdateField(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid field id")
	}
	var input UpdateFieldInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	def, err := h.svc.UpdateField(c.Request().Context(), id, input)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, def)
}

// DeleteField handles DELETE /api/v1/admin/fields/:id. Fields with recorded
// values are deactivated rather than removed.
func (h *Handler) DeleteField(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid field id")
	}
	if err := h.svc.DeleteField(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// ReplaceChoices handles PUT /api/v1/admin/fields/:id/choices
func (h *Handler) ReplaceChoices(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid field id")
	}
	var input struct {
		Choices []ChoiceInput `json:"choices"`
	}
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	choices, err := h.svc.ReplaceChoices(c.Request().Context(), id, input.Choices)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, choices)
}
