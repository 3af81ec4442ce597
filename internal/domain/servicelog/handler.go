package servicelog

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/markknapp83-del/Service-Log-App-sub002/internal/platform/auth"
	"github.com/markknapp83-del/Service-Log-App-sub002/pkg/pagination"
)

// Handler provides REST endpoints for submitting and reading service logs.
type Handler struct {
	svc *Service
}

// NewHandler creates a new service log handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers service log routes on the API group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	logs := api.Group("/service-logs")
	logs.POST("", h.Submit, auth.RequireRole("candidate", "clinician"))
	logs.GET("", h.List, auth.RequireRole("candidate", "clinician"))
	logs.GET("/:id", h.Get, auth.RequireRole("candidate", "clinician"))
	logs.DELETE("/:id", h.Delete, auth.RequireRole("admin"))
}

// Submit handles POST /api/v1/service-logs. A submission that fails
// validation returns 422 with the full aggregated result.
func (h *Handler) Submit(c echo.Context) error {
	var input SubmitInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	createdBy := auth.UserIDFromContext(c.Request().Context())
	log, err := h.svc.Submit(c.Request().Context(), input, createdBy)
	if err != nil {
		var invalid *ValidationFailure
		if errors.As(err, &invalid) {
			return c.JSON(http.StatusUnprocessableEntity, invalid.Result)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "could not store service log")
	}
	return c.JSON(http.StatusCreated, log)
}

// List handles GET /api/v1/service-logs?client_id=&limit=&offset=
func (h *Handler) List(c echo.Context) error {
	var clientID *uuid.UUID
	if raw := c.QueryParam("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "client_id must be a valid uuid")
		}
		clientID = &id
	}

	page := pagination.FromContext(c)
	logs, total, err := h.svc.List(c.Request().Context(), clientID, page.Limit, page.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not list service logs")
	}
	if logs == nil {
		logs = []*ServiceLog{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(logs, total, page))
}

// Get handles GET /api/v1/service-logs/:id
func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid service log id")
	}
	log, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "service log not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load service log")
	}
	return c.JSON(http.StatusOK, log)
}

// Delete handles DELETE /api/v1/service-logs/:id
func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid service log id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "service log not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "could not delete service log")
	}
	return c.NoContent(http.StatusNoContent)
}
