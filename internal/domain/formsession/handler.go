package formsession

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/markknapp83-del/Service-Log-App-sub002/internal/platform/auth"
)

// Handler exposes the per-user draft over REST so an interrupted session
// restores on the next load.
type Handler struct {
	rec *Reconciler
}

func NewHandler(rec *Reconciler) *Handler {
	return &Handler{rec: rec}
}

// RegisterRoutes registers draft routes on the API group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	draft := api.Group("/service-logs/draft", auth.RequireRole("candidate", "clinician"))
	draft.GET("", h.Restore)
	draft.PUT("", h.Save)
	draft.DELETE("", h.Discard)
}

// Restore handles GET /api/v1/service-logs/draft. 204 when no draft exists.
func (h *Handler) Restore(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	snap, err := h.rec.Restore(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load draft")
	}
	if snap == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, snap)
}

// Save handles PUT /api/v1/service-logs/draft. Writes are fire-and-forget:
// the snapshot is queued for the reconciler's next flush and a well-formed
// payload is always acknowledged, so a slow draft store never blocks
// editing.
func (h *Handler) Save(c echo.Context) error {
	var snap Snapshot
	if err := c.Bind(&snap); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.rec.QueueSave(auth.UserIDFromContext(c.Request().Context()), snap)
	return c.NoContent(http.StatusNoContent)
}

// Discard handles DELETE /api/v1/service-logs/draft.
func (h *Handler) Discard(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if err := h.rec.Discard(c.Request().Context(), userID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not discard draft")
	}
	return c.NoContent(http.StatusNoContent)
}
