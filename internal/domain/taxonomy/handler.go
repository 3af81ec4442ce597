package taxonomy

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/markknapp83-del/Service-Log-App-sub002/internal/platform/auth"
)

// routes maps each vocabulary to its URL segment.
var routes = map[Kind]string{
	KindClient:   "clients",
	KindActivity: "activities",
	KindOutcome:  "outcomes",
}

// Handler provides REST endpoints for the reference vocabularies.
type Handler struct {
	svc *Service
}

// NewHandler creates a new taxonomy handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers taxonomy routes on the API group. Staff read the
// active entries; administration lives under /admin.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	for kind, segment := range routes {
		kind := kind
		api.GET("/"+segment, h.listActive(kind), auth.RequireRole("candidate", "clinician"))

		admin := api.Group("/admin/"+segment, auth.RequireRole("admin"))
		admin.GET("", h.listAll(kind))
		admin.POST("", h.create(kind))
		admin.PUT("/:id", h.update(kind))
	}
}

func (h *Handler) listActive(kind Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		terms, err := h.svc.ListActive(c.Request().Context(), kind)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "could not list "+routes[kind])
		}
		if terms == nil {
			terms = []*Term{}
		}
		return c.JSON(http.StatusOK, terms)
	}
}

func (h *Handler) listAll(kind Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		terms, err := h.svc.ListAll(c.Request().Context(), kind)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "could not list "+routes[kind])
		}
		if terms == nil {
			terms = []*Term{}
		}
		return c.JSON(http.StatusOK, terms)
	}
}

func (h *Handler) create(kind Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var input CreateTermInput
		if err := c.Bind(&input); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		term, err := h.svc.Create(c.Request().Context(), kind, input)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusCreated, term)
	}
}

func (h *Handler) update(kind Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
		}
		var input UpdateTermInput
		if err := c.Bind(&input); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		term, err := h.svc.Update(c.Request().Context(), kind, id, input)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusOK, term)
	}
}
