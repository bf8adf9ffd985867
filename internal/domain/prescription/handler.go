package prescription

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts /prescriptions under api. Doctors and patients may
// read; only doctors may write. Admins are refused both.
func (h *Handler) RegisterRoutes(api *echo.Group, authn echo.MiddlewareFunc) {
	g := api.Group("/prescriptions", authn)
	g.GET("/:patientId", h.ListForPatient, auth.DenyRole(auth.RoleAdmin))
	g.POST("", h.Create, auth.RequireRole(auth.RoleDoctor))
}

func (h *Handler) ListForPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return c.JSON(http.StatusOK, []*View{})
	}
	views, err := h.svc.ListForPatient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	p, err := h.svc.Create(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}
