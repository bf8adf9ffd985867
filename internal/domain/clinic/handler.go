package clinic

import (
	"context"
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

// RegisterRoutes mounts the department, doctor, patient and appointment
// routes under api. Every route needs a token; reads are open to any role
// and writes are admin only.
func (h *Handler) RegisterRoutes(api *echo.Group, authn echo.MiddlewareFunc) {
	admin := auth.RequireRole(auth.RoleAdmin)

	depts := api.Group("/departments", authn)
	depts.GET("", h.ListDepartments)
	depts.POST("", h.CreateDepartment, admin)
	depts.PUT("/:id", h.UpdateDepartment, admin)
	depts.DELETE("/:id", h.DeleteDepartment, admin)

	doctors := api.Group("/doctors", authn)
	doctors.GET("", h.ListDoctors)
	doctors.POST("", h.CreateDoctor, admin)
	doctors.PUT("/:id", h.UpdateDoctor, admin)
	doctors.DELETE("/:id", h.DeleteDoctor, admin)

	patients := api.Group("/patients", authn)
	patients.GET("", h.ListPatients)
	patients.GET("/:id", h.GetPatient)
	patients.POST("", h.CreatePatient, admin)
	patients.PUT("/:id", h.UpdatePatient, admin)
	patients.DELETE("/:id", h.DeletePatient, admin)

	appts := api.Group("/appointments", authn)
	appts.GET("", h.ListAppointments)
	appts.POST("", h.CreateAppointment, admin)
	appts.PUT("/:id", h.UpdateAppointment, admin)
	appts.DELETE("/:id", h.DeleteAppointment, admin)
}

func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return nil
}

// pathID parses the :id parameter. An id that is not a uuid cannot match a
// row, so it is reported as notFound.
func pathID(c echo.Context, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound(notFound)
	}
	return id, nil
}

func list[T any](c echo.Context, fn func(context.Context) (T, error)) error {
	out, err := fn(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func create[In, Out any](c echo.Context, fn func(context.Context, *In) (Out, error)) error {
	in := new(In)
	if err := bind(c, in); err != nil {
		return err
	}
	out, err := fn(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func update[In, Out any](c echo.Context, notFound string, fn func(context.Context, uuid.UUID, *In) (Out, error)) error {
	id, err := pathID(c, notFound)
	if err != nil {
		return err
	}
	in := new(In)
	if err := bind(c, in); err != nil {
		return err
	}
	out, err := fn(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func remove(c echo.Context, notFound string, fn func(context.Context, uuid.UUID) (*DeleteResult, error)) error {
	id, err := pathID(c, notFound)
	if err != nil {
		return err
	}
	res, err := fn(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// -- Departments --

func (h *Handler) ListDepartments(c echo.Context) error {
	return list(c, h.svc.ListDepartments)
}

func (h *Handler) CreateDepartment(c echo.Context) error {
	return create(c, h.svc.CreateDepartment)
}

func (h *Handler) UpdateDepartment(c echo.Context) error {
	return update(c, msgDepartmentNotFound, h.svc.UpdateDepartment)
}

func (h *Handler) DeleteDepartment(c echo.Context) error {
	return remove(c, msgDepartmentNotFound, h.svc.DeleteDepartment)
}

// -- Doctors --

func (h *Handler) ListDoctors(c echo.Context) error {
	return list(c, h.svc.ListDoctors)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	return create(c, h.svc.CreateDoctor)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	return update(c, msgDoctorNotFound, h.svc.UpdateDoctor)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	return remove(c, msgDoctorNotFound, h.svc.DeleteDoctor)
}

// -- Patients --

func (h *Handler) ListPatients(c echo.Context) error {
	return list(c, h.svc.ListPatients)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := pathID(c, msgPatientNotFound)
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	return create(c, h.svc.CreatePatient)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	return update(c, msgPatientNotFound, h.svc.UpdatePatient)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	return remove(c, msgPatientNotFound, h.svc.DeletePatient)
}

// -- Appointments --

func (h *Handler) ListAppointments(c echo.Context) error {
	return list(c, h.svc.ListAppointments)
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	return create(c, h.svc.CreateAppointment)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	return update(c, msgAppointmentNotFound, h.svc.UpdateAppointment)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	return remove(c, msgAppointmentNotFound, h.svc.DeleteAppointment)
}
