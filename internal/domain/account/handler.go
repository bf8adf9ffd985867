package account

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

// RegisterRoutes mounts /auth and /users under api. authn guards every route
// except signup and login.
func (h *Handler) RegisterRoutes(api *echo.Group, authn echo.MiddlewareFunc) {
	authGroup := api.Group("/auth")
	authGroup.POST("/signup", h.Signup)
	authGroup.POST("/login", h.Login)
	authGroup.GET("/me", h.GetMe, authn)
	authGroup.PUT("/me", h.UpdateMe, authn)
	authGroup.PUT("/change-password", h.ChangePassword, authn)
	authGroup.POST("/logout", h.Logout, authn)

	users := api.Group("/users", authn, auth.RequireRole(auth.RoleAdmin))
	users.GET("", h.ListUsers)
	users.POST("", h.CreateUser)
	users.GET("/me", h.GetMe)
	users.PUT("/update", h.UpdateProfile)
	users.DELETE("/:id", h.DeleteUser)
}

func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return nil
}

// callerID is the id of the authenticated user. A token whose subject is not
// a valid id is treated like a deleted account.
func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, apperr.NotFound(msgUserNotFound)
	}
	return id, nil
}

func (h *Handler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	resp, err := h.svc.Signup(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	resp, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetMe(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	u, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) UpdateMe(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	var req UpdateMeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.svc.UpdateMe(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ChangePassword(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	var req ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.svc.ChangePassword(c.Request().Context(), id, &req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Password updated successfully",
	})
}

// Logout has nothing to revoke; tokens stay valid until they expire.
func (h *Handler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logout successful",
	})
}

func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) CreateUser(c echo.Context) error {
	var req SignupRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.svc.CreateUser(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	var req UpdateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.svc.UpdateProfile(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.NotFound(msgUserNotFound)
	}
	n, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":      "User deleted",
		"deletedCount": n,
	})
}
