package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestAuthenticate_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var handlerCalled bool
	handler := func(c echo.Context) error {
		handlerCalled = true
		return c.String(http.StatusOK, "ok")
	}

	mw := Authenticate(newTestCredentials(t))
	err := mw(handler)(c)

	if err == nil {
		t.Fatal("expected error for missing header")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", httpErr.Code)
	}
	if handlerCalled {
		t.Error("handler must not run without a token")
	}
}

func TestAuthenticate_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			}

			err := Authenticate(newTestCredentials(t))(handler)(c)
			if err == nil {
				t.Fatal("expected error for invalid format")
			}
			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected echo.HTTPError, got %T", err)
			}
			if httpErr.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", httpErr.Code)
			}
		})
	}
}

func TestAuthenticate_ValidToken(t *testing.T) {
	creds := newTestCredentials(t)
	tokenStr, err := creds.IssueToken("user-123", RoleDoctor)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotID, gotRole string
	handler := func(c echo.Context) error {
		gotID = UserIDFromContext(c.Request().Context())
		gotRole = RoleFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	}

	if err := Authenticate(creds)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != "user-123" {
		t.Errorf("expected user-123, got %q", gotID)
	}
	if gotRole != RoleDoctor {
		t.Errorf("expected doctor, got %q", gotRole)
	}
}

func TestAuthenticate_LowercaseBearer(t *testing.T) {
	creds := newTestCredentials(t)
	tokenStr, _ := creds.IssueToken("user-9", RolePatient)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}
	if err := Authenticate(creds)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
