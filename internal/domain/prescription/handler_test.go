package prescription

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/middleware"
)

func newTestEcho(t *testing.T, f *fixture) (*echo.Echo, map[string]string) {
	t.Helper()
	creds, err := auth.NewCredentials([]byte("prescription-test-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(zerolog.Nop(), false)
	NewHandler(f.svc).RegisterRoutes(e.Group("/api"), auth.Authenticate(creds))

	tokens := map[string]string{}
	for _, role := range []string{auth.RoleAdmin, auth.RoleDoctor, auth.RolePatient} {
		tok, err := creds.IssueToken(uuid.NewString(), role)
		require.NoError(t, err)
		tokens[role] = tok
	}
	return e, tokens
}

func serve(e *echo.Echo, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_ListRoles(t *testing.T) {
	f := newFixture()
	e, tokens := newTestEcho(t, f)
	target := "/api/prescriptions/" + f.patientID.String()

	tests := []struct {
		role string
		want int
	}{
		{auth.RoleAdmin, http.StatusForbidden},
		{auth.RoleDoctor, http.StatusOK},
		{auth.RolePatient, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			rec := serve(e, http.MethodGet, target, tokens[tt.role], "")
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	rec := serve(e, http.MethodGet, target, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutes_CreateDoctorOnly(t *testing.T) {
	f := newFixture()
	e, tokens := newTestEcho(t, f)
	body := `{"patient":"` + f.patientID.String() + `","doctor":"` + f.doctorID.String() + `",` +
		`"medication":"Ibuprofen","type":"Tablet","dosage":"200mg","frequency":"As needed","duration":"1 week"}`

	for _, role := range []string{auth.RoleAdmin, auth.RolePatient} {
		rec := serve(e, http.MethodPost, "/api/prescriptions", tokens[role], body)
		assert.Equal(t, http.StatusForbidden, rec.Code, role)
	}
	assert.Empty(t, f.repo.rows)

	rec := serve(e, http.MethodPost, "/api/prescriptions", tokens[auth.RoleDoctor], body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "active", created["status"])
	assert.NotNil(t, created["endDate"])
}

func TestRoutes_CreateUnknownPatient(t *testing.T) {
	f := newFixture()
	e, tokens := newTestEcho(t, f)
	body := `{"patient":"` + uuid.NewString() + `","doctor":"` + f.doctorID.String() + `",` +
		`"medication":"Ibuprofen","type":"Tablet","dosage":"200mg","frequency":"As needed","duration":"1 week"}`

	rec := serve(e, http.MethodPost, "/api/prescriptions", tokens[auth.RoleDoctor], body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Patient not found"}`, rec.Body.String())
}

func TestRoutes_ListShape(t *testing.T) {
	f := newFixture()
	e, tokens := newTestEcho(t, f)
	_, err := f.svc.Create(context.Background(), f.request())
	require.NoError(t, err)

	rec := serve(e, http.MethodGet, "/api/prescriptions/"+f.patientID.String(), tokens[auth.RolePatient], "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Jane Doe", list[0]["patientName"])
	assert.Equal(t, "Dr House", list[0]["doctorName"])
	doctor, ok := list[0]["doctor"].(map[string]interface{})
	require.True(t, ok, "doctor should be an object, got %v", list[0]["doctor"])
	assert.Equal(t, f.doctorID.String(), doctor["id"])
	assert.Equal(t, f.patientID.String(), list[0]["patient"])
}

func TestRoutes_ListMalformedPatientID(t *testing.T) {
	f := newFixture()
	e, tokens := newTestEcho(t, f)

	rec := serve(e, http.MethodGet, "/api/prescriptions/abc", tokens[auth.RoleDoctor], "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
