package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type stubGuard struct {
	authenticated bool
	role          Role
}

func (s stubGuard) IsAuthenticated(context.Context) bool { return s.authenticated }
func (s stubGuard) CanAccess(route string) bool          { return CanAccess(s.role, route) }
func (s stubGuard) HasRole(r Role) bool                  { return s.role == r }

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func newContext(path string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)
	return c, rec
}

func assertHTTPCode(t *testing.T, err error, code int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	if he.Code != code {
		t.Errorf("expected %d, got %d", code, he.Code)
	}
}

func TestRequireRoute_Unauthenticated(t *testing.T) {
	c, _ := newContext("/api/v1/citas")
	err := RequireRoute(stubGuard{}, RouteAppointments)(okHandler)(c)
	assertHTTPCode(t, err, http.StatusUnauthorized)
}

func TestRequireRoute_Forbidden(t *testing.T) {
	c, _ := newContext("/api/v1/usuarios")
	err := RequireRoute(stubGuard{authenticated: true, role: RoleConsumer}, RouteUsers)(okHandler)(c)
	assertHTTPCode(t, err, http.StatusForbidden)
}

func TestRequireRoute_Allowed(t *testing.T) {
	c, rec := newContext("/api/v1/citas")
	err := RequireRoute(stubGuard{authenticated: true, role: RoleConsumer}, RouteAppointments)(okHandler)(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireAuth_SkipsPublicPaths(t *testing.T) {
	c, rec := newContext("/health")
	if err := RequireAuth(stubGuard{})(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	c, _ = newContext("/auth/me")
	err := RequireAuth(stubGuard{})(okHandler)(c)
	assertHTTPCode(t, err, http.StatusUnauthorized)
}

func TestRequireRole(t *testing.T) {
	c, _ := newContext("/api/v1/dashboard")
	err := RequireRole(stubGuard{role: RoleConsumer}, RoleAdmin)(okHandler)(c)
	assertHTTPCode(t, err, http.StatusForbidden)

	c, rec := newContext("/api/v1/dashboard")
	if err := RequireRole(stubGuard{role: RoleAdmin}, RoleAdmin)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestIsPublicPath(t *testing.T) {
	if !IsPublicPath("/metrics") {
		t.Error("/metrics should be public")
	}
	if IsPublicPath("/api/v1/citas") {
		t.Error("/api/v1/citas should not be public")
	}
}
