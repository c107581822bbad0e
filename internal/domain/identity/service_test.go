package identity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ehr/hospital-console/internal/platform/apiclient"
	"github.com/ehr/hospital-console/internal/platform/validate"
	"github.com/ehr/hospital-console/pkg/pagination"
)

type request struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// fakeBackend answers every call with the reply registered for its path, or
// 204 when none is.
type fakeBackend struct {
	mu       sync.Mutex
	replies  map[string]string
	requests []request
}

func newFakeBackend(t *testing.T, replies map[string]string) (*fakeBackend, *apiclient.Client) {
	t.Helper()
	fb := &fakeBackend{replies: replies}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		json.Unmarshal(data, &body)

		fb.mu.Lock()
		fb.requests = append(fb.requests, request{r.Method, r.URL.Path, r.URL.RawQuery, body})
		reply, ok := fb.replies[r.URL.Path]
		fb.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return fb, apiclient.New(srv.URL)
}

func (fb *fakeBackend) last(t *testing.T) request {
	t.Helper()
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.requests) == 0 {
		t.Fatal("no backend request recorded")
	}
	return fb.requests[len(fb.requests)-1]
}

func TestPatientService_ListFilters(t *testing.T) {
	fb, client := newFakeBackend(t, map[string]string{
		"/pacientes": `[{"id":"p1","nombre":"Ana","apellido":"Ruiz","email":"a@h.com","fecha_nacimiento":"1990-01-01","activo":true}]`,
	})
	svc := NewPatientService(client)

	active := true
	resp, err := svc.List(context.Background(), pagination.Params{Page: 1, Limit: 10},
		PatientFilter{Name: "Ana", Active: &active, IncludeInactive: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := fb.last(t)
	if got.Query != "activo=true&incluir_inactivos=true&limit=10&nombre=Ana&skip=0" {
		t.Errorf("unexpected query %q", got.Query)
	}
	if len(resp.Data) != 1 || resp.Data[0].FirstName != "Ana" || !resp.Data[0].Active {
		t.Errorf("unexpected data: %+v", resp.Data)
	}
	if resp.TotalPages != 1 {
		t.Errorf("expected 1 page, got %d", resp.TotalPages)
	}
}

func TestPatientService_ByEmailAndSearch(t *testing.T) {
	fb, client := newFakeBackend(t, map[string]string{
		"/pacientes/email/a@h.com": `{"id":"p1","email":"a@h.com"}`,
		"/pacientes/buscar/Ana":    `{"data":[{"id":"p1"},{"id":"p2"}]}`,
	})
	svc := NewPatientService(client)
	ctx := context.Background()

	p, err := svc.ByEmail(ctx, "a@h.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "p1" {
		t.Errorf("expected p1, got %s", p.ID)
	}

	found, err := svc.Search(ctx, "Ana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("expected 2 patients, got %d", len(found))
	}
	if fb.last(t).Path != "/pacientes/buscar/Ana" {
		t.Errorf("unexpected path %s", fb.last(t).Path)
	}
}

func TestPatientService_CreateValidatesLocally(t *testing.T) {
	fb, client := newFakeBackend(t, nil)
	svc := NewPatientService(client)

	bad := "12ab"
	_, err := svc.Create(context.Background(), CreatePatientRequest{
		FirstName: "A", LastName: "Ruiz", Email: "not-an-email", Phone: &bad,
	})
	var verrs validate.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	fields := map[string]bool{}
	for _, f := range verrs {
		fields[f.Field] = true
	}
	for _, want := range []string{"nombre", "email", "telefono", "fecha_nacimiento"} {
		if !fields[want] {
			t.Errorf("expected error on %s, got %v", want, verrs)
		}
	}
	if len(fb.requests) != 0 {
		t.Errorf("validation failure must not reach the backend")
	}
}

func TestPhysicianService_CreateSendsCreator(t *testing.T) {
	fb, client := newFakeBackend(t, map[string]string{"/medicos": `{"id":"m1","nombre":"Luis"}`})
	svc := NewPhysicianService(client)

	req := CreatePhysicianRequest{
		FirstName: "Luis", LastName: "Pardo", Email: "l@h.com", BirthDate: "1980-02-02",
		Specialty: "Cardiología", LicenseNumber: "LIC-001",
	}
	req.CreatedBy.CreatedBy = "3f2b8c1e-4d5a-4b6c-8d7e-9f0a1b2c3d4e"
	m, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID != "m1" {
		t.Errorf("expected m1, got %s", m.ID)
	}
	got := fb.last(t)
	if got.Method != http.MethodPost || got.Body["id_usuario_creacion"] != "3f2b8c1e-4d5a-4b6c-8d7e-9f0a1b2c3d4e" {
		t.Errorf("unexpected request: %+v", got)
	}
	if got.Body["especialidad"] != "Cardiología" {
		t.Errorf("expected especialidad in body, got %v", got.Body)
	}
}

func TestNurseService_DeleteDeactivates(t *testing.T) {
	fb, client := newFakeBackend(t, nil)
	svc := NewNurseService(client)
	ctx := context.Background()

	if err := svc.Delete(ctx, "n1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fb.last(t); got.Method != http.MethodPatch || got.Path != "/enfermeras/n1/inactivar" {
		t.Errorf("expected PATCH /enfermeras/n1/inactivar, got %s %s", got.Method, got.Path)
	}

	if err := svc.Reactivate(ctx, "n1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fb.last(t); got.Path != "/enfermeras/n1/reactivar" {
		t.Errorf("expected reactivar, got %s", got.Path)
	}

	if err := svc.Purge(ctx, "n1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fb.last(t); got.Method != http.MethodDelete || got.Path != "/enfermeras/n1" {
		t.Errorf("expected DELETE /enfermeras/n1, got %s %s", got.Method, got.Path)
	}
}

func TestUpdateNurseRequest_Validate(t *testing.T) {
	short := "ab"
	if err := (UpdateNurseRequest{LicenseNumber: &short}).Validate(); err == nil {
		t.Error("expected license length error")
	}
	if err := (UpdateNurseRequest{}).Validate(); err != nil {
		t.Errorf("empty update must pass, got %v", err)
	}
}

func TestParseFilters(t *testing.T) {
	q := map[string][]string{
		"nombre":            {"Ana"},
		"activo":            {"false"},
		"especialidad":      {"Pediatría"},
		"turno":             {"noche"},
		"incluir_inactivos": {"true"},
	}

	pf := ParsePatientFilter(q)
	if pf.Active == nil || *pf.Active || !pf.IncludeInactive {
		t.Errorf("unexpected patient filter %+v", pf)
	}
	if ParsePhysicianFilter(q).Params()["especialidad"] != "Pediatría" {
		t.Error("expected especialidad param")
	}
	nf := ParseNurseFilter(q).Params()
	if nf["turno"] != "noche" || nf["incluir_inactivos"] != true {
		t.Errorf("unexpected nurse params %v", nf)
	}

	if got := ParsePatientFilter(map[string][]string{"activo": {"maybe"}}); got.Active != nil {
		t.Error("unparseable activo must be dropped")
	}
}
