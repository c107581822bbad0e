package billing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ehr/hospital-console/internal/platform/apiclient"
	"github.com/ehr/hospital-console/pkg/pagination"
)

type call struct {
	method, path, query string
	body                map[string]any
}

type backend struct {
	mu    sync.Mutex
	calls []call
}

func newBackend(t *testing.T, reply string) (*backend, *apiclient.Client) {
	t.Helper()
	b := &backend{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		json.Unmarshal(data, &body)
		b.mu.Lock()
		b.calls = append(b.calls, call{r.Method, r.URL.Path, r.URL.RawQuery, body})
		b.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return b, apiclient.New(srv.URL)
}

func (b *backend) last() call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[len(b.calls)-1]
}

func TestInvoiceService_CreateComputesTotal(t *testing.T) {
	b, client := newBackend(t, `{"id":"f1","total":121}`)

	inv, err := NewInvoiceService(client).Create(context.Background(), CreateInvoiceRequest{
		Number:    "F-0001",
		IssuedAt:  "2026-10-01",
		DueAt:     "2026-10-31",
		Subtotal:  100,
		Taxes:     21,
		Total:     5,
		PatientID: "p1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Total != 121 {
		t.Errorf("unexpected invoice %+v", inv)
	}
	got := b.last()
	if got.method != http.MethodPost || got.path != "/facturas" {
		t.Errorf("unexpected call %s %s", got.method, got.path)
	}
	if got.body["total"] != 121.0 {
		t.Errorf("expected total 121, got %v", got.body["total"])
	}
}

func TestInvoiceService_UpdateRecomputesOnlyWithBothAmounts(t *testing.T) {
	b, client := newBackend(t, `{"id":"f1"}`)
	svc := NewInvoiceService(client)
	ctx := context.Background()

	subtotal, taxes := 10.10, 2.12
	if _, err := svc.Update(ctx, "f1", UpdateInvoiceRequest{Subtotal: &subtotal, Taxes: &taxes}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := b.last().body["total"]; got != 12.22 {
		t.Errorf("expected total 12.22, got %v", got)
	}

	if _, err := svc.Update(ctx, "f1", UpdateInvoiceRequest{Subtotal: &subtotal}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := b.last().body["total"]; ok {
		t.Error("total must not be sent when taxes are unknown")
	}
}

func TestCreateInvoiceRequest_Validate(t *testing.T) {
	err := CreateInvoiceRequest{Number: "F1", Subtotal: -1, Taxes: 1.234}.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"numero_factura", "fecha_emision", "fecha_vencimiento", "subtotal", "impuestos", "paciente_id"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("expected %s in %v", field, err)
		}
	}
}

func TestLineItemService_CreateComputesSubtotal(t *testing.T) {
	b, client := newBackend(t, `{"id":"d1"}`)

	_, err := NewLineItemService(client).Create(context.Background(), CreateLineItemRequest{
		Description: "Radiografia",
		Quantity:    3,
		UnitPrice:   12.5,
		InvoiceID:   "f1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := b.last()
	if got.path != "/factura-detalles" || got.body["subtotal"] != 37.5 {
		t.Errorf("unexpected call %s %v", got.path, got.body)
	}
}

func TestCreateLineItemRequest_Validate(t *testing.T) {
	err := CreateLineItemRequest{Description: "ab", Quantity: 0, UnitPrice: -2}.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"descripcion", "cantidad", "precio_unitario", "factura_id"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("expected %s in %v", field, err)
		}
	}
}

func TestLineItemService_ForInvoice(t *testing.T) {
	b, client := newBackend(t, `[{"id":"d1","cantidad":1},{"id":"d2","cantidad":2}]`)

	resp, err := NewLineItemService(client).ForInvoice(context.Background(), "f1", pagination.Params{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := b.last(); got.query != "factura_id=f1&limit=2&skip=0" {
		t.Errorf("unexpected query %s", got.query)
	}
	if resp.TotalPages != 2 {
		t.Errorf("full page must assume a successor, got %d", resp.TotalPages)
	}
}

type routeGuard map[string]bool

func (g routeGuard) IsAuthenticated(context.Context) bool { return true }
func (g routeGuard) CanAccess(route string) bool          { return g[route] }

func TestHandler_ConsumerSeesInvoicesOnly(t *testing.T) {
	_, client := newBackend(t, `[]`)
	e := echo.New()
	NewHandler(NewService(client), routeGuard{"facturas": true}, nil).RegisterRoutes(e.Group("/api/v1"))

	cases := map[string]int{
		"/api/v1/facturas":             http.StatusOK,
		"/api/v1/facturas/f1/detalles": http.StatusForbidden,
		"/api/v1/facturas-detalle":     http.StatusForbidden,
	}
	for target, want := range cases {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != want {
			t.Errorf("%s: expected %d, got %d", target, want, rec.Code)
		}
	}
}
