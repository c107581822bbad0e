package billing

import (
	"math"
	"net/url"
	"strconv"

	"github.com/ehr/hospital-console/internal/platform/apiclient"
	"github.com/ehr/hospital-console/internal/platform/resource"
	"github.com/ehr/hospital-console/internal/platform/validate"
)

type PatientSummary struct {
	ID        resource.ID `json:"id"`
	FirstName string      `json:"nombre"`
	LastName  string      `json:"apellido"`
}

type Invoice struct {
	resource.Record
	Number    string          `json:"numero_factura"`
	IssuedAt  string          `json:"fecha_emision"`
	DueAt     string          `json:"fecha_vencimiento"`
	Subtotal  float64         `json:"subtotal"`
	Taxes     float64         `json:"impuestos"`
	Total     float64         `json:"total"`
	Notes     *string         `json:"notas,omitempty"`
	PatientID string          `json:"paciente_id"`
	Status    string          `json:"estado"`
	Patient   *PatientSummary `json:"paciente,omitempty"`
	Lines     []LineItem      `json:"detalles,omitempty"`
}

type CreateInvoiceRequest struct {
	resource.CreatedBy
	Number    string  `json:"numero_factura"`
	IssuedAt  string  `json:"fecha_emision"`
	DueAt     string  `json:"fecha_vencimiento"`
	Subtotal  float64 `json:"subtotal"`
	Taxes     float64 `json:"impuestos"`
	Total     float64 `json:"total"`
	Notes     *string `json:"notas,omitempty"`
	PatientID string  `json:"paciente_id"`
}

func (r CreateInvoiceRequest) Validate() error {
	var v validate.Checker
	v.Required("numero_factura", r.Number)
	checkInvoiceNumber(&v, r.Number)
	v.Required("fecha_emision", r.IssuedAt)
	v.Required("fecha_vencimiento", r.DueAt)
	checkAmount(&v, "subtotal", r.Subtotal)
	checkAmount(&v, "impuestos", r.Taxes)
	checkAmount(&v, "total", r.Total)
	checkNotes(&v, r.Notes)
	v.Required("paciente_id", r.PatientID)
	return v.Err()
}

type UpdateInvoiceRequest struct {
	resource.EditedByField
	Number   *string  `json:"numero_factura,omitempty"`
	IssuedAt *string  `json:"fecha_emision,omitempty"`
	DueAt    *string  `json:"fecha_vencimiento,omitempty"`
	Subtotal *float64 `json:"subtotal,omitempty"`
	Taxes    *float64 `json:"impuestos,omitempty"`
	Total    *float64 `json:"total,omitempty"`
	Notes    *string  `json:"notas,omitempty"`
	Status   *string  `json:"estado,omitempty"`
}

func (r UpdateInvoiceRequest) Validate() error {
	var v validate.Checker
	if r.Number != nil {
		v.Required("numero_factura", *r.Number)
		checkInvoiceNumber(&v, *r.Number)
	}
	for field, amount := range map[string]*float64{"subtotal": r.Subtotal, "impuestos": r.Taxes, "total": r.Total} {
		if amount != nil {
			checkAmount(&v, field, *amount)
		}
	}
	checkNotes(&v, r.Notes)
	return v.Err()
}

type InvoiceFilter struct {
	PatientID string
	Status    string
	Number    string
}

func (f InvoiceFilter) Params() apiclient.Params {
	return apiclient.Params{
		"paciente_id":    f.PatientID,
		"estado":         f.Status,
		"numero_factura": f.Number,
	}
}

func ParseInvoiceFilter(q url.Values) InvoiceFilter {
	return InvoiceFilter{
		PatientID: q.Get("paciente_id"),
		Status:    q.Get("estado"),
		Number:    q.Get("numero_factura"),
	}
}

// LineItem is one factura detalle.
type LineItem struct {
	resource.Record
	Description string  `json:"descripcion"`
	Quantity    float64 `json:"cantidad"`
	UnitPrice   float64 `json:"precio_unitario"`
	Subtotal    float64 `json:"subtotal"`
	InvoiceID   string  `json:"factura_id"`
}

type CreateLineItemRequest struct {
	resource.CreatedBy
	Description string  `json:"descripcion"`
	Quantity    float64 `json:"cantidad"`
	UnitPrice   float64 `json:"precio_unitario"`
	Subtotal    float64 `json:"subtotal"`
	InvoiceID   string  `json:"factura_id"`
}

func (r CreateLineItemRequest) Validate() error {
	var v validate.Checker
	v.Required("descripcion", r.Description)
	checkDescription(&v, r.Description)
	v.Positive("cantidad", r.Quantity)
	checkAmount(&v, "precio_unitario", r.UnitPrice)
	v.Required("factura_id", r.InvoiceID)
	return v.Err()
}

type UpdateLineItemRequest struct {
	resource.EditedByField
	Description *string  `json:"descripcion,omitempty"`
	Quantity    *float64 `json:"cantidad,omitempty"`
	UnitPrice   *float64 `json:"precio_unitario,omitempty"`
	Subtotal    *float64 `json:"subtotal,omitempty"`
}

func (r UpdateLineItemRequest) Validate() error {
	var v validate.Checker
	if r.Description != nil {
		v.Required("descripcion", *r.Description)
		checkDescription(&v, *r.Description)
	}
	if r.Quantity != nil {
		v.Positive("cantidad", *r.Quantity)
	}
	if r.UnitPrice != nil {
		checkAmount(&v, "precio_unitario", *r.UnitPrice)
	}
	return v.Err()
}

type LineItemFilter struct {
	InvoiceID string
}

func (f LineItemFilter) Params() apiclient.Params {
	return apiclient.Params{"factura_id": f.InvoiceID}
}

func ParseLineItemFilter(q url.Values) LineItemFilter {
	return LineItemFilter{InvoiceID: q.Get("factura_id")}
}

func checkInvoiceNumber(v *validate.Checker, n string) {
	v.MinLen("numero_factura", n, 3)
	v.MaxLen("numero_factura", n, 50)
}

func checkDescription(v *validate.Checker, d string) {
	v.MinLen("descripcion", d, 3)
	v.MaxLen("descripcion", d, 255)
}

func checkNotes(v *validate.Checker, notes *string) {
	if notes != nil {
		v.MaxLen("notas", *notes, 500)
	}
}

// checkAmount accepts non-negative money values with at most two decimals.
func checkAmount(v *validate.Checker, field string, amount float64) {
	v.NonNegative(field, amount)
	if amount >= 0 {
		v.Decimal(field, strconv.FormatFloat(amount, 'f', -1, 64))
	}
}

// round2 rounds half away from zero to cents.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
