package billing

import (
	"context"

	"github.com/ehr/hospital-console/internal/platform/resource"
	"github.com/ehr/hospital-console/pkg/pagination"
)

const (
	InvoicesEndpoint  = "/facturas"
	LineItemsEndpoint = "/factura-detalles"
)

type InvoiceService struct {
	*resource.Resource[Invoice, CreateInvoiceRequest, UpdateInvoiceRequest]
}

func NewInvoiceService(b resource.Backend) *InvoiceService {
	return &InvoiceService{resource.New[Invoice, CreateInvoiceRequest, UpdateInvoiceRequest](b, InvoicesEndpoint)}
}

// Create fills total as subtotal plus taxes before sending.
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	req.Total = round2(req.Subtotal + req.Taxes)
	return s.Resource.Create(ctx, req)
}

// Update recomputes total when both amounts are sent.
func (s *InvoiceService) Update(ctx context.Context, id string, req UpdateInvoiceRequest) (*Invoice, error) {
	if req.Subtotal != nil && req.Taxes != nil {
		total := round2(*req.Subtotal + *req.Taxes)
		req.Total = &total
	}
	return s.Resource.Update(ctx, id, req)
}

type LineItemService struct {
	*resource.Resource[LineItem, CreateLineItemRequest, UpdateLineItemRequest]
}

func NewLineItemService(b resource.Backend) *LineItemService {
	return &LineItemService{resource.New[LineItem, CreateLineItemRequest, UpdateLineItemRequest](b, LineItemsEndpoint)}
}

// Create fills subtotal as quantity times unit price before sending.
func (s *LineItemService) Create(ctx context.Context, req CreateLineItemRequest) (*LineItem, error) {
	req.Subtotal = round2(req.Quantity * req.UnitPrice)
	return s.Resource.Create(ctx, req)
}

// Update recomputes subtotal when both factors are sent.
func (s *LineItemService) Update(ctx context.Context, id string, req UpdateLineItemRequest) (*LineItem, error) {
	if req.Quantity != nil && req.UnitPrice != nil {
		subtotal := round2(*req.Quantity * *req.UnitPrice)
		req.Subtotal = &subtotal
	}
	return s.Resource.Update(ctx, id, req)
}

// ForInvoice lists the line items of one invoice.
func (s *LineItemService) ForInvoice(ctx context.Context, invoiceID string, p pagination.Params) (*pagination.Response[LineItem], error) {
	return s.List(ctx, p, LineItemFilter{InvoiceID: invoiceID})
}

type Service struct {
	Invoices  *InvoiceService
	LineItems *LineItemService
}

func NewService(b resource.Backend) *Service {
	return &Service{
		Invoices:  NewInvoiceService(b),
		LineItems: NewLineItemService(b),
	}
}
