package service

import (
	"context"
	"log"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/nexfinity/hosting-gateway/internal/models"
)

// CatalogService serves the static sales catalog: plans, host nodes,
// invoices and contracts. These are fixtures today; only promotions and
// hosting accounts live in the database.
type CatalogService struct {
	promotions *PromotionService
}

// NewCatalogService creates a catalog service. promotions is used to apply
// coupon codes at checkout.
func NewCatalogService(promotions *PromotionService) *CatalogService {
	return &CatalogService{promotions: promotions}
}

var plans = []models.Plan{
	{
		ID: "basic", Name: "Basic", PriceMonthly: 9.99,
		Specs:    models.PlanSpecs{RAM: "1GB", CPU: "1 vCore", Disk: "10GB SSD"},
		Features: []string{"24/7 Uptime", "Basic Support", "1 Bot Instance"},
	},
	{
		ID: "premium", Name: "Premium", PriceMonthly: 24.99,
		Specs:    models.PlanSpecs{RAM: "4GB", CPU: "2 vCores", Disk: "50GB SSD"},
		Features: []string{"24/7 Uptime", "Priority Support", "5 Bot Instances", "Auto Backups"},
	},
	{
		ID: "pro", Name: "Pro", PriceMonthly: 49.99,
		Specs:    models.PlanSpecs{RAM: "8GB", CPU: "4 vCores", Disk: "100GB SSD"},
		Features: []string{"24/7 Uptime", "Dedicated Support", "Unlimited Instances", "Auto Backups", "DDoS Protection"},
	},
}

var hostNodes = []models.HostNode{
	{ID: 1, Name: "US-East-1", Country: "United States", Region: "Virginia", Status: "online", Load: 45},
	{ID: 2, Name: "US-West-1", Country: "United States", Region: "California", Status: "online", Load: 62},
	{ID: 3, Name: "EU-Central-1", Country: "Germany", Region: "Frankfurt", Status: "online", Load: 38},
	{ID: 4, Name: "ASIA-1", Country: "Singapore", Region: "Singapore", Status: "maintenance", Load: 0},
}

var invoices = []models.Invoice{
	{ID: "INV-001", Date: "2024-12-01", Amount: 29.99, Status: "paid", Service: "Bot Hosting - Premium", PDFURL: "/api/v1/billing/invoices/INV-001/pdf"},
	{ID: "INV-002", Date: "2024-11-01", Amount: 49.99, Status: "paid", Service: "Domain Registration", PDFURL: "/api/v1/billing/invoices/INV-002/pdf"},
	{ID: "INV-003", Date: "2024-10-01", Amount: 29.99, Status: "pending", Service: "Bot Hosting - Premium", PDFURL: "/api/v1/billing/invoices/INV-003/pdf"},
}

var contracts = []models.Contract{
	{ID: "CTR-001", ServiceName: "Bot Hosting Premium", Type: "monthly", ActiveSince: "2024-01-15", RenewsOn: "2025-01-15", Status: "active"},
	{ID: "CTR-002", ServiceName: "example.com", Type: "yearly", ActiveSince: "2024-06-01", RenewsOn: "2025-06-01", Status: "active"},
	{ID: "CTR-003", ServiceName: "Web Hosting Pro", Type: "monthly", ActiveSince: "2023-12-01", RenewsOn: "2024-12-01", Status: "expired"},
}

// Plans lists the purchasable plans.
func (s *CatalogService) Plans() []models.Plan { return plans }

// Nodes lists the deployment locations.
func (s *CatalogService) Nodes() []models.HostNode { return hostNodes }

// Invoices lists invoices, optionally filtered to a year prefix.
func (s *CatalogService) Invoices(year string) []models.Invoice {
	if year == "" {
		return invoices
	}
	var filtered []models.Invoice
	for _, inv := range invoices {
		if strings.HasPrefix(inv.Date, year) {
			filtered = append(filtered, inv)
		}
	}
	return filtered
}

// InvoiceDetail returns the full invoice view for an id.
func (s *CatalogService) InvoiceDetail(id string) *models.InvoiceDetail {
	return &models.InvoiceDetail{
		ID:     id,
		Date:   "2024-12-01",
		Status: "paid",
		Items: []models.InvoiceItem{
			{Description: "Bot Hosting - Premium Plan", Quantity: 1, UnitPrice: 24.99, Total: 24.99},
			{Description: "Additional RAM (2GB)", Quantity: 1, UnitPrice: 5.00, Total: 5.00},
		},
		Subtotal: 29.99,
		Tax:      0,
		Total:    29.99,
		Currency: "USD",
	}
}

// Contracts lists contracts, optionally filtered by status.
func (s *CatalogService) Contracts(status string) []models.Contract {
	if status == "" {
		return contracts
	}
	var filtered []models.Contract
	for _, c := range contracts {
		if c.Status == status {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// ContractDetail returns a single contract by id, or nil if unknown.
func (s *CatalogService) ContractDetail(id string) *models.Contract {
	for i := range contracts {
		if contracts[i].ID == id {
			return &contracts[i]
		}
	}
	return nil
}

// Checkout creates an order from the cart. Coupon discounts come from the
// promotions store; an invalid or unverifiable code simply yields no
// discount.
func (s *CatalogService) Checkout(ctx context.Context, req *models.CheckoutRequest) *models.CheckoutResponse {
	total := 0.0
	for _, item := range req.Items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		total += item.Price * float64(qty)
	}

	discount := 0.0
	if req.CouponCode != "" {
		validation, err := s.promotions.Validate(ctx, req.CouponCode)
		switch {
		case err != nil:
			log.Printf("[Catalog] coupon %q validation failed: %v", req.CouponCode, err)
		case validation.Valid:
			if validation.Type == models.PromoTypePercentage {
				discount = math.Round(total*validation.DiscountAmount) / 100
			} else {
				discount = validation.DiscountAmount
			}
			if discount > total {
				discount = total
			}
		}
	}

	return &models.CheckoutResponse{
		OrderID:   "ORD-" + uuid.New().String(),
		InvoiceID: "INV-" + uuid.New().String(),
		Status:    "pending",
		Total:     math.Round((total-discount)*100) / 100,
		Discount:  discount,
	}
}
