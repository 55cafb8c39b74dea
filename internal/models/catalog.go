package models

// PlanSpecs is the hardware description attached to a hosting plan.
type PlanSpecs struct {
	RAM  string `json:"ram"`
	CPU  string `json:"cpu"`
	Disk string `json:"disk"`
}

// Plan is one purchasable bot-hosting plan.
type Plan struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PriceMonthly float64   `json:"priceMonthly"`
	Specs        PlanSpecs `json:"specs"`
	Features     []string  `json:"features"`
}

// HostNode is one deployment location shown to customers.
type HostNode struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Region  string `json:"region"`
	Status  string `json:"status"`
	Load    int    `json:"load"`
}

// Invoice summary as listed under billing.
type Invoice struct {
	ID      string  `json:"id"`
	Date    string  `json:"date"`
	Amount  float64 `json:"amount"`
	Status  string  `json:"status"`
	Service string  `json:"service"`
	PDFURL  string  `json:"pdfUrl"`
}

// InvoiceItem is one line of an invoice detail view.
type InvoiceItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
}

// InvoiceDetail is the full invoice view.
type InvoiceDetail struct {
	ID       string        `json:"id"`
	Date     string        `json:"date"`
	Status   string        `json:"status"`
	Items    []InvoiceItem `json:"items"`
	Subtotal float64       `json:"subtotal"`
	Tax      float64       `json:"tax"`
	Total    float64       `json:"total"`
	Currency string        `json:"currency"`
}

// Contract is one active or historical service agreement.
type Contract struct {
	ID          string `json:"id"`
	ServiceName string `json:"serviceName"`
	Type        string `json:"type"`
	ActiveSince string `json:"activeSince"`
	RenewsOn    string `json:"renewsOn"`
	Status      string `json:"status"`
}

// CheckoutRequest is a cart checkout submission.
type CheckoutRequest struct {
	Items      []CheckoutItem `json:"items"`
	CouponCode string         `json:"couponCode,omitempty"`
}

// CheckoutItem is one cart line.
type CheckoutItem struct {
	PlanID   string  `json:"planId"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// CheckoutResponse is the created order.
type CheckoutResponse struct {
	OrderID   string  `json:"orderId"`
	InvoiceID string  `json:"invoiceId"`
	Status    string  `json:"status"`
	Total     float64 `json:"total"`
	Discount  float64 `json:"discount"`
}
