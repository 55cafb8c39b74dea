package models

// Promotion discount types.
const (
	PromoTypePercentage = "percentage"
	PromoTypeFixed      = "fixed"
	PromoTypeCustom     = "custom"
)

// Promotion is one promotional code row.
type Promotion struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Code          string  `json:"code"`
	Type          string  `json:"type"`
	DiscountValue float64 `json:"discountValue"`
}

// PromoValidation is the result of validating a code against the store.
// The promotions table is the canonical source of the discount amount.
type PromoValidation struct {
	Valid          bool    `json:"valid"`
	DiscountAmount float64 `json:"discountAmount"`
	Type           string  `json:"type,omitempty"`
	Description    string  `json:"description"`
}
