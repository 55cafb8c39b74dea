package models

import "github.com/shopspring/decimal"

// DomainEntry is the canonical record for a domain coming back from any
// upstream, whether it arrived as a bare string, an XML attribute bag or a
// JSON object.
type DomainEntry struct {
	Domain   string           `json:"domain"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Premium  bool             `json:"premium"`
	Duration string           `json:"duration,omitempty"`
}

// DomainStatus is one (status, domain) pair from the reseller's delimited
// domain listing.
type DomainStatus struct {
	Status string `json:"status"`
	Domain string `json:"domain"`
}

// DomainCheckResponse is returned by the public availability check.
type DomainCheckResponse struct {
	Domain      string            `json:"domain"`
	Available   bool              `json:"available"`
	Price       *decimal.Decimal  `json:"price,omitempty"`
	Premium     bool              `json:"premium"`
	Currency    string            `json:"currency"`
	Suggestions []DomainSuggested `json:"suggestions"`
}

// DomainSuggested is one alternative offered alongside a check result.
type DomainSuggested struct {
	Domain    string           `json:"domain"`
	Available bool             `json:"available"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}
