package service

import (
	"context"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nexfinity/hosting-gateway/internal/models"
	"github.com/nexfinity/hosting-gateway/internal/upstream"
)

type registrarAPI interface {
	CheckDomains(ctx context.Context, domains []string) ([]models.DomainEntry, map[string]bool, error)
	TLDPricing(ctx context.Context) ([]models.DomainEntry, error)
}

// DomainService answers availability checks against the registrar and
// offers alternative suggestions alongside each result.
type DomainService struct {
	registrar registrarAPI
}

// NewDomainService creates a domain service.
func NewDomainService(registrar registrarAPI) *DomainService {
	return &DomainService{registrar: registrar}
}

// Check looks up availability for the queried name plus a fixed set of
// alternatives (.net, .org and a "get" prefix) in one registrar call.
// Pricing is best-effort: a pricing failure degrades to price-less results
// rather than failing the check.
func (s *DomainService) Check(ctx context.Context, query string) (*models.DomainCheckResponse, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, upstream.InvalidRequest("domain query is required")
	}

	base := query
	if !strings.Contains(base, ".") {
		base += ".com"
	}
	name := strings.SplitN(base, ".", 2)[0]

	candidates := []string{base, name + ".net", name + ".org", "get" + base}

	entries, available, err := s.registrar.CheckDomains(ctx, candidates)
	if err != nil {
		return nil, err
	}

	prices := s.tldPrices(ctx)
	priceFor := func(entry models.DomainEntry) *decimal.Decimal {
		if entry.Price != nil {
			return entry.Price
		}
		if idx := strings.LastIndex(entry.Domain, "."); idx != -1 {
			if p, ok := prices[entry.Domain[idx+1:]]; ok {
				return &p
			}
		}
		return nil
	}

	resp := &models.DomainCheckResponse{Domain: base, Currency: "USD"}
	for _, entry := range entries {
		if strings.EqualFold(entry.Domain, base) {
			resp.Available = available[strings.ToLower(entry.Domain)]
			resp.Premium = entry.Premium
			resp.Price = priceFor(entry)
			continue
		}
		resp.Suggestions = append(resp.Suggestions, models.DomainSuggested{
			Domain:    entry.Domain,
			Available: available[strings.ToLower(entry.Domain)],
			Price:     priceFor(entry),
		})
	}
	return resp, nil
}

// tldPrices returns registration price per TLD, empty on failure.
func (s *DomainService) tldPrices(ctx context.Context) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal)
	entries, err := s.registrar.TLDPricing(ctx)
	if err != nil {
		log.Printf("[Domains] TLD pricing lookup failed: %v", err)
		return prices
	}
	for _, e := range entries {
		if e.Price != nil {
			prices[strings.ToLower(strings.TrimPrefix(e.Domain, "."))] = *e.Price
		}
	}
	return prices
}
