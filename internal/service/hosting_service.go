package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nexfinity/hosting-gateway/internal/models"
	"github.com/nexfinity/hosting-gateway/internal/repository"
	"github.com/nexfinity/hosting-gateway/internal/upstream"
)

type resellerAPI interface {
	CreateAccount(ctx context.Context, p upstream.CreateAccountParams) (string, error)
	SuspendAccount(ctx context.Context, username, reason string) (string, error)
	UnsuspendAccount(ctx context.Context, username string) (string, error)
	CheckAvailable(ctx context.Context, domain string) (bool, error)
	UserDomains(ctx context.Context, username string) ([]models.DomainStatus, error)
	UserDomainsXML(ctx context.Context, username string) ([]models.DomainStatus, error)
}

type accountStore interface {
	GetByUsername(ctx context.Context, username string) (*models.HostingAccount, error)
	Upsert(ctx context.Context, acct *models.HostingAccount) error
	UpdateStatus(ctx context.Context, username, status string) error
}

// HostingService manages reseller hosting accounts. The reseller API has no
// account-read endpoint, so every account we create is mirrored into the
// local store, which then serves reads.
type HostingService struct {
	reseller resellerAPI
	accounts accountStore
}

// NewHostingService creates a hosting service.
func NewHostingService(reseller resellerAPI, accounts accountStore) *HostingService {
	return &HostingService{reseller: reseller, accounts: accounts}
}

// FullAccountInfo returns the local record when one exists. For unknown
// usernames it falls back to the reseller's live domain listing; a listing
// failure is tolerated and yields an empty list, because the stub answer is
// informational only.
func (s *HostingService) FullAccountInfo(ctx context.Context, username string) (*models.FullAccountInfo, error) {
	if username == "" {
		return nil, upstream.InvalidRequest("username is required")
	}

	acct, err := s.accounts.GetByUsername(ctx, username)
	if err == nil {
		return &models.FullAccountInfo{HostingAccount: *acct, UserDomains: []models.DomainStatus{}}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load hosting account: %w", err)
	}

	domains, err := s.reseller.UserDomains(ctx, username)
	if err != nil {
		log.Printf("[Hosting] domain listing for unknown account %s failed: %v", username, err)
		domains = nil
	}
	if domains == nil {
		domains = []models.DomainStatus{}
	}

	return &models.FullAccountInfo{
		HostingAccount: models.HostingAccount{Username: username},
		UserDomains:    domains,
	}, nil
}

// CreateAccount provisions a reseller account and mirrors it locally. The
// raw reseller reply is returned alongside the stored record.
func (s *HostingService) CreateAccount(ctx context.Context, req *models.CreateHostingAccountRequest) (*models.CreateHostingAccountResult, error) {
	apiResult, err := s.reseller.CreateAccount(ctx, upstream.CreateAccountParams{
		Username: req.Username,
		Password: req.Password,
		Email:    req.ContactEmail,
		Domain:   req.Domain,
		Plan:     req.Plan,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	status := models.AccountStatusActive
	main := true
	record := &models.HostingAccount{
		Label:    &req.Domain,
		Username: req.Username,
		Password: &req.Password,
		Status:   &status,
		Key:      &req.ContactEmail,
		Time:     &now,
		Domain:   &req.Domain,
		Main:     &main,
	}
	if err := s.accounts.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("store hosting account: %w", err)
	}

	stored, err := s.accounts.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("reload hosting account: %w", err)
	}

	return &models.CreateHostingAccountResult{
		Source:    "mofh",
		Account:   models.FullAccountInfo{HostingAccount: *stored, UserDomains: []models.DomainStatus{}},
		APIResult: apiResult,
	}, nil
}

// Suspend suspends the account upstream, then marks it locally.
func (s *HostingService) Suspend(ctx context.Context, username, reason string) (string, error) {
	result, err := s.reseller.SuspendAccount(ctx, username, reason)
	if err != nil {
		return "", err
	}
	if err := s.accounts.UpdateStatus(ctx, username, models.AccountStatusSuspended); err != nil {
		log.Printf("[Hosting] failed to mark %s suspended locally: %v", username, err)
	}
	return result, nil
}

// Unsuspend reactivates the account upstream, then marks it locally.
func (s *HostingService) Unsuspend(ctx context.Context, username string) (string, error) {
	result, err := s.reseller.UnsuspendAccount(ctx, username)
	if err != nil {
		return "", err
	}
	if err := s.accounts.UpdateStatus(ctx, username, models.AccountStatusActive); err != nil {
		log.Printf("[Hosting] failed to mark %s active locally: %v", username, err)
	}
	return result, nil
}

// CheckDomain reports whether the reseller accepts the domain for a new
// account.
func (s *HostingService) CheckDomain(ctx context.Context, domain string) (bool, error) {
	return s.reseller.CheckAvailable(ctx, domain)
}

// UserDomainsXML lists an account's domains through the panel's xml-api.
func (s *HostingService) UserDomainsXML(ctx context.Context, username string) ([]models.DomainStatus, error) {
	return s.reseller.UserDomainsXML(ctx, username)
}
