package service

import (
	"context"
	"errors"
	"testing"

	"github.com/nexfinity/hosting-gateway/internal/models"
	"github.com/nexfinity/hosting-gateway/internal/repository"
	"github.com/nexfinity/hosting-gateway/internal/upstream"
)

type fakeReseller struct {
	createResult  string
	createErr     error
	createdParams *upstream.CreateAccountParams
	suspendCalls  int
	domains       []models.DomainStatus
	domainsErr    error
}

func (f *fakeReseller) CreateAccount(ctx context.Context, p upstream.CreateAccountParams) (string, error) {
	f.createdParams = &p
	return f.createResult, f.createErr
}

func (f *fakeReseller) SuspendAccount(ctx context.Context, username, reason string) (string, error) {
	f.suspendCalls++
	return "suspended", nil
}

func (f *fakeReseller) UnsuspendAccount(ctx context.Context, username string) (string, error) {
	return "unsuspended", nil
}

func (f *fakeReseller) CheckAvailable(ctx context.Context, domain string) (bool, error) {
	return true, nil
}

func (f *fakeReseller) UserDomains(ctx context.Context, username string) ([]models.DomainStatus, error) {
	return f.domains, f.domainsErr
}

func (f *fakeReseller) UserDomainsXML(ctx context.Context, username string) ([]models.DomainStatus, error) {
	return f.domains, f.domainsErr
}

type fakeAccountStore struct {
	records    map[string]*models.HostingAccount
	getErr     error
	statusLog  []string
	updateErr  error
	upsertErr  error
	upsertSeen *models.HostingAccount
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{records: make(map[string]*models.HostingAccount)}
}

func (f *fakeAccountStore) GetByUsername(ctx context.Context, username string) (*models.HostingAccount, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if acct, ok := f.records[username]; ok {
		return acct, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAccountStore) Upsert(ctx context.Context, acct *models.HostingAccount) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upsertSeen = acct
	f.records[acct.Username] = acct
	return nil
}

func (f *fakeAccountStore) UpdateStatus(ctx context.Context, username, status string) error {
	f.statusLog = append(f.statusLog, username+"="+status)
	return f.updateErr
}

func TestFullAccountInfoLocalRecord(t *testing.T) {
	store := newFakeAccountStore()
	store.records["bob"] = &models.HostingAccount{ID: 1, Username: "bob"}
	reseller := &fakeReseller{domainsErr: errors.New("must not be called")}
	svc := NewHostingService(reseller, store)

	info, err := svc.FullAccountInfo(context.Background(), "bob")
	if err != nil {
		t.Fatalf("FullAccountInfo: %v", err)
	}
	if info.Username != "bob" || info.ID != 1 {
		t.Errorf("info = %+v", info)
	}
	if info.UserDomains == nil || len(info.UserDomains) != 0 {
		t.Errorf("UserDomains = %v, want empty non-nil", info.UserDomains)
	}
}

func TestFullAccountInfoUnknownFallsBackToReseller(t *testing.T) {
	store := newFakeAccountStore()
	reseller := &fakeReseller{domains: []models.DomainStatus{{Status: "ACTIVE", Domain: "a.com"}}}
	svc := NewHostingService(reseller, store)

	info, err := svc.FullAccountInfo(context.Background(), "stranger")
	if err != nil {
		t.Fatalf("FullAccountInfo: %v", err)
	}
	if info.Username != "stranger" {
		t.Errorf("Username = %q", info.Username)
	}
	if len(info.UserDomains) != 1 {
		t.Errorf("UserDomains = %v", info.UserDomains)
	}
}

func TestFullAccountInfoListingFailureTolerated(t *testing.T) {
	store := newFakeAccountStore()
	reseller := &fakeReseller{domainsErr: errors.New("reseller down")}
	svc := NewHostingService(reseller, store)

	info, err := svc.FullAccountInfo(context.Background(), "stranger")
	if err != nil {
		t.Fatalf("listing failure must degrade, not fail: %v", err)
	}
	if len(info.UserDomains) != 0 {
		t.Errorf("UserDomains = %v, want empty", info.UserDomains)
	}
}

func TestFullAccountInfoStoreFailurePropagates(t *testing.T) {
	store := newFakeAccountStore()
	store.getErr = errors.New("db down")
	svc := NewHostingService(&fakeReseller{}, store)

	if _, err := svc.FullAccountInfo(context.Background(), "bob"); err == nil {
		t.Fatal("store failures other than not-found must propagate")
	}
}

func TestCreateAccountMirrorsLocally(t *testing.T) {
	store := newFakeAccountStore()
	reseller := &fakeReseller{createResult: "result: account added to queue"}
	svc := NewHostingService(reseller, store)

	result, err := svc.CreateAccount(context.Background(), &models.CreateHostingAccountRequest{
		Username:     "newbob",
		Password:     "pw",
		ContactEmail: "bob@example.com",
		Domain:       "bob.example.com",
		Plan:         "free",
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if result.Source != "mofh" {
		t.Errorf("Source = %q", result.Source)
	}
	if result.APIResult != "result: account added to queue" {
		t.Errorf("APIResult = %q, want the raw reseller reply", result.APIResult)
	}
	if reseller.createdParams.Email != "bob@example.com" {
		t.Errorf("params = %+v", reseller.createdParams)
	}

	stored := store.upsertSeen
	if stored == nil {
		t.Fatal("account must be mirrored into the store")
	}
	if stored.Status == nil || *stored.Status != models.AccountStatusActive {
		t.Errorf("Status = %v, want active", stored.Status)
	}
	if stored.Main == nil || !*stored.Main {
		t.Errorf("Main = %v, want true", stored.Main)
	}
}

func TestCreateAccountUpstreamFailureSkipsStore(t *testing.T) {
	store := newFakeAccountStore()
	reseller := &fakeReseller{createErr: &upstream.Error{Kind: upstream.KindUpstreamRejected, Message: "quota"}}
	svc := NewHostingService(reseller, store)

	_, err := svc.CreateAccount(context.Background(), &models.CreateHostingAccountRequest{
		Username: "x", Password: "p", ContactEmail: "e@x.com", Domain: "x.com",
	})
	if !upstream.IsKind(err, upstream.KindUpstreamRejected) {
		t.Fatalf("err = %v", err)
	}
	if store.upsertSeen != nil {
		t.Error("rejected accounts must not be stored")
	}
}

func TestSuspendMarksLocally(t *testing.T) {
	store := newFakeAccountStore()
	svc := NewHostingService(&fakeReseller{}, store)

	if _, err := svc.Suspend(context.Background(), "bob", "abuse"); err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	if len(store.statusLog) != 1 || store.statusLog[0] != "bob=suspended" {
		t.Errorf("statusLog = %v", store.statusLog)
	}
}

func TestSuspendLocalFailureNotFatal(t *testing.T) {
	store := newFakeAccountStore()
	store.updateErr = errors.New("db down")
	svc := NewHostingService(&fakeReseller{}, store)

	result, err := svc.Suspend(context.Background(), "bob", "")
	if err != nil {
		t.Fatalf("local bookkeeping failure must not fail the suspension: %v", err)
	}
	if result != "suspended" {
		t.Errorf("result = %q", result)
	}
}
