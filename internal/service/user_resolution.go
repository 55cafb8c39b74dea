package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"strings"

	"github.com/nexfinity/hosting-gateway/internal/models"
	"github.com/nexfinity/hosting-gateway/internal/upstream"
)

// maxUserPages bounds the panel user scan. Some panel builds never signal a
// last page, so this is a termination guarantee, not a completeness one:
// accounts beyond the cap are treated as absent and recreated on demand.
const maxUserPages = 20

// panelAPI is the slice of the panel client user resolution needs.
type panelAPI interface {
	ListUsers(ctx context.Context, page int) ([]upstream.PanelUser, error)
	CreateUser(ctx context.Context, req *upstream.CreatePanelUserRequest) (models.RemoteIdentity, error)
}

// UserResolutionService resolves a panel account for an email, creating one
// when none exists. Identities are looked up per request, never cached.
type UserResolutionService struct {
	panel panelAPI
}

// NewUserResolutionService creates a resolution service over a panel client.
func NewUserResolutionService(panel panelAPI) *UserResolutionService {
	return &UserResolutionService{panel: panel}
}

// Resolve finds the panel account matching email (case-insensitive), paging
// through the listing up to maxUserPages. When no match is found it creates
// the account with a derived username and a random password. Creation
// failure is terminal: the caller must never fall back to a default
// identity, because servers would end up owned by the wrong account.
func (s *UserResolutionService) Resolve(ctx context.Context, email string) (models.RemoteIdentity, error) {
	if email == "" {
		return models.RemoteIdentity{}, upstream.InvalidRequest("email is required")
	}

	for page := 1; page <= maxUserPages; page++ {
		users, err := s.panel.ListUsers(ctx, page)
		if err != nil {
			log.Printf("[UserResolution] user listing failed on page %d: %v", page, err)
			break
		}
		if len(users) == 0 {
			break
		}
		for _, u := range users {
			if strings.EqualFold(u.Email, email) {
				return models.RemoteIdentity{ID: u.ID, Email: u.Email}, nil
			}
		}
	}

	log.Printf("[UserResolution] no panel account for %s, creating one", email)

	identity, err := s.panel.CreateUser(ctx, &upstream.CreatePanelUserRequest{
		Email:    email,
		Username: usernameFromEmail(email),
		Password: randomHex(12),
	})
	if err != nil {
		return models.RemoteIdentity{}, &upstream.Error{
			Kind:    upstream.KindIdentityUnresolved,
			Message: "panel user not found and could not be created for " + email,
			Err:     err,
		}
	}
	return identity, nil
}

func usernameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

// randomHex returns a hex string of length n from a CSPRNG.
func randomHex(n int) string {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		// rand.Read only fails when the OS entropy source is broken.
		panic(err)
	}
	return hex.EncodeToString(buf)[:n]
}
