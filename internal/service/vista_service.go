package service

import (
	"context"
	"log"

	"github.com/nexfinity/hosting-gateway/internal/models"
	"github.com/nexfinity/hosting-gateway/internal/upstream"
)

// panelSession is one legacy-panel session: login, snapshot, logout.
type panelSession interface {
	Login(ctx context.Context, username, password string) error
	Snapshot(ctx context.Context) (*models.SessionSnapshot, error)
	Logout(ctx context.Context) error
}

// VistaService serves snapshots of the legacy scraped panel. Every request
// gets its own session object with its own cookie jar; sessions are never
// shared between requests and never survive past the response.
type VistaService struct {
	newSession func() panelSession
}

// NewVistaService creates a vista service for the given panel URL.
func NewVistaService(panelURL string) *VistaService {
	return &VistaService{
		newSession: func() panelSession {
			return upstream.NewPanelSession(upstream.NewSessionClient(panelURL))
		},
	}
}

// PanelInfo logs in, captures one snapshot and logs out. The logout runs
// even when the snapshot fails so that no session is left open upstream.
func (s *VistaService) PanelInfo(ctx context.Context, username, password string) (*models.SessionSnapshot, error) {
	sess := s.newSession()

	if err := sess.Login(ctx, username, password); err != nil {
		return nil, err
	}
	defer func() {
		if err := sess.Logout(ctx); err != nil {
			log.Printf("[Vista] logout after snapshot failed: %v", err)
		}
	}()

	return sess.Snapshot(ctx)
}
