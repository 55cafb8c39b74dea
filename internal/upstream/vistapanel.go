package upstream

import (
	"context"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nexfinity/hosting-gateway/internal/models"
)

const (
	sessionCookieName = "PHPSESSID"
	approvalBanner    = "Please click 'I Approve' below"
	loginTheme        = "PaperLantern"
	loginSeed         = "567811917014474432"
)

// knownStatLabels is the closed set of stat rows we extract from the panel
// home page. Rows that match nothing here are ignored.
var knownStatLabels = []string{
	"MySQL Databases",
	"Parked Domains",
	"Addon Domains",
	"Sub Domains",
	"Bandwidth used",
	"Disk Space Used",
	"Inodes Used",
	"Signup IP",
}

var domainPattern = regexp.MustCompile(`(?i)^[\w.-]+\.[a-z]{2,}$`)

// PanelSession drives one authenticated session against the legacy panel.
// Lifecycle is LoggedOut -> LoggedIn -> LoggedOut; a session object is used
// by one logical request at a time and discarded after logout. Callers that
// need concurrent sessions create separate sessions over separate clients.
type PanelSession struct {
	client   *SessionClient
	loggedIn bool
	username string
	password string
}

// NewPanelSession wraps a session client. The client's cookie jar becomes
// owned by this session until Logout.
func NewPanelSession(client *SessionClient) *PanelSession {
	return &PanelSession{client: client}
}

// Login submits credentials. Success is defined by receipt of the session
// cookie, not by HTTP status; the panel answers 200 to failed logins. A
// post-login landing scan detects the pending-approval banner, which blocks
// programmatic use until the account owner approves notifications by hand.
func (s *PanelSession) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return InvalidRequest("username and password are required")
	}

	form := url.Values{
		"uname":    {username},
		"passwd":   {password},
		"theme":    {loginTheme},
		"seeesurf": {loginSeed},
	}
	if _, err := s.client.Do(ctx, "POST", "/login.php", form, map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	}); err != nil {
		return err
	}

	if _, ok := s.client.Cookie(sessionCookieName); !ok {
		return rejected(0, "", nil, "login failed: invalid credentials or account suspended")
	}

	home, err := s.client.Do(ctx, "GET", "/panel/indexpl.php", nil, nil)
	if err != nil {
		s.client.ClearCookies()
		return err
	}
	if strings.Contains(home.Body, approvalBanner) {
		// Not a usable session until the owner approves by hand; do not
		// leave the session in the logged-in state.
		s.client.ClearCookies()
		return ActionRequired("panel requires manual notification approval before API use")
	}

	s.loggedIn = true
	s.username = username
	s.password = password
	return nil
}

// Snapshot fetches the five panel sub-resources in parallel and merges them
// into one snapshot. One sub-fetch failing does not fail the others; the
// corresponding field is left at its zero value, because this is best-effort
// aggregation of a legacy system with no stability guarantees.
func (s *PanelSession) Snapshot(ctx context.Context) (*models.SessionSnapshot, error) {
	if !s.loggedIn {
		return nil, NotAuthenticated("snapshot requires a logged-in session")
	}

	snap := &models.SessionSnapshot{
		Username: s.username,
		FTP:      models.FTPInfo{User: s.username, Password: s.password, Port: 21},
	}

	var wg sync.WaitGroup
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				log.Printf("[PanelSession] %s fetch failed for %s: %v", name, s.username, err)
			}
		}()
	}

	run("databases", func() error {
		dbs, err := s.fetchDatabases(ctx)
		if err != nil {
			return err
		}
		snap.Databases = dbs
		return nil
	})
	run("domains", func() error {
		domains, err := s.fetchDomains(ctx)
		if err != nil {
			return err
		}
		snap.Domains = domains
		return nil
	})
	run("ftp", func() error {
		return s.fetchFTP(ctx, &snap.FTP)
	})
	run("installer", func() error {
		link, err := s.fetchInstallerLink(ctx)
		if err != nil {
			return err
		}
		snap.InstallerLink = link
		return nil
	})
	run("stats", func() error {
		stats, err := s.fetchStats(ctx)
		if err != nil {
			return err
		}
		snap.Stats = stats
		return nil
	})

	wg.Wait()
	snap.CapturedAt = time.Now().UTC()
	return snap, nil
}

// Logout tears the session down. Teardown is fail-open: the jar and local
// identity are cleared even when the upstream signout call fails, so session
// state cannot leak past this call.
func (s *PanelSession) Logout(ctx context.Context) error {
	if !s.loggedIn {
		return NotAuthenticated("logout requires a logged-in session")
	}

	if _, err := s.client.Do(ctx, "GET", "/panel/indexpl.php?option=signout", nil, nil); err != nil {
		log.Printf("[PanelSession] signout call failed for %s (session cleared anyway): %v", s.username, err)
	}

	s.client.ClearCookies()
	s.loggedIn = false
	s.username = ""
	s.password = ""
	return nil
}

func (s *PanelSession) fetchDatabases(ctx context.Context) ([]string, error) {
	resp, err := s.client.Do(ctx, "GET", "/panel/indexpl.php?option=pma", nil, nil)
	if err != nil {
		return nil, err
	}
	doc, err := ParseHTML(resp.Body)
	if err != nil {
		return nil, err
	}
	var dbs []string
	for _, row := range TableRows(doc) {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		dbs = append(dbs, strings.TrimPrefix(row[0], s.username+"_"))
	}
	return dbs, nil
}

func (s *PanelSession) fetchDomains(ctx context.Context) ([]string, error) {
	resp, err := s.client.Do(ctx, "GET", "/panel/indexpl.php", nil, nil)
	if err != nil {
		return nil, err
	}
	doc, err := ParseHTML(resp.Body)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var domains []string
	for _, text := range AnchorTexts(doc) {
		if domainPattern.MatchString(text) && !seen[text] {
			seen[text] = true
			domains = append(domains, text)
		}
	}
	return domains, nil
}

func (s *PanelSession) fetchFTP(ctx context.Context, ftp *models.FTPInfo) error {
	resp, err := s.client.Do(ctx, "GET", "/panel/indexpl.php?option=ftpsettings", nil, nil)
	if err != nil {
		return err
	}
	doc, err := ParseHTML(resp.Body)
	if err != nil {
		return err
	}
	values := ScanLabelValueTable(doc, []string{"FTP Host Name", "FTP Port"})
	if host, ok := values["FTP Host Name"]; ok {
		ftp.Host = host
	}
	if portText, ok := values["FTP Port"]; ok {
		if port, err := strconv.Atoi(strings.TrimSpace(portText)); err == nil {
			ftp.Port = port
		}
	}
	return nil
}

func (s *PanelSession) fetchInstallerLink(ctx context.Context) (string, error) {
	resp, err := s.client.Do(ctx, "GET", "/panel/indexpl.php?option=installer&ttt=0", nil, nil)
	if err != nil {
		return "", err
	}
	if resp.Location != "" {
		return resp.Location, nil
	}
	return s.client.BaseURL() + "/panel/softaculous/index.php", nil
}

func (s *PanelSession) fetchStats(ctx context.Context) (map[string]string, error) {
	resp, err := s.client.Do(ctx, "GET", "/panel/indexpl.php", nil, nil)
	if err != nil {
		return nil, err
	}
	doc, err := ParseHTML(resp.Body)
	if err != nil {
		return nil, err
	}
	stats := ScanLabelValueTable(doc, knownStatLabels)
	for label, value := range stats {
		stats[label] = strings.TrimSuffix(strings.TrimSpace(value), ":")
	}
	return stats, nil
}
