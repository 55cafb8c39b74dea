package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

const panelHomePage = `<html><body>
<a href="/panel/domains">mysite.rf.gd</a>
<a href="/panel/domains">mysite.rf.gd</a>
<a href="/panel/settings">Account Settings</a>
<table>
  <tr><td>MySQL Databases:</td><td>2</td></tr>
  <tr><td>Disk Space Used:</td><td>14 MB</td></tr>
  <tr><td>Theme Color</td><td>blue</td></tr>
</table>
</body></html>`

// fakePanel serves the subset of legacy panel pages the session walks.
func fakePanel(t *testing.T, loginOK, showBanner bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login.php", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse login form: %v", err)
		}
		if r.PostForm.Get("uname") == "" || r.PostForm.Get("passwd") == "" {
			t.Error("login form missing credentials")
		}
		if loginOK {
			http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "abc123"})
		}
		w.Write([]byte("<html></html>"))
	})
	mux.HandleFunc("/panel/indexpl.php", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("PHPSESSID"); err != nil || c.Value != "abc123" {
			t.Errorf("panel page requested without session cookie")
		}
		switch r.URL.Query().Get("option") {
		case "pma":
			w.Write([]byte(`<table>
				<tr><td>bob_wordpress</td></tr>
				<tr><td>bob_forum</td></tr>
				<tr><td></td></tr>
			</table>`))
		case "ftpsettings":
			w.Write([]byte(`<table>
				<tr><td>FTP Host Name:</td><td>ftpupload.net</td></tr>
				<tr><td>FTP Port:</td><td>21</td></tr>
			</table>`))
		case "installer":
			w.Header().Set("Location", "https://apps.example.com/install?sess=abc123")
			w.WriteHeader(http.StatusFound)
		case "signout":
			w.Write([]byte("signed out"))
		default:
			if showBanner {
				w.Write([]byte(`<html><body>Please click 'I Approve' below to continue</body></html>`))
				return
			}
			w.Write([]byte(panelHomePage))
		}
	})
	return httptest.NewServer(mux)
}

func TestLoginSuccess(t *testing.T) {
	srv := fakePanel(t, true, false)
	defer srv.Close()

	session := NewPanelSession(NewSessionClient(srv.URL))
	if err := session.Login(context.Background(), "bob", "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}
}

func TestLoginNoCookieMeansRejected(t *testing.T) {
	srv := fakePanel(t, false, false)
	defer srv.Close()

	session := NewPanelSession(NewSessionClient(srv.URL))
	err := session.Login(context.Background(), "bob", "wrong")
	if !IsKind(err, KindUpstreamRejected) {
		t.Fatalf("err = %v, want kind %s", err, KindUpstreamRejected)
	}
}

func TestLoginApprovalBanner(t *testing.T) {
	srv := fakePanel(t, true, true)
	defer srv.Close()

	session := NewPanelSession(NewSessionClient(srv.URL))
	err := session.Login(context.Background(), "bob", "hunter2")
	if !IsKind(err, KindActionRequired) {
		t.Fatalf("err = %v, want kind %s", err, KindActionRequired)
	}
}

func TestLoginApprovalBannerBlocksSession(t *testing.T) {
	srv := fakePanel(t, true, true)
	defer srv.Close()

	client := NewSessionClient(srv.URL)
	session := NewPanelSession(client)
	if err := session.Login(context.Background(), "bob", "hunter2"); !IsKind(err, KindActionRequired) {
		t.Fatalf("err = %v, want kind %s", err, KindActionRequired)
	}

	// A blocked login must not leave a usable session behind.
	if _, ok := client.Cookie("PHPSESSID"); ok {
		t.Error("session cookie must be cleared after a blocked login")
	}
	if _, err := session.Snapshot(context.Background()); !IsKind(err, KindNotAuthenticated) {
		t.Errorf("snapshot after blocked login err = %v, want kind %s", err, KindNotAuthenticated)
	}
}

func TestLoginValidatesInput(t *testing.T) {
	session := NewPanelSession(NewSessionClient("http://unused"))
	err := session.Login(context.Background(), "", "")
	if !IsKind(err, KindInvalidRequest) {
		t.Fatalf("err = %v, want kind %s", err, KindInvalidRequest)
	}
}

func TestSnapshotRequiresLogin(t *testing.T) {
	session := NewPanelSession(NewSessionClient("http://unused"))
	if _, err := session.Snapshot(context.Background()); !IsKind(err, KindNotAuthenticated) {
		t.Fatalf("err = %v, want kind %s", err, KindNotAuthenticated)
	}
}

func TestLogoutRequiresLogin(t *testing.T) {
	session := NewPanelSession(NewSessionClient("http://unused"))
	if err := session.Logout(context.Background()); !IsKind(err, KindNotAuthenticated) {
		t.Fatalf("err = %v, want kind %s", err, KindNotAuthenticated)
	}
}

func TestSnapshot(t *testing.T) {
	srv := fakePanel(t, true, false)
	defer srv.Close()

	session := NewPanelSession(NewSessionClient(srv.URL))
	if err := session.Login(context.Background(), "bob", "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	snap, err := session.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if snap.Username != "bob" {
		t.Errorf("Username = %q", snap.Username)
	}
	// Database names are stripped of the account prefix.
	if !reflect.DeepEqual(snap.Databases, []string{"wordpress", "forum"}) {
		t.Errorf("Databases = %v", snap.Databases)
	}
	// Domain anchors are deduplicated; non-domain anchors are skipped.
	if !reflect.DeepEqual(snap.Domains, []string{"mysite.rf.gd"}) {
		t.Errorf("Domains = %v", snap.Domains)
	}
	if snap.FTP.Host != "ftpupload.net" || snap.FTP.Port != 21 {
		t.Errorf("FTP = %+v", snap.FTP)
	}
	if snap.FTP.User != "bob" || snap.FTP.Password != "hunter2" {
		t.Errorf("FTP credentials = %q/%q", snap.FTP.User, snap.FTP.Password)
	}
	if snap.InstallerLink != "https://apps.example.com/install?sess=abc123" {
		t.Errorf("InstallerLink = %q", snap.InstallerLink)
	}
	// Stat values keep their label keys and lose trailing colons.
	if snap.Stats["MySQL Databases"] != "2" || snap.Stats["Disk Space Used"] != "14 MB" {
		t.Errorf("Stats = %v", snap.Stats)
	}
	if _, ok := snap.Stats["Theme Color"]; ok {
		t.Error("unknown stat rows must be ignored")
	}
	if snap.CapturedAt.IsZero() {
		t.Error("CapturedAt not set")
	}
}

func TestSnapshotInstallerFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login.php", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "s"})
	})
	mux.HandleFunc("/panel/indexpl.php", func(w http.ResponseWriter, r *http.Request) {
		// No redirect from the installer endpoint, empty pages elsewhere.
		w.Write([]byte("<html></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	session := NewPanelSession(NewSessionClient(srv.URL))
	if err := session.Login(context.Background(), "bob", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	snap, err := session.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.InstallerLink != srv.URL+"/panel/softaculous/index.php" {
		t.Errorf("InstallerLink = %q, want the panel fallback", snap.InstallerLink)
	}
	// Fields from empty pages stay at their zero values.
	if len(snap.Databases) != 0 || len(snap.Domains) != 0 {
		t.Errorf("Databases = %v, Domains = %v, want empty", snap.Databases, snap.Domains)
	}
}

func TestSnapshotToleratesOneFailedFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login.php", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "abc123"})
	})
	mux.HandleFunc("/panel/indexpl.php", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("option") {
		case "pma":
			w.Write([]byte(`<table><tr><td>bob_wordpress</td></tr></table>`))
		case "ftpsettings":
			// Drop the connection mid-request so only this fetch fails.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("test server does not support hijacking")
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Fatalf("hijack: %v", err)
			}
			conn.Close()
		case "installer":
			w.Header().Set("Location", "https://apps.example.com/install")
			w.WriteHeader(http.StatusFound)
		default:
			w.Write([]byte(panelHomePage))
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	session := NewPanelSession(NewSessionClient(srv.URL))
	if err := session.Login(context.Background(), "bob", "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	snap, err := session.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("one failed sub-fetch must not fail the snapshot, got %v", err)
	}

	// The failed field stays at its defaults.
	if snap.FTP.Host != "" || snap.FTP.Port != 21 {
		t.Errorf("FTP = %+v, want host empty and default port", snap.FTP)
	}
	// Everything else is still populated.
	if !reflect.DeepEqual(snap.Databases, []string{"wordpress"}) {
		t.Errorf("Databases = %v", snap.Databases)
	}
	if !reflect.DeepEqual(snap.Domains, []string{"mysite.rf.gd"}) {
		t.Errorf("Domains = %v", snap.Domains)
	}
	if snap.InstallerLink != "https://apps.example.com/install" {
		t.Errorf("InstallerLink = %q", snap.InstallerLink)
	}
	if snap.Stats["MySQL Databases"] != "2" {
		t.Errorf("Stats = %v", snap.Stats)
	}
}

func TestSnapshotConcurrentCookieRefresh(t *testing.T) {
	// The panel re-sends its session cookie on every response, so the
	// parallel snapshot fetches all write to the jar at once. Under the
	// race detector this pins the jar's synchronization.
	mux := http.NewServeMux()
	mux.HandleFunc("/login.php", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "abc123"})
	})
	mux.HandleFunc("/panel/indexpl.php", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "abc123"})
		w.Write([]byte(panelHomePage))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewSessionClient(srv.URL)
	session := NewPanelSession(client)
	if err := session.Login(context.Background(), "bob", "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := session.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if v, ok := client.Cookie("PHPSESSID"); !ok || v != "abc123" {
		t.Errorf("session cookie = %q, %v after refresh", v, ok)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	srv := fakePanel(t, true, false)
	defer srv.Close()

	client := NewSessionClient(srv.URL)
	session := NewPanelSession(client)
	if err := session.Login(context.Background(), "bob", "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := session.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, ok := client.Cookie("PHPSESSID"); ok {
		t.Error("session cookie must be cleared on logout")
	}
	if _, err := session.Snapshot(context.Background()); !IsKind(err, KindNotAuthenticated) {
		t.Errorf("post-logout snapshot err = %v, want kind %s", err, KindNotAuthenticated)
	}
}

func TestLogoutFailOpen(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login.php", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "s"})
	})
	mux.HandleFunc("/panel/indexpl.php", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	})
	srv := httptest.NewServer(mux)

	client := NewSessionClient(srv.URL)
	session := NewPanelSession(client)
	if err := session.Login(context.Background(), "bob", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Kill the upstream so the signout round trip fails.
	srv.Close()

	if err := session.Logout(context.Background()); err != nil {
		t.Fatalf("Logout must succeed even when signout fails, got %v", err)
	}
	if _, ok := client.Cookie("PHPSESSID"); ok {
		t.Error("session cookie must be cleared even on signout failure")
	}
}
