package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateAccountSendsQueryCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("api_user") != "reseller-user" || q.Get("api_key") != "reseller-key" {
			t.Errorf("credentials missing from query: %v", q)
		}
		if q.Get("username") != "newuser" || q.Get("domain") != "example.com" {
			t.Errorf("account params missing: %v", q)
		}
		w.Write([]byte("account created: newuser"))
	}))
	defer srv.Close()

	client := NewResellerClient(srv.URL, srv.URL, "reseller-user", "reseller-key")
	result, err := client.CreateAccount(context.Background(), CreateAccountParams{
		Username: "newuser",
		Password: "pw",
		Email:    "new@example.com",
		Domain:   "example.com",
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if result != "account created: newuser" {
		t.Errorf("result = %q", result)
	}
}

func TestCreateAccountValidatesBeforeNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewResellerClient(srv.URL, srv.URL, "u", "k")
	_, err := client.CreateAccount(context.Background(), CreateAccountParams{Username: "only"})
	if !IsKind(err, KindInvalidRequest) {
		t.Fatalf("err = %v, want kind %s", err, KindInvalidRequest)
	}
	if called {
		t.Error("validation failure must not reach the network")
	}
}

func TestSuspendAccountBasicAuthAndDefaultReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "reseller-user" || pass != "reseller-key" {
			t.Errorf("basic auth = %q/%q/%v", user, pass, ok)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("user") != "victim" {
			t.Errorf("user = %q", r.PostForm.Get("user"))
		}
		if r.PostForm.Get("reason") != "Suspended via API" {
			t.Errorf("reason = %q, want the default", r.PostForm.Get("reason"))
		}
		w.Write([]byte("suspended"))
	}))
	defer srv.Close()

	client := NewResellerClient(srv.URL, srv.URL, "reseller-user", "reseller-key")
	if _, err := client.SuspendAccount(context.Background(), "victim", ""); err != nil {
		t.Fatalf("SuspendAccount: %v", err)
	}
}

func TestCheckAvailable(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		want      bool
		wantKind  Kind
		wantError bool
	}{
		{"available", "1", true, "", false},
		{"taken", "0", false, "", false},
		{"padded reply", "  1\n", true, "", false},
		{"garbage", "maybe", false, KindMalformedUpstream, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewResellerClient(srv.URL, srv.URL, "u", "k")
			got, err := client.CheckAvailable(context.Background(), "example.com")
			if tt.wantError {
				if !IsKind(err, tt.wantKind) {
					t.Fatalf("err = %v, want kind %s", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckAvailable: %v", err)
			}
			if got != tt.want {
				t.Errorf("available = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserDomainsDelimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ACTIVE,example.com,SUSPENDED,old.example.net"))
	}))
	defer srv.Close()

	client := NewResellerClient(srv.URL, srv.URL, "u", "k")
	domains, err := client.UserDomains(context.Background(), "someone")
	if err != nil {
		t.Fatalf("UserDomains: %v", err)
	}
	if len(domains) != 2 {
		t.Fatalf("got %d entries, want 2", len(domains))
	}
	if domains[1].Status != "SUSPENDED" || domains[1].Domain != "old.example.net" {
		t.Errorf("domains[1] = %+v", domains[1])
	}
}

func TestUserDomainsXMLShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"array of pairs", `[["ACTIVE","a.com"],["SUSPENDED","b.com"]]`, 2},
		{"single bare pair", `["ACTIVE","a.com"]`, 1},
		{"object entries", `[{"status":"ACTIVE","domain":"a.com"}]`, 1},
		{"empty", `null`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %s, want POST", r.Method)
				}
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewResellerClient(srv.URL, srv.URL, "u", "k")
			domains, err := client.UserDomainsXML(context.Background(), "someone")
			if err != nil {
				t.Fatalf("UserDomainsXML: %v", err)
			}
			if len(domains) != tt.want {
				t.Fatalf("got %d entries, want %d", len(domains), tt.want)
			}
			if tt.want > 0 && (domains[0].Status != "ACTIVE" || domains[0].Domain != "a.com") {
				t.Errorf("domains[0] = %+v", domains[0])
			}
		})
	}
}
