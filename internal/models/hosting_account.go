package models

import "time"

// Hosting account status values tracked locally for reseller accounts.
const (
	AccountStatusActive    = "active"
	AccountStatusSuspended = "suspended"
)

// HostingAccount is a reseller hosting account as stored locally. The
// reseller API itself has no account-read endpoint, so this record is the
// source of truth once an account has been created through us.
type HostingAccount struct {
	ID       int64      `json:"account_id"`
	Label    *string    `json:"account_label"`
	Username string     `json:"account_username"`
	Password *string    `json:"account_password,omitempty"`
	Status   *string    `json:"account_status"`
	SQL      *string    `json:"account_sql"`
	Key      *string    `json:"account_key"`
	For      *string    `json:"account_for"`
	Time     *time.Time `json:"account_time"`
	Domain   *string    `json:"account_domain"`
	Main     *bool      `json:"account_main"`
}

// FullAccountInfo is the merged view served to the front end: the local
// record when it exists, otherwise a stub with the reseller's live domain
// listing attached.
type FullAccountInfo struct {
	HostingAccount
	UserDomains []DomainStatus `json:"userDomains"`
}

// CreateHostingAccountRequest is the payload for account creation against
// the reseller API.
type CreateHostingAccountRequest struct {
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
	ContactEmail string `json:"contactemail" binding:"required"`
	Domain       string `json:"domain" binding:"required"`
	Plan         string `json:"plan"`
}

// CreateHostingAccountResult pairs the stored record with the raw reseller
// API reply so operators can see exactly what the upstream said.
type CreateHostingAccountResult struct {
	Source    string          `json:"source"`
	Account   FullAccountInfo `json:"account"`
	APIResult string          `json:"apiResult"`
}
