package models

import "time"

// FTPInfo is the FTP access block scraped from the legacy panel.
type FTPInfo struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// SessionSnapshot is one best-effort aggregation of a legacy panel session.
// It is built per login and never persisted. Fields whose sub-fetch failed
// are left at their zero value.
type SessionSnapshot struct {
	Username      string            `json:"username"`
	Databases     []string          `json:"databases"`
	Domains       []string          `json:"domains"`
	FTP           FTPInfo           `json:"ftp"`
	InstallerLink string            `json:"installer_link"`
	Stats         map[string]string `json:"stats"`
	CapturedAt    time.Time         `json:"captured_at"`
}
