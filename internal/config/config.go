package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

// Placeholder secrets that must never survive into production.
var insecureDefaults = map[string]bool{
	"your-secret-key-change-in-production": true,
	"change-me":                            true,
	"":                                     true,
}

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Panel      PanelConfig
	Registrar  RegistrarConfig
	Reseller   ResellerConfig
	VistaPanel VistaPanelConfig
	SMTP       SMTPConfig
	Notify     NotifyConfig
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AuthConfig struct {
	APIToken  string
	JWTSecret string
}

// PanelConfig points at the game panel that hosts bot instances.
type PanelConfig struct {
	BaseURL           string
	APIKey            string
	DefaultAllocation int
}

// RegistrarConfig is the domain registrar API account.
type RegistrarConfig struct {
	BaseURL  string
	APIUser  string
	APIKey   string
	ClientIP string
}

// ResellerConfig is the hosting reseller API account. APIBaseURL serves the
// query-key endpoints; PanelBaseURL serves the form endpoints behind basic
// auth.
type ResellerConfig struct {
	APIBaseURL   string
	PanelBaseURL string
	APIUser      string
	APIKey       string
}

type VistaPanelConfig struct {
	BaseURL string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	FromName string
}

// NotifyConfig holds default notification targets used when a deploy
// request does not carry its own.
type NotifyConfig struct {
	DefaultEmail   string
	DiscordWebhook string
}

func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8020"),
			Mode: getEnv("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "gateway_user"),
			Password: getEnv("DB_PASSWORD", "gateway_pass"),
			DBName:   getEnv("DB_NAME", "gateway_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			APIToken:  getEnv("API_TOKEN", ""),
			JWTSecret: getEnv("JWT_SECRET_KEY", ""),
		},
		Panel: PanelConfig{
			BaseURL:           getEnv("PANEL_URL", "http://localhost:8080"),
			APIKey:            getEnv("PANEL_API_KEY", ""),
			DefaultAllocation: getEnvInt("PANEL_DEFAULT_ALLOCATION", 0),
		},
		Registrar: RegistrarConfig{
			BaseURL:  getEnv("REGISTRAR_API_URL", "https://api.namecheap.com/xml.response"),
			APIUser:  getEnv("REGISTRAR_API_USER", ""),
			APIKey:   getEnv("REGISTRAR_API_KEY", ""),
			ClientIP: getEnv("REGISTRAR_CLIENT_IP", "127.0.0.1"),
		},
		Reseller: ResellerConfig{
			APIBaseURL:   getEnv("RESELLER_API_URL", "https://api.mofh.com"),
			PanelBaseURL: getEnv("RESELLER_PANEL_URL", "https://panel.myownfreehost.net"),
			APIUser:      getEnv("RESELLER_API_USER", ""),
			APIKey:       getEnv("RESELLER_API_KEY", ""),
		},
		VistaPanel: VistaPanelConfig{
			BaseURL: getEnv("VISTAPANEL_URL", "https://cpanel.byethost.com"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			FromName: getEnv("SMTP_FROM_NAME", "Hosting Gateway"),
		},
		Notify: NotifyConfig{
			DefaultEmail:   getEnv("NOTIFY_DEFAULT_EMAIL", ""),
			DiscordWebhook: getEnv("DISCORD_WEBHOOK_URL", ""),
		},
	}

	// Secrets are never logged.
	log.Printf("[config] Hosting Gateway loaded: port=%s db=%s/%s panel=%s registrar=%s",
		cfg.Server.Port, cfg.Database.Host, cfg.Database.DBName, cfg.Panel.BaseURL, cfg.Registrar.BaseURL)

	return cfg
}

// Validate rejects configurations that would run with placeholder secrets.
func (c *Config) Validate() error {
	if insecureDefaults[c.Auth.APIToken] && insecureDefaults[c.Auth.JWTSecret] {
		return fmt.Errorf("at least one of API_TOKEN or JWT_SECRET_KEY must be set to a secure value")
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters long")
	}
	if c.Panel.APIKey == "" {
		return fmt.Errorf("PANEL_API_KEY must be set")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
