package config

import (
	"os"
	"strings"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	AuthHMACSecret string

	// Mail (Resend). Empty API key -> log-only mailer.
	ResendAPIKey string
	MailFrom     string
	AppURL       string // frontend base URL used in email links

	// Initial admin bootstrap (created when the profiles table is empty).
	AdminName     string
	AdminEmail    string
	AdminPassword string

	CORSOrigins []string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:       addr,
		PublicURL:      os.Getenv("PUBLIC_URL"),
		DBDriver:       envOr("DB_DRIVER", "sqlite"),
		DBDSN:          envOr("DB_DSN", ""),
		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		ResendAPIKey:   os.Getenv("RESEND_API_KEY"),
		MailFrom:       envOr("MAIL_FROM", "EvalTrack <noreply@evaltrack.example>"),
		AppURL:         envOr("APP_URL", "http://localhost:3000"),
		AdminName:      envOr("ADMIN_NAME", "Administrator"),
		AdminEmail:     envOr("ADMIN_EMAIL", "admin@evaltrack.local"),
		AdminPassword:  envOr("ADMIN_PASSWORD", "changeme"),
		CORSOrigins:    csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
