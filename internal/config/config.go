package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	DBDriver string // sqlite|postgres|memory
	DBDSN    string

	AuthSecret    string // HMAC secret for local JWTs
	AdminUser     string
	AdminPassHash string // bcrypt
	// EnableDemoLogin lets username==password log in as student/teacher;
	// offline and test environments only.
	EnableDemoLogin bool

	CORSOrigins []string

	// BandProfile is the fallback conversion table key for tests that do
	// not declare their own profile.
	BandProfile string

	LogLevel string // debug|info|warn|error
	SiteID   string // tag for event log rows
}

func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:        envOr("HTTP_ADDR", ":8080"),
		DBDriver:        envOr("DB_DRIVER", "sqlite"),
		DBDSN:           os.Getenv("DB_DSN"),
		AuthSecret:      envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:       envOr("ADMIN_USER", "admin"),
		AdminPassHash:   envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		EnableDemoLogin: envBool("ENABLE_DEMO_LOGIN", true),
		CORSOrigins:     csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		BandProfile:     envOr("BAND_PROFILE", "ielts.40"),
		LogLevel:        envOr("LOG_LEVEL", "info"),
		SiteID:          envOr("SITE_ID", "local"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
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
