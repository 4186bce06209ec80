package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr             string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	SecureCookies        bool

	// IdentitySecret signs the anonymous identity cookie.
	IdentitySecret string

	// DataDir holds the local board when the remote backend is off.
	DataDir string
	// ProfileDir is the CLI profile (identity + local board).
	ProfileDir string

	// Remote backend: both must be set for remote mode.
	RemoteURL string
	RemoteKey string

	StorageEndpoint  string
	StorageSecret    string
	StorageBucket    string
	StoragePublicURL string

	RemoteTimeout time.Duration
	RemoteRetries int

	MaxUploadBytes int64
	PostRPS        float64
	PostBurst      int

	TenureDays int
}

// DevIdentitySecret is the fallback cookie key. Anyone who knows it can
// sign cookies for any author id.
const DevIdentitySecret = "tributes-dev-secret"

// DevSecret reports whether identity cookies are signed with the
// fallback key.
func (c Config) DevSecret() bool {
	return c.IdentitySecret == DevIdentitySecret
}

// RemoteConfigured reports whether the remote backend should be used.
func (c Config) RemoteConfigured() bool {
	return c.RemoteURL != "" && c.RemoteKey != ""
}

// StorageConfigured reports whether a blob bucket is reachable.
func (c Config) StorageConfigured() bool {
	return c.StorageEndpoint != "" && c.StorageBucket != ""
}

func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",
		SecureCookies:        getenv("TRIBUTES_SECURE_COOKIES", "false") == "true",
		IdentitySecret:       getenv("TRIBUTES_IDENTITY_SECRET", DevIdentitySecret),

		DataDir:    getenv("TRIBUTES_DATA_DIR", "./data/board"),
		ProfileDir: getenv("TRIBUTES_PROFILE_DIR", defaultProfileDir()),

		RemoteURL: getenv("TRIBUTES_REMOTE_URL", ""),
		RemoteKey: getenv("TRIBUTES_REMOTE_KEY", ""),

		StorageEndpoint:  getenv("TRIBUTES_STORAGE_ENDPOINT", ""),
		StorageSecret:    getenv("TRIBUTES_STORAGE_SECRET", ""),
		StorageBucket:    getenv("TRIBUTES_STORAGE_BUCKET", "media"),
		StoragePublicURL: getenv("TRIBUTES_STORAGE_PUBLIC_URL", ""),

		RemoteTimeout: getenvDuration("TRIBUTES_REMOTE_TIMEOUT", 10*time.Second),
		RemoteRetries: getenvInt("TRIBUTES_REMOTE_RETRIES", 2),

		MaxUploadBytes: int64(getenvInt("TRIBUTES_MAX_UPLOAD_BYTES", 5<<20)),
		PostRPS:        getenvFloat("TRIBUTES_POST_RPS", 1),
		PostBurst:      getenvInt("TRIBUTES_POST_BURST", 5),

		TenureDays: getenvInt("TRIBUTES_TENURE_DAYS", 1612),
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	return cfg
}

func defaultProfileDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.tributes"
	}
	return home + "/.tributes"
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvFloat(key string, def float64) float64 {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
