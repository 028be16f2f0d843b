package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const (
	IdentityGoTrue   = "gotrue"
	IdentityFirebase = "firebase"
)

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type Config struct {
	Env     string
	Port    string
	BaseURL string
	Version string

	// Optional collaborators. Empty means not configured; dependent
	// endpoints then fail closed.
	DatabaseURL   string
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	AllowedOrigins []string

	AdminUsername     string
	AdminPassword     string
	AdminPasswordHash string

	IdentityProvider    string
	IdentityURL         string
	IdentityAnonKey     string
	IdentityServiceKey  string
	IdentityJWTSecret   string
	ProviderCookieName  string
	FirebaseProjectID   string
	FirebaseCredentials string

	ResendAPIKey    string
	ResendBaseURL   string
	EmailFrom       string
	BookingNotifyTo string

	HostelID                string
	HostelTimezone          *time.Location
	BookingRequirePhone     bool
	StrictStatusTransitions bool
	BookingRateLimit        int
	LoginMaxAttempts        int
	LoginWindow             time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log LogConfig
}

// Production reports whether cookies should be marked Secure.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads the environment, after loading envFile (or .env when empty) if
// it exists.
func Load(envFile string) (*Config, error) {
	loadDotEnv(envFile)

	var problems []string

	tzName := getEnv("HOSTEL_TIMEZONE", "America/Asuncion")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		problems = append(problems, fmt.Sprintf("HOSTEL_TIMEZONE: %v", err))
		tz = time.UTC
	}

	cfg := &Config{
		Env:     getEnv("APP_ENV", "development"),
		Port:    getEnv("PORT", "8080"),
		BaseURL: strings.TrimRight(getEnv("BASE_URL", "http://localhost:3000"), "/"),
		Version: getEnv("APP_VERSION", "unknown"),

		DatabaseURL:   os.Getenv("DB_CONNECTION_STRING"),
		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		AdminUsername:     getEnv("ADMIN_USERNAME", "acoidnam"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		IdentityProvider:    strings.ToLower(os.Getenv("IDENTITY_PROVIDER")),
		IdentityURL:         strings.TrimRight(os.Getenv("IDENTITY_URL"), "/"),
		IdentityAnonKey:     os.Getenv("IDENTITY_ANON_KEY"),
		IdentityServiceKey:  os.Getenv("IDENTITY_SERVICE_KEY"),
		IdentityJWTSecret:   os.Getenv("IDENTITY_JWT_SECRET"),
		ProviderCookieName:  getEnv("PROVIDER_SESSION_COOKIE", "sb-access-token"),
		FirebaseProjectID:   os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredentials: os.Getenv("FIREBASE_CREDENTIALS"),

		ResendAPIKey:    os.Getenv("RESEND_API_KEY"),
		ResendBaseURL:   getEnv("RESEND_BASE_URL", "https://api.resend.com"),
		EmailFrom:       getEnv("EMAIL_FROM", "Mandioca Hostel <bookings@mandiocahostel.com>"),
		BookingNotifyTo: getEnv("BOOKING_NOTIFY_TO", "info@mandiocahostel.com"),

		HostelID:       getEnv("HOSTEL_ID", "1"),
		HostelTimezone: tz,

		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  os.Getenv("LOG_FILE"),
		},
	}

	ints := []struct {
		key      string
		fallback int
		dst      *int
	}{
		{"REDIS_DB", 0, &cfg.RedisDB},
		{"BOOKING_RATE_LIMIT", 10, &cfg.BookingRateLimit},
		{"LOGIN_MAX_ATTEMPTS", 5, &cfg.LoginMaxAttempts},
		{"LOG_MAX_SIZE_MB", 100, &cfg.Log.MaxSizeMB},
		{"LOG_MAX_BACKUPS", 5, &cfg.Log.MaxBackups},
		{"LOG_MAX_AGE_DAYS", 30, &cfg.Log.MaxAgeDays},
	}
	for _, item := range ints {
		v, err := getInt(item.key, item.fallback)
		if err != nil {
			problems = append(problems, err.Error())
		}
		*item.dst = v
	}

	bools := []struct {
		key      string
		fallback bool
		dst      *bool
	}{
		{"BOOKING_REQUIRE_PHONE", true, &cfg.BookingRequirePhone},
		{"STRICT_STATUS_TRANSITIONS", true, &cfg.StrictStatusTransitions},
	}
	for _, item := range bools {
		v, err := getBool(item.key, item.fallback)
		if err != nil {
			problems = append(problems, err.Error())
		}
		*item.dst = v
	}

	durations := []struct {
		key      string
		fallback time.Duration
		dst      *time.Duration
	}{
		{"LOGIN_WINDOW", 15 * time.Minute, &cfg.LoginWindow},
		{"HTTP_READ_TIMEOUT", 15 * time.Second, &cfg.ReadTimeout},
		{"HTTP_WRITE_TIMEOUT", 30 * time.Second, &cfg.WriteTimeout},
		{"HTTP_IDLE_TIMEOUT", 60 * time.Second, &cfg.IdleTimeout},
		{"HTTP_SHUTDOWN_TIMEOUT", 10 * time.Second, &cfg.ShutdownTimeout},
	}
	for _, item := range durations {
		v, err := getDuration(item.key, item.fallback)
		if err != nil {
			problems = append(problems, err.Error())
		}
		*item.dst = v
	}

	switch cfg.IdentityProvider {
	case "":
		if cfg.IdentityURL != "" {
			cfg.IdentityProvider = IdentityGoTrue
		} else if cfg.FirebaseProjectID != "" {
			cfg.IdentityProvider = IdentityFirebase
		}
	case IdentityGoTrue:
		if cfg.IdentityURL == "" {
			problems = append(problems, "IDENTITY_URL is required for the gotrue identity provider")
		}
	case IdentityFirebase:
		if cfg.FirebaseProjectID == "" {
			problems = append(problems, "FIREBASE_PROJECT_ID is required for the firebase identity provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("IDENTITY_PROVIDER: unknown provider %q", cfg.IdentityProvider))
	}

	if len(problems) > 0 {
		return cfg, errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return cfg, nil
}

func loadDotEnv(envFile string) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
		return
	}
	_ = godotenv.Load()
}

func getEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback, fmt.Errorf("%s: not an integer", key)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback, fmt.Errorf("%s: not a boolean", key)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		// Bare integers are seconds.
		if secs, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(secs) * time.Second, nil
		}
		return fallback, fmt.Errorf("%s: not a duration", key)
	}
	return d, nil
}
