package config

import (
	"fmt"
	"log"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	FileStoreDrive = "drive"
	FileStoreMinio = "minio"
)

type Config struct {
	Port        string
	DatabaseURL string

	ClerkSecretKey     string
	ClerkWebhookSecret string

	// Location is the reference timezone for calendar-day arithmetic.
	Location           *time.Location
	ReminderCutoffHour int
	NotifierInterval   time.Duration

	FileStore string
	Drive     DriveConfig
	Minio     MinioConfig

	AWSRegion string
	SESSender string
	AppURL    string

	// FCMCredentialsJSON is the base64-encoded Firebase service account key.
	FCMCredentialsJSON string
	FCMCredentialsFile string

	MetricsUser string
	MetricsPass string
	JobSecret   string

	RateLimitRPS   float64
	RateLimitBurst int
	// TrustedProxies may set X-Forwarded-For for rate limiting.
	TrustedProxies []netip.Prefix
}

type DriveConfig struct {
	// CredentialsJSON is the base64-encoded service account key.
	CredentialsJSON string
	CredentialsFile string
	FolderID        string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	return FromEnv(os.Getenv)
}

// LoadJobSecret reads only JOB_SECRET, for commands that sign scheduler
// tokens without starting the server.
func LoadJobSecret() (string, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	return JobSecretFromEnv(os.Getenv)
}

func JobSecretFromEnv(getenv func(string) string) (string, error) {
	secret := getenv("JOB_SECRET")
	if secret == "" {
		return "", fmt.Errorf("JOB_SECRET environment variable is not set")
	}
	return secret, nil
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:               get("PORT", "3333"),
		DatabaseURL:        getenv("DATABASE_URL"),
		ClerkSecretKey:     getenv("CLERK_SECRET_KEY"),
		ClerkWebhookSecret: getenv("CLERK_WEBHOOK_SECRET"),
		FileStore:          get("FILE_STORE", FileStoreDrive),
		Drive: DriveConfig{
			CredentialsJSON: getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
			CredentialsFile: get("GOOGLE_SERVICE_ACCOUNT_FILE", "./serviceAccountKey.json"),
			FolderID:        getenv("DRIVE_FOLDER_ID"),
		},
		Minio: MinioConfig{
			Endpoint:  get("MINIO_HOST", "localhost:9000"),
			AccessKey: getenv("MINIO_ACCESS_KEY"),
			SecretKey: getenv("MINIO_SECRET_KEY"),
			Bucket:    get("MINIO_BUCKET", "activity-images"),
		},
		AWSRegion:          getenv("AWS_REGION"),
		SESSender:          getenv("SES_EMAIL"),
		AppURL:             get("APP_URL", "http://localhost:3000"),
		FCMCredentialsJSON: getenv("FCM_SERVICE_ACCOUNT_JSON"),
		FCMCredentialsFile: get("FCM_SERVICE_ACCOUNT_FILE", "./serviceAccountKey.json"),
		MetricsUser:        getenv("METRICS_USER"),
		MetricsPass:        getenv("METRICS_PASS"),
		JobSecret:          getenv("JOB_SECRET"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.ClerkSecretKey == "" {
		return nil, fmt.Errorf("CLERK_SECRET_KEY environment variable is not set")
	}

	loc, err := time.LoadLocation(get("APP_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	cfg.ReminderCutoffHour, err = strconv.Atoi(get("REMINDER_CUTOFF_HOUR", "20"))
	if err != nil || cfg.ReminderCutoffHour < 0 || cfg.ReminderCutoffHour > 23 {
		return nil, fmt.Errorf("invalid REMINDER_CUTOFF_HOUR %q", getenv("REMINDER_CUTOFF_HOUR"))
	}

	cfg.NotifierInterval, err = time.ParseDuration(get("NOTIFIER_INTERVAL", "1h"))
	if err != nil || cfg.NotifierInterval <= 0 {
		return nil, fmt.Errorf("invalid NOTIFIER_INTERVAL %q", getenv("NOTIFIER_INTERVAL"))
	}

	if cfg.FileStore != FileStoreDrive && cfg.FileStore != FileStoreMinio {
		return nil, fmt.Errorf("unknown FILE_STORE %q", cfg.FileStore)
	}

	cfg.Minio.UseSSL, _ = strconv.ParseBool(get("MINIO_USE_SSL", "false"))

	cfg.RateLimitRPS, err = strconv.ParseFloat(get("RATE_LIMIT_RPS", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	cfg.RateLimitBurst, err = strconv.Atoi(get("RATE_LIMIT_BURST", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	cfg.TrustedProxies, err = ParseProxies(getenv("TRUSTED_PROXIES"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	return cfg, nil
}

// ParseProxies reads a comma-separated list of CIDRs or single addresses.
func ParseProxies(list string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
