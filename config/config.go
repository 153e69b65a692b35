package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default configuration values
const (
	DefaultYouTubeURL      = "https://www.youtube.com/@-Muhamedloading"
	DefaultTimezone        = "Asia/Baghdad"
	DefaultCooldownHours   = 72
	DefaultPollMinutes     = 30
	DefaultSlotTimes       = "12:00,19:00"
	DefaultNewPerCycle     = 1
	DefaultMaxAttempts     = 3
	DefaultLookbackDays    = 14
	DefaultResurfaceDays   = 90
	DefaultTickSeconds     = 20
	DefaultRequestTimeout  = 30 * time.Second
	DefaultInterPostsSleep = 2 * time.Second
)

// Slot is a fixed daily wall-clock publication time
type Slot struct {
	Hour   int
	Minute int
}

func (s Slot) String() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// Config holds the full runtime configuration, built once at startup and
// passed to each component. No package keeps ambient credential state.
type Config struct {
	// Feed source
	BlogURL      string
	FeedSource   string // "rss" or "blogger"
	ClientID     string // Blogger API OAuth2
	ClientSecret string
	RefreshToken string

	// Platform (X) credentials
	XClientID     string
	XClientSecret string
	XRefreshToken string
	DryRun        bool

	// Composition
	YouTubeURL string

	// Scheduling
	Location       *time.Location
	ScheduleMode   bool
	Slots          []Slot
	PollInterval   time.Duration
	TickInterval   time.Duration
	Cooldown       time.Duration
	MaxNewPerCycle int
	MaxAttempts    int
	Lookback       time.Duration
	ResurfaceLook  time.Duration

	// Blogger write-back label, empty disables marking
	MarkLabel string

	// State files
	DataDir string

	// Keepalive API
	Port string

	// Optional integrations
	RedisAddr    string
	RedisPass    string
	KafkaBrokers []string
	KafkaTopic   string
	S3Bucket     string
	S3Region     string
	S3Prefix     string
	S3Profile    string
}

// Load builds a Config from environment variables, applying defaults.
// Returns an error for missing required values or malformed slot times.
func Load() (*Config, error) {
	cfg := &Config{
		BlogURL:        strings.TrimSpace(os.Getenv("BLOG_URL")),
		FeedSource:     GetEnvOrDefault("FEED_SOURCE", "rss"),
		ClientID:       os.Getenv("CLIENT_ID"),
		ClientSecret:   os.Getenv("CLIENT_SECRET"),
		RefreshToken:   os.Getenv("REFRESH_TOKEN"),
		XClientID:      os.Getenv("TW_CLIENT_ID"),
		XClientSecret:  os.Getenv("TW_CLIENT_SECRET"),
		XRefreshToken:  os.Getenv("TW_REFRESH_TOKEN"),
		DryRun:         os.Getenv("DRY_RUN") == "1",
		YouTubeURL:     GetEnvOrDefault("YOUTUBE_URL", DefaultYouTubeURL),
		ScheduleMode:   GetEnvOrDefault("SCHEDULE_MODE", "1") == "1",
		MaxNewPerCycle: getEnvInt("TWEET_NEW_COUNT", DefaultNewPerCycle),
		MaxAttempts:    getEnvInt("MAX_ATTEMPTS", DefaultMaxAttempts),
		MarkLabel:      strings.TrimSpace(GetEnvOrDefault("MARK_TWEET_LABEL", "tweeted")),
		DataDir:        GetEnvOrDefault("DATA_DIR", "."),
		Port:           GetEnvOrDefault("PORT", "8080"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPass:      os.Getenv("REDIS_PASS"),
		KafkaTopic:     GetEnvOrDefault("KAFKA_TOPIC", "tweetbot.outcomes"),
		S3Bucket:       strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Region:       strings.TrimSpace(os.Getenv("S3_REGION")),
		S3Prefix:       strings.TrimSpace(os.Getenv("S3_PREFIX")),
		S3Profile:      strings.TrimSpace(os.Getenv("S3_PROFILE")),
	}

	if cfg.BlogURL == "" {
		return nil, fmt.Errorf("BLOG_URL is required")
	}
	if cfg.FeedSource != "rss" && cfg.FeedSource != "blogger" {
		return nil, fmt.Errorf("FEED_SOURCE must be rss or blogger, got %q", cfg.FeedSource)
	}
	if cfg.FeedSource == "blogger" {
		if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
			return nil, fmt.Errorf("blogger source requires CLIENT_ID, CLIENT_SECRET and REFRESH_TOKEN")
		}
	}
	if !cfg.DryRun {
		if cfg.XClientID == "" || cfg.XClientSecret == "" || cfg.XRefreshToken == "" {
			return nil, fmt.Errorf("TW_CLIENT_ID, TW_CLIENT_SECRET and TW_REFRESH_TOKEN are required (or set DRY_RUN=1)")
		}
	}

	tz := GetEnvOrDefault("TZ", DefaultTimezone)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ %q: %w", tz, err)
	}
	cfg.Location = loc

	slots, err := ParseSlots(GetEnvOrDefault("SLOT_TIMES", DefaultSlotTimes))
	if err != nil {
		return nil, err
	}
	cfg.Slots = slots

	cfg.Cooldown = time.Duration(getEnvInt("COOLDOWN_HOURS", DefaultCooldownHours)) * time.Hour
	cfg.PollInterval = time.Duration(getEnvInt("POLL_INTERVAL_MINUTES", DefaultPollMinutes)) * time.Minute
	cfg.TickInterval = time.Duration(getEnvInt("TICK_SECONDS", DefaultTickSeconds)) * time.Second
	cfg.Lookback = time.Duration(getEnvInt("LOOKBACK_DAYS", DefaultLookbackDays)) * 24 * time.Hour
	cfg.ResurfaceLook = time.Duration(getEnvInt("RESURFACE_LOOKBACK_DAYS", DefaultResurfaceDays)) * 24 * time.Hour

	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg, nil
}

// ParseSlots parses a comma-separated list of HH:MM daily slot times
func ParseSlots(spec string) ([]Slot, error) {
	parts := strings.Split(spec, ",")
	slots := make([]Slot, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		hm := strings.SplitN(p, ":", 2)
		if len(hm) != 2 {
			return nil, fmt.Errorf("invalid slot time %q (want HH:MM)", p)
		}
		h, err := strconv.Atoi(hm[0])
		if err != nil || h < 0 || h > 23 {
			return nil, fmt.Errorf("invalid slot hour in %q", p)
		}
		m, err := strconv.Atoi(hm[1])
		if err != nil || m < 0 || m > 59 {
			return nil, fmt.Errorf("invalid slot minute in %q", p)
		}
		slots = append(slots, Slot{Hour: h, Minute: m})
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("no slot times configured in %q", spec)
	}
	return slots, nil
}

// GetEnvOrDefault returns the environment variable value or a default
func GetEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}
