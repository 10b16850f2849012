package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimezone       = "Asia/Shanghai"
	defaultQuickChartURL  = "https://quickchart.io"
	defaultChartCacheSecs = 6 * 60 * 60
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	HTTPPort    int
	APIKey      string

	ReportTimezone       string
	ReportLocation       *time.Location
	ReportHour           int
	ReportMinute         int
	RunOnStart           bool
	ChartMaxTotalPoints  int
	TopHoldersLimit      int
	ReportIncludeRemoved bool

	QuickChartBaseURL string
	ChartCacheTTLSecs int

	PlanetBaseURL   string
	PlanetAuthBasic string
	PlanetID        string

	TelegramBotToken string
	TelegramChatID   int64

	SSHPort                int
	SSHHostKeyPath         string
	SSHAllowedFingerprints []string
}

// PlanetConfigured reports whether every publishing credential is present.
func (c *Config) PlanetConfigured() bool {
	return c.PlanetBaseURL != "" && c.PlanetAuthBasic != "" && c.PlanetID != ""
}

// ChartCacheTTL returns the chart URL memo lifetime.
func (c *Config) ChartCacheTTL() time.Duration {
	return time.Duration(c.ChartCacheTTLSecs) * time.Second
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		APIKey:           strings.TrimSpace(os.Getenv("API_KEY")),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		PlanetAuthBasic:  strings.TrimSpace(os.Getenv("PLANET_AUTH_BASIC")),
		PlanetID:         strings.TrimSpace(os.Getenv("PLANET_ID")),
		SSHHostKeyPath:   strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH")),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.APIKey == "" {
		log.Println("Warning: API_KEY not set, publish endpoint will reject all requests")
	}

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < 65536 {
			cfg.HTTPPort = n
		}
	}

	cfg.ReportTimezone = strings.TrimSpace(os.Getenv("REPORT_TIMEZONE"))
	if cfg.ReportTimezone == "" {
		cfg.ReportTimezone = defaultTimezone
	}
	loc, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		log.Printf("Warning: invalid REPORT_TIMEZONE=%q, defaulting to %s", cfg.ReportTimezone, defaultTimezone)
		cfg.ReportTimezone = defaultTimezone
		loc, err = time.LoadLocation(defaultTimezone)
		if err != nil {
			log.Printf("Warning: tz database unavailable, using fixed UTC+8")
			loc = time.FixedZone(defaultTimezone, 8*60*60)
		}
	}
	cfg.ReportLocation = loc

	cfg.ReportHour = 23
	if v := strings.TrimSpace(os.Getenv("REPORT_HOUR")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			cfg.ReportHour = n
		}
	}

	cfg.ReportMinute = 58
	if v := strings.TrimSpace(os.Getenv("REPORT_MINUTE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 59 {
			cfg.ReportMinute = n
		}
	}

	cfg.RunOnStart = strings.EqualFold(strings.TrimSpace(os.Getenv("RUN_ON_START")), "true")
	cfg.ReportIncludeRemoved = strings.EqualFold(strings.TrimSpace(os.Getenv("REPORT_INCLUDE_REMOVED")), "true")

	cfg.ChartMaxTotalPoints = 280
	if v := strings.TrimSpace(os.Getenv("CHART_MAX_TOTAL_POINTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 8 {
			cfg.ChartMaxTotalPoints = n
		}
	}

	cfg.TopHoldersLimit = 120
	if v := strings.TrimSpace(os.Getenv("TOP_HOLDERS_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TopHoldersLimit = n
		}
	}

	cfg.QuickChartBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("QUICKCHART_BASE_URL")), "/")
	if cfg.QuickChartBaseURL == "" {
		cfg.QuickChartBaseURL = defaultQuickChartURL
	}

	cfg.ChartCacheTTLSecs = defaultChartCacheSecs
	if v := strings.TrimSpace(os.Getenv("CHART_CACHE_TTL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.ChartCacheTTLSecs = n
		}
	}

	cfg.PlanetBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PLANET_BASE_URL")), "/")
	if !cfg.PlanetConfigured() {
		log.Println("Warning: PLANET_BASE_URL, PLANET_AUTH_BASIC or PLANET_ID not set, publishing will fail")
	}

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = n
		} else {
			log.Printf("Warning: invalid TELEGRAM_CHAT_ID=%q, publish notifications disabled", v)
		}
	}

	cfg.SSHPort = 2222
	if v := strings.TrimSpace(os.Getenv("SSH_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < 65536 {
			cfg.SSHPort = n
		}
	}
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/hodl_digest_ed25519"
	}

	for _, fp := range strings.Split(os.Getenv("SSH_ALLOWED_FINGERPRINTS"), ",") {
		if fp = strings.TrimSpace(fp); fp != "" {
			cfg.SSHAllowedFingerprints = append(cfg.SSHAllowedFingerprints, fp)
		}
	}

	return cfg
}
