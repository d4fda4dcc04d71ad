package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Telegram configuration
	BotToken string
	OwnerID  int64
	AdminIDs []int64

	// Channels the user must join before their referral is credited
	Channels []int64

	// Database configuration
	DatabaseURL string

	// Ledger configuration
	ReferralsPerLevel int   // referrals needed per level step
	ReferralBonus     int64 // credited to the referrer per confirmed referral
	DailyBonus        int64 // credited on each daily bonus claim
	MinWithdrawal     int64 // smallest accepted withdrawal amount

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		BotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Ledger defaults
		ReferralsPerLevel: 5,
		ReferralBonus:     10,
		DailyBonus:        5,
		MinWithdrawal:     20,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if owner := os.Getenv("OWNER_ID"); owner != "" {
		id, err := strconv.ParseInt(owner, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OWNER_ID %q: %w", owner, err)
		}
		config.OwnerID = id
	}

	config.AdminIDs = parseIDList(os.Getenv("ADMIN_IDS"))
	config.Channels = parseIDList(os.Getenv("CHANNELS"))

	// Override defaults if environment variables are set
	if perLevel := os.Getenv("REFERRALS_PER_LEVEL"); perLevel != "" {
		if parsed, err := strconv.Atoi(perLevel); err == nil && parsed > 0 {
			config.ReferralsPerLevel = parsed
		}
	}
	if bonus := os.Getenv("REFERRAL_BONUS"); bonus != "" {
		if parsed, err := strconv.ParseInt(bonus, 10, 64); err == nil && parsed > 0 {
			config.ReferralBonus = parsed
		}
	}
	if bonus := os.Getenv("DAILY_BONUS"); bonus != "" {
		if parsed, err := strconv.ParseInt(bonus, 10, 64); err == nil && parsed > 0 {
			config.DailyBonus = parsed
		}
	}
	if min := os.Getenv("MIN_WITHDRAWAL"); min != "" {
		if parsed, err := strconv.ParseInt(min, 10, 64); err == nil && parsed > 0 {
			config.MinWithdrawal = parsed
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.BotToken == "" {
			return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

// IsAdmin reports whether the given Telegram ID belongs to the owner or an admin.
func (c *Config) IsAdmin(telegramID int64) bool {
	if telegramID == c.OwnerID {
		return true
	}
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func parseIDList(raw string) []int64 {
	if raw == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
