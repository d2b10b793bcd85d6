package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string

	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int

	// ClickUp task board
	ClickUpAPIToken      string
	ClickUpListID        string
	ClickUpLeadStatus    string
	ClickUpLeadPriority  int
	ClickUpAssigneeIDs   string
	ClickUpPhoneFieldID  string
	ClickUpEmailFieldID  string
	ClickUpSourceFieldID string
	ClickUpWebhookSecret string

	// OpenPhone contact/SMS platform
	OpenPhoneAPIKey     string
	OpenPhoneNumberID   string
	OpenPhonePhoneLabel string
	OpenPhoneEmailLabel string

	// GoHighLevel CRM
	GHLAPIKey     string
	GHLBaseURL    string
	GHLPipelineID string
	GHLStageID    string

	// Meta Conversions API
	MetaPixelID     string
	MetaAccessToken string

	// Telegram chat-ops bot
	TelegramBotToken string
	TelegramChatID   string

	// QStash delayed-message queue
	QStashToken   string
	QStashBaseURL string

	// Follow-up SMS scheduling
	FollowUpDelay      time.Duration
	SendWindowStart    string
	SendWindowEnd      string
	SendWindowTimezone string
	SendWindowOverride bool
	DedupeTTL          time.Duration

	DispatchTimeout time.Duration

	// Operator notifications
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	OperatorEmails    []string

	AdminToken string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "https://scalinghomeservices.com"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "")),
		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),

		ClickUpAPIToken:      getEnv("CLICKUP_API_TOKEN", ""),
		ClickUpListID:        getEnv("CLICKUP_LEAD_LIST_ID", getEnv("CLICKUP_LIST_ID", "")),
		ClickUpLeadStatus:    getEnv("CLICKUP_LEAD_STATUS", ""),
		ClickUpLeadPriority:  getEnvAsInt("CLICKUP_LEAD_PRIORITY", 0),
		ClickUpAssigneeIDs:   getEnv("CLICKUP_LEAD_ASSIGNEE_IDS", getEnv("CLICKUP_LEAD_ASSIGNEE_ID", "")),
		ClickUpPhoneFieldID:  getEnv("CLICKUP_LEAD_PHONE_FIELD_ID", ""),
		ClickUpEmailFieldID:  getEnv("CLICKUP_LEAD_EMAIL_FIELD_ID", ""),
		ClickUpSourceFieldID: getEnv("CLICKUP_LEAD_SOURCE_FIELD_ID", ""),
		ClickUpWebhookSecret: getEnv("CLICKUP_WEBHOOK_SECRET", ""),

		OpenPhoneAPIKey:     getEnv("OPENPHONE_API_KEY", ""),
		OpenPhoneNumberID:   getEnv("OPENPHONE_NUMBER_ID", ""),
		OpenPhonePhoneLabel: getEnv("OPENPHONE_PHONE_LABEL", "mobile"),
		OpenPhoneEmailLabel: getEnv("OPENPHONE_EMAIL_LABEL", "work"),

		GHLAPIKey:     getEnv("GHL_API_KEY", ""),
		GHLBaseURL:    getEnv("GHL_API_BASE", ""),
		GHLPipelineID: getEnv("GHL_PIPELINE_ID", ""),
		GHLStageID:    getEnv("GHL_STAGE_ID", ""),

		MetaPixelID:     getEnv("META_PIXEL_ID", ""),
		MetaAccessToken: getEnv("META_ACCESS_TOKEN", ""),

		TelegramBotToken: getEnv("TG_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TG_CHAT_ID", ""),

		QStashToken:   getEnv("QSTASH_TOKEN", ""),
		QStashBaseURL: getEnv("QSTASH_URL", ""),

		FollowUpDelay:      getEnvAsDuration("FOLLOWUP_SMS_DELAY", 60*time.Second),
		SendWindowStart:    getEnv("SEND_WINDOW_START", "19:00"),
		SendWindowEnd:      getEnv("SEND_WINDOW_END", "07:00"),
		SendWindowTimezone: getEnv("SEND_WINDOW_TZ", "America/New_York"),
		SendWindowOverride: getEnvAsBool("SEND_WINDOW_OVERRIDE", true),
		DedupeTTL:          getEnvAsDuration("FOLLOWUP_DEDUPE_TTL", 10*time.Minute),

		DispatchTimeout: getEnvAsDuration("DISPATCH_TIMEOUT", 6*time.Second),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Scaling Home Services"),
		OperatorEmails:    splitAndTrim(getEnv("OPERATOR_EMAILS", "")),

		AdminToken: getEnv("ADMIN_TOKEN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
	}
}

func splitAndTrim(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
