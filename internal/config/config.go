// ABOUTME: Centralized configuration for the front-desk agent
// ABOUTME: Loads from environment variables with validation and defaults; built once and passed down
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Compliance modes
const (
	ComplianceNonPHI   = "non_phi"
	CompliancePHIReady = "phi_ready"
)

// Config holds all configuration for the service. It is loaded once at startup and
// passed explicitly; a reload means calling Load again and rebuilding dependents.
type Config struct {
	AppEnv   string
	LogLevel string
	Port     string
	DBPath   string

	// OpenAI settings
	OpenAIKey      string
	OpenAIBaseURL  string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Privacy and pipeline settings
	ComplianceMode       string
	RedactStoredMessages bool
	HandoffMessage       string
	HandoffMessageSMS    string
	ManualPolicyApproval bool
	Timezone             string
	ConfidenceThreshold  float64
	RetrievalTopK        int
	VectorSearchEnabled  bool
	ClinicProfilePath    string
	ClinicName           string

	// Escalation notification settings
	SMTPHost                  string
	SMTPPort                  int
	SMTPUsername              string
	SMTPPassword              string
	EscalationEmailTo         string
	EscalationEmailFrom       string
	EscalationIncludeExcerpt  bool
	EscalationExcerptMaxChars int
	SlackToken                string
	SlackChannel              string
	RedisURL                  string
	RedisChannel              string

	// Retention settings
	RetentionDaysMessages    int
	RetentionDaysEscalations int

	// Transport settings
	AdminAPIKey              string
	TwilioAuthToken          string
	TwilioValidateSignatures bool
}

const (
	defaultHandoff = "Thanks for reaching out. For your privacy and safety, we can't discuss medical " +
		"details here. A team member will follow up, or call our front desk directly."
	defaultHandoffSMS = "For your privacy and safety, please don't text medical details. " +
		"Our front desk will follow up, or call us directly."
)

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("PORT", "8080"),
		DBPath:   getEnv("DB_PATH", "./data/frontdesk.db"),

		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		ChatModel:      getEnv("FRONTDESK_OPENAI_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getEnv("FRONTDESK_EMBEDDING_MODEL", "text-embedding-3-small"),
		Timeout:        getEnvDuration("OPENAI_TIMEOUT", 15*time.Second),
		MaxRetries:     getEnvInt("OPENAI_MAX_RETRIES", 1),
		RetryDelay:     getEnvDuration("OPENAI_RETRY_DELAY", 500*time.Millisecond),

		ComplianceMode:       strings.ToLower(strings.TrimSpace(getEnv("COMPLIANCE_MODE", ComplianceNonPHI))),
		RedactStoredMessages: getEnvBool("REDACT_STORED_MESSAGES", true),
		HandoffMessage:       getEnv("NON_PHI_HANDOFF_MESSAGE", defaultHandoff),
		HandoffMessageSMS:    getEnv("NON_PHI_HANDOFF_MESSAGE_SMS", defaultHandoffSMS),
		ManualPolicyApproval: getEnvBool("MANUAL_POLICY_APPROVAL", true),
		Timezone:             getEnv("CLINIC_TIMEZONE", "America/New_York"),
		ConfidenceThreshold:  getEnvFloat("CONFIDENCE_THRESHOLD", 0.45),
		RetrievalTopK:        getEnvInt("RETRIEVAL_TOP_K", 5),
		VectorSearchEnabled:  getEnvBool("VECTOR_SEARCH_ENABLED", true),
		ClinicProfilePath:    os.Getenv("CLINIC_PROFILE_FILE"),
		ClinicName:           getEnv("CLINIC_NAME", "Upstate Hearing and Balance"),

		SMTPHost:                  os.Getenv("SMTP_HOST"),
		SMTPPort:                  getEnvInt("SMTP_PORT", 587),
		SMTPUsername:              os.Getenv("SMTP_USERNAME"),
		SMTPPassword:              os.Getenv("SMTP_PASSWORD"),
		EscalationEmailTo:         getEnv("ESCALATION_EMAIL_TO", "frontdesk@example.com"),
		EscalationEmailFrom:       getEnv("ESCALATION_EMAIL_FROM", "bot@example.com"),
		EscalationIncludeExcerpt:  getEnvBool("ESCALATION_EMAIL_INCLUDE_EXCERPT", false),
		EscalationExcerptMaxChars: getEnvInt("ESCALATION_EMAIL_EXCERPT_MAX_CHARS", 280),
		SlackToken:                os.Getenv("SLACK_BOT_TOKEN"),
		SlackChannel:              os.Getenv("SLACK_ESCALATION_CHANNEL"),
		RedisURL:                  os.Getenv("REDIS_URL"),
		RedisChannel:              getEnv("REDIS_ESCALATION_CHANNEL", "frontdesk:escalations"),

		RetentionDaysMessages:    getEnvInt("RETENTION_DAYS_MESSAGES", 90),
		RetentionDaysEscalations: getEnvInt("RETENTION_DAYS_ESCALATIONS", 365),

		AdminAPIKey:              getEnv("ADMIN_API_KEY", "change-me"),
		TwilioAuthToken:          os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioValidateSignatures: getEnvBool("TWILIO_VALIDATE_SIGNATURES", false),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD must be 0-1, got %f", c.ConfidenceThreshold)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.RetrievalTopK <= 0 {
		return fmt.Errorf("RETRIEVAL_TOP_K must be > 0, got %d", c.RetrievalTopK)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("CLINIC_TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.TwilioValidateSignatures && c.TwilioAuthToken == "" {
		return fmt.Errorf("TWILIO_VALIDATE_SIGNATURES requires TWILIO_AUTH_TOKEN")
	}
	return nil
}

// Location returns the clinic timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NonPHIMode reports whether clinical content must be screened out
func (c *Config) NonPHIMode() bool {
	return c.ComplianceMode == ComplianceNonPHI
}

// IsDevelopment returns true outside production
func (c *Config) IsDevelopment() bool {
	return c.AppEnv != "production"
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultVal
	}
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
