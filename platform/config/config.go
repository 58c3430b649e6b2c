// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreBackendLocal  = "local"
	StoreBackendRemote = "remote"
)

// AI providers.
const (
	AIProviderGemini   = "gemini"
	AIProviderMoonshot = "moonshot"
)

// Email providers.
const (
	EmailProviderNone  = "none"
	EmailProviderSMTP  = "smtp"
	EmailProviderBrevo = "brevo"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// StoreConfig selects and configures the lead repository backend.
type StoreConfig interface {
	GetStoreBackend() string
	GetSQLitePath() string
	GetDatabaseURL() string
}

// AIConfig provides settings for the generative AI provider.
type AIConfig interface {
	GetAIProvider() string
	GetGeminiAPIKey() string
	GetGeminiModel() string
	GetMoonshotAPIKey() string
	GetMoonshotModel() string
	GetAIRequestsPerMinute() int
}

// AgentConfig provides settings for the autonomous agent loop.
type AgentConfig interface {
	GetAgentTickInterval() time.Duration
	GetAgentDailyLimit() int
	GetAgentLocation() *time.Location
	GetAgentReplyProbability() float64
	GetTargetingFile() string
	GetDefaultPhoneRegion() string
	GetSenderCompanyName() string
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailProvider() string
	GetBrevoAPIKey() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// SchedulerConfig provides settings for Redis-backed scheduling and usage counters.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// WhatsAppConfig provides settings for the GoWA WhatsApp gateway.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDeviceID() string
	GetWhatsAppOperatorPhone() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	HTTPAddr              string
	CORSAllowAll          bool
	CORSOrigins           []string
	StoreBackend          string
	SQLitePath            string
	DatabaseURL           string
	AIProvider            string
	GeminiAPIKey          string
	GeminiModel           string
	MoonshotAPIKey        string
	MoonshotModel         string
	AIRequestsPerMinute   int
	AgentTickInterval     time.Duration
	AgentDailyLimit       int
	AgentLocation         *time.Location
	AgentReplyProbability float64
	TargetingFile         string
	DefaultPhoneRegion    string
	SenderCompanyName     string
	EmailProvider         string
	BrevoAPIKey           string
	SMTPHost              string
	SMTPPort              int
	SMTPUsername          string
	SMTPPassword          string
	EmailFromName         string
	EmailFromAddress      string
	RedisURL              string
	RedisTLSInsecure      bool
	AsynqQueueName        string
	AsynqConcurrency      int
	WhatsAppURL           string
	WhatsAppKey           string
	WhatsAppDeviceID      string
	WhatsAppOperatorPhone string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// StoreConfig implementation
func (c *Config) GetStoreBackend() string { return c.StoreBackend }
func (c *Config) GetSQLitePath() string   { return c.SQLitePath }
func (c *Config) GetDatabaseURL() string  { return c.DatabaseURL }

// AIConfig implementation
func (c *Config) GetAIProvider() string       { return c.AIProvider }
func (c *Config) GetGeminiAPIKey() string     { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string      { return c.GeminiModel }
func (c *Config) GetMoonshotAPIKey() string   { return c.MoonshotAPIKey }
func (c *Config) GetMoonshotModel() string    { return c.MoonshotModel }
func (c *Config) GetAIRequestsPerMinute() int { return c.AIRequestsPerMinute }

// AgentConfig implementation
func (c *Config) GetAgentTickInterval() time.Duration { return c.AgentTickInterval }
func (c *Config) GetAgentDailyLimit() int             { return c.AgentDailyLimit }
func (c *Config) GetAgentLocation() *time.Location    { return c.AgentLocation }
func (c *Config) GetAgentReplyProbability() float64   { return c.AgentReplyProbability }
func (c *Config) GetTargetingFile() string            { return c.TargetingFile }
func (c *Config) GetDefaultPhoneRegion() string       { return c.DefaultPhoneRegion }
func (c *Config) GetSenderCompanyName() string        { return c.SenderCompanyName }

// EmailConfig implementation
func (c *Config) GetEmailProvider() string    { return c.EmailProvider }
func (c *Config) GetBrevoAPIKey() string      { return c.BrevoAPIKey }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string        { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool  { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string  { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int   { return c.AsynqConcurrency }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppURL() string           { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string           { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDeviceID() string      { return c.WhatsAppDeviceID }
func (c *Config) GetWhatsAppOperatorPhone() string { return c.WhatsAppOperatorPhone }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	location, err := time.LoadLocation(getEnv("AGENT_TIMEZONE", "Europe/Istanbul"))
	if err != nil {
		return nil, fmt.Errorf("AGENT_TIMEZONE: %w", err)
	}

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		StoreBackend:          strings.ToLower(getEnv("STORE_BACKEND", StoreBackendLocal)),
		SQLitePath:            getEnv("SQLITE_PATH", "data/leads.db"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		AIProvider:            strings.ToLower(getEnv("AI_PROVIDER", AIProviderGemini)),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		MoonshotAPIKey:        getEnv("MOONSHOT_API_KEY", ""),
		MoonshotModel:         getEnv("MOONSHOT_MODEL", ""),
		AIRequestsPerMinute:   mustInt(getEnv("AI_REQUESTS_PER_MINUTE", "10")),
		AgentTickInterval:     mustDuration(getEnv("AGENT_TICK_INTERVAL", "20s")),
		AgentDailyLimit:       mustInt(getEnv("AGENT_DAILY_LIMIT", "50")),
		AgentLocation:         location,
		AgentReplyProbability: mustFloat(getEnv("AGENT_REPLY_PROBABILITY", "0.3")),
		TargetingFile:         getEnv("TARGETING_FILE", ""),
		DefaultPhoneRegion:    strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "TR")),
		SenderCompanyName:     getEnv("SENDER_COMPANY_NAME", "Lead Agent"),
		EmailProvider:         strings.ToLower(getEnv("EMAIL_PROVIDER", EmailProviderNone)),
		BrevoAPIKey:           getEnv("BREVO_API_KEY", ""),
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		EmailFromName:         getEnv("EMAIL_FROM_NAME", "Lead Agent"),
		EmailFromAddress:      getEnv("EMAIL_FROM_ADDRESS", ""),
		RedisURL:              getEnv("REDIS_URL", ""),
		RedisTLSInsecure:      strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:      mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		WhatsAppURL:           getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:           getEnv("WHATSAPP_KEY", ""),
		WhatsAppDeviceID:      getEnv("WHATSAPP_DEVICE_ID", ""),
		WhatsAppOperatorPhone: getEnv("WHATSAPP_OPERATOR_PHONE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces cross-field rules.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendLocal:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_BACKEND is local")
		}
	case StoreBackendRemote:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is remote")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreBackendLocal, StoreBackendRemote, c.StoreBackend)
	}

	switch c.AIProvider {
	case AIProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER is gemini")
		}
	case AIProviderMoonshot:
		if c.MoonshotAPIKey == "" {
			return fmt.Errorf("MOONSHOT_API_KEY is required when AI_PROVIDER is moonshot")
		}
	default:
		return fmt.Errorf("AI_PROVIDER must be %q or %q, got %q", AIProviderGemini, AIProviderMoonshot, c.AIProvider)
	}

	switch c.EmailProvider {
	case EmailProviderNone:
	case EmailProviderBrevo:
		if c.BrevoAPIKey == "" {
			return fmt.Errorf("BREVO_API_KEY is required when EMAIL_PROVIDER is brevo")
		}
	case EmailProviderSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when EMAIL_PROVIDER is smtp")
		}
	default:
		return fmt.Errorf("EMAIL_PROVIDER must be none, smtp or brevo, got %q", c.EmailProvider)
	}
	if c.EmailProvider != EmailProviderNone && c.EmailFromAddress == "" {
		return fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}

	if c.AgentTickInterval <= 0 {
		return fmt.Errorf("AGENT_TICK_INTERVAL must be a positive duration")
	}
	if c.AgentDailyLimit <= 0 {
		return fmt.Errorf("AGENT_DAILY_LIMIT must be positive")
	}
	if c.AgentReplyProbability < 0 || c.AgentReplyProbability > 1 {
		return fmt.Errorf("AGENT_REPLY_PROBABILITY must be within [0,1]")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return -1
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
