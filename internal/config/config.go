package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DatabaseURL    string
	LogLevel       string
	Debug          bool
	ServiceName    string
	Environment    string
	Hostname       string
	ServerPort     string
	AllowedOrigins []string

	// Twilio
	TwilioAccountSID        string
	TwilioAuthToken         string
	TwilioNumber            string
	ValidateTwilioSignature bool
	PublicBaseURL           string
	DefaultRecipient        string

	// Language model
	GeminiAPIKeys  []string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float32
	SystemPrompt   string

	// Tenancy
	DefaultTenantAPIKey string
	AdminAPIKey         string

	// Context builder
	ContextMaxLines int
	EmbedResources  bool

	// Background delivery
	QueueBackend string // local | asynq
	RedisURL     string
	WorkerCount  int
	QueueBuffer  int
}

const (
	QueueBackendLocal = "local"
	QueueBackendAsynq = "asynq"
)

// LoadConfig reads the process environment. Only the database settings are
// mandatory here; provider credentials are checked by ValidateServe so that
// maintenance commands such as migrations can run without them.
func LoadConfig() (*Config, error) {
	databaseURL, err := databaseURLFromEnv()
	if err != nil {
		return nil, err
	}

	temperature := float32(0.7)
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		parsed, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid LLM_TEMPERATURE %q: %w", v, err)
		}
		temperature = float32(parsed)
	}

	queueBackend := strings.ToLower(getEnv("QUEUE_BACKEND", QueueBackendLocal))
	if queueBackend != QueueBackendLocal && queueBackend != QueueBackendAsynq {
		return nil, fmt.Errorf("unsupported QUEUE_BACKEND %q", queueBackend)
	}

	return &Config{
		DatabaseURL:    databaseURL,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Debug:          getBool("DEBUG", false),
		ServiceName:    getEnv("SERVICE_NAME", "lightning-whatsapp"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		Hostname:       getEnv("HOSTNAME", "lightning-whatsapp"),
		ServerPort:     getEnv("SERVER_PORT", getEnv("PORT", "8080")),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),

		TwilioAccountSID:        os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:         os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioNumber:            os.Getenv("TWILIO_NUMBER"),
		ValidateTwilioSignature: getBool("TWILIO_VALIDATE_SIGNATURE", true),
		PublicBaseURL:           strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
		DefaultRecipient:        os.Getenv("TO_NUMBER"),

		GeminiAPIKeys:  splitList(os.Getenv("GEMINI_API_KEYS")),
		LLMModel:       getEnv("LLM_MODEL", "gemini-2.0-flash-lite"),
		LLMMaxTokens:   getInt("LLM_MAX_TOKENS", 150),
		LLMTemperature: temperature,
		SystemPrompt:   os.Getenv("SYSTEM_PROMPT"),

		DefaultTenantAPIKey: os.Getenv("DEFAULT_TENANT_API_KEY"),
		AdminAPIKey:         os.Getenv("ADMIN_API_KEY"),

		ContextMaxLines: getInt("CONTEXT_MAX_LINES", 25),
		EmbedResources:  getBool("EMBED_RESOURCES", false),

		QueueBackend: queueBackend,
		RedisURL:     os.Getenv("REDIS_URL"),
		WorkerCount:  getInt("WORKER_COUNT", 4),
		QueueBuffer:  getInt("QUEUE_BUFFER", 256),
	}, nil
}

// ValidateServe checks the settings the HTTP server cannot run without.
func (c *Config) ValidateServe() error {
	var missing []string
	if c.TwilioAccountSID == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if c.TwilioAuthToken == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if c.TwilioNumber == "" {
		missing = append(missing, "TWILIO_NUMBER")
	}
	if len(c.GeminiAPIKeys) == 0 {
		missing = append(missing, "GEMINI_API_KEYS")
	}
	if c.QueueBackend == QueueBackendAsynq && c.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// databaseURLFromEnv prefers DATABASE_URL and otherwise assembles a DSN from
// the discrete DB_* variables.
func databaseURLFromEnv() (string, error) {
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		return normalizeDSN(dsn), nil
	}

	user := os.Getenv("DB_USER")
	name := os.Getenv("DB_NAME")
	if user == "" || name == "" {
		return "", errors.New("DATABASE_URL or DB_USER and DB_NAME are required")
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, os.Getenv("DB_PASSWORD")),
		Host:   net.JoinHostPort(getEnv("DB_HOST", "localhost"), getEnv("DB_PORT", "5432")),
		Path:   "/" + name,
	}
	if sslMode := os.Getenv("DB_SSLMODE"); sslMode != "" {
		u.RawQuery = url.Values{"sslmode": {sslMode}}.Encode()
	}
	return u.String(), nil
}

// normalizeDSN converts SQLAlchemy-style driver suffixes into plain postgres URLs.
func normalizeDSN(dsn string) string {
	for _, prefix := range []string{"postgresql+psycopg2://", "postgresql+asyncpg://", "postgresql+pgx://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "postgresql://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	for _, prefix := range []string{"postgres+psycopg2://", "postgres+asyncpg://", "postgres+pgx://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "postgres://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// splitList splits a comma-separated value, trimming whitespace and dropping empties.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
