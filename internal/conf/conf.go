package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/usecase"
)

// Config represents application configuration
type Config struct {
	// Telegram configuration
	Telegram TelegramConfig

	// Classifier configuration
	Classifier ClassifierConfig

	// Moderation configuration
	Moderation ModerationValues

	// History store configuration
	History HistoryConfig

	// Ledger configuration
	Ledger LedgerConfig

	// Operator API configuration
	API APIConfig

	// Logging configuration
	Log LogConfig

	// Policy configuration (loaded from YAML)
	Policy *PolicyConfig

	raw       rawIDs
	policyErr error
}

// TelegramConfig contains Telegram configuration
type TelegramConfig struct {
	BotToken string
}

// ClassifierConfig contains classification provider configuration
type ClassifierConfig struct {
	APIKey         string
	BaseURL        string // OpenAI-compatible endpoint, empty for api.openai.com
	Model          string
	TimeoutSeconds int
	MaxAttempts    int
	RPS            float64 // Client-side request rate limit, 0 disables
}

// ModerationValues contains moderation engine settings
type ModerationValues struct {
	SupportChatID int64
	AuditChatID   int64
	OwnerID       int64
	Whitelist     []int64
	RoleCheck     string // before, after
}

// HistoryConfig contains history store configuration
type HistoryConfig struct {
	Backend   string // memory, redis
	RedisURL  string
	IdleHours int
	MaxUsers  int
}

// LedgerConfig contains moderation ledger configuration
type LedgerConfig struct {
	DBPath        string // empty disables the ledger
	RetentionDays int
}

// APIConfig contains operator API configuration
type APIConfig struct {
	Addr string // empty disables the API server
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level  string
	Format string // console, json
}

// rawIDs keeps required integer settings unparsed until Validate
type rawIDs struct {
	supportChatID string
	auditChatID   string
	ownerID       string
}

// required lists mandatory keys in reporting order
var required = []string{
	"BOT_TOKEN",
	"CLASSIFIER_API_KEY",
	"SUPPORT_CHAT_ID",
	"AUDIT_CHAT_ID",
	"OWNER_USER_ID",
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Ledger DB path
	ledgerPath, ok := os.LookupEnv("LEDGER_DB_PATH")
	if !ok {
		homeDir, _ := os.UserHomeDir()
		ledgerPath = filepath.Join(homeDir, ".scamguard", "ledger.db")
	}

	apiAddr, ok := os.LookupEnv("API_ADDR")
	if !ok {
		apiAddr = "127.0.0.1:9877"
	}

	policyConfig, policyErr := LoadPolicyConfig(os.Getenv("POLICY_CONFIG_PATH"))
	if policyErr != nil {
		policyConfig = DefaultPolicyConfig()
	}

	model := os.Getenv("CLASSIFIER_MODEL")
	if model == "" {
		model = policyConfig.Model
	}

	return &Config{
		Telegram: TelegramConfig{
			BotToken: envOr("BOT_TOKEN", "TELEGRAM_BOT_TOKEN"),
		},
		Classifier: ClassifierConfig{
			APIKey:         envOr("CLASSIFIER_API_KEY", "OPENAI_API_KEY"),
			BaseURL:        os.Getenv("CLASSIFIER_BASE_URL"),
			Model:          model,
			TimeoutSeconds: envInt("CLASSIFIER_TIMEOUT_SECONDS", 20),
			MaxAttempts:    envInt("CLASSIFIER_MAX_ATTEMPTS", 3),
			RPS:            envFloat("CLASSIFIER_RPS", 0),
		},
		Moderation: ModerationValues{
			Whitelist: ParseUserIDs(os.Getenv("WHITELIST_USER_IDS")),
			RoleCheck: strings.ToLower(envDefault("ROLE_CHECK_TIMING", string(usecase.RoleCheckAfterVerdict))),
		},
		History: HistoryConfig{
			Backend:   strings.ToLower(envDefault("HISTORY_BACKEND", "memory")),
			RedisURL:  os.Getenv("REDIS_URL"),
			IdleHours: envInt("HISTORY_IDLE_HOURS", 72),
			MaxUsers:  envInt("HISTORY_MAX_USERS", 100000),
		},
		Ledger: LedgerConfig{
			DBPath:        ledgerPath,
			RetentionDays: envInt("LEDGER_RETENTION_DAYS", 30),
		},
		API: APIConfig{
			Addr: apiAddr,
		},
		Log: LogConfig{
			Level:  envDefault("LOG_LEVEL", "info"),
			Format: envDefault("LOG_FORMAT", "json"),
		},
		policyErr: policyErr,
		Policy:    policyConfig,
		raw: rawIDs{
			supportChatID: envOr("SUPPORT_CHAT_ID", "SUPPORT_GROUP_CHAT_ID"),
			auditChatID:   envOr("AUDIT_CHAT_ID", "DELETED_GROUP_CHAT_ID"),
			ownerID:       os.Getenv("OWNER_USER_ID"),
		},
	}
}

// Validate validates the configuration and parses required IDs
func (c *Config) Validate() error {
	var missing []string
	for _, key := range required {
		if !c.hasValue(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &ConfigError{Field: strings.Join(missing, ", "), Message: "missing required value"}
	}

	var err error
	if c.Moderation.OwnerID, err = parseID(c.raw.ownerID); err != nil {
		return &ConfigError{Field: "OWNER_USER_ID", Message: "must be a valid Telegram user ID integer"}
	}
	if c.Moderation.SupportChatID, err = parseID(c.raw.supportChatID); err != nil {
		return &ConfigError{Field: "SUPPORT_CHAT_ID", Message: "must be a valid Telegram chat ID integer"}
	}
	if c.Moderation.AuditChatID, err = parseID(c.raw.auditChatID); err != nil {
		return &ConfigError{Field: "AUDIT_CHAT_ID", Message: "must be a valid Telegram chat ID integer"}
	}

	switch usecase.RoleCheckTiming(c.Moderation.RoleCheck) {
	case usecase.RoleCheckBefore, usecase.RoleCheckAfterVerdict:
	default:
		return &ConfigError{Field: "ROLE_CHECK_TIMING", Message: "must be 'before' or 'after'"}
	}

	switch c.History.Backend {
	case "memory":
	case "redis":
		if c.History.RedisURL == "" {
			return &ConfigError{Field: "REDIS_URL", Message: "required when HISTORY_BACKEND=redis"}
		}
	default:
		return &ConfigError{Field: "HISTORY_BACKEND", Message: "must be 'memory' or 'redis'"}
	}

	if c.Classifier.MaxAttempts <= 0 {
		return &ConfigError{Field: "CLASSIFIER_MAX_ATTEMPTS", Message: "must be positive"}
	}
	if c.Classifier.TimeoutSeconds <= 0 {
		return &ConfigError{Field: "CLASSIFIER_TIMEOUT_SECONDS", Message: "must be positive"}
	}
	return c.PolicyError()
}

// PolicyError reports a policy file that could not be read or parsed
func (c *Config) PolicyError() error {
	if c.policyErr != nil {
		return &ConfigError{Field: "POLICY_CONFIG_PATH", Message: c.policyErr.Error()}
	}
	return nil
}

// hasValue reports whether a required value is present
func (c *Config) hasValue(key string) bool {
	switch key {
	case "BOT_TOKEN":
		return c.Telegram.BotToken != ""
	case "CLASSIFIER_API_KEY":
		return c.Classifier.APIKey != ""
	case "SUPPORT_CHAT_ID":
		return c.raw.supportChatID != ""
	case "AUDIT_CHAT_ID":
		return c.raw.auditChatID != ""
	case "OWNER_USER_ID":
		return c.raw.ownerID != ""
	}
	return false
}

// ToModerationConfig converts to the engine configuration.
// Validate must have succeeded.
func (c *Config) ToModerationConfig() usecase.ModerationConfig {
	whitelist := make(map[int64]struct{}, len(c.Moderation.Whitelist))
	for _, id := range c.Moderation.Whitelist {
		whitelist[id] = struct{}{}
	}
	return usecase.ModerationConfig{
		OwnerID:       c.Moderation.OwnerID,
		Whitelist:     whitelist,
		SupportChatID: c.Moderation.SupportChatID,
		AuditChatID:   c.Moderation.AuditChatID,
		RoleCheck:     usecase.RoleCheckTiming(c.Moderation.RoleCheck),
		MaxAttempts:   c.Classifier.MaxAttempts,
	}
}

// ToClassifyConfig converts to the retry policy configuration
func (c *Config) ToClassifyConfig() usecase.ClassifyConfig {
	return usecase.ClassifyConfig{
		MaxAttempts:    c.Classifier.MaxAttempts,
		AttemptTimeout: time.Duration(c.Classifier.TimeoutSeconds) * time.Second,
	}
}

// IdleTTL returns how long an inactive user's history is kept
func (c *HistoryConfig) IdleTTL() time.Duration {
	return time.Duration(c.IdleHours) * time.Hour
}

// Retention returns how long ledger rows are kept
func (c *LedgerConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// ParseUserIDs parses a comma-separated list of integer IDs.
// Malformed entries are dropped.
func ParseUserIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if fallback != "" {
		return os.Getenv(fallback)
	}
	return ""
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
