package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/EternisAI/enchanted-assistant/pkg/helpers"
)

const (
	MemoryBackendSQLite   = "sqlite"
	MemoryBackendDynamoDB = "dynamodb"

	SearchBackendBedrock  = "bedrock"
	SearchBackendWeaviate = "weaviate"
	SearchBackendHTTP     = "http"
	SearchBackendNone     = "none"

	SecretsBackendAWS = "aws"
	SecretsBackendEnv = "env"
)

type Config struct {
	LogLevel           string
	ComponentLogLevels map[string]string
	AWSRegion          string

	MemoryBackend string
	DBPath        string
	MemoryTable   string

	SearchBackend   string
	KnowledgeBaseID string
	WeaviateHost    string
	WeaviateScheme  string
	WeaviateClass   string
	SearchAPIURL    string
	SearchAPIKey    string
	SearchLimit     int

	SecretsBackend  string
	XSecretName     string
	SecretsCacheTTL time.Duration

	XAPIBaseURL        string
	XMaxRetries        int
	XRetryDelay        time.Duration
	XRequestsPerSecond float64
	XTimeout           time.Duration

	SerperAPIKey string
	SerperAPIURL string

	DefaultIdentityKey string

	// EnabledTools, when set, limits the registry to these tools;
	// DisabledTools removes tools from it.
	EnabledTools  []string
	DisabledTools []string
}

func getEnv(key, defaultValue string, printEnv bool) string {
	logger := log.Default()
	value := os.Getenv(key)
	if printEnv {
		if isSecretKey(key) && value != "" {
			logger.Info("Env", "key", key, "value", "***")
		} else {
			logger.Info("Env", "key", key, "value", value)
		}
	}
	if value == "" {
		return defaultValue
	}
	return value
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "_API_KEY") || strings.HasSuffix(key, "_SECRET")
}

func getEnvInt(key string, defaultValue int, printEnv bool) (int, error) {
	raw := getEnv(key, "", printEnv)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultValue float64, printEnv bool) (float64, error) {
	raw := getEnv(key, "", printEnv)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration, printEnv bool) (time.Duration, error) {
	raw := getEnv(key, "", printEnv)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

// ParseComponentLevels parses "factstore=debug,twitter=warn" into a map.
// Malformed pairs are skipped.
func ParseComponentLevels(raw string) map[string]string {
	levels := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		name, level, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" || level == "" {
			continue
		}
		levels[strings.TrimSpace(name)] = strings.TrimSpace(level)
	}
	return levels
}

// ParseList splits a comma-separated value, dropping blanks.
func ParseList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func LoadConfig(printEnv bool) (*Config, error) {
	_ = helpers.LoadEnvFile(3)

	conf := &Config{
		LogLevel:           getEnv("LOG_LEVEL", "info", printEnv),
		ComponentLogLevels: ParseComponentLevels(getEnv("LOG_LEVELS", "", printEnv)),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1", printEnv),
		MemoryBackend:      getEnv("MEMORY_BACKEND", MemoryBackendSQLite, printEnv),
		DBPath:             getEnv("DB_PATH", "./output/sqlite/memory.db", printEnv),
		MemoryTable:        getEnv("MEMORY_TABLE", "strands_memory", printEnv),
		SearchBackend:      getEnv("SEARCH_BACKEND", SearchBackendBedrock, printEnv),
		KnowledgeBaseID:    getEnv("KNOWLEDGE_BASE_ID", "", printEnv),
		WeaviateHost:       getEnv("WEAVIATE_HOST", "localhost:51414", printEnv),
		WeaviateScheme:     getEnv("WEAVIATE_SCHEME", "http", printEnv),
		WeaviateClass:      getEnv("WEAVIATE_CLASS", "KnowledgeChunk", printEnv),
		SearchAPIURL:       getEnv("SEARCH_API_URL", "", printEnv),
		SearchAPIKey:       getEnv("SEARCH_API_KEY", "", printEnv),
		SecretsBackend:     getEnv("SECRETS_BACKEND", SecretsBackendAWS, printEnv),
		XSecretName:        getEnv("X_SECRET_NAME", "xAPICreds", printEnv),
		XAPIBaseURL:        getEnv("X_API_BASE_URL", "https://api.twitter.com", printEnv),
		SerperAPIKey:       getEnv("SERPER_API_KEY", "", printEnv),
		SerperAPIURL:       getEnv("SERPER_API_URL", "https://google.serper.dev", printEnv),
		DefaultIdentityKey: getEnv("DEFAULT_IDENTITY_KEY", "user", printEnv),
		EnabledTools:       ParseList(getEnv("ENABLED_TOOLS", "", printEnv)),
		DisabledTools:      ParseList(getEnv("DISABLED_TOOLS", "", printEnv)),
	}

	var err error
	if conf.SearchLimit, err = getEnvInt("SEARCH_LIMIT", 5, printEnv); err != nil {
		return nil, err
	}
	if conf.XMaxRetries, err = getEnvInt("X_MAX_RETRIES", 3, printEnv); err != nil {
		return nil, err
	}
	if conf.XRetryDelay, err = getEnvDuration("X_RETRY_DELAY", 2*time.Second, printEnv); err != nil {
		return nil, err
	}
	if conf.XTimeout, err = getEnvDuration("X_TIMEOUT", 30*time.Second, printEnv); err != nil {
		return nil, err
	}
	if conf.SecretsCacheTTL, err = getEnvDuration("SECRETS_CACHE_TTL", 0, printEnv); err != nil {
		return nil, err
	}
	if conf.XRequestsPerSecond, err = getEnvFloat("X_REQUESTS_PER_SECOND", 0, printEnv); err != nil {
		return nil, err
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate checks enum-like settings and numeric bounds.
func (c *Config) Validate() error {
	switch c.MemoryBackend {
	case MemoryBackendSQLite, MemoryBackendDynamoDB:
	default:
		return fmt.Errorf("unsupported MEMORY_BACKEND %q", c.MemoryBackend)
	}
	switch c.SearchBackend {
	case SearchBackendBedrock, SearchBackendWeaviate, SearchBackendHTTP, SearchBackendNone:
	default:
		return fmt.Errorf("unsupported SEARCH_BACKEND %q", c.SearchBackend)
	}
	switch c.SecretsBackend {
	case SecretsBackendAWS, SecretsBackendEnv:
	default:
		return fmt.Errorf("unsupported SECRETS_BACKEND %q", c.SecretsBackend)
	}
	if c.MemoryTable == "" {
		return fmt.Errorf("MEMORY_TABLE must not be empty")
	}
	if c.XMaxRetries < 1 {
		return fmt.Errorf("X_MAX_RETRIES must be at least 1, got %d", c.XMaxRetries)
	}
	if c.XRetryDelay < 0 {
		return fmt.Errorf("X_RETRY_DELAY must not be negative")
	}
	return nil
}
