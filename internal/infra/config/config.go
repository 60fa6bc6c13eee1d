package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Logger      LoggerConfig      `yaml:"logger"`
	Tracer      TracerConfig      `yaml:"tracer"`
	Sensor      SensorConfig      `yaml:"sensor"`
	System      map[string]any    `yaml:"system"`
	Environment EnvironmentConfig `yaml:"environment"`
	Router      RouterConfig      `yaml:"router"`
	LLM         LLMConfig         `yaml:"llm"`
	History     HistoryConfig     `yaml:"history"`
	Monitor     MonitorConfig     `yaml:"monitor"`
}

// SensorConfig selects where readings come from.
type SensorConfig struct {
	Type   string             `yaml:"type"` // "simulator", "static", "file"
	Path   string             `yaml:"path,omitempty"`
	Values map[string]float64 `yaml:"values,omitempty"`
	Seed   uint64             `yaml:"seed,omitempty"` // 0 = random
	// Fallback chains the simulator behind static and file sources.
	Fallback bool `yaml:"fallback"`
}

// EnvironmentConfig holds the climate targets of the grow room.
type EnvironmentConfig struct {
	TargetTemperature float64 `yaml:"target_temperature"`
	TargetHumidity    float64 `yaml:"target_humidity"`
}

// RouterConfig controls classification, dispatch and collection.
type RouterConfig struct {
	CollectTimeout     time.Duration `yaml:"collect_timeout"`
	ProducerWait       time.Duration `yaml:"producer_wait,omitempty"` // 0 = collect_timeout / 2
	Classifier         string        `yaml:"classifier"`              // "keyword", "prefix", "llm"
	Synthesizer        string        `yaml:"synthesizer"`             // "join", "llm"
	Narrate            bool          `yaml:"narrate"`
	ExpandDependencies bool          `yaml:"expand_dependencies"`
	DefaultSpecialties []string      `yaml:"default_specialties"`
	RateLimit          float64       `yaml:"rate_limit,omitempty"` // requests per second, 0 = unlimited
	Burst              int           `yaml:"burst,omitempty"`
}

// LLMConfig holds language model provider settings.
type LLMConfig struct {
	DefaultProvider string               `yaml:"default_provider"`
	Providers       []ProviderConfig     `yaml:"providers"`
	CircuitBreaker  CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig holds circuit breaker settings for LLM providers.
type CircuitBreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// PoolConfig holds HTTP connection pool settings for LLM providers.
type PoolConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `yaml:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// ProviderConfig holds settings for a single OpenAI-compatible provider.
type ProviderConfig struct {
	Name        string        `yaml:"name"`
	Type        string        `yaml:"type"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	ConnTimeout time.Duration `yaml:"conn_timeout"`
	RespTimeout time.Duration `yaml:"resp_timeout"`
	Pool        PoolConfig    `yaml:"pool"`
}

// HistoryConfig controls the advisory history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Limit   int    `yaml:"limit"` // default rows shown by "history"
}

// MonitorConfig controls periodic advisory cycles.
type MonitorConfig struct {
	Schedule string `yaml:"schedule"` // cron expression or duration string
	Query    string `yaml:"query"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

// defaultDataDir returns the persistent data directory under $HOME/.mindponics.
// Falls back to "./data" if $HOME cannot be determined.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".mindponics")
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Exporter: "noop",
		},
		Sensor: SensorConfig{
			Type:     "simulator",
			Fallback: true,
		},
		System: map[string]any{
			"fish_species":      "tilapia",
			"fish_life_stage":   "adult",
			"fish_count":        100,
			"fish_avg_weight_g": 200.0,
			"plant_species":     "lettuce",
			"plant_stage":       "vegetative",
		},
		Environment: EnvironmentConfig{
			TargetTemperature: 25.0,
			TargetHumidity:    65.0,
		},
		Router: RouterConfig{
			CollectTimeout:     5 * time.Second,
			Classifier:         "prefix",
			Synthesizer:        "join",
			ExpandDependencies: true,
			DefaultSpecialties: []string{"water", "fish", "plant", "bacteria", "environment"},
			Burst:              1,
		},
		LLM: LLMConfig{
			DefaultProvider: "openai",
			CircuitBreaker: CircuitBreakerConfig{
				MaxFailures: 5,
				Timeout:     30 * time.Second,
				Interval:    60 * time.Second,
			},
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(defaultDataDir(), "history.db"),
			Limit:   10,
		},
		Monitor: MonitorConfig{
			Schedule: "15m",
			Query:    "Check water quality and the nitrification cycle",
		},
	}
}

// Load reads a YAML config file, applies env var overrides, and decrypts secrets.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	if err := validatePermissions(absPath); err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	passphrase := os.Getenv("MINDPONICS_CONFIG_KEY")
	if passphrase != "" {
		if err := decryptSecrets(cfg, passphrase); err != nil {
			return nil, fmt.Errorf("decrypt secrets: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides maps MINDPONICS_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MINDPONICS_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("MINDPONICS_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("MINDPONICS_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("MINDPONICS_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
	if v := os.Getenv("MINDPONICS_SENSOR_TYPE"); v != "" {
		cfg.Sensor.Type = v
	}
	if v := os.Getenv("MINDPONICS_SENSOR_PATH"); v != "" {
		cfg.Sensor.Path = v
	}
	if v := os.Getenv("MINDPONICS_ROUTER_CLASSIFIER"); v != "" {
		cfg.Router.Classifier = v
	}
	if v := os.Getenv("MINDPONICS_ROUTER_SYNTHESIZER"); v != "" {
		cfg.Router.Synthesizer = v
	}
	if v := os.Getenv("MINDPONICS_ROUTER_COLLECT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Router.CollectTimeout = d
		}
	}
	if v := os.Getenv("MINDPONICS_ROUTER_DEFAULT_SPECIALTIES"); v != "" {
		cfg.Router.DefaultSpecialties = splitAndTrim(v, ",")
	}
	if v := os.Getenv("MINDPONICS_ROUTER_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.Router.RateLimit = f
		}
	}
	if v := os.Getenv("MINDPONICS_ENVIRONMENT_TARGET_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Environment.TargetTemperature = f
		}
	}
	if v := os.Getenv("MINDPONICS_ENVIRONMENT_TARGET_HUMIDITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Environment.TargetHumidity = f
		}
	}
	if v := os.Getenv("MINDPONICS_LLM_DEFAULT_PROVIDER"); v != "" {
		cfg.LLM.DefaultProvider = v
	}
	if v := os.Getenv("MINDPONICS_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
	if v := os.Getenv("MINDPONICS_HISTORY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.History.Enabled = b
		}
	}
	if v := os.Getenv("MINDPONICS_MONITOR_SCHEDULE"); v != "" {
		cfg.Monitor.Schedule = v
	}

	// Per-provider API key overrides: MINDPONICS_LLM_PROVIDER_<NAME>_API_KEY
	for i := range cfg.LLM.Providers {
		envKey := fmt.Sprintf("MINDPONICS_LLM_PROVIDER_%s_API_KEY",
			strings.ToUpper(cfg.LLM.Providers[i].Name))
		if v := os.Getenv(envKey); v != "" {
			cfg.LLM.Providers[i].APIKey = v
		}
	}
}

// splitAndTrim splits s by sep and trims whitespace from each element.
// Empty elements are dropped.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// EffectiveProducerWait returns the configured producer wait, defaulting to half the
// collect timeout.
func (r RouterConfig) EffectiveProducerWait() time.Duration {
	if r.ProducerWait > 0 {
		return r.ProducerWait
	}
	return r.CollectTimeout / 2
}

// Provider returns the provider config named by DefaultProvider.
func (l LLMConfig) Provider() (ProviderConfig, bool) {
	for _, p := range l.Providers {
		if p.Name == l.DefaultProvider {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

// decryptSecrets finds "enc:..." values in provider API keys and decrypts them.
func decryptSecrets(cfg *Config, passphrase string) error {
	for i := range cfg.LLM.Providers {
		key := cfg.LLM.Providers[i].APIKey
		if strings.HasPrefix(key, "enc:") {
			decrypted, err := DecryptValue(strings.TrimPrefix(key, "enc:"), passphrase)
			if err != nil {
				return fmt.Errorf("provider %s api_key: %w", cfg.LLM.Providers[i].Name, err)
			}
			cfg.LLM.Providers[i].APIKey = decrypted
		}
	}
	return nil
}

// EncryptValue encrypts a plaintext value with AES-256-GCM using a passphrase.
func EncryptValue(plaintext, passphrase string) (string, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	// Format: hex(salt) + ":" + hex(nonce+ciphertext)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(ciphertext), nil
}

// DecryptValue decrypts an AES-256-GCM encrypted value.
func DecryptValue(encrypted, passphrase string) (string, error) {
	saltHex, dataHex, ok := strings.Cut(encrypted, ":")
	if !ok {
		return "", fmt.Errorf("invalid encrypted format")
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return "", fmt.Errorf("decode salt: %w", err)
	}

	data, err := hex.DecodeString(dataHex)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}

	return string(plaintext), nil
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

// deriveKey uses Argon2id to derive a 32-byte key from passphrase + salt.
func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, 32)
}

// validatePermissions checks the config file has restrictive permissions.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	// Allow 0600 and 0644 (readable by others but not writable)
	if mode&0o077 > 0o044 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}
