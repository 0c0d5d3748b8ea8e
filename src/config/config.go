package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"region-chat/src/chat"
	"region-chat/src/llm"
)

const (
	DefaultAPIKeyPath = "/run/secrets/api_keys/groq"
	APIKeyPathEnvVar  = "GROQ_API_KEY_FILE"
	EnvFileEnvVar     = "REGION_CHAT_ENV"
	DefaultHotkey     = "Ctrl+Alt+Q"
	HotkeyDisabled    = "off"
)

type LoadOptions struct {
	APIKeyPathOverride string
	EnvFileOverride    string
}

type Config struct {
	APIKey            string
	APIKeyPath        string
	BaseURL           string
	Model             string
	Temperature       float64
	MaxTokens         int
	TopP              float64
	RequestTimeout    time.Duration
	FontSize          int
	CaptureHotkey     string
	EnableFileLogging bool
	EnvPath           string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) explicit env file override
	// 2) .env in the application (executable) directory
	// 3) If not found, use REGION_CHAT_ENV env var as a path to a config file
	envPath := strings.TrimSpace(opts.EnvFileOverride)
	if envPath == "" {
		envPath = resolveEnvPath()
	}
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	v := viper.New()
	v.SetDefault("GROQ_BASE_URL", llm.DefaultBaseURL)
	v.SetDefault("MODEL", llm.DefaultModel)
	v.SetDefault("TEMPERATURE", llm.DefaultTemperature)
	v.SetDefault("MAX_TOKENS", llm.DefaultMaxTokens)
	v.SetDefault("TOP_P", llm.DefaultTopP)
	v.SetDefault("REQUEST_TIMEOUT_SEC", 0)
	v.SetDefault("FONT_SIZE", chat.DefaultFontSize)
	v.SetDefault("CAPTURE_HOTKEY", DefaultHotkey)
	v.SetDefault("ENABLE_FILE_LOGGING", false)
	v.AutomaticEnv()

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)

	timeout := time.Duration(0)
	if sec := v.GetInt("REQUEST_TIMEOUT_SEC"); sec > 0 {
		timeout = time.Duration(sec) * time.Second
	}

	cfg := &Config{
		APIKey:            resolveAPIKey(apiKeyPath),
		APIKeyPath:        apiKeyPath,
		BaseURL:           v.GetString("GROQ_BASE_URL"),
		Model:             v.GetString("MODEL"),
		Temperature:       v.GetFloat64("TEMPERATURE"),
		MaxTokens:         v.GetInt("MAX_TOKENS"),
		TopP:              v.GetFloat64("TOP_P"),
		RequestTimeout:    timeout,
		FontSize:          chat.ClampFontSize(v.GetInt("FONT_SIZE")),
		CaptureHotkey:     resolveHotkey(v.GetString("CAPTURE_HOTKEY")),
		EnableFileLogging: v.GetBool("ENABLE_FILE_LOGGING"),
		EnvPath:           envPath,
	}

	return cfg, nil
}

// LLM returns the completion client settings.
func (c *Config) LLM() llm.Config {
	return llm.Config{
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		TopP:        c.TopP,
		Timeout:     c.RequestTimeout,
	}
}

// HotkeyEnabled reports whether a global capture hotkey should be registered.
func (c *Config) HotkeyEnabled() bool { return c.CaptureHotkey != "" }

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func resolveAPIKey(keyPath string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}

	if key := strings.TrimSpace(os.Getenv("GROQ_API_KEY")); key != "" {
		return key
	}
	return strings.TrimSpace(os.Getenv("VITE_GROQ_API_KEY"))
}

func resolveHotkey(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, HotkeyDisabled) {
		return ""
	}
	if value == "" {
		return DefaultHotkey
	}
	return value
}
