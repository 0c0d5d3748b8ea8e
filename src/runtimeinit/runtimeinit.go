package runtimeinit

import (
	"fmt"

	"go.uber.org/zap"

	"region-chat/src/config"
	"region-chat/src/llm"
	"region-chat/src/logutil"
)

type Options struct {
	LoadOptions config.LoadOptions
	Verbose     bool
	// LogDir is where the rotating log file goes when file logging is on.
	LogDir string
}

type Runtime struct {
	Config *config.Config
	Logger *zap.Logger
	Client *llm.Client
}

// Bootstrap loads configuration, builds the logger and the completion client.
// A missing API key is logged, not returned: the chat reports it on first use.
func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logutil.Setup(logutil.Options{
		EnableFileLogging: cfg.EnableFileLogging,
		Verbose:           opts.Verbose,
		Dir:               opts.LogDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	if cfg.APIKey == "" {
		log.Warn("GROQ_API_KEY not found; chat requests will fail until it is set",
			zap.String("key_path", cfg.APIKeyPath))
	} else {
		log.Info("API key loaded", zap.String("key", logutil.RedactKey(cfg.APIKey)), zap.String("key_path", cfg.APIKeyPath))
	}
	log.Info("configuration loaded",
		zap.String("env_file", cfg.EnvPath),
		zap.String("model", cfg.Model),
		zap.String("base_url", cfg.BaseURL),
		zap.Duration("request_timeout", cfg.RequestTimeout),
		zap.Int("font_size", cfg.FontSize),
		zap.String("hotkey", cfg.CaptureHotkey))

	client := llm.NewClient(cfg.LLM(), llm.WithLogger(log.Named("llm")))

	return &Runtime{Config: cfg, Logger: log, Client: client}, nil
}
