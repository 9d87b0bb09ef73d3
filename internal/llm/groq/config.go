package groq

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config for the Groq vision client (OpenAI-compatible API surface).
type Config struct {
	APIKey      string        // if empty, falls back to env GROQ_API_KEY
	BaseURL     string        // default https://api.groq.com/openai/v1
	Model       string        // vision-capable model
	Temperature float32       // pinned to 0 for deterministic reads
	Timeout     time.Duration // per-request deadline; single attempt, no retries
}

// Client wraps one chat/completions vision call per upload. The underlying
// http.Client is shared process-wide and injected at construction; it is
// never recreated per request.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient builds a client. Pass the process-wide http.Client; a nil
// client gets a private one configured with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "meta-llama/llama-4-scout-17b-16e-instruct"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: logger,
	}
}
