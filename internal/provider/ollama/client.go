package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/nao1215/captioner/internal/capability"
	"github.com/nao1215/captioner/internal/config"
	"github.com/nao1215/captioner/internal/model"
	"github.com/ollama/ollama/api"
)

// DefaultTimeout bounds one inference request when the config has none.
const DefaultTimeout = 2 * time.Minute

var (
	// ErrNoModel is returned when the provider has a host but no model name.
	ErrNoModel = errors.New("ollama model name is empty")

	// ErrEmptyResponse is returned when the model replies with no content.
	ErrEmptyResponse = errors.New("empty response from ollama")
)

// Client talks to a local Ollama server.
type Client struct {
	api     *api.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*clientSettings)

type clientSettings struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *clientSettings) {
		s.httpClient = c
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *clientSettings) {
		s.logger = logger
	}
}

// New creates a Client for cfg. Only the scheme and host of cfg.Host are used.
func New(cfg config.OllamaConfig, opts ...Option) (*Client, error) {
	if cfg.Host == "" {
		return nil, capability.ErrNotConfigured
	}
	if cfg.Model == "" {
		return nil, ErrNoModel
	}

	parsed, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", cfg.Host, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid ollama host %q: scheme and host are required", cfg.Host)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}

	s := clientSettings{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		api:     api.NewClient(base, s.httpClient),
		model:   cfg.Model,
		timeout: timeout,
		logger:  s.logger,
	}, nil
}

// Heartbeat checks that the server is reachable.
func (c *Client) Heartbeat(ctx context.Context) error {
	if err := c.api.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama is not reachable: %w", err)
	}
	return nil
}

// Classify asks the model for content labels of the tensor.
func (c *Client) Classify(ctx context.Context, tensor model.Tensor) ([]capability.Prediction, error) {
	img, err := EncodeTensor(tensor)
	if err != nil {
		return nil, err
	}
	raw, err := c.chat(ctx, classifyPrompt, img)
	if err != nil {
		return nil, err
	}
	return parseLabels(raw)
}

// Detect asks the model for objects with normalized boxes and converts the
// boxes into the source pixel space of the tensor.
func (c *Client) Detect(ctx context.Context, tensor model.Tensor) ([]capability.Detection, error) {
	img, err := EncodeTensor(tensor)
	if err != nil {
		return nil, err
	}
	raw, err := c.chat(ctx, detectPrompt, img)
	if err != nil {
		return nil, err
	}
	return parseObjects(raw, tensor.SourceWidth, tensor.SourceHeight)
}

func (c *Client) chat(ctx context.Context, prompt string, img []byte) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	stream := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(img)},
			},
		},
		Stream: &stream,
		Format: json.RawMessage(`"json"`),
		Options: map[string]any{
			"temperature": 0,
			"seed":        0,
		},
	}

	var content string
	err := c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}
	if content == "" {
		return "", ErrEmptyResponse
	}
	c.logger.Debug("ollama reply received", "model", c.model, "bytes", len(content))
	return content, nil
}

// LoadClassifier returns a loader that connects to Ollama and checks the
// server with a heartbeat.
func LoadClassifier(cfg config.OllamaConfig, opts ...Option) capability.LoadFunc[capability.Classifier] {
	return func(ctx context.Context) (capability.Classifier, error) {
		c, err := connect(ctx, cfg, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// LoadDetector is LoadClassifier for detection. It reports ErrNotConfigured
// unless cfg.Detect is set.
func LoadDetector(cfg config.OllamaConfig, opts ...Option) capability.LoadFunc[capability.Detector] {
	return func(ctx context.Context) (capability.Detector, error) {
		if !cfg.Detect {
			return nil, capability.ErrNotConfigured
		}
		c, err := connect(ctx, cfg, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

func connect(ctx context.Context, cfg config.OllamaConfig, opts ...Option) (*Client, error) {
	c, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Heartbeat(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
