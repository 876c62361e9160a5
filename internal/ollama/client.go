package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/zombar/slopscore/internal/postag"
)

const (
	DefaultModel     = "gpt-oss:20b"
	DefaultTimeout   = 360 * time.Second
	DefaultChunkSize = 4000
)

// ErrNoTokens is returned when the model response holds no parseable tokens
var ErrNoTokens = errors.New("no tokens in model response")

// Client wraps the Ollama API client and tags text with a language model
type Client struct {
	client    *api.Client
	model     string
	timeout   time.Duration
	chunkSize int
	logger    *slog.Logger
}

// Option configures a Client
type Option func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	timeout    time.Duration
	chunkSize  int
	logger     *slog.Logger
}

// WithHTTPClient sets the HTTP client used to reach Ollama
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each generation request
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithChunkSize sets the maximum number of bytes tagged per request
func WithChunkSize(n int) Option {
	return func(c *clientConfig) {
		c.chunkSize = n
	}
}

// WithLogger sets the client logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// New creates a new Ollama client
func New(ollamaURL, model string, opts ...Option) (*Client, error) {
	if ollamaURL == "" {
		ollamaURL = "http://localhost:11434"
	}
	if model == "" {
		model = DefaultModel
	}

	baseURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	cfg := clientConfig{
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		chunkSize:  DefaultChunkSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Client{
		client:    api.NewClient(baseURL, cfg.httpClient),
		model:     model,
		timeout:   cfg.timeout,
		chunkSize: cfg.chunkSize,
		logger:    cfg.logger,
	}, nil
}

// GenerateResponse generates a response from the LLM
func (c *Client) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug("sending generation request", "model", c.model, "timeout", c.timeout)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &api.GenerateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  new(bool), // false
		Format:  json.RawMessage(`"json"`),
		Options: map[string]any{"temperature": 0},
	}

	var response strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		response.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		c.logger.Warn("generation failed", "model", c.model, "error", err)
		return "", fmt.Errorf("generation failed: %w", err)
	}

	result := strings.TrimSpace(response.String())
	c.logger.Debug("generation response received", "model", c.model, "chars", len(result))
	return result, nil
}

// Tag implements postag.Tagger. Long texts are tagged in chunks that break
// at whitespace; the token lists are concatenated in order.
func (c *Client) Tag(ctx context.Context, text string) ([]postag.Token, error) {
	var tokens []postag.Token
	for _, chunk := range splitChunks(text, c.chunkSize) {
		response, err := c.GenerateResponse(ctx, tagPrompt(chunk))
		if err != nil {
			return nil, err
		}
		chunkTokens, err := parseTokens(response)
		if err != nil {
			return nil, fmt.Errorf("failed to parse tagger response: %w", err)
		}
		tokens = append(tokens, chunkTokens...)
	}
	return tokens, nil
}

func tagPrompt(text string) string {
	return fmt.Sprintf(`Tag every word of the following text with its Universal Dependencies part-of-speech tag (NOUN, VERB, ADJ, ADV, PRON, DET, ADP, AUX, CCONJ, SCONJ, PART, NUM, PROPN, INTJ, PUNCT, SYM, X).

Requirements:
- Keep the words in their original order
- Copy each word exactly as it appears in the text, including capitalization and apostrophes
- Return ONLY a JSON object of the form {"tokens": [{"value": "word", "pos": "TAG"}]}
- Do NOT add commentary

Text:
%s

JSON:`, text)
}

// parseTokens extracts tokens from a model response. Both the requested
// {"tokens": [...]} object and a bare array are accepted.
func parseTokens(response string) ([]postag.Token, error) {
	var tokens []postag.Token

	if start, end := strings.Index(response, "{"), strings.LastIndex(response, "}"); start >= 0 && end > start {
		var wrapped struct {
			Tokens []postag.Token `json:"tokens"`
		}
		if err := json.Unmarshal([]byte(response[start:end+1]), &wrapped); err == nil && wrapped.Tokens != nil {
			tokens = wrapped.Tokens
		}
	}

	if tokens == nil {
		start, end := strings.Index(response, "["), strings.LastIndex(response, "]")
		if start < 0 || end <= start {
			return nil, ErrNoTokens
		}
		if err := json.Unmarshal([]byte(response[start:end+1]), &tokens); err != nil {
			return nil, err
		}
	}

	out := tokens[:0]
	for _, tok := range tokens {
		tok.Value = strings.TrimSpace(tok.Value)
		tok.POS = strings.TrimSpace(tok.POS)
		if tok.Value == "" {
			continue
		}
		out = append(out, tok)
	}
	if len(out) == 0 {
		return nil, ErrNoTokens
	}
	return out, nil
}

// splitChunks splits text into pieces of at most size bytes, breaking after
// whitespace where possible. Concatenating the pieces yields text.
func splitChunks(text string, size int) []string {
	if size <= 0 || len(text) <= size {
		return []string{text}
	}

	var chunks []string
	for len(text) > size {
		cut := strings.LastIndexAny(text[:size], " \t\n")
		if cut <= 0 {
			cut = size
			for cut < len(text) && !utf8Start(text[cut]) {
				cut++
			}
		} else {
			cut++
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
