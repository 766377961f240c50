package bloom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Generator turns a phrase into a flower.
type Generator interface {
	Generate(ctx context.Context, phrase string) (*Flower, error)
}

const systemPrompt = `You design flowers for a generative art installation.
A visitor drew a circle in the air and said a phrase. Invent one flower that
embodies the phrase and answer with a single JSON object, no prose:
{"name": string (max 40 chars), "petals": integer 3-24,
 "petal_color": "#rrggbb", "center_color": "#rrggbb",
 "stem_height": number 0-1, "size": number 20-200, "spin": number -2..2,
 "glow": number 0-1, "message": string (one short poetic line, max 140 chars)}`

// GeminiConfig configures GeminiGenerator.
type GeminiConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Timeout     time.Duration
	Temperature float64
	MaxRetries  int
}

// GeminiGenerator asks a Gemini model for a flower through the REST
// generateContent endpoint.
type GeminiGenerator struct {
	cfg        GeminiConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGeminiGenerator creates a generator. A zero Timeout means 30 seconds.
func NewGeminiGenerator(cfg GeminiConfig, logger *slog.Logger) *GeminiGenerator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash-lite"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiGenerator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature      float64 `json:"temperature"`
		MaxOutputTokens  int     `json:"maxOutputTokens"`
		ResponseMimeType string  `json:"responseMimeType"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate implements Generator. Rate limits and server errors are retried
// up to MaxRetries times with linear backoff.
func (g *GeminiGenerator) Generate(ctx context.Context, phrase string) (*Flower, error) {
	if g.cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil, ErrEmptyPhrase
	}

	var lastErr error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("retrying flower generation", "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		f, err := g.generateOnce(ctx, phrase)
		if err == nil {
			return f, nil
		}
		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsRetryable() {
			break
		}
	}
	return nil, lastErr
}

func (g *GeminiGenerator) generateOnce(ctx context.Context, phrase string) (*Flower, error) {
	start := time.Now()

	var body geminiRequest
	body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	body.Contents = []geminiContent{{Role: "user", Parts: []geminiPart{{Text: phrase}}}}
	body.GenerationConfig.Temperature = g.cfg.Temperature
	body.GenerationConfig.MaxOutputTokens = 512
	body.GenerationConfig.ResponseMimeType = "application/json"

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(g.cfg.BaseURL, "/"), g.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bloom: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bloom: read response: %w", err)
	}

	var out geminiResponse
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &out) == nil && out.Error != nil {
			msg = out.Error.Message
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("bloom: decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}

	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	f, err := ParseFlower(text.String())
	if err != nil {
		return nil, err
	}
	f.Source = SourceModel

	g.logger.Debug("flower generated", "name", f.Name, "took", time.Since(start).Round(time.Millisecond))
	return f, nil
}

// Fallback wraps a generator so that any failure yields a Seeded flower.
// The original error is still returned alongside it for logging.
type Fallback struct {
	Primary Generator
}

// Generate returns the primary flower, or a seeded one and the primary's error.
func (f Fallback) Generate(ctx context.Context, phrase string) (*Flower, error) {
	if f.Primary != nil {
		flower, err := f.Primary.Generate(ctx, phrase)
		if err == nil {
			return flower, nil
		}
		return Seeded(phrase), err
	}
	return Seeded(phrase), nil
}
