package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ModelTier selects which generative model serves a request.
type ModelTier string

const (
	TierText  ModelTier = "text"
	TierImage ModelTier = "image"
	TierPro   ModelTier = "pro"
)

// Generator is the external generative-content capability. Implementations
// must surface rate limiting distinguishably (see IsRateLimited) so the
// pipeline can decide whether to retry.
type Generator interface {
	// GenerateJSON asks for a structured payload and returns the raw JSON
	// text of the response.
	GenerateJSON(ctx context.Context, tier ModelTier, prompt string) ([]byte, error)
	// GenerateImage returns a renderable image reference (data URL or URL).
	GenerateImage(ctx context.Context, prompt, aspectRatio string) (string, error)
}

// APIError carries the upstream status code so callers can tell transient
// rate limiting apart from permanent failures.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("generative api: status %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited reports whether err is a transient rate-limit signal.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// GeminiConfig configures the HTTP client for the generative API.
type GeminiConfig struct {
	BaseURL    string
	APIKey     string
	TextModel  string
	ImageModel string
	ProModel   string
	Timeout    time.Duration
}

// GeminiClient talks to a Gemini-style generateContent endpoint over HTTP.
type GeminiClient struct {
	baseURL    string
	apiKey     string
	textModel  string
	imageModel string
	proModel   string
	httpClient *http.Client
}

// NewGeminiClient applies defaults for anything the config leaves empty.
func NewGeminiClient(cfg GeminiConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("generative api key is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	}
	if cfg.TextModel == "" {
		cfg.TextModel = "gemini-flash-lite-latest"
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = "gemini-2.5-flash-image"
	}
	if cfg.ProModel == "" {
		cfg.ProModel = "gemini-3-pro-preview"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &GeminiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		proModel:   cfg.ProModel,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *GeminiClient) modelFor(tier ModelTier) string {
	switch tier {
	case TierImage:
		return c.imageModel
	case TierPro:
		return c.proModel
	default:
		return c.textModel
	}
}

type geminiPart struct {
	Text       string `json:"text,omitempty"`
	InlineData *struct {
		MimeType string `json:"mimeType"`
		Data     string `json:"data"`
	} `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
	ImageConfig      *struct {
		AspectRatio string `json:"aspectRatio"`
	} `json:"imageConfig,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
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

// GenerateJSON requests a JSON-mode completion and returns the text payload.
func (c *GeminiClient) GenerateJSON(ctx context.Context, tier ModelTier, prompt string) ([]byte, error) {
	req := geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &geminiGenerationConfig{ResponseMimeType: "application/json"},
	}
	resp, err := c.post(ctx, c.modelFor(tier), req)
	if err != nil {
		return nil, err
	}
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				return []byte(part.Text), nil
			}
		}
	}
	return nil, errors.New("generative api: empty completion")
}

// GenerateImage requests inline image bytes and returns them as a data URL.
func (c *GeminiClient) GenerateImage(ctx context.Context, prompt, aspectRatio string) (string, error) {
	cfg := &geminiGenerationConfig{}
	if aspectRatio != "" {
		cfg.ImageConfig = &struct {
			AspectRatio string `json:"aspectRatio"`
		}{AspectRatio: aspectRatio}
	}
	req := geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: cfg,
	}
	resp, err := c.post(ctx, c.modelFor(TierImage), req)
	if err != nil {
		return "", err
	}
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				return "data:image/png;base64," + part.InlineData.Data, nil
			}
		}
	}
	return "", errors.New("generative api: no image data")
}

func (c *GeminiClient) post(ctx context.Context, model string, payload geminiRequest) (*geminiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generative api: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("generative api: read body: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if len(msg) > 240 {
			msg = msg[:240]
		}
		return nil, &APIError{StatusCode: httpResp.StatusCode, Message: msg}
	}

	var resp geminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("generative api: decode: %w", err)
	}
	if resp.Error != nil {
		return nil, &APIError{StatusCode: resp.Error.Code, Message: resp.Error.Message}
	}
	return &resp, nil
}
