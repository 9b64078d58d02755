package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vbonduro/grocerysync/internal/vision"
)

const requestTimeout = 2 * time.Minute

var errEmptyImage = errors.New("image is empty")

type OllamaAnalyzer struct {
	endpoint string
	model    string
	client   *http.Client
}

func NewOllamaAnalyzer(host, model string) *OllamaAnalyzer {
	return &OllamaAnalyzer{
		endpoint: strings.TrimRight(host, "/") + "/api/generate",
		model:    model,
		client:   &http.Client{Timeout: requestTimeout},
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Images  []string        `json:"images"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func (a *OllamaAnalyzer) Analyze(ctx context.Context, r io.Reader, mimeType string) (*vision.AnalysisResult, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(imageData) == 0 {
		return nil, errEmptyImage
	}

	payload, err := json.Marshal(generateRequest{
		Model:  a.model,
		Prompt: vision.AnalysisPrompt,
		Images: []string{base64.StdEncoding.EncodeToString(imageData)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama at %s: %w", redactedHost(a.endpoint), err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close ollama response body", "error", err)
		}
	}()

	var body generateResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && body.Error != "" {
			return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, body.Error)
		}
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	slog.Debug("ollama analysis finished", "model", a.model, "mime_type", mimeType, "response_bytes", len(body.Response))
	return &vision.AnalysisResult{
		Items:       vision.ParseResponse(body.Response),
		RawResponse: body.Response,
	}, nil
}

// redactedHost drops credentials embedded in the configured host URL.
func redactedHost(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "ollama"
	}
	return u.Redacted()
}
