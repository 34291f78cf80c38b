package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/0xcro3dile/docqa-go/internal/domain/errs"
)

// RemotePDFParser implements ports.PageParser by calling an external extraction service.
type RemotePDFParser struct {
	serviceURL string
	client     *http.Client
}

// NewRemotePDFParser creates a parser for the service at serviceURL.
func NewRemotePDFParser(serviceURL string) *RemotePDFParser {
	if serviceURL == "" {
		serviceURL = "http://localhost:8081"
	}
	return &RemotePDFParser{
		serviceURL: serviceURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// parseResponse is the service response format. Services that only
// report Text are treated as a single page.
type parseResponse struct {
	Pages []string `json:"pages"`
	Text  string   `json:"text,omitempty"`
	Error string   `json:"error,omitempty"`
}

// ParsePages posts pdf bytes to /parse and returns the page texts.
func (p *RemotePDFParser) ParsePages(ctx context.Context, data []byte) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serviceURL+"/parse", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("calling pdf service: %v: %w", err, errs.ErrExtraction)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var result parseResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding pdf service response (status %d): %v: %w", resp.StatusCode, err, errs.ErrExtraction)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("pdf service: %s: %w", result.Error, errs.ErrExtraction)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pdf service returned status %d: %w", resp.StatusCode, errs.ErrExtraction)
	}

	if len(result.Pages) == 0 && result.Text != "" {
		return []string{result.Text}, nil
	}
	return result.Pages, nil
}

// IsServiceHealthy checks if the extraction service is running.
func (p *RemotePDFParser) IsServiceHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serviceURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
