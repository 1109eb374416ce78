package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/ankek/terraform-provider-archstudio/internal/model"
)

// TokenEnvVar is read when RemoteConfig carries no token.
const TokenEnvVar = "ARCHSTUDIO_API_TOKEN"

// ErrArchitectureNotFound is returned when the backend answers 404.
var ErrArchitectureNotFound = errors.New("architecture not found")

// RemoteConfig holds configuration for fetching an architecture from the
// backend
type RemoteConfig struct {
	BaseURL string
	UID     string
	Token   string
	Timeout time.Duration // zero keeps the retryablehttp default
}

// FetchArchitecture retrieves GET <base>/architectures/<uid>. The body may be
// the architecture itself or wrapped as {"data": {...}}.
func FetchArchitecture(ctx context.Context, config RemoteConfig) (*model.Architecture, error) {
	if config.BaseURL == "" {
		return nil, errors.New("api base url is not configured")
	}
	if config.UID == "" {
		return nil, errors.New("architecture uid is required")
	}

	// Get token - prefer config, fall back to environment
	token := config.Token
	if token == "" {
		token = os.Getenv(TokenEnvVar)
	}

	endpoint := fmt.Sprintf("%s/architectures/%s", strings.TrimRight(config.BaseURL, "/"), url.PathEscape(config.UID))

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 100 * time.Millisecond
	client.Logger = nil // Disable logging
	if config.Timeout > 0 {
		client.HTTPClient.Timeout = config.Timeout
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create architecture request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch architecture %s: %w", config.UID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read architecture response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrArchitectureNotFound, config.UID)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("failed to fetch architecture (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 && envelope.Data[0] == '{' {
		body = envelope.Data
	}
	return ParseModelJSON(body)
}
