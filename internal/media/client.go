package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/spec-kit/commerce-service/internal/config"
)

// UploadResult describes a stored file on the media host.
type UploadResult struct {
	URL string `json:"url"`
}

// Client proxies uploads to the external media host.
type Client struct {
	uploadURL  string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds the upload client from configuration.
func NewClient(cfg config.MediaConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		uploadURL: cfg.UploadURL,
		apiKey:    cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Configured reports whether an upload endpoint is set.
func (c *Client) Configured() bool {
	return c != nil && c.uploadURL != ""
}

// Upload streams the file to the media host and returns its URL.
func (c *Client) Upload(ctx context.Context, fileName string, file io.Reader) (*UploadResult, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("media upload endpoint not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("media host returned status %d", resp.StatusCode)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if result.URL == "" {
		return nil, fmt.Errorf("media host returned no url")
	}
	return &result, nil
}
