package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// ErrUpload is returned when Cloudinary rejects or fails an upload.
// Callers must not commit any state that depends on the uploaded asset
// when they see this error.
var ErrUpload = errors.New("media upload failed")

// UploadResult is the subset of the Cloudinary response we keep.
type UploadResult struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// Client uploads images through Cloudinary's unsigned upload endpoint.
// An unsigned preset scopes what the upload may do, so no API secret is
// needed on this side.
type Client struct {
	cloudName    string
	uploadPreset string
	httpClient   *http.Client
}

// Config holds Cloudinary account details.
type Config struct {
	CloudName    string
	UploadPreset string
}

// NewClient creates a new Cloudinary upload client.
func NewClient(cfg Config) *Client {
	return &Client{
		cloudName:    cfg.CloudName,
		uploadPreset: cfg.UploadPreset,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload sends the file to Cloudinary and returns the hosted URL and
// public ID. Any failure, including a response without a secure_url,
// wraps ErrUpload.
func (c *Client) Upload(ctx context.Context, file io.Reader, filename string) (*UploadResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if err := writer.WriteField("upload_preset", c.uploadPreset); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer resp.Body.Close()

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUpload, err)
	}
	if result.SecureURL == "" {
		return nil, fmt.Errorf("%w: response missing secure_url (HTTP %d)", ErrUpload, resp.StatusCode)
	}
	return &result, nil
}
