package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/skanfy/qr-backend/config"
)

// ImageHost uploads user-supplied object images to a third-party hosting
// service and returns a public URL.
type ImageHost interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

// ImageHostImpl implements ImageHost
type ImageHostImpl struct {
	config *config.ImageHostConfig
	client *http.Client
}

// imageHostResponse represents the hosting API response envelope
type imageHostResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
	} `json:"data"`
}

// NewImageHost creates a new image hosting client instance
func NewImageHost(cfg *config.ImageHostConfig) ImageHost {
	return &ImageHostImpl{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (s *ImageHostImpl) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart field: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write image payload: %w", err)
	}
	if err := writer.WriteField("key", s.config.APIKey); err != nil {
		return "", fmt.Errorf("failed to write api key field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.UploadURL, body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	var result imageHostResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if !result.Success || result.Data.URL == "" {
		return "", fmt.Errorf("image host rejected upload with status %d", result.Status)
	}
	return result.Data.URL, nil
}

// MockImageHost implements ImageHost for testing
type MockImageHost struct {
	Uploads []MockUpload
	Fail    bool
}

// MockUpload records one upload call
type MockUpload struct {
	Filename   string
	Size       int
	UploadedAt time.Time
}

// NewMockImageHost creates a new mock image host
func NewMockImageHost() *MockImageHost {
	return &MockImageHost{
		Uploads: make([]MockUpload, 0),
	}
}

func (m *MockImageHost) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if m.Fail {
		return "", fmt.Errorf("mock image host failure")
	}
	m.Uploads = append(m.Uploads, MockUpload{Filename: filename, Size: len(data), UploadedAt: time.Now().UTC()})
	return fmt.Sprintf("https://images.example.com/%s", filename), nil
}
