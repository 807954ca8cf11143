package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/skanfy/qr-backend/config"
)

// QrRenderer produces rendered QR images for a code's public link.
// Rendering is a blocking call to an external service and must never be
// performed while a database transaction is open.
type QrRenderer interface {
	// RenderSVG returns the SVG body base64-encoded, ready to persist on the
	// code row.
	RenderSVG(ctx context.Context, content string) (string, error)
	// RenderPNG returns raw PNG bytes for archive downloads.
	RenderPNG(ctx context.Context, content string, size int) ([]byte, error)
}

// QrRendererImpl implements QrRenderer against an HTTP rendering service
type QrRendererImpl struct {
	config *config.QRConfig
	client *http.Client
}

// NewQrRenderer creates a new renderer client instance
func NewQrRenderer(cfg *config.QRConfig) QrRenderer {
	return &QrRendererImpl{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.RendererTimeout,
		},
	}
}

func (s *QrRendererImpl) render(ctx context.Context, content, format string, size int) ([]byte, error) {
	q := url.Values{}
	q.Set("data", content)
	q.Set("format", format)
	q.Set("size", strconv.Itoa(size)+"x"+strconv.Itoa(size))

	endpoint := fmt.Sprintf("%s/create-qr-code/?%s", s.config.RendererURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create render request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call qr renderer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("qr renderer returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read render response: %w", err)
	}
	return body, nil
}

func (s *QrRendererImpl) RenderSVG(ctx context.Context, content string) (string, error) {
	body, err := s.render(ctx, content, "svg", s.config.ImageSize)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(body), nil
}

func (s *QrRendererImpl) RenderPNG(ctx context.Context, content string, size int) ([]byte, error) {
	if size <= 0 {
		size = s.config.ImageSize
	}
	return s.render(ctx, content, "png", size)
}

// MockQrRenderer implements QrRenderer for testing
type MockQrRenderer struct {
	Rendered   []MockRender
	FailSVG    bool
	FailPNG    bool
}

// MockRender records one render call
type MockRender struct {
	Content    string
	Format     string
	RenderedAt time.Time
}

// NewMockQrRenderer creates a new mock renderer
func NewMockQrRenderer() *MockQrRenderer {
	return &MockQrRenderer{
		Rendered: make([]MockRender, 0),
	}
}

func (m *MockQrRenderer) RenderSVG(ctx context.Context, content string) (string, error) {
	if m.FailSVG {
		return "", fmt.Errorf("mock renderer failure")
	}
	m.Rendered = append(m.Rendered, MockRender{Content: content, Format: "svg", RenderedAt: time.Now().UTC()})
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg"><title>%s</title></svg>`, content)
	return base64.StdEncoding.EncodeToString([]byte(svg)), nil
}

func (m *MockQrRenderer) RenderPNG(ctx context.Context, content string, size int) ([]byte, error) {
	if m.FailPNG {
		return nil, fmt.Errorf("mock renderer failure")
	}
	m.Rendered = append(m.Rendered, MockRender{Content: content, Format: "png", RenderedAt: time.Now().UTC()})
	return []byte("\x89PNG\r\n\x1a\n" + content), nil
}
