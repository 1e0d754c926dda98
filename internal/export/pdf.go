package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/starwalkn/gotenberg-go-client/v8"
	"github.com/starwalkn/gotenberg-go-client/v8/document"

	"DF-FORMS/internal/models"
)

// ErrPDFUnavailable is returned when PDF output is requested without a
// configured backend.
var ErrPDFUnavailable = errors.New("pdf backend not configured")

// PDFBackend converts a self-contained HTML page to PDF.
type PDFBackend interface {
	ConvertHTML(ctx context.Context, html []byte, opts models.ExportOptions) ([]byte, error)
}

// GotenbergBackend renders PDFs through Gotenberg's Chromium HTML route.
type GotenbergBackend struct {
	client     *gotenberg.Client
	timeout    time.Duration
	maxRetries int
}

func NewGotenbergBackend(gotenbergURL string, timeout time.Duration) (*GotenbergBackend, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{
		Timeout: timeout,
	}

	client, err := gotenberg.NewClient(gotenbergURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gotenberg client: %w", err)
	}

	return &GotenbergBackend{
		client:     client,
		timeout:    timeout,
		maxRetries: 3,
	}, nil
}

func (g *GotenbergBackend) ConvertHTML(ctx context.Context, html []byte, opts models.ExportOptions) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		out, err := g.convert(ctx, html, opts)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}

		logrus.WithFields(logrus.Fields{"attempt": attempt, "error": err}).Warn("pdf conversion failed")
		if attempt < g.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}

	return nil, fmt.Errorf("failed to convert document after %d attempts: %w", g.maxRetries, lastErr)
}

func (g *GotenbergBackend) convert(ctx context.Context, html []byte, opts models.ExportOptions) ([]byte, error) {
	convertCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	index, err := document.FromString("index.html", string(html))
	if err != nil {
		return nil, fmt.Errorf("failed to create document from html: %w", err)
	}

	req := gotenberg.NewHTMLRequest(index)
	switch opts.PageSize {
	case models.PageA4:
		req.PaperSize(gotenberg.A4)
	case models.PageLegal:
		req.PaperSize(gotenberg.Legal)
	default:
		req.PaperSize(gotenberg.Letter)
	}
	if opts.Landscape() {
		req.Landscape()
	}

	resp, err := g.client.Send(convertCtx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("gotenberg returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}
	return out, nil
}
