package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lovettlabs/contactsync/internal/config"
	"github.com/lovettlabs/contactsync/internal/logger"
	"github.com/lovettlabs/contactsync/internal/protocol"
	"github.com/lovettlabs/contactsync/models"
)

type httpServerProxy struct {
	client *resty.Client

	logger *logger.Logger
}

// NewHTTPServerProxy constructs the HTTP implementation of [ServerTransport].
// It normalizes and validates the base URL from cfg.ServerURL and configures
// the underlying client with the resolved base URL and request timeout.
//
// Returns an error if cfg.ServerURL is empty or cannot be parsed as a valid
// URL.
func NewHTTPServerProxy(cfg config.Adapter, logger *logger.Logger) (ServerTransport, error) {
	baseURL, err := normalizeBaseURL(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter server url: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	return &httpServerProxy{client: client, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

func (h *httpServerProxy) Exchange(ctx context.Context, m models.Message) (*models.Message, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain").
		SetBody(protocol.Encode(m)).
		Post("/api/message")
	if err != nil {
		return nil, fmt.Errorf("exchange request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	if resp.StatusCode() == http.StatusNoContent || len(resp.Body()) == 0 {
		return nil, nil
	}

	reply, err := protocol.Decode(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("decode exchange response: %w", err)
	}
	return &reply, nil
}

func (h *httpServerProxy) ServerVersion(ctx context.Context) (string, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		Get("/api/version")
	if err != nil {
		return "", fmt.Errorf("server version request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	return strings.TrimSpace(string(resp.Body())), nil
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}
	return fmt.Errorf("%w: http %d: %s", ErrServerRejected, resp.StatusCode(), body)
}
