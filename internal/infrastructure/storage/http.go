package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/tracing"
)

// HTTP talks to a remote virtual file system exposing
// HEAD/GET/PUT {base}/blobs/{key}
type HTTP struct {
	client *resty.Client
}

// NewHTTP creates a remote backend for baseURL
func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil

	// Retries happen in the retryablehttp round tripper, not in resty
	client := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", "AgentOS-Desktop/1.0")
	client.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		headers := make(map[string]string, 2)
		tracing.InjectTraceContext(r.Context(), headers)
		r.SetHeaders(headers)
		return nil
	})

	return &HTTP{client: client}
}

// IdempotencyHeader names the per-write key sent to the remote store
const IdempotencyHeader = "Idempotency-Key"

func blobPath(key string) string {
	return "/blobs/" + url.PathEscape(strings.TrimPrefix(key, "/"))
}

// Exists reports whether key holds a blob
func (h *HTTP) Exists(ctx context.Context, key string) (bool, error) {
	resp, err := h.client.R().SetContext(ctx).Head(blobPath(key))
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", key, err)
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNoContent:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("exists %s: unexpected status %d", key, resp.StatusCode())
	}
}

// Read returns the blob stored under key
func (h *HTTP) Read(ctx context.Context, key string) ([]byte, error) {
	resp, err := h.client.R().SetContext(ctx).Get(blobPath(key))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return resp.Body(), nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("read %s: unexpected status %d", key, resp.StatusCode())
	}
}

// Write stores data under key. Every attempt of one write carries the
// same Idempotency-Key, so a retried PUT is not applied twice.
func (h *HTTP) Write(ctx context.Context, key string, data []byte, overwrite bool) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetHeader(IdempotencyHeader, uuid.NewString()).
		SetQueryParam("overwrite", strconv.FormatBool(overwrite)).
		SetBody(data).
		Put(blobPath(key))
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusConflict:
		return ErrExists
	default:
		return fmt.Errorf("write %s: unexpected status %d", key, resp.StatusCode())
	}
}
