package edamam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/surpriseme/recipes/internal/domain/filter"
	"github.com/surpriseme/recipes/internal/ports/outbound"
	apperrors "github.com/surpriseme/recipes/pkg/errors"
)

const serviceName = "edamam"

// Config configures a Client
type Config struct {
	BaseURL     string
	Credentials Credentials
	// Timeout of zero leaves requests bounded only by the context and the
	// transport.
	Timeout time.Duration
}

// Client implements outbound.RecipeSearcher over HTTP
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	tracer     trace.Tracer
	logger     *zap.Logger
}

var _ outbound.RecipeSearcher = (*Client)(nil)

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the instrumented default client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a search client. Outbound requests are traced through
// otelhttp.
func NewClient(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: baseURL,
		creds:   cfg.Credentials,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tracer: otel.Tracer("github.com/surpriseme/recipes/internal/infrastructure/edamam"),
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.Credentials.AppID == "" || cfg.Credentials.AppKey == "" {
		logger.Warn("Edamam credentials are empty, searches will be rejected upstream")
	}

	return c
}

// Request builds the request a search for sel would send
func (c *Client) Request(sel filter.Selection) Request {
	return BuildRequest(c.baseURL, c.creds, sel)
}

// HasCredentials reports whether both credentials are configured
func (c *Client) HasCredentials() bool {
	return c.creds.AppID != "" && c.creds.AppKey != ""
}

// Search issues a single GET for sel. Transport failures and error statuses
// come back as EXTERNAL_SERVICE_ERROR; unreadable bodies as
// RESPONSE_DECODE_FAILED.
func (c *Client) Search(ctx context.Context, sel filter.Selection) (*outbound.SearchResult, error) {
	searchReq := c.Request(sel)

	ctx, span := c.tracer.Start(ctx, "search.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("search.meal_type", sel.Meal().String()),
			attribute.Int("search.allergies", len(sel.Allergies())),
			attribute.Int("search.diets", len(sel.Diets())),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchReq.URL(), nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return nil, apperrors.NewInternalError("failed to build search request").WithCause(err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.doRequest(req, searchReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch")
		return nil, err
	}

	resp, err := DecodeResponse(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode")
		c.logger.Warn("Search response could not be decoded",
			zap.Int("bytes", len(body)),
			zap.Error(err),
		)
		return nil, apperrors.NewResponseDecodeError(serviceName, err)
	}

	records := resp.Records()
	span.SetAttributes(attribute.Int("search.hits", len(records)))

	return &outbound.SearchResult{Records: records, Raw: body}, nil
}

func (c *Client) doRequest(req *http.Request, searchReq Request) ([]byte, error) {
	c.logger.Debug("Search request",
		zap.String("method", req.Method),
		zap.String("url", searchReq.Redacted()),
	)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Search request failed", zap.Error(err))
		return nil, apperrors.NewExternalServiceError(serviceName, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewExternalServiceError(serviceName, fmt.Errorf("failed to read response: %w", err))
	}

	c.logger.Debug("Search response",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Search API error response",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(body, 512)),
		)
		return nil, apperrors.NewExternalServiceError(serviceName, fmt.Errorf("API error: status %d", resp.StatusCode)).
			WithMetadata("status", resp.StatusCode)
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
