// Package backend talks to the cabinet REST API: Gateway performs the raw JSON
// calls and Backend maps them onto typed domain operations.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sdm/cabinet-client/internal/api/metrics"
	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/ports"
)

const maxBodyBytes = 4 << 20

// Option configures the Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.http = c }
}

// WithTimeout sets the HTTP client timeout. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.http.Timeout = d
		}
	}
}

// Gateway issues JSON calls against the backend. Every response body is
// decoded as a JSON object regardless of HTTP status; there is no retry.
type Gateway struct {
	baseURL string
	tokens  ports.TokenStore
	http    *http.Client
	log     zerolog.Logger
}

var _ ports.Gateway = (*Gateway)(nil)

// NewGateway creates a Gateway rooted at baseURL (e.g. "http://127.0.0.1:5000/api/").
func NewGateway(baseURL string, tokens ports.TokenStore, log zerolog.Logger, opts ...Option) *Gateway {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	g := &Gateway{
		baseURL: baseURL,
		tokens:  tokens,
		http:    &http.Client{},
		log:     log,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Call sends an authenticated request carrying the stored session token as a
// bearer credential.
func (g *Gateway) Call(ctx context.Context, endpoint, method string, body any) (ports.Envelope, error) {
	token, err := g.tokens.Get(ctx)
	if err != nil {
		return nil, &domain.TransportError{Endpoint: endpoint, Err: fmt.Errorf("read session token: %w", err)}
	}
	return g.do(ctx, endpoint, method, body, token)
}

// PublicCall sends a request without credentials.
func (g *Gateway) PublicCall(ctx context.Context, endpoint, method string, body any) (ports.Envelope, error) {
	return g.do(ctx, endpoint, method, body, "")
}

func (g *Gateway) do(ctx context.Context, endpoint, method string, body any, token string) (ports.Envelope, error) {
	label := endpointLabel(endpoint)
	requestID := uuid.NewString()
	start := time.Now()
	defer func() {
		metrics.GatewayRequestDuration.WithLabelValues(label, method).Observe(time.Since(start).Seconds())
	}()

	req, err := g.newRequest(ctx, endpoint, method, body, token, requestID)
	if err != nil {
		metrics.GatewayRequestsTotal.WithLabelValues(label, method, "transport_error").Inc()
		return nil, &domain.TransportError{Endpoint: endpoint, Err: err}
	}

	resp, err := g.http.Do(req)
	if err != nil {
		metrics.GatewayRequestsTotal.WithLabelValues(label, method, "transport_error").Inc()
		return nil, &domain.TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	env, err := decodeEnvelope(resp.Body)
	if err != nil {
		metrics.GatewayRequestsTotal.WithLabelValues(label, method, "transport_error").Inc()
		g.log.Warn().Err(err).
			Str("endpoint", endpoint).
			Str("method", method).
			Int("status", resp.StatusCode).
			Str("request_id", requestID).
			Msg("undecodable backend response")
		return nil, &domain.TransportError{Endpoint: endpoint, Err: err}
	}

	outcome := "ok"
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "http_error"
	}
	metrics.GatewayRequestsTotal.WithLabelValues(label, method, outcome).Inc()

	g.log.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("elapsed", time.Since(start)).
		Msg("backend call")

	return env, nil
}

func (g *Gateway) newRequest(ctx context.Context, endpoint, method string, body any, token, requestID string) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+strings.TrimPrefix(endpoint, "/"), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func decodeEnvelope(r io.Reader) (ports.Envelope, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("empty response body")
	}
	var env ports.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if env == nil {
		return nil, errors.New("response body is not a JSON object")
	}
	return env, nil
}

// endpointLabel drops path parameters so metric cardinality stays bounded.
func endpointLabel(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "/")
	if i := strings.IndexByte(endpoint, '/'); i >= 0 {
		return endpoint[:i] + "/:param"
	}
	return endpoint
}
