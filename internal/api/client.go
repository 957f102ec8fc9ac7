// Package api is the outbound request gateway. Every call to the commerce
// service goes through Gateway.Do, which owns base-address composition,
// bearer credential attachment, envelope unwrapping, and credential rotation.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/credential"
)

const (
	headerAuthorization = "Authorization"
	headerCorrelationID = "X-Correlation-ID"
)

// Envelope is the wrapper every response uses. Transport success and
// business success are decoupled: a 200 with isSuccess=false is a
// BusinessError, so callers get one failure channel instead of two.
type Envelope struct {
	IsSuccess bool            `json:"isSuccess"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

// Doer is the request surface the feature packages consume.
type Doer interface {
	Do(ctx context.Context, method, path string, body any, query url.Values, attachCredential bool) (Envelope, error)
}

type Gateway struct {
	baseURL *url.URL
	http    *http.Client
	creds   *credential.Store
	log     *zap.Logger
}

func NewGateway(baseURL string, timeout time.Duration, creds *credential.Store, log *zap.Logger) (*Gateway, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", baseURL, err)
	}
	return &Gateway{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
		creds:   creds,
		log:     log,
	}, nil
}

// Do issues one request and unwraps the envelope.
//
// attachCredential true attaches the stored bearer credential, omitting the
// header entirely when none is stored; false never attaches one. Statuses
// 200-499 are deliverable envelopes; 500+ and transport failures become
// NetworkError. Any response may rotate the credential via its
// Authorization header; the rotated value is persisted before the envelope
// is inspected, so even a business failure keeps the session fresh.
func (g *Gateway) Do(ctx context.Context, method, path string, body any, query url.Values, attachCredential bool) (Envelope, error) {
	rel := &url.URL{Path: path}
	if query != nil {
		rel.RawQuery = query.Encode()
	}
	u := g.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return Envelope{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerCorrelationID, uuid.NewString())

	if attachCredential {
		if token := g.creds.Get(); token != "" {
			req.Header.Set(headerAuthorization, token)
		}
	}

	resp, err := g.http.Do(req)
	if err != nil {
		g.log.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return Envelope{}, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Envelope{}, &NetworkError{Err: fmt.Errorf("server returned status %d", resp.StatusCode)}
	}

	// Credential rotation on use, not only on login.
	if rotated := resp.Header.Get(headerAuthorization); rotated != "" {
		if err := g.creds.Set(rotated); err != nil {
			g.log.Warn("persist rotated credential", zap.Error(err))
		}
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return Envelope{}, &HTTPError{Status: resp.StatusCode}
	}

	if !env.IsSuccess {
		return env, &BusinessError{Message: env.Message}
	}

	g.log.Debug("request ok",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode))
	return env, nil
}
