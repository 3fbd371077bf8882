package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rcoutinho/pdvgo/pkg/config"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
	"github.com/rcoutinho/pdvgo/pkg/logger"
	"github.com/rcoutinho/pdvgo/pkg/metrics"
)

// CredentialSource supplies the bearer token and terminal label attached to
// every authenticated request. Empty values omit the header.
type CredentialSource interface {
	Token() string
	TerminalID() string
}

// Client talks to the POS backend. All business authority lives there; the
// client only packages requests and surfaces the backend's detail strings.
type Client struct {
	baseURL string
	http    *http.Client
	creds   CredentialSource
	log     *logger.Logger
	metrics *metrics.TerminalMetrics
}

// New builds a backend client for the configured base URL.
func New(cfg config.APIConfig, creds CredentialSource, log *logger.Logger, m *metrics.TerminalMetrics) (*Client, error) {
	if creds == nil {
		return nil, fmt.Errorf("credential source required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		creds:   creds,
		log:     log,
		metrics: m,
	}, nil
}

type requestSpec struct {
	operation string
	method    string
	path      string
	query     url.Values
	jsonBody  any
	formBody  url.Values
	rawBody   io.Reader
	rawType   string
	headers   map[string]string
	// skipAuth leaves the Authorization header off (login only).
	skipAuth bool
}

func (c *Client) do(ctx context.Context, spec requestSpec, out any) error {
	endpoint := c.baseURL + spec.path
	if len(spec.query) > 0 {
		endpoint += "?" + spec.query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case spec.jsonBody != nil:
		encoded, err := json.Marshal(spec.jsonBody)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	case spec.formBody != nil:
		body = strings.NewReader(spec.formBody.Encode())
		contentType = "application/x-www-form-urlencoded"
	case spec.rawBody != nil:
		body = spec.rawBody
		contentType = spec.rawType
	}

	req, err := http.NewRequestWithContext(ctx, spec.method, endpoint, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if !spec.skipAuth {
		if token := c.creds.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if terminal := c.creds.TerminalID(); terminal != "" {
		req.Header.Set("x-terminal-id", terminal)
	}
	for key, value := range spec.headers {
		req.Header.Set(key, value)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ObserveRequest(spec.operation, time.Since(started))
	if err != nil {
		c.log.Warn(c.log.WithField(ctx, "operation", spec.operation), "backend request failed")
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, spec.operation)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeFailure(spec, resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if writer, ok := out.(io.Writer); ok {
		if _, err := io.Copy(writer, resp.Body); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransport, err, spec.operation)
		}
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, spec.operation+": decode response")
	}
	return nil
}

// failurePayload is the backend's single error shape.
type failurePayload struct {
	Detail string `json:"detail"`
}

func (c *Client) decodeFailure(spec requestSpec, resp *http.Response) error {
	var payload failurePayload
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(raw, &payload)

	code := codeForStatus(resp.StatusCode, spec.skipAuth)
	message := fmt.Sprintf("%s: backend returned %d", spec.operation, resp.StatusCode)
	return pkgerrors.New(code, message).WithDetail(payload.Detail)
}

func codeForStatus(status int, loginRequest bool) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		if loginRequest {
			return pkgerrors.CodeUnauthorized
		}
		return pkgerrors.CodeSessionExpired
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	default:
		return pkgerrors.CodeRemoteRejected
	}
}
