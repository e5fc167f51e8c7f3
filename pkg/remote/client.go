package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// DefaultTimeout bounds a validation request when the caller's context has
// no deadline.
const DefaultTimeout = 10 * time.Second

// ErrUnexpectedStatus is returned for responses other than 200 and 422.
var ErrUnexpectedStatus = errors.New("remote: unexpected status")

// Response is the JSON body exchanged with the validation endpoint.
type Response struct {
	Valid  bool                `json:"valid"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// Result is a decoded validation response with its paths mapped onto the
// form schema.
type Result struct {
	Valid   bool
	Mapping ErrorMapping
}

// Failures returns the mapped messages as validation failures.
func (r Result) Failures() []validation.Failure {
	return r.Mapping.Failures()
}

// Client calls a remote validation endpoint.
type Client struct {
	http     *http.Client
	endpoint string
	headers  http.Header
	timeout  time.Duration
	logger   *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithEndpoint sets the base URL requests are resolved against.
func WithEndpoint(base string) ClientOption {
	return func(c *Client) {
		c.endpoint = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers.Add(key, value)
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a Client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:    http.DefaultClient,
		headers: make(http.Header),
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// URL returns the validation URL of form.
func (c *Client) URL(form model.FormModel) (string, error) {
	if c.endpoint == "" {
		return "", errors.New("remote: endpoint is not configured")
	}
	return c.endpoint + "/api/forms/" + url.PathEscape(form.ID) + "/validate/", nil
}

// Validate posts values and decodes the verdict. Validation failures are
// part of the Result; the error reports transport and protocol problems.
func (c *Client) Validate(ctx context.Context, form model.FormModel, values map[string]any) (Result, error) {
	target, err := c.URL(form)
	if err != nil {
		return Result{}, err
	}
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if values == nil {
		values = map[string]any{}
	}
	body, err := json.Marshal(values)
	if err != nil {
		return Result{}, fmt.Errorf("remote: encode values: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("remote: build request: %w", err)
	}
	for key, values := range c.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("remote: validate %q: %w", form.ID, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("remote validation",
		zap.String("form", form.ID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnprocessableEntity {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded Response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, fmt.Errorf("remote: decode response: %w", err)
	}
	mapping := MapErrorPayload(form, decoded.Errors)
	return Result{
		Valid:   decoded.Valid && mapping.Empty(),
		Mapping: mapping,
	}, nil
}
