// Package apiclient talks to the food-delivery REST API on behalf of one
// storefront session. Requests carry the session credential while it is
// valid; failures come back to callers as Result values.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-food-storefront/internal/auth"
	"github.com/ariefcatur/go-food-storefront/internal/logging"
)

const maxErrorBody = 64 << 10

type Client struct {
	baseURL   string
	hc        *http.Client
	tokens    *auth.Manager
	nav       Navigator
	loginPath string
	log       logrus.FieldLogger
}

type Option func(*Client)

// WithHTTPClient sets the underlying client. Its transport is wrapped, not replaced.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

func WithLoginPath(p string) Option { return func(c *Client) { c.loginPath = p } }

func WithLogger(log logrus.FieldLogger) Option { return func(c *Client) { c.log = log } }

// WithDefaultNavigator is used when the call context carries no navigator.
func WithDefaultNavigator(nav Navigator) Option { return func(c *Client) { c.nav = nav } }

func New(baseURL string, tokens *auth.Manager, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		hc:        &http.Client{Timeout: 10 * time.Second},
		tokens:    tokens,
		nav:       nopNavigator{},
		loginPath: "/login",
		log:       logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	next := c.hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	c.hc = &http.Client{
		Timeout:       c.hc.Timeout,
		CheckRedirect: c.hc.CheckRedirect,
		Jar:           c.hc.Jar,
		Transport:     &interceptor{next: next, c: c},
	}
	return c
}

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Status  int
	Message string
	Path    string
}

func (e *StatusError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Path, e.Status, e.Message)
}

// StatusCode returns the HTTP status behind err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// do sends a JSON request and decodes the (optionally data-wrapped) response into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw), Path: path}
	}
	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(unwrapData(raw), out); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

// unwrapData strips a {"data": ...} envelope when the API uses one.
func unwrapData(raw []byte) []byte {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw
	}
	if d, ok := env["data"]; ok && len(d) > 0 && string(d) != "null" {
		return d
	}
	return raw
}

func errorMessage(status int, raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if t := http.StatusText(status); t != "" {
		return t
	}
	return fmt.Sprintf("request failed with status %d", status)
}
