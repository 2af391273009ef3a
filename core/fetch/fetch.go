// Package fetch performs small HTTP GET requests with the fiber client.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ErrStatus is wrapped by errors for non-2xx responses.
var ErrStatus = errors.New("unexpected status code")

// Config holds HTTP client settings.
type Config struct {
	// TimeoutSeconds bounds a single request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// UserAgent is sent with every request.
	UserAgent string `mapstructure:"user_agent" default:"decomp-history"`
}

// Client downloads documents over HTTP.
type Client struct {
	timeout   time.Duration
	userAgent string
}

// New creates a Client from cfg.
func New(cfg Config) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	return &Client{
		timeout:   time.Duration(timeout) * time.Second,
		userAgent: cfg.UserAgent,
	}
}

// Get returns the body of url. Same-host redirects are followed. The
// request timeout is shortened to the deadline of ctx, and Get returns as
// soon as ctx is done.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(fiber.MethodGet)
	req.SetRequestURI(url)
	if c.userAgent != "" {
		agent.UserAgent(c.userAgent)
	}
	agent.Timeout(timeout).MaxRedirectsCount(5)

	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return nil, fmt.Errorf("invalid request to %s: %w", url, err)
	}

	type response struct {
		code int
		body []byte
		errs []error
	}
	done := make(chan response, 1)
	go func() {
		// Bytes releases the agent.
		code, body, errs := agent.Bytes()
		done <- response{code: code, body: body, errs: errs}
	}()

	var res response
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}

	if len(res.errs) > 0 {
		return nil, fmt.Errorf("request to %s failed: %w", url, errors.Join(res.errs...))
	}
	if res.code < fiber.StatusOK || res.code >= fiber.StatusMultipleChoices {
		return nil, fmt.Errorf("%w %d from %s", ErrStatus, res.code, url)
	}
	return res.body, nil
}
