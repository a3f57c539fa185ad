package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Client forwards requests to a remote analysis endpoint.
type Client struct {
	url     string
	timeout time.Duration
}

// NewClient targets url, for example https://analysis.internal/analyze-document.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{url: url, timeout: timeout}
}

// Analyze posts req and decodes the endpoint's Response. Non-2xx replies
// that still carry a Response body are returned as that Response.
func (c *Client) Analyze(ctx context.Context, req Request) (Response, error) {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return Response{}, context.DeadlineExceeded
	}

	agent := fiber.Post(c.url).JSON(req).Timeout(timeout)
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return Response{}, fmt.Errorf("analysis request: %w", errs[0])
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return Response{}, fmt.Errorf("analysis response (status %d): %w", code, err)
	}
	if code >= 300 && resp.Success {
		return Response{}, fmt.Errorf("analysis response: status %d with success body", code)
	}
	if !resp.Success && resp.Error == "" && resp.Message == "" {
		resp.Message = fmt.Sprintf("analysis endpoint returned status %d", code)
	}
	return resp, nil
}
