package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "igresolver/pkg/errors"
	"igresolver/pkg/logger"
	"igresolver/pkg/retry"
)

// Client performs upstream HTTP calls for the resolution strategies.
// Individual calls are wrapped by the retry executor; the session token
// is supplied per call, never stored on the client.
type Client struct {
	httpClient *http.Client
	executor   *retry.Executor
	headers    map[string]string
	logger     logger.Logger
}

// NewClient creates a new upstream client
func NewClient(timeout time.Duration, executor *retry.Executor, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if executor == nil {
		executor = retry.DefaultExecutor(log)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		executor: executor,
		headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
			"Pragma":          "no-cache",
			"Sec-Fetch-Dest":  "document",
			"Sec-Fetch-Mode":  "navigate",
			"Sec-Fetch-Site":  "none",
		},
		logger: log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHTTPClient replaces the underlying HTTP client, used by tests
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// FetchBody performs a GET and returns the raw response body. A non-empty
// sessionToken is attached as a session cookie.
func (c *Client) FetchBody(ctx context.Context, url, sessionToken string) ([]byte, error) {
	resp, err := c.do(ctx, url, sessionToken, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeNetwork, fmt.Sprintf("failed to read response body: %v", err))
	}
	return body, nil
}

// FetchJSON performs a GET and decodes the JSON response into target
func (c *Client) FetchJSON(ctx context.Context, url, sessionToken string, target interface{}) error {
	resp, err := c.do(ctx, url, sessionToken, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.New(errs.ErrorTypeNetwork, fmt.Sprintf("failed to read response body: %v", err))
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"body_preview": bodyPreview,
			"error":        err.Error(),
		})
		return errs.New(errs.ErrorTypeParsing, fmt.Sprintf("failed to parse JSON: %v", err))
	}

	return nil
}

// Stream performs a GET and returns the open response for byte proxying.
// The caller must close the body.
func (c *Client) Stream(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, url, "", "")
}

func (c *Client) do(ctx context.Context, url, sessionToken, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, fmt.Sprintf("failed to create request: %v", err))
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if sessionToken != "" {
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: sessionToken})
	}

	start := time.Now()
	resp, err := c.executor.Do(ctx, func() (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	duration := time.Since(start)

	if err != nil {
		c.logger.WarnWithFields("upstream request failed", map[string]interface{}{
			"url":      url,
			"duration": duration,
			"error":    err.Error(),
		})
		return nil, err
	}

	c.logger.DebugWithFields("upstream request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}
