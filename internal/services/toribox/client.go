package toribox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/toribox/toriadmin/internal/config"
)

const userAgent = "toriadmin/1.0"

// maxResponseSize caps how much of a response body is read
const maxResponseSize = 10 * 1024 * 1024

var (
	// ErrUnauthorized is wrapped by API errors with status 401 or 403
	ErrUnauthorized = errors.New("toribox rejected the admin credentials")
	// ErrNotAuthenticated is returned before calling an endpoint that needs a token when none is available
	ErrNotAuthenticated = errors.New("admin token required, please log in")
)

// APIError is a non-2xx response from the ToriBox API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("toribox API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("toribox API returned status %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match rejected credentials
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// parseAPIError extracts the server message from an error body. The API
// answers with either a bare JSON string, {"message": ...} or
// {"error": {"message": ...}}.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var text string
	if err := json.Unmarshal(body, &text); err == nil {
		apiErr.Message = text
		return apiErr
	}

	var payload struct {
		Message string `json:"message"`
		Error   *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != nil && payload.Error.Message != "" {
			apiErr.Message = payload.Error.Message
		} else {
			apiErr.Message = payload.Message
		}
	}

	return apiErr
}

// Client talks to the ToriBox REST API
type Client struct {
	baseURL    string
	bunnyCDN   string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new ToriBox API client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("toribox API URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.APIBaseURL); err != nil {
		return nil, fmt.Errorf("invalid toribox API URL: %w", err)
	}

	timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.APIBaseURL, "/"),
		bunnyCDN: strings.TrimRight(cfg.BunnyCDNURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

func requireToken(token string) error {
	if token == "" {
		return ErrNotAuthenticated
	}
	return nil
}

// newRequest builds a request against the API; token is sent as a bearer credential when set
func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

// do executes the request and returns the body of a 2xx response
func (c *Client) do(req *http.Request) ([]byte, error) {
	c.logger.WithFields(logrus.Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	}).Debug("Making ToriBox API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("toribox API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"path":        req.URL.Path,
		}).Debug("ToriBox API returned non-OK status")
		return nil, parseAPIError(resp.StatusCode, body)
	}

	return body, nil
}

// get performs a GET and returns the raw body
func (c *Client) get(ctx context.Context, path, token string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// doJSON sends body as JSON (when non-nil) and decodes the response into result (when non-nil)
func (c *Client) doJSON(ctx context.Context, method, path, token string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := c.newRequest(ctx, method, path, token, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	respBody, err := c.do(req)
	if err != nil {
		return err
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// FilePart is a file sent in a multipart upload
type FilePart struct {
	Name   string
	Reader io.Reader
}

// postMultipart streams a multipart form built by write. Video files can be
// large, so the body is produced through a pipe instead of being buffered.
func (c *Client) postMultipart(ctx context.Context, path, token string, write func(w *multipart.Writer) error) error {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		err := write(form)
		if err == nil {
			err = form.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, path, token, pr)
	if err != nil {
		pr.Close()
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	_, err = c.do(req)
	return err
}

func writeFile(w *multipart.Writer, field string, file FilePart) error {
	part, err := w.CreateFormFile(field, file.Name)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", field, err)
	}
	if _, err := io.Copy(part, file.Reader); err != nil {
		return fmt.Errorf("failed to write %s part: %w", field, err)
	}
	return nil
}
