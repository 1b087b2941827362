// Package register sends completed signup forms to the registration endpoint.
package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/mark3labs/signup/internal/form"
	"github.com/mark3labs/signup/internal/logger"
)

// DefaultEndpoint is used when no endpoint is configured.
const DefaultEndpoint = "http://127.0.0.1:8000/api/register"

// maxErrorBody caps how much of a failed response is read.
const maxErrorBody = 1 << 20

// UnexpectedResponseError is a non-2xx response without per-field errors.
type UnexpectedResponseError struct {
	StatusCode int
	Body       string // Truncated response body
}

func (e *UnexpectedResponseError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// errorResponse is the failure body shape of the registration endpoint.
type errorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// Client posts multipart registrations.
type Client struct {
	client    *http.Client
	endpoint  string
	userAgent string
}

// NewClient creates a client for endpoint. A zero timeout disables the
// client-side deadline; callers still bound each call with ctx.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          2,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		endpoint:  endpoint,
		userAgent: "signup/1.0",
	}
}

// Endpoint returns the URL registrations are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Submit posts every field of data as one multipart request.
//
// It returns nil for any 2xx response, *form.ServerValidationError when the
// response carries per-field errors, and a wrapped transport error or
// *UnexpectedResponseError otherwise.
func (c *Client) Submit(ctx context.Context, data form.Data) error {
	body, contentType, err := encode(data)
	if err != nil {
		return fmt.Errorf("encode registration: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	logger.Debug("Posting registration for %q to %s (%d bytes)", data.Account.Username, c.endpoint, body.Len())

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warn("Registration request failed: %v", err)
		return fmt.Errorf("send registration: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		logger.Info("Registration accepted for %q (HTTP %d)", data.Account.Username, resp.StatusCode)
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if fields, message, ok := decodeFieldErrors(raw); ok {
		logger.Info("Registration rejected (HTTP %d): %s", resp.StatusCode, strings.Join(fields.Fields(), ", "))
		return &form.ServerValidationError{
			StatusCode: resp.StatusCode,
			Message:    message,
			Fields:     fields,
		}
	}

	logger.Warn("Registration failed with HTTP %d", resp.StatusCode)
	return &UnexpectedResponseError{
		StatusCode: resp.StatusCode,
		Body:       truncate(strings.TrimSpace(string(raw)), 200),
	}
}

// decodeFieldErrors extracts {"errors": {field: [msg...]}} from a body.
func decodeFieldErrors(raw []byte) (form.FieldErrors, string, bool) {
	var parsed errorResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, "", false
	}

	fields := make(form.FieldErrors, len(parsed.Errors))
	for field, msgs := range parsed.Errors {
		if len(msgs) > 0 {
			fields[field] = msgs
		}
	}
	if len(fields) == 0 {
		return nil, "", false
	}
	return fields, parsed.Message, true
}

// encode writes data as multipart/form-data.
func encode(data form.Data) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range data.TextFields() {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.Name, err)
		}
	}

	for _, f := range data.FileFields() {
		if f.Upload == nil {
			continue
		}
		if err := writeFile(w, f.Name, f.Upload); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, field string, u *form.Upload) error {
	contentType := u.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(u.Content)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, UploadName(u.Filename, field)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part %s: %w", field, err)
	}
	if _, err := part.Write(u.Content); err != nil {
		return fmt.Errorf("write part %s: %w", field, err)
	}
	return nil
}

// UploadName returns a filename safe to send in a Content-Disposition
// header: the stem is slugged and the extension lowercased. fallback is
// used when nothing survives slugging.
func UploadName(name, fallback string) string {
	base := filepath.Base(name)
	if name == "" || base == "." || base == string(filepath.Separator) {
		base = ""
	}
	ext := strings.ToLower(filepath.Ext(base))
	stem := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		stem = slug.Make(fallback)
	}
	if stem == "" {
		stem = "upload"
	}
	return stem + ext
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
