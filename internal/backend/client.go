// Package backend is the HTTP client for the document question-answering
// backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashureev/docqa/internal/api"
	"github.com/ashureev/docqa/internal/domain"
	"golang.org/x/net/publicsuffix"
)

// DefaultTimeout bounds every request unless WithTimeout says otherwise.
const DefaultTimeout = 120 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Client talks to the backend. The embedded cookie jar keeps the server-side
// session stable across uploads, queries and resets.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A nil Jar is filled in.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc.Jar == nil {
			hc.Jar = c.http.Jar
		}
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q must be http or https", baseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Jar: jar},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Upload sends all files as one multipart request to the ingestion endpoint.
func (c *Client) Upload(ctx context.Context, files []domain.File) (*api.UploadResponse, error) {
	body, contentType, err := encodeFiles(files)
	if err != nil {
		return nil, err
	}

	var out api.UploadResponse
	if err := c.do(ctx, "upload", http.MethodPost, api.PathUpload, contentType, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Query asks the backend a question.
func (c *Client) Query(ctx context.Context, question string) (*api.QueryResponse, error) {
	payload, err := json.Marshal(api.QueryRequest{Question: question})
	if err != nil {
		return nil, &Error{Kind: KindLocal, Op: "query", Err: err}
	}

	var out api.QueryResponse
	if err := c.do(ctx, "query", http.MethodPost, api.PathQuery, "application/json", bytes.NewReader(payload), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Clear asks the backend to drop the session. Only the status is consulted.
func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, "clear", http.MethodPost, api.PathClear, "", nil, nil)
}

// Stats fetches the session summary.
func (c *Client) Stats(ctx context.Context) (*api.StatsResponse, error) {
	var out api.StatsResponse
	if err := c.do(ctx, "stats", http.MethodGet, api.PathStats, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, out interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("Backend request failed", "op", op, "error", err)
		return &Error{Kind: KindTransport, Op: op, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("failed to close response body", "op", op, "error", closeErr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	slog.Debug("Backend request completed", "op", op, "status", resp.StatusCode, "duration", time.Since(start))

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	if out == nil {
		if !ok {
			return &Error{Kind: KindHTTP, Op: op, StatusCode: resp.StatusCode, Message: errorText(data)}
		}
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindHTTP, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}

	env, isEnvelope := out.(api.Envelope)
	switch {
	case !ok:
		msg := ""
		if isEnvelope {
			msg = env.ErrorText()
		}
		return &Error{Kind: KindHTTP, Op: op, StatusCode: resp.StatusCode, Message: msg}
	case isEnvelope && !env.OK():
		return &Error{Kind: KindApplication, Op: op, StatusCode: resp.StatusCode, Message: env.ErrorText()}
	}
	return nil
}

// errorText extracts the "error" field of a JSON body, if any.
func errorText(data []byte) string {
	var body api.ErrorResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Error
}

func encodeFiles(files []domain.File) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, f := range files {
		if err := writeFilePart(mw, f); err != nil {
			return nil, "", &Error{Kind: KindLocal, Op: "upload", Message: "Cannot read " + f.Name, Err: err}
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", &Error{Kind: KindLocal, Op: "upload", Err: fmt.Errorf("close multipart writer: %w", err)}
	}
	return &buf, mw.FormDataContentType(), nil
}

func writeFilePart(mw *multipart.Writer, f domain.File) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() { _ = src.Close() }()

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		api.FilesField, quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part for %s: %w", f.Name, err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("copy %s: %w", f.Name, err)
	}
	return nil
}
