// Package recognition calls the remote LaTeX recognition service.
package recognition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/net/http2"

	"texclip/internal/fault"
	"texclip/internal/signer"
)

const (
	// DefaultTimeout bounds a whole request when Options.Timeout is zero.
	DefaultTimeout = 20 * time.Second

	// FileField is the multipart field carrying the image.
	FileField = "file"

	maxResponseBytes = 4 << 20
)

// RequestSigner produces the authentication header for a parameter set.
type RequestSigner interface {
	Sign(params map[string]string) (signer.Header, map[string]string, error)
}

// Options configures a Client.
type Options struct {
	Endpoint string
	Timeout  time.Duration
	Signer   RequestSigner
	// Params are extra form fields sent and signed with every request.
	Params map[string]string
	// HTTPClient overrides the default HTTP/2-capable client. Its Timeout is
	// left untouched.
	HTTPClient *http.Client
}

// Client sends signed recognition requests. It is safe for concurrent use.
type Client struct {
	endpoint string
	signer   RequestSigner
	params   map[string]string
	http     *http.Client
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("recognition: endpoint is required")
	}
	if opts.Signer == nil {
		return nil, errors.New("recognition: signer is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = newHTTPClient(timeout)
	}

	params := make(map[string]string, len(opts.Params))
	for k, v := range opts.Params {
		params[k] = v
	}

	return &Client{
		endpoint: opts.Endpoint,
		signer:   opts.Signer,
		params:   params,
		http:     hc,
	}, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Falls back to HTTP/1.1 if the transport cannot be upgraded.
	_ = http2.ConfigureTransport(tr)

	return &http.Client{Transport: tr, Timeout: timeout}
}

// Endpoint returns the service URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Recognize uploads the image at path and returns the recognized markup.
//
// Errors are *fault.Error values: Persistence when the file cannot be read,
// Transport for network failures, timeouts and non-2xx replies, and
// Recognition when the service answers but yields no markup.
func (c *Client) Recognize(ctx context.Context, path string) (Result, error) {
	const op = "recognize"

	params := make(map[string]string, len(c.params))
	for k, v := range c.params {
		params[k] = v
	}

	header, params, err := c.signer.Sign(params)
	if err != nil {
		return Result{}, fault.New(fault.Transport, op, fmt.Errorf("sign request: %w", err))
	}

	body, contentType, err := multipartBody(path, params)
	if err != nil {
		return Result{}, fault.New(fault.Persistence, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return Result{}, fault.New(fault.Transport, op, err)
	}
	req.Header.Set("Content-Type", contentType)
	header.Apply(req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fault.New(fault.Transport, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return Result{}, fault.Errorf(fault.Transport, op, "endpoint returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return Result{}, fault.New(fault.Transport, op, fmt.Errorf("read response: %w", err))
	}
	if len(data) > maxResponseBytes {
		return Result{}, fault.Errorf(fault.Recognition, op, "response exceeds %d bytes", maxResponseBytes)
	}

	envelope, err := ParseResponse(data)
	if err != nil {
		return Result{}, fault.New(fault.Recognition, op, err)
	}

	result, err := envelope.Result()
	if err != nil {
		return Result{}, fault.New(fault.Recognition, op, err)
	}
	return result, nil
}

// multipartBody encodes params as form fields and the file at path as FileField.
func multipartBody(path string, params map[string]string) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for k, v := range params {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}

	part, err := w.CreateFormFile(FileField, filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return body, w.FormDataContentType(), nil
}
