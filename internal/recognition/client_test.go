package recognition

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"texclip/internal/fault"
	"texclip/internal/signer"
)

const (
	testAppID  = "app-123"
	testSecret = "s3cret"
)

// received captures what the mock service saw.
type received struct {
	mu       sync.Mutex
	params   map[string]string
	header   signer.Header
	fileName string
	file     []byte
	verified error
}

// mockService emulates the recognition endpoint: it parses the multipart
// body, checks the signature and replies with reply.
func mockService(t *testing.T, rec *received, status int, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		params := map[string]string{}
		for k, vs := range r.MultipartForm.Value {
			params[k] = vs[0]
		}

		var fileName string
		var content []byte
		if fhs := r.MultipartForm.File[FileField]; len(fhs) == 1 {
			fileName = fhs[0].Filename
			f, err := fhs[0].Open()
			if err == nil {
				content, _ = io.ReadAll(f)
				f.Close()
			}
		}

		h, err := signer.HeaderFromHTTP(r.Header)
		if err == nil {
			err = signer.Verify(params, h, testSecret)
		}

		rec.mu.Lock()
		rec.params, rec.header, rec.fileName, rec.file, rec.verified = params, h, fileName, content, err
		rec.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "1724140800.000001.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nfake"), 0o600))
	return path
}

func newClient(t *testing.T, endpoint string, params map[string]string, timeout time.Duration) *Client {
	t.Helper()
	s, err := signer.New(signer.Credentials{AppID: testAppID, Secret: testSecret})
	require.NoError(t, err)

	c, err := New(Options{Endpoint: endpoint, Signer: s, Params: params, Timeout: timeout})
	require.NoError(t, err)
	return c
}

func TestRecognizeSuccess(t *testing.T) {
	rec := &received{}
	srv := mockService(t, rec, http.StatusOK,
		`{"status":true,"res":{"latex":"\\frac{a}{b}","conf":0.97},"request_id":"req-1"}`)

	c := newClient(t, srv.URL, map[string]string{"rec_mode": "formula"}, 0)
	path := writeImage(t)

	res, err := c.Recognize(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, `\frac{a}{b}`, res.Markup)
	assert.InDelta(t, 0.97, res.Confidence, 1e-9)
	assert.Equal(t, "req-1", res.RequestID)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.NoError(t, rec.verified, "service must accept the signature")
	assert.Equal(t, testAppID, rec.header.AppID)
	assert.Len(t, rec.header.Nonce, signer.NonceLength)
	assert.Equal(t, map[string]string{"rec_mode": "formula"}, rec.params)
	assert.Equal(t, "1724140800.000001.png", rec.fileName)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\nfake"), rec.file)
}

func TestRecognizeNoParams(t *testing.T) {
	rec := &received{}
	srv := mockService(t, rec, http.StatusOK, `{"status":true,"res":{"latex":"x^2"}}`)

	c := newClient(t, srv.URL, nil, 0)
	res, err := c.Recognize(context.Background(), writeImage(t))
	require.NoError(t, err)
	assert.Equal(t, "x^2", res.Markup)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.NoError(t, rec.verified)
	assert.Empty(t, rec.params)
}

func TestRecognizeFreshNoncePerRequest(t *testing.T) {
	rec := &received{}
	srv := mockService(t, rec, http.StatusOK, `{"status":true,"res":{"latex":"y"}}`)
	c := newClient(t, srv.URL, nil, 0)
	path := writeImage(t)

	_, err := c.Recognize(context.Background(), path)
	require.NoError(t, err)
	rec.mu.Lock()
	first := rec.header.Nonce
	rec.mu.Unlock()

	_, err = c.Recognize(context.Background(), path)
	require.NoError(t, err)
	rec.mu.Lock()
	second := rec.header.Nonce
	rec.mu.Unlock()

	assert.NotEqual(t, first, second)
}

func TestRecognizeFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		reply  string
		kind   fault.Kind
	}{
		{"service failure", http.StatusOK, `{"status":false,"message":"quota exceeded"}`, fault.Recognition},
		{"empty latex", http.StatusOK, `{"status":true,"res":{"latex":"  "}}`, fault.Recognition},
		{"missing res", http.StatusOK, `{"status":true}`, fault.Recognition},
		{"malformed json", http.StatusOK, `{"status":tru`, fault.Recognition},
		{"schema mismatch", http.StatusOK, `{"status":"yes","res":{"latex":"x"}}`, fault.Recognition},
		{"missing status", http.StatusOK, `{"res":{"latex":"x"}}`, fault.Recognition},
		{"server error", http.StatusInternalServerError, `oops`, fault.Transport},
		{"not found", http.StatusNotFound, ``, fault.Transport},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := mockService(t, &received{}, tc.status, tc.reply)
			c := newClient(t, srv.URL, nil, 0)

			_, err := c.Recognize(context.Background(), writeImage(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.kind)
			assert.Equal(t, tc.kind, fault.KindOf(err))
		})
	}
}

func TestRecognizeFailureCarriesMessage(t *testing.T) {
	srv := mockService(t, &received{}, http.StatusOK, `{"status":false,"message":"quota exceeded"}`)
	c := newClient(t, srv.URL, nil, 0)

	_, err := c.Recognize(context.Background(), writeImage(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestRecognizeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c := newClient(t, srv.URL, nil, 100*time.Millisecond)

	start := time.Now()
	_, err := c.Recognize(context.Background(), writeImage(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.Transport)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRecognizeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(t, url, nil, time.Second)
	_, err := c.Recognize(context.Background(), writeImage(t))
	assert.ErrorIs(t, err, fault.Transport)
}

func TestRecognizeCancelledContext(t *testing.T) {
	srv := mockService(t, &received{}, http.StatusOK, `{"status":true,"res":{"latex":"x"}}`)
	c := newClient(t, srv.URL, nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Recognize(ctx, writeImage(t))
	assert.ErrorIs(t, err, fault.Transport)
}

func TestRecognizeMissingFile(t *testing.T) {
	c := newClient(t, "http://127.0.0.1:1", nil, 0)
	_, err := c.Recognize(context.Background(), filepath.Join(t.TempDir(), "gone.png"))
	assert.ErrorIs(t, err, fault.Persistence)
}

func TestNewValidation(t *testing.T) {
	s, err := signer.New(signer.Credentials{AppID: testAppID, Secret: testSecret})
	require.NoError(t, err)

	_, err = New(Options{Signer: s})
	assert.Error(t, err)

	_, err = New(Options{Endpoint: "https://example.invalid"})
	assert.Error(t, err)

	c, err := New(Options{Endpoint: "https://example.invalid", Signer: s})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, c.http.Timeout)
	assert.Equal(t, "https://example.invalid", c.Endpoint())
}

func TestNewCopiesParams(t *testing.T) {
	s, err := signer.New(signer.Credentials{AppID: testAppID, Secret: testSecret})
	require.NoError(t, err)

	params := map[string]string{"rec_mode": "formula"}
	c, err := New(Options{Endpoint: "https://example.invalid", Signer: s, Params: params})
	require.NoError(t, err)

	params["rec_mode"] = "document"
	assert.Equal(t, "formula", c.params["rec_mode"])
}

func TestParseResponse(t *testing.T) {
	resp, err := ParseResponse([]byte(`{"status":true,"res":{"latex":"E=mc^2","conf":0.5},"request_id":"r"}`))
	require.NoError(t, err)
	assert.True(t, resp.Status)

	var p Payload
	require.NoError(t, json.Unmarshal(resp.Res, &p))
	assert.Equal(t, "E=mc^2", p.Latex)

	_, err = ParseResponse([]byte(`[]`))
	assert.Error(t, err)

	_, err = ParseResponse([]byte(`{"status":true,"res":"latex"}`))
	assert.Error(t, err)
}

func TestResponseMessageObject(t *testing.T) {
	resp, err := ParseResponse([]byte(`{"status":false,"message":{"code":429}}`))
	require.NoError(t, err)
	_, err = resp.Result()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"code":429`)
}
