package proxy

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardcoverapp/hardcover-explorer/internal/testutil"
)

const booksQuery = `{"query":"{ books(limit: 1) { title } }"}`

func newProxy(t *testing.T, upstream string) *httptest.Server {
	t.Helper()
	s := New(Config{Upstream: upstream, Logger: testutil.NewTestLogger(t)})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body, auth string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+Path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestForward(t *testing.T) {
	upstream := testutil.NewGraphQLServer(t, "secret")
	srv := newProxy(t, upstream.URL)

	resp, body := post(t, srv.URL, booksQuery, "Bearer secret")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":{"books":[{"title":"The Hobbit"}]}}`, body)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	_, err := uuid.Parse(resp.Header.Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestForwardUpstreamStatus(t *testing.T) {
	upstream := testutil.NewGraphQLServer(t, "secret")
	srv := newProxy(t, upstream.URL)

	resp, body := post(t, srv.URL, booksQuery, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"error":"invalid token"}`, body)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestPreflight(t *testing.T) {
	srv := newProxy(t, "http://127.0.0.1:1")

	req, err := http.NewRequest(http.MethodOptions, srv.URL+Path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Type, Authorization", resp.Header.Get("Access-Control-Allow-Headers"))
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newProxy(t, "http://127.0.0.1:1")

	resp, err := http.Get(srv.URL + Path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestProxyFailures(t *testing.T) {
	notJSON := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	t.Cleanup(notJSON.Close)

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()

	tests := []struct {
		name     string
		upstream string
		body     string
	}{
		{name: "request not json", upstream: notJSON.URL, body: `{"query":`},
		{name: "upstream not json", upstream: notJSON.URL, body: booksQuery},
		{name: "upstream unreachable", upstream: closed.URL, body: booksQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newProxy(t, tt.upstream)
			resp, body := post(t, srv.URL, tt.body, "")
			assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
			assert.JSONEq(t, `{"error":"Proxy request failed"}`, body)
			assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestServeListener(t *testing.T) {
	upstream := testutil.NewGraphQLServer(t, "")
	s := New(Config{Upstream: upstream.URL, Logger: testutil.NewTestLogger(t)})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ServeListener(ctx, ln) }()

	resp, body := post(t, "http://"+ln.Addr().String(), booksQuery, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "The Hobbit")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("proxy did not shut down")
	}
}
