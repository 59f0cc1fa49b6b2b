package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nhle/privypulse/internal/backend"
	"github.com/nhle/privypulse/internal/logging"
	"github.com/nhle/privypulse/internal/model"
)

// NewTestBackend starts an httptest server running handler and returns a
// client pointed at it. The server is closed when the test completes.
func NewTestBackend(t *testing.T, handler http.Handler) (*backend.Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := backend.NewClient(srv.URL, model.DefaultQueryPath, logging.Discard())
	return client, srv
}

// JSONHandler replies to every request with status and body as JSON.
func JSONHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

// ClosedServerURL returns the URL of a server that has already shut
// down, so connections to it are refused.
func ClosedServerURL(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}
