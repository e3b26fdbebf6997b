package inverter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *test.Hook) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)
	host := strings.TrimPrefix(srv.URL, "http://")
	return NewClient(host, "admin", "secret", 2*time.Second, logger), hook
}

func TestFetchSendsBasicAuth(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/status.html" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(statusPage))
	})

	page, ok := client.Fetch(context.Background())
	require.True(t, ok)
	w, ok := ParseWatt(page)
	require.True(t, ok)
	assert.Equal(t, 123, w)
}

func TestFetchNon2xxIsAbsentAndTraced(t *testing.T) {
	client, hook := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	page, ok := client.Fetch(context.Background())
	assert.False(t, ok)
	assert.Empty(t, page)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.TraceLevel, hook.LastEntry().Level)
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	host := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)
	client := NewClient(host, "admin", "secret", time.Second, logger)

	_, ok := client.Fetch(context.Background())
	assert.False(t, ok)
	for _, e := range hook.AllEntries() {
		assert.Equal(t, logrus.TraceLevel, e.Level)
	}
}

func TestFetchKeepsRestyMessagesAtTrace(t *testing.T) {
	client, hook := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(statusPage))
	})

	_, ok := client.Fetch(context.Background())
	require.True(t, ok)

	var fromResty int
	for _, e := range hook.AllEntries() {
		assert.Equal(t, logrus.TraceLevel, e.Level, e.Message)
		if e.Data["source"] == "resty" {
			fromResty++
		}
	}
	assert.NotZero(t, fromResty, "basic auth over plain HTTP is reported through the logger")
}
