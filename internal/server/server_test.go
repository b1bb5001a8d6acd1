package server_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzevk/estate-api/internal/config"
	"github.com/mzevk/estate-api/internal/server"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Backend = "memory"
	cfg.DataDir = t.TempDir()
	cfg.UploadsDir = t.TempDir()
	cfg.JWTSecret = "server-test-secret-123"
	return cfg
}

func TestServer_EndToEnd(t *testing.T) {
	logger := testLogger()
	srv, err := server.New(newTestConfig(t), logger)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	t.Run("public list works without a token", func(t *testing.T) {
		res, err := http.Get(ts.URL + "/api/blog")
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("login then authenticated write", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"username": "admin", "password": "admin123"})
		res, err := http.Post(ts.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		var login map[string]string
		require.NoError(t, json.NewDecoder(res.Body).Decode(&login))
		require.NotEmpty(t, login["token"])

		post, _ := json.Marshal(map[string]string{"title": "First listing"})
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/portfolio", bytes.NewReader(post))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+login["token"])

		res2, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer res2.Body.Close()
		assert.Equal(t, http.StatusOK, res2.StatusCode)
	})

	t.Run("write without token is rejected", func(t *testing.T) {
		post, _ := json.Marshal(map[string]string{"title": "sneaky"})
		res, err := http.Post(ts.URL+"/api/portfolio", "application/json", bytes.NewReader(post))
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	t.Run("unknown collection is 404", func(t *testing.T) {
		res, err := http.Get(ts.URL + "/api/accounts")
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

func TestServer_RejectsShortSecret(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.JWTSecret = "short"

	_, err := server.New(cfg, testLogger())
	assert.Error(t, err)
}

func TestServer_RejectsUnknownBackend(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Backend = "mongodb"

	_, err := server.New(cfg, testLogger())
	assert.Error(t, err)
}

func TestServer_JSONBackendRestoresSnapshot(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Backend = "json"
	cfg.Backup.Dir = t.TempDir()

	// First run: seed the admin, write one blog post, snapshot.
	srv, err := server.New(cfg, testLogger())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "admin123"})
	res, err := http.Post(ts.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	var login map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&login))
	res.Body.Close()

	post, _ := json.Marshal(map[string]string{"title": "Kept"})
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/blog", bytes.NewReader(post))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+login["token"])
	res2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res2.Body.Close()
	ts.Close()

	require.NoError(t, srv.Snapshot())

	// Second run against the same directories restores from that snapshot.
	time.Sleep(10 * time.Millisecond)
	srv2, err := server.New(cfg, testLogger())
	require.NoError(t, err)
	ts2 := httptest.NewServer(srv2.Handler())
	defer ts2.Close()

	res3, err := http.Get(ts2.URL + "/api/blog")
	require.NoError(t, err)
	defer res3.Body.Close()

	var items []map[string]any
	require.NoError(t, json.NewDecoder(res3.Body).Decode(&items))
	require.Len(t, items, 1)
	assert.Equal(t, "Kept", items[0]["title"])
}
