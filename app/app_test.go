package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-market-coach/config"
	"ai-market-coach/logging"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:               8000,
		LogLevel:           "error",
		DatabaseURL:        "sqlite://:memory:",
		CORSAllowedOrigins: []string{"*"},
		LLM:                config.LLMConfig{Provider: "openai"},
	}
}

func TestSetupWiresHealthyServer(t *testing.T) {
	a := &App{config: testConfig(), logger: logging.NewSilent()}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.setup(ctx))
	defer a.closeResources()

	srv := httptest.NewServer(a.server.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["database"])
	assert.Nil(t, a.redis)
}

func TestSetupRejectsUnknownDatabase(t *testing.T) {
	cfg := testConfig()
	cfg.DatabaseURL = "mysql://localhost/coach"
	a := &App{config: cfg, logger: logging.NewSilent()}

	assert.Error(t, a.setup(context.Background()))
}

func TestOriginChecker(t *testing.T) {
	assert.Nil(t, originChecker([]string{"*"}))

	check := originChecker([]string{"https://coach.example"})
	req := httptest.NewRequest(http.MethodGet, "http://api.local/api/ws", nil)

	assert.True(t, check(req))

	req.Header.Set("Origin", "https://coach.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))

	req.Header.Set("Origin", "http://api.local")
	assert.True(t, check(req))
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestGracefulShutdownWithOpenEventStream(t *testing.T) {
	cfg := testConfig()
	cfg.Port = freePort(t)
	a := &App{config: cfg, logger: logging.NewSilent()}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.setup(ctx))

	serverErr := make(chan error, 1)
	go func() { serverErr <- a.server.Start(cfg.Port) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/api/events", cfg.Port)
	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get(url)
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 3*time.Second, 20*time.Millisecond)
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	start := time.Now()
	require.NoError(t, a.gracefulShutdown(cancel))
	assert.Less(t, time.Since(start), 5*time.Second)

	select {
	case err := <-serverErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
