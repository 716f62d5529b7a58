package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"Codepad/internal/presence"
	"Codepad/internal/test"
	"Codepad/pkg/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownEndsPresenceStreams(t *testing.T) {
	logger := log.NewWithWriter("test", io.Discard)
	notifier := presence.NewNotifier(logger, time.Minute)
	defer notifier.Close()

	router := test.NewRouter()
	presence.APIHandlers(router, notifier, nil, logger)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := newHTTPServer(lis.Addr().String(), router)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(lis) }()

	resp, err := http.Get("http://" + lis.Addr().String() + "/api/presence/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	require.NoError(t, srv.Shutdown(ctx))
	assert.Less(t, time.Since(start), time.Second)

	// The stream ends cleanly once the handler returns.
	_, err = io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.True(t, errors.Is(<-served, http.ErrServerClosed))
}
