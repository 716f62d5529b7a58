// Graceful shutdown tests in Codepad.

package cleanup

import (
	"Codepad/pkg/db"
	"Codepad/pkg/log"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Global instance of log.Logger to be used during cleanup testing.
var logger log.Logger = log.NewWithWriter("test", io.Discard)

// Global context
var ctx context.Context = context.Background()

// Helper to build up a running server and a redis client for shutdown tests.
func setup(t *testing.T) (*httptest.Server, *db.RedisDB) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api", func(gctx *gin.Context) {
		gctx.Status(http.StatusOK)
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	redisSrv := miniredis.RunT(t)
	client, dberr := db.NewDbConnection(ctx, logger, db.Options{Addr: redisSrv.Host(), Port: redisSrv.Port()})
	require.NoError(t, dberr)
	require.NoError(t, client.CheckDbConnection(ctx, logger))
	return srv, client
}

func testGracefulShutdown(t *testing.T, sig syscall.Signal) {
	srv, client := setup(t)

	// Graceful shutdown of Codepad server triggered due to system interruptions
	wait := GracefulShutdown(ctx, logger, 5*time.Second, map[string]Operation{
		"Redis-server": func(ctx context.Context) error {
			return client.CloseDbConnection(ctx)
		},
		"Gin": func(ctx context.Context) error {
			srv.Close()
			return nil
		},
	})
	require.NoError(t, syscall.Kill(syscall.Getpid(), sig))

	select {
	case <-wait:
	case <-time.After(3 * time.Second):
		t.Fatal("shutdown did not complete")
	}

	assert.Error(t, client.CheckDbConnection(ctx, logger))
	_, testerr := http.Get(srv.URL + "/api")
	assert.Error(t, testerr)
}

func TestGracefulShutdownSIGINT(t *testing.T) {
	testGracefulShutdown(t, syscall.SIGINT)
}

func TestGracefulShutdownSIGTERM(t *testing.T) {
	testGracefulShutdown(t, syscall.SIGTERM)
}

func TestGracefulShutdownFailingOperation(t *testing.T) {
	var ran atomic.Int32
	wait := GracefulShutdown(ctx, logger, 5*time.Second, map[string]Operation{
		"broken": func(ctx context.Context) error {
			ran.Add(1)
			return errors.New("boom")
		},
		"healthy": func(ctx context.Context) error {
			ran.Add(1)
			return nil
		},
	})
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGHUP))

	select {
	case <-wait:
	case <-time.After(3 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	assert.Equal(t, int32(2), ran.Load())
}
