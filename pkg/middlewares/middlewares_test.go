package middlewares

import (
	"Codepad/pkg/log"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handlers...)
	router.GET("/api", func(gctx *gin.Context) {
		gctx.String(http.StatusOK, gctx.GetString("correlation_id"))
	})
	return router
}

func TestCORSMiddlewarePreflight(t *testing.T) {
	router := newRouter(CORSMiddleware("http://localhost:5173"))

	req := httptest.NewRequest(http.MethodOptions, "/api", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorrelationMiddleware(t *testing.T) {
	router := newRouter(CorrelationMiddleware(log.NewWithWriter("test", io.Discard)))

	t.Run("generates id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api", nil))

		id := w.Header().Get("X-Correlation-ID")
		_, err := xid.FromString(id)
		assert.NoError(t, err)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("keeps upstream id", func(t *testing.T) {
		upstream := xid.New().String()
		req := httptest.NewRequest(http.MethodGet, "/api", nil)
		req.Header.Set("X-Correlation-ID", upstream)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, upstream, w.Header().Get("X-Correlation-ID"))
	})

	t.Run("replaces garbage id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api", nil)
		req.Header.Set("X-Correlation-ID", "not-an-xid")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.NotEqual(t, "not-an-xid", w.Header().Get("X-Correlation-ID"))
	})
}

func TestSSEMiddleware(t *testing.T) {
	router := newRouter(SSEMiddleware())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api", nil))

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
}
