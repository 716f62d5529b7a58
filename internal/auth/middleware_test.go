package auth

import (
	"Codepad/internal/test"
	"Codepad/pkg/log"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger = log.NewWithWriter("test", io.Discard)

const secret = "access-secret"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func newRouter(secret string) *gin.Engine {
	router := test.NewRouter()
	router.GET("/ws", AuthMiddleware(logger, secret), func(gctx *gin.Context) {
		gctx.JSON(http.StatusOK, gin.H{"user_id": gctx.GetString(UserIDKey), "email": gctx.GetString(EmailKey)})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	router := newRouter(secret)
	valid := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
		"user_id": "u1",
		"email":   "u1@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	expired := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": "u1"})
	noUser := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"email": "x@example.com"})

	tests := []struct {
		name    string
		request test.RequestAPITest
	}{
		{"no token", test.RequestAPITest{Method: http.MethodGet, Path: "/ws", WantResponse: []int{http.StatusUnauthorized}}},
		{"token in query", test.RequestAPITest{Method: http.MethodGet, Path: "/ws?token=" + valid, WantResponse: []int{http.StatusOK}}},
		{"token in cookie", test.RequestAPITest{
			Method:       http.MethodGet,
			Path:         "/ws",
			WantResponse: []int{http.StatusOK},
			Cookies:      []*http.Cookie{{Name: "access_token", Value: valid}},
		}},
		{"expired token", test.RequestAPITest{Method: http.MethodGet, Path: "/ws?token=" + expired, WantResponse: []int{http.StatusUnauthorized}}},
		{"wrong secret", test.RequestAPITest{Method: http.MethodGet, Path: "/ws?token=" + wrongKey, WantResponse: []int{http.StatusUnauthorized}}},
		{"no user_id claim", test.RequestAPITest{Method: http.MethodGet, Path: "/ws?token=" + noUser, WantResponse: []int{http.StatusUnauthorized}}},
		{"garbage", test.RequestAPITest{Method: http.MethodGet, Path: "/ws?token=abc.def", WantResponse: []int{http.StatusUnauthorized}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := test.ExecuteAPITest(logger, t, router, tt.request)
			if w.Code == http.StatusOK {
				assert.JSONEq(t, `{"user_id":"u1","email":"u1@example.com"}`, w.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareDisabled(t *testing.T) {
	router := newRouter("")
	w := test.ExecuteAPITest(logger, t, router, test.RequestAPITest{Method: http.MethodGet, Path: "/ws", WantResponse: []int{http.StatusOK}})
	assert.JSONEq(t, `{"user_id":"","email":""}`, w.Body.String())
}
