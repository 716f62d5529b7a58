// Auth middleware is used to validate the JWT sent along with the websocket upgrade.
// Codepad doesn't issue tokens, it only verifies the ones signed with the shared access secret.

package auth

import (
	"Codepad/internal/errors"
	"Codepad/pkg/log"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// Keys set in the gin context for a verified request.
const (
	UserIDKey = "UserID"
	EmailKey  = "Email"
)

// This middleware is used to verify and validate incoming access tokens.
// The token is read from the access_token cookie, or the token query parameter since
// browsers can't set headers on a websocket upgrade.
// An empty secret disables verification, every request goes through anonymous.
// Blocks the request to go further into other handlers if token is invalid.
func AuthMiddleware(logger log.Logger, secret string) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		if secret == "" {
			gctx.Next()
			return
		}
		token := fetchToken(gctx)
		if token == "" {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, errors.Unauthorized(""))
			return
		}
		// Parse the token with secret if the token is valid
		vrftoken, valerr := parseIntoJWT(gctx, logger, secret, token)
		if valerr != nil || !vrftoken.Valid {
			logger.WithCtx(gctx).Debug().Err(valerr).Msg("Rejected access token")
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, errors.Unauthorized(""))
			return
		}
		tokenclaims, ok := vrftoken.Claims.(jwt.MapClaims)
		if !ok {
			// Type assertion error
			logger.WithCtx(gctx).Error().Msg("Type assertion error in AuthMiddleware")
			gctx.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		userID, ok := tokenclaims["user_id"].(string)
		if !ok || userID == "" {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, errors.Unauthorized("Token carries no user_id"))
			return
		}
		// Set UserID in request's context
		// This pair will be used further down in the handler chain
		gctx.Set(UserIDKey, userID)
		if email, ok := tokenclaims["email"].(string); ok {
			gctx.Set(EmailKey, email)
		}
		gctx.Next()
	}
}

// Helper to fetch the token string from the cookie or the query.
func fetchToken(gctx *gin.Context) string {
	if cookie, err := gctx.Request.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return gctx.Query("token")
}

// Helper to parse and return the token string fetched from the request.
func parseIntoJWT(gctx *gin.Context, logger log.Logger, secret string, token string) (*jwt.Token, error) {
	return jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		// Check the signing method
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			err := fmt.Errorf("unexpected signing method found: %v", t.Header["alg"])
			logger.WithCtx(gctx).Error().Err(err).Msg("Error occured during parsing token in AuthMiddleware")
			return nil, err
		}
		return []byte(secret), nil
	})
}
