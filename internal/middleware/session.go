package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hangulab/topik-practice-backend/internal/response"
	"github.com/hangulab/topik-practice-backend/internal/service"
)

// CheckSingleDeviceSession validates the JWT's JTI against the active
// session in Redis. A mismatch means a newer login replaced this device;
// the stale device gets signed out on its next request.
func CheckSingleDeviceSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		// Only enforce for learner tokens.
		if claims.TokenType != service.TokenTypeLearner {
			c.Next()
			return
		}

		if err := authService.ValidateLearnerSession(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
