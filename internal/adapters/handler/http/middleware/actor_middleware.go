package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zing-commerce/cart-engine/internal/core/domain"
	"github.com/zing-commerce/cart-engine/internal/core/services"
)

const (
	authorizationHeader = "Authorization"
	authorizationType   = "Bearer"
	GuestSessionHeader  = "X-Guest-Session"
	ContextActorKey     = "actor"
)

// ActorMiddleware resolves the cart owner for every request. A valid bearer
// token yields an authenticated actor; otherwise the request runs as a guest
// under the session id from the X-Guest-Session header. A guest with no
// session yet is minted one, echoed back so the client can keep it. A bearer
// header that fails validation is rejected rather than downgraded to guest.
func ActorMiddleware(tokenService *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(GuestSessionHeader)

		if authHeader := c.GetHeader(authorizationHeader); authHeader != "" {
			fields := strings.Fields(authHeader)
			if len(fields) < 2 || fields[0] != authorizationType {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
				c.Abort()
				return
			}

			userID, err := tokenService.ValidateToken(fields[1])
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
				c.Abort()
				return
			}

			actor := domain.AuthenticatedActor(userID, fields[1])
			// The guest session rides along so the merge endpoint knows
			// which guest cart to absorb.
			actor.SessionID = sessionID

			c.Set(ContextActorKey, actor)
			c.Next()
			return
		}

		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		c.Header(GuestSessionHeader, sessionID)

		c.Set(ContextActorKey, domain.GuestActor(sessionID))
		c.Next()
	}
}

func GetActor(c *gin.Context) (domain.Actor, bool) {
	value, exists := c.Get(ContextActorKey)
	if !exists {
		return domain.Actor{}, false
	}
	actor, ok := value.(domain.Actor)
	return actor, ok
}
