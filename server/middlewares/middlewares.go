package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// ActorHeader carries the id of the authenticated actor, set by the
	// gateway in front of this service.
	ActorHeader = "X-Actor-Id"

	actorKey = "actor_id"

	ErrorActorMissing = "ACTOR_MISSING"
)

// Actor middleware reads the acting actor from the request header and stores
// it on the context. Requests without an actor are rejected with 401.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(ActorHeader))
		if actor == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": ErrorActorMissing,
				"msg":  "missing " + ActorHeader + " header",
			})
			c.Abort()
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorID returns the actor stored by the Actor middleware.
func ActorID(c *gin.Context) string {
	return c.GetString(actorKey)
}
