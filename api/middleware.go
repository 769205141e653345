package api

import (
	"github.com/gin-gonic/gin"
	"github.com/skyfare/airbooking/internal/domain"
)

const actorKey = "actor"

// ActorMiddleware extracts the authenticated actor supplied by the identity
// collaborator. Handlers stay stateless: every request carries its own
// identity, there is no session store.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(actorKey, domain.Actor{
			ID:    c.GetHeader("X-Actor-ID"),
			Admin: c.GetHeader("X-Actor-Admin") == "true",
		})
		c.Next()
	}
}

func actorFrom(c *gin.Context) domain.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Actor{}
}
