package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const actorContextKey = "auth.actor"

// Actor is the authenticated principal attached to every request. Identity,
// tenant scoping and the global permission set are established by the external
// identity service; this package only unpacks them from the access token.
type Actor struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Roles       []string
	Permissions []string
}

// HasPermission reports whether the actor carries the given global permission code.
func (a Actor) HasPermission(code string) bool {
	for _, p := range a.Permissions {
		if p == code {
			return true
		}
	}
	return false
}

// ActorFromContext returns the actor stored by the middleware, if any.
func ActorFromContext(c *gin.Context) (Actor, bool) {
	v, ok := c.Get(actorContextKey)
	if !ok {
		return Actor{}, false
	}
	actor, ok := v.(Actor)
	return actor, ok
}
