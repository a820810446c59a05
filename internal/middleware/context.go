package middleware

import (
	"fmt"

	"tasktrack/backend/internal/models"

	"github.com/gin-gonic/gin"
)

func IdentityFromContext(c *gin.Context) (models.Identity, error) {
	value, exists := c.Get(ContextIdentityKey)
	if !exists {
		return models.Identity{}, fmt.Errorf("user not authenticated")
	}

	identity, ok := value.(models.Identity)
	if !ok {
		return models.Identity{}, fmt.Errorf("invalid identity type in context")
	}

	return identity, nil
}
