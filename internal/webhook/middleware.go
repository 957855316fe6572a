package webhook

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lrz80/chatbot-backend-sub001/internal/tenant"
)

// contextTenantIDKey is the gin context key the webhook handlers read the
// authenticated tenant from.
const contextTenantIDKey = "webhookTenantID"

// APIKeyAuth authenticates webhook calls by per-tenant API key in the
// X-API-Key header.
func APIKeyAuth(tenants *tenant.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawKey := strings.TrimSpace(c.GetHeader("X-API-Key"))
		if rawKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing api key"})
			return
		}

		tenantID, err := tenants.ByAPIKey(c.Request.Context(), rawKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}

		c.Set(contextTenantIDKey, tenantID)
		c.Next()
	}
}

func tenantIDFrom(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(contextTenantIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
