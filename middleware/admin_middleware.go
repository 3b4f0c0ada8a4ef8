package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/services"
)

const (
	ctxAdminID    = "adminID"
	ctxAdminEmail = "adminEmail"
	ctxAdminRole  = "adminRole"
)

// TokenVerifier checks an admin token minted by the CMS.
type TokenVerifier interface {
	VerifyAdminJWT(token string) (*services.AdminJWTClaims, error)
}

// AdminAuth validates the admin JWT from the admin_token cookie or the
// Authorization header and, when roles are given, requires one of them.
func AdminAuth(verifier TokenVerifier, roles ...string) gin.HandlerFunc {
	log := logger.WithComponent("auth")
	return func(c *gin.Context) {
		token, ok := tokenFromRequest(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse(c, "Unauthorized - no token provided"))
			return
		}

		claims, err := verifier.VerifyAdminJWT(token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.FullPath()).Msg("invalid admin token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse(c, "Unauthorized - invalid token"))
			return
		}

		c.Set(ctxAdminID, claims.AdminID)
		c.Set(ctxAdminEmail, claims.Email)
		c.Set(ctxAdminRole, claims.Role)

		if len(roles) > 0 && !hasRole(claims.Role, roles) {
			log.Warn().Str("admin_id", claims.AdminID).Str("role", claims.Role).Str("path", c.FullPath()).Msg("admin lacks required role")
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse(c, "Forbidden - insufficient role"))
			return
		}

		c.Next()
	}
}

// tokenFromRequest prefers the cookie over the Authorization header.
func tokenFromRequest(c *gin.Context) (string, bool) {
	if token, err := c.Cookie("admin_token"); err == nil && token != "" {
		return token, true
	}
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func hasRole(role string, allowed []string) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

func GetAdminIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxAdminID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func GetAdminEmailFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxAdminEmail)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok
}
