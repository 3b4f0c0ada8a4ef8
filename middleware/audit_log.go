package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
)

// ActivityRecorder persists admin activity entries.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, entry *models.ActivityLog) error
}

// pathToResourceType maps path segments to resource types. The last
// recognized segment wins, so /filter/admin/keys/:id is a filter key.
var pathToResourceType = map[string]string{
	"admin":    models.ResourceTypeFilterOption,
	"keys":     models.ResourceTypeFilterKey,
	"products": models.ResourceTypeProduct,
	"sync":     models.ResourceTypeFilterSync,
}

var methodToActionVerb = map[string]string{
	http.MethodPost:   "created",
	http.MethodPatch:  "updated",
	http.MethodPut:    "updated",
	http.MethodDelete: "deleted",
}

// AuditLog records every admin write after it completes. Must run after
// AdminAuth, which puts the admin into the context. A nil recorder only logs.
func AuditLog(recorder ActivityRecorder) gin.HandlerFunc {
	log := logger.WithComponent("audit")
	return func(c *gin.Context) {
		verb, ok := methodToActionVerb[c.Request.Method]
		if !ok {
			c.Next()
			return
		}

		c.Next()

		entry := buildActivityLog(c, verb)
		if entry == nil {
			return
		}

		event := log.Info()
		if entry.Status == models.StatusFailed {
			event = log.Warn()
		}
		event.
			Str("admin_id", entry.AdminID).
			Str("admin_email", entry.AdminEmail).
			Str("action", entry.Action).
			Str("resource_id", entry.ResourceID).
			Int("status", entry.HTTPStatus).
			Msg("admin action")

		if recorder == nil {
			return
		}
		// The write outlives a client that already hung up.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 2*time.Second)
		defer cancel()
		if err := recorder.RecordActivity(ctx, entry); err != nil {
			log.Error().Err(err).Str("action", entry.Action).Msg("failed to persist activity log")
		}
	}
}

func buildActivityLog(c *gin.Context, verb string) *models.ActivityLog {
	resourceType := extractResourceType(c.Request.URL.Path)
	if resourceType == "" {
		return nil
	}
	action := verb + "_" + resourceType
	if resourceType == models.ResourceTypeFilterSync {
		action = models.ActionRunFilterSync
	}

	adminID, _ := GetAdminIDFromContext(c)
	adminEmail, _ := GetAdminEmailFromContext(c)
	status := c.Writer.Status()
	outcome := models.StatusSuccess
	if status >= http.StatusBadRequest {
		outcome = models.StatusFailed
	}

	return &models.ActivityLog{
		AdminID:      adminID,
		AdminEmail:   adminEmail,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   c.Param("id"),
		Method:       c.Request.Method,
		Path:         c.Request.URL.Path,
		HTTPStatus:   status,
		Status:       outcome,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	}
}

// extractResourceType returns the type of the last recognized path segment.
func extractResourceType(path string) string {
	var resource string
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if t, ok := pathToResourceType[part]; ok {
			resource = t
		}
	}
	return resource
}
