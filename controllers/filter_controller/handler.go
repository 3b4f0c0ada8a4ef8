package filter_controller

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/services"
)

// Handler serves the storefront filter panel, the sync trigger and the
// admin curation endpoints.
type Handler struct {
	Metadata *services.MetadataService
	Sync     *services.SyncService
	Admin    *services.FilterAdminService
}

func NewHandler(metadata *services.MetadataService, sync *services.SyncService, admin *services.FilterAdminService) *Handler {
	return &Handler{Metadata: metadata, Sync: sync, Admin: admin}
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	return id, err == nil
}

// optionalUUIDQuery parses an optional UUID query parameter. ok is false when
// the parameter is present but malformed.
func optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func boolQuery(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}
