package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityLog represents an admin write against the filter or catalog API
type ActivityLog struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	AdminID      string    `json:"admin_id" gorm:"not null;index:idx_activity_admin_date,sort:desc"`
	AdminEmail   string    `json:"admin_email" gorm:"not null"`
	Action       string    `json:"action" gorm:"not null;index"`                                             // created_filter_key, updated_product, ran_filter_sync
	ResourceType string    `json:"resource_type" gorm:"not null;index:idx_activity_resource_date,sort:desc"` // filter_key, filter_option, product
	ResourceID   string    `json:"resource_id" gorm:"index"`                                                 // empty for collection routes
	Method       string    `json:"method" gorm:"not null"`
	Path         string    `json:"path" gorm:"not null"`
	HTTPStatus   int       `json:"http_status" gorm:"not null"`
	Status       string    `json:"status" gorm:"not null"` // success, failed
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime;index:idx_activity_admin_date,sort:desc;index:idx_activity_resource_date,sort:desc"`
}

// BeforeCreate hook - auto-generate UUID v7
func (al *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if al.ID == uuid.Nil {
		al.ID = uuid.Must(uuid.NewV7())
	}
	// Default status to success if not set
	if al.Status == "" {
		al.Status = StatusSuccess
	}
	return nil
}

// TableName specifies the table name
func (ActivityLog) TableName() string {
	return "activity_logs"
}

const (
	ActionRunFilterSync = "ran_filter_sync"

	ResourceTypeFilterKey    = "filter_key"
	ResourceTypeFilterOption = "filter_option"
	ResourceTypeFilterSync   = "filter_sync"
	ResourceTypeProduct      = "product"

	StatusSuccess = "success"
	StatusFailed  = "failed"
)
