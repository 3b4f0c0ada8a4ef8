package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is looked up by products and category-scoped filter options; the
// category tree itself is owned by the CMS.
type Category struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string     `json:"name" gorm:"not null"`
	Status    string     `json:"status" gorm:"type:varchar(20);default:'Active';check:status IN ('Active', 'Inactive')"`
	ParentID  *uuid.UUID `json:"parent_id" gorm:"type:uuid;index"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate hook - runs automatically before creating a record
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.Must(uuid.NewV7())
	}
	return nil
}

func (Category) TableName() string {
	return "categories"
}
