// models/filters.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ═══════════════════════════════════════════════════════════
// Facet tables
// ═══════════════════════════════════════════════════════════

type FilterDataType string

const (
	DataTypeString FilterDataType = "string"
	DataTypeNumber FilterDataType = "number"
	DataTypeRange  FilterDataType = "range"
)

func (d FilterDataType) Valid() bool {
	switch d {
	case DataTypeString, DataTypeNumber, DataTypeRange:
		return true
	}
	return false
}

// PriceRangeKey is the built-in range facet over product price.
const PriceRangeKey = "price_range"

// FilterKey is one facet dimension (brand, ram, ...).
type FilterKey struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Key       string         `json:"key" gorm:"column:slug;not null;uniqueIndex:idx_filter_keys_slug"`
	Label     string         `json:"label" gorm:"not null"`
	DataType  FilterDataType `json:"data_type" gorm:"type:varchar(16);not null"`
	IsActive  bool           `json:"is_active" gorm:"not null;index"`
	Order     int            `json:"order" gorm:"column:sort_order;not null;index"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`

	Options []FilterOption `json:"options,omitempty" gorm:"foreignKey:FilterKeyID"`
}

func (k *FilterKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.Must(uuid.NewV7())
	}
	if k.DataType == "" {
		k.DataType = DataTypeString
	}
	return nil
}

func (FilterKey) TableName() string {
	return "filter_keys"
}

// FilterOption is one selectable value of a FilterKey. A nil CategoryID means
// the option applies to every category.
//
// Scope mirrors CategoryID as a non-null column ("" for global) so that the
// natural key (filter_key_id, value, scope) is enforceable by a unique index;
// NULLs never collide in unique indexes.
type FilterOption struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	FilterKeyID  uuid.UUID  `json:"filter_key_id" gorm:"type:uuid;not null;uniqueIndex:idx_filter_options_natural,priority:1"`
	Value        string     `json:"value" gorm:"not null;uniqueIndex:idx_filter_options_natural,priority:2"`
	DisplayValue string     `json:"display_value" gorm:"not null"`
	CategoryID   *uuid.UUID `json:"category_id" gorm:"type:uuid;index"`
	Scope        string     `json:"-" gorm:"not null;uniqueIndex:idx_filter_options_natural,priority:3"`
	IsActive     bool       `json:"is_active" gorm:"not null;index"`
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (o *FilterOption) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.Must(uuid.NewV7())
	}
	o.Scope = ScopeOf(o.CategoryID)
	return nil
}

func (FilterOption) TableName() string {
	return "filter_options"
}

// ScopeOf renders a category reference as the persisted scope column.
func ScopeOf(categoryID *uuid.UUID) string {
	if categoryID == nil || *categoryID == uuid.Nil {
		return ""
	}
	return categoryID.String()
}

// ProductFilterValue is the materialized per-product facet assignment. A
// product holds at most one value per key.
type ProductFilterValue struct {
	ProductID    uuid.UUID `json:"product_id" gorm:"type:uuid;primaryKey"`
	FilterKeyID  uuid.UUID `json:"filter_key_id" gorm:"type:uuid;primaryKey;index"`
	RawValue     string    `json:"raw_value" gorm:"not null;index"`
	NumericValue *float64  `json:"numeric_value,omitempty"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (ProductFilterValue) TableName() string {
	return "product_filter_values"
}

// ═══════════════════════════════════════════════════════════
// Request Models
// ═══════════════════════════════════════════════════════════

type CreateFilterKeyRequest struct {
	Key      string `json:"key" binding:"required" example:"ram"`
	Label    string `json:"label" binding:"required" example:"RAM"`
	DataType string `json:"data_type" example:"string"`
	Order    *int   `json:"order" example:"20"`
	IsActive *bool  `json:"is_active"`
}

type UpdateFilterKeyRequest struct {
	Key      *string `json:"key"`
	Label    *string `json:"label"`
	DataType *string `json:"data_type"`
	Order    *int    `json:"order"`
	IsActive *bool   `json:"is_active"`
}

type CreateFilterOptionRequest struct {
	FilterKeyID  uuid.UUID  `json:"filter_key_id" binding:"required" example:"018d1234-5678-7abc-def0-123456789abc"`
	Value        string     `json:"value" binding:"required" example:"16"`
	DisplayValue string     `json:"display_value" example:"16GB"`
	CategoryID   *uuid.UUID `json:"category_id,omitempty"`
	IsActive     *bool      `json:"is_active"`
}

// UpdateFilterOptionRequest changes an option. CategoryID: absent or null
// leaves the scope alone, "" makes the option global, a UUID scopes it.
type UpdateFilterOptionRequest struct {
	Value        *string `json:"value"`
	DisplayValue *string `json:"display_value"`
	CategoryID   *string `json:"category_id"`
	IsActive     *bool   `json:"is_active"`
}

// ═══════════════════════════════════════════════════════════
// Response Models
// ═══════════════════════════════════════════════════════════

// FilterMetadata is the storefront facet panel.
type FilterMetadata struct {
	CategoryID *string         `json:"categoryId,omitempty"`
	Filters    []FilterKey     `json:"filters"`
	PriceRange *PriceRangeData `json:"priceRange"`
}

// PriceRangeData represents the minimum and maximum price in the store
type PriceRangeData struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}
