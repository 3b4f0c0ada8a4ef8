package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ProductStatusActive = "Active"
	ProductStatusDraft  = "Draft"
)

// ═══════════════════════════════════════════════════════════
// Main Product Model (GORM)
// ═══════════════════════════════════════════════════════════

// Product is a catalog entry. Specs and SpecsDetail hold vendor-supplied spec
// data exactly as written; they are only parsed by the facet synchronizer.
//
//	specs:        [{"label": "RAM", "value": "16GB"}, ...]
//	specs_detail: [{"category": "Memory", "items": [{"label": ..., "value": ...}]}, ...]
type Product struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string         `json:"name" gorm:"not null;index"`
	Description string         `json:"description" gorm:"not null;default:''"`
	Price       float64        `json:"price" gorm:"type:numeric(12,2);not null;check:price >= 0"`
	CategoryID  *uuid.UUID     `json:"category_id" gorm:"type:uuid;index:idx_products_category"`
	Status      string         `json:"status" gorm:"not null;check:status IN ('Active', 'Draft');index"`
	Specs       datatypes.JSON `json:"specs"`
	SpecsDetail datatypes.JSON `json:"specs_detail"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate hook - auto-generate UUID v7
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.Must(uuid.NewV7())
	}
	if p.Status == "" {
		p.Status = ProductStatusDraft
	}
	return nil
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}

// ═══════════════════════════════════════════════════════════
// Request Models
// ═══════════════════════════════════════════════════════════

type ProductRequest struct {
	Name        string          `json:"name" binding:"required" example:"MacBook Air 13"`
	Description string          `json:"description" example:"Thin and light laptop"`
	Price       float64         `json:"price" binding:"min=0" example:"1199.99"`
	CategoryID  *uuid.UUID      `json:"category_id" example:"018d1234-5678-7abc-def0-123456789abc"`
	Status      string          `json:"status" binding:"omitempty,oneof=Active Draft" example:"Draft"`
	Specs       json.RawMessage `json:"specs" swaggertype:"array,object"`
	SpecsDetail json.RawMessage `json:"specs_detail" swaggertype:"array,object"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *float64         `json:"price" binding:"omitempty,min=0"`
	CategoryID  *uuid.UUID       `json:"category_id"`
	Status      *string          `json:"status" binding:"omitempty,oneof=Active Draft"`
	Specs       *json.RawMessage `json:"specs" swaggertype:"array,object"`
	SpecsDetail *json.RawMessage `json:"specs_detail" swaggertype:"array,object"`
}
