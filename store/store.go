// Package store is the persistence boundary of the filter service: catalog
// scans, idempotent facet upserts, facet reads and the faceted product query.
package store

import (
	"context"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Store is implemented by GormStore (Postgres, SQLite) and MemoryStore.
type Store interface {
	// ListActiveProducts streams every non-deleted product in batches.
	ListActiveProducts(ctx context.Context, batchSize int, fn func([]models.Product) error) error
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.Product, error)
	// DeleteProduct soft-deletes the product and drops its facet values.
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	CategoryExists(ctx context.Context, id uuid.UUID) (bool, error)
	PriceRange(ctx context.Context) (models.PriceRangeData, error)

	// UpsertFilterKey is idempotent on the key slug. Existing rows are
	// returned untouched; created reports whether this call inserted the row.
	UpsertFilterKey(ctx context.Context, key, label string, dataType models.FilterDataType, defaultOrder int) (fk models.FilterKey, created bool, err error)
	// UpsertFilterOption is idempotent on (filterKeyID, value, categoryID). An
	// existing row only has its display value filled in when empty.
	UpsertFilterOption(ctx context.Context, filterKeyID uuid.UUID, value, displayValue string, categoryID *uuid.UUID) (opt models.FilterOption, created bool, err error)
	// UpsertProductFilterValue is idempotent on (productID, filterKeyID); the
	// last write wins.
	UpsertProductFilterValue(ctx context.Context, v models.ProductFilterValue) error
	// PruneProductFilterValues removes the product's values for keys not in keep.
	PruneProductFilterValues(ctx context.Context, productID uuid.UUID, keep []uuid.UUID) error

	ListFilterKeys(ctx context.Context, activeOnly bool) ([]models.FilterKey, error)
	ListFilterOptions(ctx context.Context, q OptionQuery) ([]models.FilterOption, error)
	GetFilterKey(ctx context.Context, id uuid.UUID) (*models.FilterKey, error)
	GetFilterOption(ctx context.Context, id uuid.UUID) (*models.FilterOption, error)

	CreateFilterKey(ctx context.Context, fk *models.FilterKey) error
	UpdateFilterKey(ctx context.Context, id uuid.UUID, patch FilterKeyPatch) (*models.FilterKey, error)
	CreateFilterOption(ctx context.Context, opt *models.FilterOption) error
	UpdateFilterOption(ctx context.Context, id uuid.UUID, patch FilterOptionPatch) (*models.FilterOption, error)

	// QueryProductsByFacets returns the matching Active products and the total
	// match count before Limit/Offset.
	QueryProductsByFacets(ctx context.Context, q FacetQuery) ([]models.Product, int64, error)
}

type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	SetCategory bool
	CategoryID  *uuid.UUID
	Status      *string
	Specs       *datatypes.JSON
	SpecsDetail *datatypes.JSON
}

type FilterKeyPatch struct {
	Key      *string
	Label    *string
	DataType *models.FilterDataType
	Order    *int
	IsActive *bool
}

type FilterOptionPatch struct {
	Value        *string
	DisplayValue *string
	SetCategory  bool
	CategoryID   *uuid.UUID
	IsActive     *bool
}

// ScopeFilter selects options by category scope.
type ScopeFilter int

const (
	// ScopeAny ignores the scope.
	ScopeAny ScopeFilter = iota
	// ScopeGlobal keeps options without a category.
	ScopeGlobal
	// ScopeGlobalOrCategory keeps global options plus those of CategoryID.
	ScopeGlobalOrCategory
	// ScopeCategory keeps only options of CategoryID.
	ScopeCategory
)

type OptionQuery struct {
	FilterKeyIDs []uuid.UUID
	ActiveOnly   bool
	Scope        ScopeFilter
	CategoryID   *uuid.UUID
}

func (q OptionQuery) matches(o models.FilterOption) bool {
	if q.ActiveOnly && !o.IsActive {
		return false
	}
	if len(q.FilterKeyIDs) > 0 && !containsID(q.FilterKeyIDs, o.FilterKeyID) {
		return false
	}
	scope := models.ScopeOf(o.CategoryID)
	want := models.ScopeOf(q.CategoryID)
	switch q.Scope {
	case ScopeGlobal:
		return scope == ""
	case ScopeGlobalOrCategory:
		return scope == "" || scope == want
	case ScopeCategory:
		return scope != "" && scope == want
	}
	return true
}

type SortField string

const (
	SortNewest SortField = "newest"
	SortPrice  SortField = "price"
	SortName   SortField = "name"
)

// FacetQuery is a conjunction of clauses; each clause is a disjunction of its
// values or intervals.
type FacetQuery struct {
	// CategoryID, when set, narrows the search to one category.
	CategoryID *uuid.UUID
	Discrete   []DiscreteClause
	Ranges     []RangeClause
	Sort       SortField
	Asc        bool
	Limit      int // 0 means no limit
	Offset     int
}

type DiscreteClause struct {
	FilterKeyID uuid.UUID
	Values      []string
}

// RangeClause matches product price when OnPrice is set, otherwise the
// numeric projection of the product's value for FilterKeyID.
type RangeClause struct {
	FilterKeyID uuid.UUID
	OnPrice     bool
	Intervals   []Interval
}

// Interval is inclusive on both ends; a nil bound is open.
type Interval struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

func (i Interval) Contains(v float64) bool {
	if i.Min != nil && v < *i.Min {
		return false
	}
	if i.Max != nil && v > *i.Max {
		return false
	}
	return true
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
