// ════════════════════════════════════════════════════════════
// STOREFRONT MODELS
// File: models/storefront.go
// ════════════════════════════════════════════════════════════

package models

// ProductSearchResult is the body of GET /products.
type ProductSearchResult struct {
	Products       []Product           `json:"products"`
	AppliedFilters map[string][]string `json:"applied_filters"`
}

// SyncReport is the body of POST /filter/sync.
type SyncReport struct {
	Created         int           `json:"created"`
	Updated         int           `json:"updated"`
	KeysTouched     int           `json:"keysTouched"`
	KeysCreated     int           `json:"keysCreated"`
	ProductsScanned int           `json:"productsScanned"`
	ValuesIndexed   int           `json:"valuesIndexed"`
	SkippedEntries  int           `json:"skippedEntries"`
	Failures        []SyncFailure `json:"failures,omitempty"`
	DurationMs      int64         `json:"durationMs"`
}

// SyncFailure describes a product whose spec data could not be fully read.
type SyncFailure struct {
	ProductID string `json:"product_id"`
	Path      string `json:"path"`
	Reason    string `json:"reason"`
}
