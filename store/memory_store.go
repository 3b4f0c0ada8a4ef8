package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/apperrors"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/google/uuid"
)

type pfvKey struct {
	productID   uuid.UUID
	filterKeyID uuid.UUID
}

type optionKey struct {
	filterKeyID uuid.UUID
	value       string
	scope       string
}

// MemoryStore is a map-backed Store used by tests and local demos. It enforces
// the same natural keys as the SQL schema.
type MemoryStore struct {
	mu         sync.RWMutex
	products   map[uuid.UUID]models.Product
	categories map[uuid.UUID]models.Category
	keys       map[uuid.UUID]models.FilterKey
	options    map[uuid.UUID]models.FilterOption
	values     map[pfvKey]models.ProductFilterValue
	activity   []models.ActivityLog
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:   make(map[uuid.UUID]models.Product),
		categories: make(map[uuid.UUID]models.Category),
		keys:       make(map[uuid.UUID]models.FilterKey),
		options:    make(map[uuid.UUID]models.FilterOption),
		values:     make(map[pfvKey]models.ProductFilterValue),
		now:        time.Now,
	}
}

// AddCategory registers a category for CategoryExists lookups.
func (m *MemoryStore) AddCategory(c models.Category) models.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.Must(uuid.NewV7())
	}
	m.categories[c.ID] = c
	return c
}

// ProductValues returns the facet values stored for a product, keyed by filter key id.
func (m *MemoryStore) ProductValues(productID uuid.UUID) map[uuid.UUID]models.ProductFilterValue {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[uuid.UUID]models.ProductFilterValue)
	for k, v := range m.values {
		if k.productID == productID {
			out[k.filterKeyID] = v
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────
// Catalog
// ─────────────────────────────────────────────────────────────

func (m *MemoryStore) ListActiveProducts(ctx context.Context, batchSize int, fn func([]models.Product) error) error {
	if batchSize <= 0 {
		batchSize = 200
	}
	m.mu.RLock()
	all := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		if !p.DeletedAt.Valid {
			all = append(all, p)
		}
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })
	for start := 0; start < len(all); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + batchSize
		if end > len(all) {
			end = len(all)
		}
		if err := fn(all[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok || p.DeletedAt.Valid {
		return nil, apperrors.New(apperrors.ErrNotFound, "get product: record not found")
	}
	return &p, nil
}

func (m *MemoryStore) CreateProduct(ctx context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.Must(uuid.NewV7())
	}
	if _, exists := m.products[p.ID]; exists {
		return apperrors.New(apperrors.ErrConflict, "create product: duplicate key")
	}
	if p.Status == "" {
		p.Status = models.ProductStatusDraft
	}
	now := m.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.DeletedAt.Valid {
		return nil, apperrors.New(apperrors.ErrNotFound, "update product: record not found")
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.SetCategory {
		p.CategoryID = patch.CategoryID
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Specs != nil {
		p.Specs = *patch.Specs
	}
	if patch.SpecsDetail != nil {
		p.SpecsDetail = *patch.SpecsDetail
	}
	p.UpdatedAt = m.now()
	m.products[id] = p
	return &p, nil
}

func (m *MemoryStore) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.DeletedAt.Valid {
		return apperrors.New(apperrors.ErrNotFound, "delete product: record not found")
	}
	p.DeletedAt.Time = m.now()
	p.DeletedAt.Valid = true
	m.products[id] = p
	for k := range m.values {
		if k.productID == id {
			delete(m.values, k)
		}
	}
	return nil
}

func (m *MemoryStore) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.categories[id]
	return ok, nil
}

func (m *MemoryStore) PriceRange(ctx context.Context) (models.PriceRangeData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		pr    models.PriceRangeData
		found bool
	)
	for _, p := range m.products {
		if p.DeletedAt.Valid || p.Status != models.ProductStatusActive || p.Price <= 0 {
			continue
		}
		if !found || p.Price < pr.Min {
			pr.Min = p.Price
		}
		if !found || p.Price > pr.Max {
			pr.Max = p.Price
		}
		found = true
	}
	return pr, nil
}

// ─────────────────────────────────────────────────────────────
// Idempotent upserts
// ─────────────────────────────────────────────────────────────

func (m *MemoryStore) UpsertFilterKey(ctx context.Context, key, label string, dataType models.FilterDataType, defaultOrder int) (models.FilterKey, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.FilterKey{}, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, fk := range m.keys {
		if fk.Key == key {
			return fk, false, nil
		}
	}
	if dataType == "" {
		dataType = models.DataTypeString
	}
	now := m.now()
	fk := models.FilterKey{
		ID:        uuid.Must(uuid.NewV7()),
		Key:       key,
		Label:     label,
		DataType:  dataType,
		IsActive:  true,
		Order:     defaultOrder,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.keys[fk.ID] = fk
	return fk, true, nil
}

func (m *MemoryStore) UpsertFilterOption(ctx context.Context, filterKeyID uuid.UUID, value, displayValue string, categoryID *uuid.UUID) (models.FilterOption, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.FilterOption{}, false, err
	}
	if categoryID != nil && *categoryID == uuid.Nil {
		categoryID = nil
	}
	if displayValue == "" {
		displayValue = value
	}
	natural := optionKey{filterKeyID: filterKeyID, value: value, scope: models.ScopeOf(categoryID)}

	m.mu.Lock()
	defer m.mu.Unlock()
	if opt, ok := m.findOptionLocked(natural); ok {
		if opt.DisplayValue == "" {
			opt.DisplayValue = displayValue
			opt.UpdatedAt = m.now()
			m.options[opt.ID] = opt
		}
		return opt, false, nil
	}

	now := m.now()
	opt := models.FilterOption{
		ID:           uuid.Must(uuid.NewV7()),
		FilterKeyID:  filterKeyID,
		Value:        value,
		DisplayValue: displayValue,
		CategoryID:   copyID(categoryID),
		Scope:        natural.scope,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.options[opt.ID] = opt
	return opt, true, nil
}

func (m *MemoryStore) findOptionLocked(k optionKey) (models.FilterOption, bool) {
	for _, o := range m.options {
		if o.FilterKeyID == k.filterKeyID && o.Value == k.value && models.ScopeOf(o.CategoryID) == k.scope {
			return o, true
		}
	}
	return models.FilterOption{}, false
}

func (m *MemoryStore) UpsertProductFilterValue(ctx context.Context, v models.ProductFilterValue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v.UpdatedAt = m.now()
	m.values[pfvKey{productID: v.ProductID, filterKeyID: v.FilterKeyID}] = v
	return nil
}

func (m *MemoryStore) PruneProductFilterValues(ctx context.Context, productID uuid.UUID, keep []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.values {
		if k.productID == productID && !containsID(keep, k.filterKeyID) {
			delete(m.values, k)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────
// Facet reads
// ─────────────────────────────────────────────────────────────

func (m *MemoryStore) ListFilterKeys(ctx context.Context, activeOnly bool) ([]models.FilterKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]models.FilterKey, 0, len(m.keys))
	for _, fk := range m.keys {
		if activeOnly && !fk.IsActive {
			continue
		}
		keys = append(keys, fk)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Order != keys[j].Order {
			return keys[i].Order < keys[j].Order
		}
		return keys[i].Key < keys[j].Key
	})
	return keys, nil
}

func (m *MemoryStore) ListFilterOptions(ctx context.Context, q OptionQuery) ([]models.FilterOption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	opts := make([]models.FilterOption, 0)
	for _, o := range m.options {
		if q.matches(o) {
			opts = append(opts, o)
		}
	}
	sort.Slice(opts, func(i, j int) bool {
		if opts[i].FilterKeyID != opts[j].FilterKeyID {
			return opts[i].FilterKeyID.String() < opts[j].FilterKeyID.String()
		}
		return opts[i].Value < opts[j].Value
	})
	return opts, nil
}

func (m *MemoryStore) GetFilterKey(ctx context.Context, id uuid.UUID) (*models.FilterKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fk, ok := m.keys[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrNotFound, "get filter key: record not found")
	}
	return &fk, nil
}

func (m *MemoryStore) GetFilterOption(ctx context.Context, id uuid.UUID) (*models.FilterOption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	opt, ok := m.options[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrNotFound, "get filter option: record not found")
	}
	return &opt, nil
}

// ─────────────────────────────────────────────────────────────
// Admin writes
// ─────────────────────────────────────────────────────────────

func (m *MemoryStore) CreateFilterKey(ctx context.Context, fk *models.FilterKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.keys {
		if existing.Key == fk.Key {
			return apperrors.New(apperrors.ErrConflict, "create filter key: duplicate key")
		}
	}
	if fk.ID == uuid.Nil {
		fk.ID = uuid.Must(uuid.NewV7())
	}
	if fk.DataType == "" {
		fk.DataType = models.DataTypeString
	}
	now := m.now()
	fk.CreatedAt, fk.UpdatedAt = now, now
	fk.Options = nil
	m.keys[fk.ID] = *fk
	return nil
}

func (m *MemoryStore) UpdateFilterKey(ctx context.Context, id uuid.UUID, patch FilterKeyPatch) (*models.FilterKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fk, ok := m.keys[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrNotFound, "update filter key: record not found")
	}
	if patch.Key != nil && *patch.Key != fk.Key {
		for _, existing := range m.keys {
			if existing.Key == *patch.Key {
				return nil, apperrors.New(apperrors.ErrConflict, "update filter key: duplicate key")
			}
		}
		fk.Key = *patch.Key
	}
	if patch.Label != nil {
		fk.Label = *patch.Label
	}
	if patch.DataType != nil {
		fk.DataType = *patch.DataType
	}
	if patch.Order != nil {
		fk.Order = *patch.Order
	}
	if patch.IsActive != nil {
		fk.IsActive = *patch.IsActive
	}
	fk.UpdatedAt = m.now()
	m.keys[id] = fk
	return &fk, nil
}

func (m *MemoryStore) CreateFilterOption(ctx context.Context, opt *models.FilterOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if opt.CategoryID != nil && *opt.CategoryID == uuid.Nil {
		opt.CategoryID = nil
	}
	opt.Scope = models.ScopeOf(opt.CategoryID)
	if _, exists := m.findOptionLocked(optionKey{opt.FilterKeyID, opt.Value, opt.Scope}); exists {
		return apperrors.New(apperrors.ErrConflict, "create filter option: duplicate key")
	}
	if opt.ID == uuid.Nil {
		opt.ID = uuid.Must(uuid.NewV7())
	}
	now := m.now()
	opt.CreatedAt, opt.UpdatedAt = now, now
	m.options[opt.ID] = *opt
	return nil
}

func (m *MemoryStore) UpdateFilterOption(ctx context.Context, id uuid.UUID, patch FilterOptionPatch) (*models.FilterOption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	opt, ok := m.options[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrNotFound, "update filter option: record not found")
	}
	next := opt
	if patch.Value != nil {
		next.Value = *patch.Value
	}
	if patch.DisplayValue != nil {
		next.DisplayValue = *patch.DisplayValue
	}
	if patch.SetCategory {
		categoryID := patch.CategoryID
		if categoryID != nil && *categoryID == uuid.Nil {
			categoryID = nil
		}
		next.CategoryID = copyID(categoryID)
	}
	if patch.IsActive != nil {
		next.IsActive = *patch.IsActive
	}
	next.Scope = models.ScopeOf(next.CategoryID)

	if next.Value != opt.Value || next.Scope != opt.Scope {
		if other, exists := m.findOptionLocked(optionKey{next.FilterKeyID, next.Value, next.Scope}); exists && other.ID != id {
			return nil, apperrors.New(apperrors.ErrConflict, "update filter option: duplicate key")
		}
	}
	next.UpdatedAt = m.now()
	m.options[id] = next
	return &next, nil
}

// ─────────────────────────────────────────────────────────────
// Faceted product query
// ─────────────────────────────────────────────────────────────

func (m *MemoryStore) QueryProductsByFacets(ctx context.Context, q FacetQuery) ([]models.Product, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	matched := make([]models.Product, 0)
	for _, p := range m.products {
		if p.DeletedAt.Valid || p.Status != models.ProductStatusActive {
			continue
		}
		if m.matchesLocked(p, q) {
			matched = append(matched, p)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return lessProduct(matched[i], matched[j], q.Sort, q.Asc) })

	total := int64(len(matched))
	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			matched = matched[:0]
		} else {
			matched = matched[q.Offset:]
		}
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func (m *MemoryStore) matchesLocked(p models.Product, q FacetQuery) bool {
	if q.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *q.CategoryID) {
		return false
	}
	for _, c := range q.Discrete {
		v, ok := m.values[pfvKey{productID: p.ID, filterKeyID: c.FilterKeyID}]
		if !ok || !containsString(c.Values, v.RawValue) {
			return false
		}
	}
	for _, r := range q.Ranges {
		var subject float64
		if r.OnPrice {
			subject = p.Price
		} else {
			v, ok := m.values[pfvKey{productID: p.ID, filterKeyID: r.FilterKeyID}]
			if !ok || v.NumericValue == nil {
				return false
			}
			subject = *v.NumericValue
		}
		if !anyInterval(r.Intervals, subject) {
			return false
		}
	}
	return true
}

func lessProduct(a, b models.Product, field SortField, asc bool) bool {
	var cmp int
	switch field {
	case SortPrice:
		cmp = compareFloat(a.Price, b.Price)
	case SortName:
		cmp = strings.Compare(a.Name, b.Name)
	default:
		cmp = compareTime(a.CreatedAt, b.CreatedAt)
	}
	if cmp != 0 {
		if asc {
			return cmp < 0
		}
		return cmp > 0
	}
	return a.ID.String() < b.ID.String()
}

func anyInterval(intervals []Interval, v float64) bool {
	if len(intervals) == 0 {
		return true
	}
	for _, iv := range intervals {
		if iv.Contains(v) {
			return true
		}
	}
	return false
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func containsString(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
