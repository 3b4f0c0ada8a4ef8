package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/apperrors"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on a gorm connection. The connection should be
// opened with TranslateError enabled so unique violations surface as
// gorm.ErrDuplicatedKey.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates or updates the catalog and facet tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.FilterKey{},
		&models.FilterOption{},
		&models.ProductFilterValue{},
		&models.ActivityLog{},
	)
}

func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.Newf(apperrors.ErrNotFound, "%s: record not found", op)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Newf(apperrors.ErrConflict, "%s: duplicate key", op)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, apperrors.ErrStoreUnavailable, err)
	}
}

// ─────────────────────────────────────────────────────────────
// Catalog
// ─────────────────────────────────────────────────────────────

func (s *GormStore) ListActiveProducts(ctx context.Context, batchSize int, fn func([]models.Product) error) error {
	if batchSize <= 0 {
		batchSize = 200
	}
	var (
		batch []models.Product
		fnErr error
	)
	res := s.db.WithContext(ctx).
		Model(&models.Product{}).
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			if err := fn(batch); err != nil {
				fnErr = err
				return err
			}
			return nil
		})
	if fnErr != nil {
		return fnErr
	}
	return translate("list products", res.Error)
}

func (s *GormStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate("get product", err)
	}
	return &p, nil
}

func (s *GormStore) CreateProduct(ctx context.Context, p *models.Product) error {
	return translate("create product", s.db.WithContext(ctx).Create(p).Error)
}

func (s *GormStore) UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Price != nil {
		updates["price"] = *patch.Price
	}
	if patch.SetCategory {
		updates["category_id"] = patch.CategoryID
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.Specs != nil {
		updates["specs"] = *patch.Specs
	}
	if patch.SpecsDetail != nil {
		updates["specs_detail"] = *patch.SpecsDetail
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
		return nil, translate("update product", err)
	}
	return s.GetProduct(ctx, id)
}

func (s *GormStore) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("product_id = ?", id).Delete(&models.ProductFilterValue{}).Error
	})
	return translate("delete product", err)
}

func (s *GormStore) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translate("lookup category", err)
	}
	return count > 0, nil
}

func (s *GormStore) PriceRange(ctx context.Context) (models.PriceRangeData, error) {
	var row struct {
		MinPrice float64 `gorm:"column:min_price"`
		MaxPrice float64 `gorm:"column:max_price"`
	}
	err := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("COALESCE(MIN(price), 0) AS min_price, COALESCE(MAX(price), 0) AS max_price").
		Where("status = ? AND price > 0", models.ProductStatusActive).
		Scan(&row).Error
	if err != nil {
		return models.PriceRangeData{}, translate("price range", err)
	}
	return models.PriceRangeData{Min: row.MinPrice, Max: row.MaxPrice}, nil
}

// ─────────────────────────────────────────────────────────────
// Idempotent upserts
// ─────────────────────────────────────────────────────────────

func (s *GormStore) UpsertFilterKey(ctx context.Context, key, label string, dataType models.FilterDataType, defaultOrder int) (models.FilterKey, bool, error) {
	db := s.db.WithContext(ctx)
	find := func() (models.FilterKey, error) {
		var fk models.FilterKey
		err := db.Where("slug = ?", key).First(&fk).Error
		return fk, err
	}

	fk, err := find()
	if err == nil {
		return fk, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fk, false, translate("find filter key", err)
	}

	fk = models.FilterKey{Key: key, Label: label, DataType: dataType, IsActive: true, Order: defaultOrder}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).Create(&fk)
	if res.Error != nil {
		return fk, false, translate("insert filter key", res.Error)
	}
	if res.RowsAffected == 1 {
		return fk, true, nil
	}

	// a concurrent writer inserted the same slug first
	fk, err = find()
	return fk, false, translate("find filter key", err)
}

func (s *GormStore) UpsertFilterOption(ctx context.Context, filterKeyID uuid.UUID, value, displayValue string, categoryID *uuid.UUID) (models.FilterOption, bool, error) {
	db := s.db.WithContext(ctx)
	if categoryID != nil && *categoryID == uuid.Nil {
		categoryID = nil
	}
	scope := models.ScopeOf(categoryID)
	if displayValue == "" {
		displayValue = value
	}

	find := func() (models.FilterOption, error) {
		var opt models.FilterOption
		err := db.Where("filter_key_id = ? AND value = ? AND scope = ?", filterKeyID, value, scope).First(&opt).Error
		return opt, err
	}

	opt, err := find()
	if err == nil {
		if opt.DisplayValue == "" {
			if err := db.Model(&opt).Update("display_value", displayValue).Error; err != nil {
				return opt, false, translate("fill display value", err)
			}
		}
		return opt, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return opt, false, translate("find filter option", err)
	}

	opt = models.FilterOption{
		FilterKeyID:  filterKeyID,
		Value:        value,
		DisplayValue: displayValue,
		CategoryID:   categoryID,
		IsActive:     true,
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "filter_key_id"}, {Name: "value"}, {Name: "scope"}},
		DoNothing: true,
	}).Create(&opt)
	if res.Error != nil {
		return opt, false, translate("insert filter option", res.Error)
	}
	if res.RowsAffected == 1 {
		return opt, true, nil
	}

	opt, err = find()
	return opt, false, translate("find filter option", err)
}

func (s *GormStore) UpsertProductFilterValue(ctx context.Context, v models.ProductFilterValue) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "filter_key_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"raw_value", "numeric_value", "updated_at"}),
	}).Create(&v).Error
	return translate("upsert product filter value", err)
}

func (s *GormStore) PruneProductFilterValues(ctx context.Context, productID uuid.UUID, keep []uuid.UUID) error {
	q := s.db.WithContext(ctx).Where("product_id = ?", productID)
	if len(keep) > 0 {
		q = q.Where("filter_key_id NOT IN ?", keep)
	}
	return translate("prune product filter values", q.Delete(&models.ProductFilterValue{}).Error)
}

// ─────────────────────────────────────────────────────────────
// Facet reads
// ─────────────────────────────────────────────────────────────

func (s *GormStore) ListFilterKeys(ctx context.Context, activeOnly bool) ([]models.FilterKey, error) {
	q := s.db.WithContext(ctx).Order("sort_order ASC, slug ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	keys := make([]models.FilterKey, 0)
	if err := q.Find(&keys).Error; err != nil {
		return nil, translate("list filter keys", err)
	}
	return keys, nil
}

func (s *GormStore) ListFilterOptions(ctx context.Context, oq OptionQuery) ([]models.FilterOption, error) {
	q := s.db.WithContext(ctx).Order("filter_key_id ASC, value ASC")
	if len(oq.FilterKeyIDs) > 0 {
		q = q.Where("filter_key_id IN ?", oq.FilterKeyIDs)
	}
	if oq.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	want := models.ScopeOf(oq.CategoryID)
	switch oq.Scope {
	case ScopeGlobal:
		q = q.Where("scope = ?", "")
	case ScopeGlobalOrCategory:
		q = q.Where("scope IN ?", []string{"", want})
	case ScopeCategory:
		q = q.Where("scope = ? AND scope <> ''", want)
	}

	opts := make([]models.FilterOption, 0)
	if err := q.Find(&opts).Error; err != nil {
		return nil, translate("list filter options", err)
	}
	return opts, nil
}

func (s *GormStore) GetFilterKey(ctx context.Context, id uuid.UUID) (*models.FilterKey, error) {
	var fk models.FilterKey
	if err := s.db.WithContext(ctx).First(&fk, "id = ?", id).Error; err != nil {
		return nil, translate("get filter key", err)
	}
	return &fk, nil
}

func (s *GormStore) GetFilterOption(ctx context.Context, id uuid.UUID) (*models.FilterOption, error) {
	var opt models.FilterOption
	if err := s.db.WithContext(ctx).First(&opt, "id = ?", id).Error; err != nil {
		return nil, translate("get filter option", err)
	}
	return &opt, nil
}

// ─────────────────────────────────────────────────────────────
// Admin writes
// ─────────────────────────────────────────────────────────────

func (s *GormStore) CreateFilterKey(ctx context.Context, fk *models.FilterKey) error {
	return translate("create filter key", s.db.WithContext(ctx).Create(fk).Error)
}

func (s *GormStore) UpdateFilterKey(ctx context.Context, id uuid.UUID, patch FilterKeyPatch) (*models.FilterKey, error) {
	fk, err := s.GetFilterKey(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if patch.Key != nil {
		updates["slug"] = *patch.Key
	}
	if patch.Label != nil {
		updates["label"] = *patch.Label
	}
	if patch.DataType != nil {
		updates["data_type"] = *patch.DataType
	}
	if patch.Order != nil {
		updates["sort_order"] = *patch.Order
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if len(updates) == 0 {
		return fk, nil
	}

	if err := s.db.WithContext(ctx).Model(fk).Updates(updates).Error; err != nil {
		return nil, translate("update filter key", err)
	}
	return s.GetFilterKey(ctx, id)
}

func (s *GormStore) CreateFilterOption(ctx context.Context, opt *models.FilterOption) error {
	return translate("create filter option", s.db.WithContext(ctx).Create(opt).Error)
}

func (s *GormStore) UpdateFilterOption(ctx context.Context, id uuid.UUID, patch FilterOptionPatch) (*models.FilterOption, error) {
	opt, err := s.GetFilterOption(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if patch.Value != nil {
		updates["value"] = *patch.Value
	}
	if patch.DisplayValue != nil {
		updates["display_value"] = *patch.DisplayValue
	}
	if patch.SetCategory {
		categoryID := patch.CategoryID
		if categoryID != nil && *categoryID == uuid.Nil {
			categoryID = nil
		}
		updates["category_id"] = categoryID
		updates["scope"] = models.ScopeOf(categoryID)
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if len(updates) == 0 {
		return opt, nil
	}

	if err := s.db.WithContext(ctx).Model(opt).Updates(updates).Error; err != nil {
		return nil, translate("update filter option", err)
	}
	return s.GetFilterOption(ctx, id)
}

// ─────────────────────────────────────────────────────────────
// Faceted product query
// ─────────────────────────────────────────────────────────────

func (s *GormStore) QueryProductsByFacets(ctx context.Context, fq FacetQuery) ([]models.Product, int64, error) {
	scoped := func() *gorm.DB {
		q := s.db.WithContext(ctx).
			Model(&models.Product{}).
			Where("products.status = ?", models.ProductStatusActive)
		if fq.CategoryID != nil {
			q = q.Where("products.category_id = ?", *fq.CategoryID)
		}

		for _, c := range fq.Discrete {
			q = q.Where(`EXISTS (
				SELECT 1 FROM product_filter_values pfv
				WHERE pfv.product_id = products.id
				  AND pfv.filter_key_id = ?
				  AND pfv.raw_value IN ?
			)`, c.FilterKeyID, c.Values)
		}

		for _, r := range fq.Ranges {
			column := "pfv.numeric_value"
			if r.OnPrice {
				column = "products.price"
			}
			cond, args := intervalsCondition(column, r.Intervals)
			if r.OnPrice {
				q = q.Where(cond, args...)
				continue
			}
			q = q.Where(`EXISTS (
				SELECT 1 FROM product_filter_values pfv
				WHERE pfv.product_id = products.id
				  AND pfv.filter_key_id = ?
				  AND pfv.numeric_value IS NOT NULL
				  AND `+cond+`
			)`, append([]interface{}{r.FilterKeyID}, args...)...)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, translate("count products", err)
	}

	q := scoped().Order(orderClause(fq.Sort, fq.Asc))
	if fq.Limit > 0 {
		q = q.Limit(fq.Limit).Offset(fq.Offset)
	}
	products := make([]models.Product, 0)
	if err := q.Find(&products).Error; err != nil {
		return nil, 0, translate("query products", err)
	}
	return products, total, nil
}

// intervalsCondition ORs the intervals: "(col >= ? AND col <= ?) OR (col >= ?)".
func intervalsCondition(column string, intervals []Interval) (string, []interface{}) {
	parts := make([]string, 0, len(intervals))
	args := make([]interface{}, 0, len(intervals)*2)
	for _, iv := range intervals {
		bounds := make([]string, 0, 2)
		if iv.Min != nil {
			bounds = append(bounds, column+" >= ?")
			args = append(args, *iv.Min)
		}
		if iv.Max != nil {
			bounds = append(bounds, column+" <= ?")
			args = append(args, *iv.Max)
		}
		if len(bounds) == 0 {
			bounds = append(bounds, "1 = 1")
		}
		parts = append(parts, "("+strings.Join(bounds, " AND ")+")")
	}
	if len(parts) == 0 {
		return "1 = 1", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// orderClause builds the ORDER BY shared by search queries; product id breaks
// ties so pages are stable.
func orderClause(sort SortField, asc bool) string {
	dir := "DESC"
	if asc {
		dir = "ASC"
	}
	switch sort {
	case SortPrice:
		return fmt.Sprintf("products.price %s, products.id ASC", dir)
	case SortName:
		return fmt.Sprintf("products.name %s, products.id ASC", dir)
	default:
		return fmt.Sprintf("products.created_at %s, products.id ASC", dir)
	}
}
