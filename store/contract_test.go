package store

import (
	"context"
	"testing"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/apperrors"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// runContract exercises the behavior every Store implementation must share.
func runContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("UpsertFilterKeyIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first, created, err := s.UpsertFilterKey(ctx, "ram", "RAM", models.DataTypeString, 20)
		require.NoError(t, err)
		assert.True(t, created)
		assert.True(t, first.IsActive)
		assert.Equal(t, 20, first.Order)

		second, created, err := s.UpsertFilterKey(ctx, "ram", "Memory", models.DataTypeNumber, 99)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "RAM", second.Label, "existing rows are not overwritten")

		keys, err := s.ListFilterKeys(ctx, false)
		require.NoError(t, err)
		assert.Len(t, keys, 1)
	})

	t.Run("UpsertFilterOptionScopesByCategory", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		fk, _, err := s.UpsertFilterKey(ctx, "brand", "Brand", models.DataTypeString, 10)
		require.NoError(t, err)
		laptops := uuid.Must(uuid.NewV7())

		global, created, err := s.UpsertFilterOption(ctx, fk.ID, "Apple", "", nil)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "Apple", global.DisplayValue)

		again, created, err := s.UpsertFilterOption(ctx, fk.ID, "Apple", "Apple Inc.", nil)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, global.ID, again.ID)

		scoped, created, err := s.UpsertFilterOption(ctx, fk.ID, "Apple", "", &laptops)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, global.ID, scoped.ID)

		onlyGlobal, err := s.ListFilterOptions(ctx, OptionQuery{Scope: ScopeGlobal})
		require.NoError(t, err)
		require.Len(t, onlyGlobal, 1)
		assert.Nil(t, onlyGlobal[0].CategoryID)

		both, err := s.ListFilterOptions(ctx, OptionQuery{Scope: ScopeGlobalOrCategory, CategoryID: &laptops})
		require.NoError(t, err)
		assert.Len(t, both, 2)

		other := uuid.Must(uuid.NewV7())
		none, err := s.ListFilterOptions(ctx, OptionQuery{Scope: ScopeCategory, CategoryID: &other})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("ProductFilterValueLastWriteWins", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		fk, _, err := s.UpsertFilterKey(ctx, "ram", "RAM", models.DataTypeString, 20)
		require.NoError(t, err)
		p := &models.Product{Name: "Laptop", Price: 1000, Status: models.ProductStatusActive}
		require.NoError(t, s.CreateProduct(ctx, p))

		n8, n16 := 8.0, 16.0
		require.NoError(t, s.UpsertProductFilterValue(ctx, models.ProductFilterValue{ProductID: p.ID, FilterKeyID: fk.ID, RawValue: "8", NumericValue: &n8}))
		require.NoError(t, s.UpsertProductFilterValue(ctx, models.ProductFilterValue{ProductID: p.ID, FilterKeyID: fk.ID, RawValue: "16", NumericValue: &n16}))

		got, total, err := s.QueryProductsByFacets(ctx, FacetQuery{
			Discrete: []DiscreteClause{{FilterKeyID: fk.ID, Values: []string{"16"}}},
		})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, got, 1)

		_, total, err = s.QueryProductsByFacets(ctx, FacetQuery{
			Discrete: []DiscreteClause{{FilterKeyID: fk.ID, Values: []string{"8"}}},
		})
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)

		require.NoError(t, s.PruneProductFilterValues(ctx, p.ID, nil))
		_, total, err = s.QueryProductsByFacets(ctx, FacetQuery{
			Discrete: []DiscreteClause{{FilterKeyID: fk.ID, Values: []string{"16"}}},
		})
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)
	})

	t.Run("QueryProductsByFacets", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		brand, _, err := s.UpsertFilterKey(ctx, "brand", "Brand", models.DataTypeString, 10)
		require.NoError(t, err)
		screen, _, err := s.UpsertFilterKey(ctx, "screen_size", "Screen Size", models.DataTypeRange, 60)
		require.NoError(t, err)

		add := func(name string, price float64, status, brandValue string, inches float64) models.Product {
			p := &models.Product{Name: name, Price: price, Status: status}
			require.NoError(t, s.CreateProduct(ctx, p))
			require.NoError(t, s.UpsertProductFilterValue(ctx, models.ProductFilterValue{ProductID: p.ID, FilterKeyID: brand.ID, RawValue: brandValue}))
			require.NoError(t, s.UpsertProductFilterValue(ctx, models.ProductFilterValue{ProductID: p.ID, FilterKeyID: screen.ID, RawValue: "", NumericValue: &inches}))
			return *p
		}
		a := add("Alpha", 600, models.ProductStatusActive, "Apple", 13.3)
		b := add("Bravo", 1200, models.ProductStatusActive, "Dell", 15.6)
		c := add("Charlie", 1800, models.ProductStatusActive, "Apple", 16)
		add("Draft", 900, models.ProductStatusDraft, "Apple", 14)

		got, total, err := s.QueryProductsByFacets(ctx, FacetQuery{Sort: SortPrice, Asc: true})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID}, productIDs(got))

		lo, hi := 1000.0, 2000.0
		got, _, err = s.QueryProductsByFacets(ctx, FacetQuery{
			Discrete: []DiscreteClause{{FilterKeyID: brand.ID, Values: []string{"Apple", "Dell"}}},
			Ranges:   []RangeClause{{OnPrice: true, Intervals: []Interval{{Min: &lo, Max: &hi}}}},
			Sort:     SortPrice,
			Asc:      true,
		})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{b.ID, c.ID}, productIDs(got))

		bigScreen := 15.0
		got, _, err = s.QueryProductsByFacets(ctx, FacetQuery{
			Discrete: []DiscreteClause{{FilterKeyID: brand.ID, Values: []string{"Apple"}}},
			Ranges:   []RangeClause{{FilterKeyID: screen.ID, Intervals: []Interval{{Min: &bigScreen}}}},
		})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{c.ID}, productIDs(got))

		got, total, err = s.QueryProductsByFacets(ctx, FacetQuery{Sort: SortName, Asc: false, Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Equal(t, []uuid.UUID{b.ID}, productIDs(got))
	})

	t.Run("ProductLifecycle", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		p := &models.Product{
			Name:   "Laptop",
			Price:  1500,
			Status: models.ProductStatusActive,
			Specs:  datatypes.JSON(`[{"label":"RAM","value":"16GB"}]`),
		}
		require.NoError(t, s.CreateProduct(ctx, p))

		name := "Laptop Pro"
		updated, err := s.UpdateProduct(ctx, p.ID, ProductPatch{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Laptop Pro", updated.Name)
		assert.JSONEq(t, `[{"label":"RAM","value":"16GB"}]`, string(updated.Specs))

		pr, err := s.PriceRange(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.PriceRangeData{Min: 1500, Max: 1500}, pr)

		var scanned int
		require.NoError(t, s.ListActiveProducts(ctx, 10, func(batch []models.Product) error {
			scanned += len(batch)
			return nil
		}))
		assert.Equal(t, 1, scanned)

		require.NoError(t, s.DeleteProduct(ctx, p.ID))
		_, err = s.GetProduct(ctx, p.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.ErrorIs(t, s.DeleteProduct(ctx, p.ID), apperrors.ErrNotFound)

		scanned = 0
		require.NoError(t, s.ListActiveProducts(ctx, 10, func(batch []models.Product) error {
			scanned += len(batch)
			return nil
		}))
		assert.Zero(t, scanned)
	})

	t.Run("AdminWritesReportConflicts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		fk := &models.FilterKey{Key: "color", Label: "Color", DataType: models.DataTypeString, IsActive: true, Order: 5}
		require.NoError(t, s.CreateFilterKey(ctx, fk))
		dup := &models.FilterKey{Key: "color", Label: "Colour", DataType: models.DataTypeString, IsActive: true}
		assert.ErrorIs(t, s.CreateFilterKey(ctx, dup), apperrors.ErrConflict)

		inactive := false
		updated, err := s.UpdateFilterKey(ctx, fk.ID, FilterKeyPatch{IsActive: &inactive})
		require.NoError(t, err)
		assert.False(t, updated.IsActive)

		active, err := s.ListFilterKeys(ctx, true)
		require.NoError(t, err)
		assert.Empty(t, active)

		red := &models.FilterOption{FilterKeyID: fk.ID, Value: "red", DisplayValue: "Red", IsActive: true}
		blue := &models.FilterOption{FilterKeyID: fk.ID, Value: "blue", DisplayValue: "Blue", IsActive: true}
		require.NoError(t, s.CreateFilterOption(ctx, red))
		require.NoError(t, s.CreateFilterOption(ctx, blue))

		value := "red"
		_, err = s.UpdateFilterOption(ctx, blue.ID, FilterOptionPatch{Value: &value})
		assert.ErrorIs(t, err, apperrors.ErrConflict)

		category := uuid.Must(uuid.NewV7())
		moved, err := s.UpdateFilterOption(ctx, blue.ID, FilterOptionPatch{Value: &value, SetCategory: true, CategoryID: &category})
		require.NoError(t, err)
		require.NotNil(t, moved.CategoryID)
		assert.Equal(t, category, *moved.CategoryID)

		_, err = s.GetFilterOption(ctx, uuid.Must(uuid.NewV7()))
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func productIDs(products []models.Product) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}
