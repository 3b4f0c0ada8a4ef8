package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/cache"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/metrics"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/store"
)

func optionValues(k models.FilterKey) []string {
	out := make([]string, 0, len(k.Options))
	for _, o := range k.Options {
		out = append(out, o.Value)
	}
	return out
}

func filterBySlug(t *testing.T, md *models.FilterMetadata, slug string) models.FilterKey {
	t.Helper()
	for _, f := range md.Filters {
		if f.Key == slug {
			return f
		}
	}
	t.Fatalf("filter %q missing from metadata", slug)
	return models.FilterKey{}
}

func seedMetadataCatalog(t *testing.T) (*store.MemoryStore, models.Category) {
	t.Helper()
	st := store.NewMemoryStore()
	laptops := st.AddCategory(models.Category{Name: "Laptops"})
	addProduct(t, st, "A", 999, nil, `[{"label":"Brand","value":"Dell"},{"label":"RAM","value":"16GB"}]`, "")
	addProduct(t, st, "B", 499, nil, `[{"label":"Brand","value":"Acer"},{"label":"RAM","value":"8GB"}]`, "")
	addProduct(t, st, "C", 2499, &laptops.ID, `[{"label":"Brand","value":"Apple"},{"label":"RAM","value":"64GB"}]`, "")
	_, err := NewSyncService(st, nil, nil, SyncConfig{}).SyncFilterOptionsFromProducts(context.Background())
	require.NoError(t, err)
	return st, laptops
}

func TestGetFilterMetadata_GlobalScope(t *testing.T) {
	st, _ := seedMetadataCatalog(t)
	svc := NewMetadataService(st, nil, nil)

	md, err := svc.GetFilterMetadata(context.Background(), nil)
	require.NoError(t, err)

	assert.Nil(t, md.CategoryID)
	require.Len(t, md.Filters, 2)
	assert.Equal(t, "brand", md.Filters[0].Key, "keys follow display order")
	assert.Equal(t, "ram", md.Filters[1].Key)

	assert.Equal(t, []string{"Acer", "Dell"}, optionValues(filterBySlug(t, md, "brand")))
	assert.Equal(t, []string{"8", "16"}, optionValues(filterBySlug(t, md, "ram")), "numeric values sort numerically")

	require.NotNil(t, md.PriceRange)
	assert.Equal(t, 499.0, md.PriceRange.Min)
	assert.Equal(t, 2499.0, md.PriceRange.Max)
}

func TestGetFilterMetadata_CategoryScope(t *testing.T) {
	st, laptops := seedMetadataCatalog(t)
	svc := NewMetadataService(st, nil, nil)

	md, err := svc.GetFilterMetadata(context.Background(), &laptops.ID)
	require.NoError(t, err)

	require.NotNil(t, md.CategoryID)
	assert.Equal(t, laptops.ID.String(), *md.CategoryID)
	assert.Equal(t, []string{"Acer", "Apple", "Dell"}, optionValues(filterBySlug(t, md, "brand")))
	assert.Equal(t, []string{"8", "16", "64"}, optionValues(filterBySlug(t, md, "ram")))
}

func TestGetFilterMetadata_HidesInactiveKeysAndOptions(t *testing.T) {
	ctx := context.Background()
	st, _ := seedMetadataCatalog(t)
	svc := NewMetadataService(st, nil, nil)

	ram := keyBySlug(t, st, "ram")
	inactive := false
	_, err := st.UpdateFilterKey(ctx, ram.ID, store.FilterKeyPatch{IsActive: &inactive})
	require.NoError(t, err)

	brand := keyBySlug(t, st, "brand")
	opts, err := st.ListFilterOptions(ctx, store.OptionQuery{FilterKeyIDs: []uuid.UUID{brand.ID}, Scope: store.ScopeGlobal})
	require.NoError(t, err)
	require.NotEmpty(t, opts)
	_, err = st.UpdateFilterOption(ctx, opts[0].ID, store.FilterOptionPatch{IsActive: &inactive})
	require.NoError(t, err)

	md, err := svc.GetFilterMetadata(ctx, nil)
	require.NoError(t, err)
	require.Len(t, md.Filters, 1)
	assert.Len(t, md.Filters[0].Options, 1)
}

func TestGetFilterMetadata_EmptyCatalog(t *testing.T) {
	svc := NewMetadataService(store.NewMemoryStore(), nil, nil)

	md, err := svc.GetFilterMetadata(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, md.Filters)
	assert.Empty(t, md.Filters)
	assert.Equal(t, models.PriceRangeData{}, *md.PriceRange)
}

func TestGetFilterMetadata_KeyWithoutOptions(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	_, _, err := st.UpsertFilterKey(ctx, "color", "Color", models.DataTypeString, 5)
	require.NoError(t, err)

	md, err := NewMetadataService(st, nil, nil).GetFilterMetadata(ctx, nil)
	require.NoError(t, err)
	require.Len(t, md.Filters, 1)
	assert.NotNil(t, md.Filters[0].Options)
	assert.Empty(t, md.Filters[0].Options)
}

func TestGetFilterMetadata_ServesFromCache(t *testing.T) {
	ctx := context.Background()
	st, _ := seedMetadataCatalog(t)
	m := metrics.New(nil)
	c := cache.NewMemoryCache(0)
	svc := NewMetadataService(st, c, m)

	first, err := svc.GetFilterMetadata(ctx, nil)
	require.NoError(t, err)

	_, _, err = st.UpsertFilterKey(ctx, "color", "Color", models.DataTypeString, 1)
	require.NoError(t, err)

	second, err := svc.GetFilterMetadata(ctx, nil)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MetadataCacheTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MetadataCacheTotal.WithLabelValues("miss")))

	require.NoError(t, c.Invalidate(ctx))
	third, err := svc.GetFilterMetadata(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, third.Filters, 3)
}

func TestGetFilterMetadata_ConcurrentCallers(t *testing.T) {
	st, _ := seedMetadataCatalog(t)
	svc := NewMetadataService(st, cache.NewMemoryCache(0), nil)

	var wg sync.WaitGroup
	results := make([]*models.FilterMetadata, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			md, err := svc.GetFilterMetadata(context.Background(), nil)
			assert.NoError(t, err)
			results[i] = md
		}(i)
	}
	wg.Wait()
	for _, md := range results {
		require.NotNil(t, md)
		assert.Len(t, md.Filters, 2)
	}
}

func TestSortOptions(t *testing.T) {
	cat := uuid.Must(uuid.NewV7())
	opts := []models.FilterOption{
		{Value: "Intel"},
		{Value: "128"},
		{Value: "16", CategoryID: &cat},
		{Value: "AMD"},
		{Value: "16"},
		{Value: "6.1"},
	}
	SortOptions(opts)

	got := make([]string, 0, len(opts))
	for _, o := range opts {
		got = append(got, o.Value)
	}
	assert.Equal(t, []string{"6.1", "16", "16", "128", "AMD", "Intel"}, got)
	assert.Nil(t, opts[1].CategoryID, "global option precedes the scoped one")
	assert.NotNil(t, opts[2].CategoryID)
}
