package services

import (
	"context"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/apperrors"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/store"
)

// searchFixture syncs P1(apple, 8GB, 600), P2(samsung, 16GB, 1200) and
// P3(apple, 16GB, 1800).
type searchFixture struct {
	st         *store.MemoryStore
	svc        *SearchService
	p1, p2, p3 models.Product
}

func newSearchFixture(t *testing.T) searchFixture {
	t.Helper()
	st := store.NewMemoryStore()
	f := searchFixture{st: st, svc: NewSearchService(st, nil)}
	f.p1 = addProduct(t, st, "P1", 600, nil, `[{"label":"Brand","value":"apple"},{"label":"RAM","value":"8GB"}]`, "")
	f.p2 = addProduct(t, st, "P2", 1200, nil, `[{"label":"Brand","value":"samsung"},{"label":"RAM","value":"16GB"}]`, "")
	f.p3 = addProduct(t, st, "P3", 1800, nil, `[{"label":"Brand","value":"apple"},{"label":"RAM","value":"16GB"}]`, "")
	_, err := NewSyncService(st, nil, nil, SyncConfig{}).SyncFilterOptionsFromProducts(context.Background())
	require.NoError(t, err)
	return f
}

func (f searchFixture) search(t *testing.T, rawQuery string) []uuid.UUID {
	t.Helper()
	params, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)
	res, err := f.svc.SearchProducts(context.Background(), SearchRequest{Params: params, SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(res.Products))
	for _, p := range res.Products {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestSearchProducts_AndAcrossKeysOrWithinKey(t *testing.T) {
	f := newSearchFixture(t)

	tests := []struct {
		query string
		want  []uuid.UUID
	}{
		{"brand=apple", []uuid.UUID{f.p1.ID, f.p3.ID}},
		{"brand=apple,samsung", []uuid.UUID{f.p1.ID, f.p2.ID, f.p3.ID}},
		{"brand=apple&ram=16", []uuid.UUID{f.p3.ID}},
		{"brand=apple,samsung&ram=8,16", []uuid.UUID{f.p1.ID, f.p2.ID, f.p3.ID}},
		{"brand=apple&brand=samsung", []uuid.UUID{f.p1.ID, f.p2.ID, f.p3.ID}},
		{"brand=Apple", []uuid.UUID{}},
		{"ram=8GB", []uuid.UUID{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, f.search(t, tt.query))
		})
	}
}

func TestSearchProducts_PriceRanges(t *testing.T) {
	f := newSearchFixture(t)

	tests := []struct {
		query string
		want  []uuid.UUID
	}{
		{"price_range=500-1000,1500-2000", []uuid.UUID{f.p1.ID, f.p3.ID}},
		{"price_range=1000-", []uuid.UUID{f.p2.ID, f.p3.ID}},
		{"price_range=-600", []uuid.UUID{f.p1.ID}},
		{"price_range=600-1200", []uuid.UUID{f.p1.ID, f.p2.ID}},
		{"price_range=500-1000,1500-2000&brand=apple,samsung", []uuid.UUID{f.p1.ID, f.p3.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, f.search(t, tt.query))
		})
	}
}

func TestSearchProducts_EmptyAndUnknownParameters(t *testing.T) {
	f := newSearchFixture(t)
	all := []uuid.UUID{f.p1.ID, f.p2.ID, f.p3.ID}

	assert.Equal(t, all, f.search(t, ""))
	assert.Equal(t, all, f.search(t, "color=red&sortBy=price"))
	assert.Equal(t, []uuid.UUID{f.p1.ID, f.p3.ID}, f.search(t, "page=2&limit=20&brand=apple"))
}

func TestSearchProducts_IgnoresInactiveKeys(t *testing.T) {
	f := newSearchFixture(t)
	brand := keyBySlug(t, f.st, "brand")
	inactive := false
	_, err := f.st.UpdateFilterKey(context.Background(), brand.ID, store.FilterKeyPatch{IsActive: &inactive})
	require.NoError(t, err)

	assert.Len(t, f.search(t, "brand=apple"), 3)
}

func TestSearchProducts_RangeTypedKey(t *testing.T) {
	f := newSearchFixture(t)
	ram := keyBySlug(t, f.st, "ram")
	rangeType := models.DataTypeRange
	_, err := f.st.UpdateFilterKey(context.Background(), ram.ID, store.FilterKeyPatch{DataType: &rangeType})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{f.p2.ID, f.p3.ID}, f.search(t, "ram=12-"))
	assert.Equal(t, []uuid.UUID{f.p1.ID}, f.search(t, "ram=0-8"))
}

func TestSearchProducts_RejectsMalformedRanges(t *testing.T) {
	f := newSearchFixture(t)
	for _, q := range []string{"price_range=abc", "price_range=-", "price_range=2000-1000", "price_range=10-x"} {
		t.Run(q, func(t *testing.T) {
			params, err := url.ParseQuery(q)
			require.NoError(t, err)
			_, err = f.svc.SearchProducts(context.Background(), SearchRequest{Params: params})
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestSearchProducts_PaginationAndSort(t *testing.T) {
	f := newSearchFixture(t)
	ctx := context.Background()

	res, err := f.svc.SearchProducts(ctx, SearchRequest{Params: url.Values{}, Page: 2, Limit: 2, SortBy: "price", SortOrder: "desc"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Total)
	require.Len(t, res.Products, 1)
	assert.Equal(t, f.p1.ID, res.Products[0].ID)

	res, err = f.svc.SearchProducts(ctx, SearchRequest{Params: url.Values{"brand": {"apple"}}, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)
	assert.Equal(t, map[string][]string{"brand": {"apple"}}, res.AppliedFilters)
}

func TestSearchProducts_ExcludesDraftsAndCategoryScope(t *testing.T) {
	f := newSearchFixture(t)
	ctx := context.Background()
	draft := models.ProductStatusDraft
	_, err := f.st.UpdateProduct(ctx, f.p3.ID, store.ProductPatch{Status: &draft})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.p1.ID}, f.search(t, "brand=apple"))

	phones := f.st.AddCategory(models.Category{Name: "Phones"})
	_, err = f.st.UpdateProduct(ctx, f.p2.ID, store.ProductPatch{SetCategory: true, CategoryID: &phones.ID})
	require.NoError(t, err)
	res, err := f.svc.SearchProducts(ctx, SearchRequest{Params: url.Values{}, CategoryID: &phones.ID})
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
	assert.Equal(t, f.p2.ID, res.Products[0].ID)
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in       string
		min, max *float64
		wantErr  bool
	}{
		{in: "500-1000", min: ptr(500.0), max: ptr(1000.0)},
		{in: "1000-", min: ptr(1000.0)},
		{in: "-250", max: ptr(250.0)},
		{in: " 10.5 - 20 ", min: ptr(10.5), max: ptr(20.0)},
		{in: "100-100", min: ptr(100.0), max: ptr(100.0)},
		{in: "-", wantErr: true},
		{in: "100", wantErr: true},
		{in: "a-b", wantErr: true},
		{in: "NaN-", wantErr: true},
		{in: "200-100", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			iv, err := ParseInterval(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.min, iv.Min)
			assert.Equal(t, tt.max, iv.Max)
		})
	}
}

func TestParseFilterParams(t *testing.T) {
	brand := models.FilterKey{ID: uuid.Must(uuid.NewV7()), Key: "brand", DataType: models.DataTypeString, IsActive: true}
	hidden := models.FilterKey{ID: uuid.Must(uuid.NewV7()), Key: "color", DataType: models.DataTypeString, IsActive: false}
	keys := []models.FilterKey{brand, hidden}

	req, err := ParseFilterParams(url.Values{
		"brand":       {" apple , samsung,,apple", "dell"},
		"color":       {"red"},
		"page":        {"2"},
		"price_range": {"100-200"},
		"unknown":     {"x"},
	}, keys)
	require.NoError(t, err)
	require.Len(t, req.Filters, 2)

	assert.Equal(t, "brand", req.Filters[0].Key.Key)
	assert.Equal(t, []string{"apple", "samsung", "dell"}, req.Filters[0].Values)
	assert.Equal(t, "price_range", req.Filters[1].Key.Key)
	assert.True(t, req.Filters[1].OnPrice)

	assert.Equal(t, map[string][]string{
		"brand":       {"apple", "samsung", "dell"},
		"price_range": {"100-200"},
	}, req.Applied())

	q := BuildFacetQuery(req)
	require.Len(t, q.Discrete, 1)
	assert.Equal(t, brand.ID, q.Discrete[0].FilterKeyID)
	require.Len(t, q.Ranges, 1)
	assert.True(t, q.Ranges[0].OnPrice)
}

func TestParseSort(t *testing.T) {
	field, asc := ParseSort("price", "ASC")
	assert.Equal(t, store.SortPrice, field)
	assert.True(t, asc)

	field, asc = ParseSort("name", "")
	assert.Equal(t, store.SortName, field)
	assert.False(t, asc)

	field, asc = ParseSort("rating", "asc")
	assert.Equal(t, store.SortNewest, field)
	assert.False(t, asc)
}

func ptr[T any](v T) *T { return &v }
