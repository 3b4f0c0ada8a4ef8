package filter_controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/cache"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/controllers/filter_controller"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/controllers/product_controller"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/middleware"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/routes/cms_routes"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/routes/ecommerce_routes"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/services"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Error     bool            `json:"error"`
	ErrorKind string          `json:"error_kind"`
}

type testServer struct {
	router *gin.Engine
	store  *store.MemoryStore
}

func newTestServer(t *testing.T, protected ...gin.HandlerFunc) *testServer {
	t.Helper()
	st := store.NewMemoryStore()
	mdCache := cache.NewMemoryCache(time.Minute)

	syncSvc := services.NewSyncService(st, mdCache, nil, services.SyncConfig{})
	h := filter_controller.NewHandler(
		services.NewMetadataService(st, mdCache, nil),
		syncSvc,
		services.NewFilterAdminService(st, mdCache),
	)
	products := product_controller.NewHandler(
		services.NewSearchService(st, nil),
		services.NewProductService(st, services.InlineNotifier{Sync: syncSvc}),
	)

	r := gin.New()
	api := r.Group("/api/v1")
	ecommerce_routes.SetupStorefrontRoutes(api, h, products)
	cms_routes.SetupFilterRoutes(api, h, protected...)
	return &testServer{router: r, store: st}
}

func (s *testServer) do(t *testing.T, method, path string, body any, header ...string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (s *testServer) addProduct(t *testing.T, name string, price float64, specs string) {
	t.Helper()
	require.NoError(t, s.store.CreateProduct(context.Background(), &models.Product{
		Name:   name,
		Price:  price,
		Status: models.ProductStatusActive,
		Specs:  datatypes.JSON(specs),
	}))
}

func TestSyncThenFilterMetadata(t *testing.T) {
	srv := newTestServer(t)
	srv.addProduct(t, "XPS 15", 1899, `[{"label":"Brand","value":"Dell"},{"label":"RAM","value":"16GB"}]`)
	srv.addProduct(t, "Swift 3", 649, `[{"label":"Brand","value":"Acer"},{"label":"RAM","value":"8GB"}]`)

	code, env := srv.do(t, http.MethodGet, "/api/v1/filter", nil)
	require.Equal(t, http.StatusOK, code)
	md := decode[models.FilterMetadata](t, env.Data)
	assert.Empty(t, md.Filters, "nothing synchronized yet")

	code, env = srv.do(t, http.MethodPost, "/api/v1/filter/sync", nil)
	require.Equal(t, http.StatusOK, code)
	report := decode[models.SyncReport](t, env.Data)
	assert.Equal(t, 4, report.Created)
	assert.Equal(t, 2, report.ProductsScanned)

	code, env = srv.do(t, http.MethodGet, "/api/v1/filter", nil)
	require.Equal(t, http.StatusOK, code)
	md = decode[models.FilterMetadata](t, env.Data)
	require.Len(t, md.Filters, 2)
	assert.Equal(t, "brand", md.Filters[0].Key)
	require.Len(t, md.Filters[0].Options, 2)
	assert.Equal(t, "Acer", md.Filters[0].Options[0].Value)
	assert.Equal(t, "ram", md.Filters[1].Key)
	assert.Equal(t, "8", md.Filters[1].Options[0].Value)
	assert.Equal(t, "8GB", md.Filters[1].Options[0].DisplayValue)
	require.NotNil(t, md.PriceRange)
	assert.Equal(t, 649.0, md.PriceRange.Min)
	assert.Equal(t, 1899.0, md.PriceRange.Max)

	code, env = srv.do(t, http.MethodPost, "/api/v1/filter/sync", nil)
	require.Equal(t, http.StatusOK, code)
	report = decode[models.SyncReport](t, env.Data)
	assert.Zero(t, report.Created, "second run is a no-op")
}

func TestGetFilterMetadata_InvalidCategory(t *testing.T) {
	srv := newTestServer(t)

	code, env := srv.do(t, http.MethodGet, "/api/v1/filter?categoryId=laptops", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.True(t, env.Error)
	assert.Equal(t, "validation", env.ErrorKind)
}

func TestFilterKeyCRUD(t *testing.T) {
	srv := newTestServer(t)

	code, env := srv.do(t, http.MethodPost, "/api/v1/filter/admin/keys", gin.H{"key": "color", "label": "Color"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	created := decode[models.FilterKey](t, env.Data)
	assert.Equal(t, "color", created.Key)
	assert.True(t, created.IsActive)

	code, env = srv.do(t, http.MethodPost, "/api/v1/filter/admin/keys", gin.H{"key": "color", "label": "Colour"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "conflict", env.ErrorKind)

	code, env = srv.do(t, http.MethodPost, "/api/v1/filter/admin/keys", gin.H{"key": "Screen Size", "label": "Screen"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation", env.ErrorKind)

	path := "/api/v1/filter/admin/keys/" + created.ID.String()
	code, env = srv.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Color", decode[models.FilterKey](t, env.Data).Label)

	code, env = srv.do(t, http.MethodPut, path, gin.H{"label": "Colour", "order": 5})
	require.Equal(t, http.StatusOK, code)
	updated := decode[models.FilterKey](t, env.Data)
	assert.Equal(t, "Colour", updated.Label)
	assert.Equal(t, 5, updated.Order)

	code, env = srv.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, decode[models.FilterKey](t, env.Data).IsActive)

	code, env = srv.do(t, http.MethodGet, "/api/v1/filter/admin/keys", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]models.FilterKey](t, env.Data))

	code, env = srv.do(t, http.MethodGet, "/api/v1/filter/admin/keys?includeInactive=true", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.FilterKey](t, env.Data), 1)
}

func TestFilterKey_BadAndUnknownIDs(t *testing.T) {
	srv := newTestServer(t)

	code, env := srv.do(t, http.MethodGet, "/api/v1/filter/admin/keys/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation", env.ErrorKind)

	code, env = srv.do(t, http.MethodGet, "/api/v1/filter/admin/keys/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", env.ErrorKind)

	code, _ = srv.do(t, http.MethodPut, "/api/v1/filter/admin/keys/"+uuid.NewString(), gin.H{"label": "X"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestFilterOptionCRUD(t *testing.T) {
	srv := newTestServer(t)
	laptops := srv.store.AddCategory(models.Category{Name: "Laptops"})

	_, env := srv.do(t, http.MethodPost, "/api/v1/filter/admin/keys", gin.H{"key": "color", "label": "Color"})
	color := decode[models.FilterKey](t, env.Data)

	code, env := srv.do(t, http.MethodPost, "/api/v1/filter/admin", gin.H{"filter_key_id": color.ID, "value": "Red"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	red := decode[models.FilterOption](t, env.Data)
	assert.Equal(t, "Red", red.DisplayValue)
	assert.Nil(t, red.CategoryID)

	code, _ = srv.do(t, http.MethodPost, "/api/v1/filter/admin", gin.H{"filter_key_id": color.ID, "value": "Red"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = srv.do(t, http.MethodPost, "/api/v1/filter/admin", gin.H{"filter_key_id": color.ID, "value": "Red", "category_id": laptops.ID})
	assert.Equal(t, http.StatusCreated, code, "same value in another scope")

	code, _ = srv.do(t, http.MethodPost, "/api/v1/filter/admin", gin.H{"value": "Blue"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = srv.do(t, http.MethodGet, "/api/v1/filter/admin?filterKeyId="+color.ID.String(), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.FilterOption](t, env.Data), 2)

	code, env = srv.do(t, http.MethodGet, "/api/v1/filter/admin?categoryId="+laptops.ID.String(), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.FilterOption](t, env.Data), 1)

	code, _ = srv.do(t, http.MethodGet, "/api/v1/filter/admin?filterKeyId=red", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	path := "/api/v1/filter/admin/" + red.ID.String()
	code, env = srv.do(t, http.MethodPut, path, gin.H{"display_value": "Crimson"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Crimson", decode[models.FilterOption](t, env.Data).DisplayValue)

	code, env = srv.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, decode[models.FilterOption](t, env.Data).IsActive)

	code, env = srv.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, decode[models.FilterOption](t, env.Data).IsActive)
}

func TestOptionWritesRefreshMetadata(t *testing.T) {
	srv := newTestServer(t)
	_, env := srv.do(t, http.MethodPost, "/api/v1/filter/admin/keys", gin.H{"key": "color", "label": "Color"})
	color := decode[models.FilterKey](t, env.Data)

	_, env = srv.do(t, http.MethodGet, "/api/v1/filter", nil)
	md := decode[models.FilterMetadata](t, env.Data)
	require.Len(t, md.Filters, 1)
	assert.Empty(t, md.Filters[0].Options)

	code, _ := srv.do(t, http.MethodPost, "/api/v1/filter/admin", gin.H{"filter_key_id": color.ID, "value": "Red"})
	require.Equal(t, http.StatusCreated, code)

	_, env = srv.do(t, http.MethodGet, "/api/v1/filter", nil)
	md = decode[models.FilterMetadata](t, env.Data)
	require.Len(t, md.Filters, 1)
	require.Len(t, md.Filters[0].Options, 1)
	assert.Equal(t, "Red", md.Filters[0].Options[0].Value)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	jwtSvc, err := services.NewJWTService("test-secret", time.Hour)
	require.NoError(t, err)
	srv := newTestServer(t, middleware.AdminAuth(jwtSvc), middleware.AuditLog(nil))

	code, env := srv.do(t, http.MethodPost, "/api/v1/filter/sync", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.True(t, env.Error)

	code, _ = srv.do(t, http.MethodGet, "/api/v1/filter", nil)
	assert.Equal(t, http.StatusOK, code, "storefront stays public")

	token, err := jwtSvc.GenerateAdminJWT(uuid.NewString(), "ops@modeva.io", services.RoleAdmin)
	require.NoError(t, err)
	code, _ = srv.do(t, http.MethodPost, "/api/v1/filter/sync", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, code)
}
