package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/metrics"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWT(t *testing.T) *services.JWTService {
	t.Helper()
	svc, err := services.NewJWTService("test-secret", time.Hour)
	require.NoError(t, err)
	return svc
}

func authRouter(verifier TokenVerifier, roles ...string) *gin.Engine {
	r := gin.New()
	r.GET("/admin/ping", AdminAuth(verifier, roles...), func(c *gin.Context) {
		id, _ := GetAdminIDFromContext(c)
		c.String(http.StatusOK, id)
	})
	return r
}

func TestAdminAuth(t *testing.T) {
	jwtSvc := newJWT(t)
	adminID := uuid.Must(uuid.NewV7()).String()
	adminToken, err := jwtSvc.GenerateAdminJWT(adminID, "ops@modeva.io", services.RoleAdmin)
	require.NoError(t, err)
	editorToken, err := jwtSvc.GenerateAdminJWT(adminID, "ed@modeva.io", services.RoleEditor)
	require.NoError(t, err)

	other, err := services.NewJWTService("other-secret", time.Hour)
	require.NoError(t, err)
	forged, err := other.GenerateAdminJWT(adminID, "ops@modeva.io", services.RoleSuperAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{name: "missing token", want: http.StatusUnauthorized},
		{name: "malformed header", header: "Token " + adminToken, want: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + forged, want: http.StatusUnauthorized},
		{name: "bearer header", header: "Bearer " + adminToken, want: http.StatusOK},
		{name: "cookie", cookie: adminToken, want: http.StatusOK},
		{name: "role not allowed", header: "Bearer " + editorToken, want: http.StatusForbidden},
	}
	r := authRouter(jwtSvc, services.RoleSuperAdmin, services.RoleAdmin)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "admin_token", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, adminID, w.Body.String())
			}
		})
	}
}

func TestAdminAuth_AnyRoleWhenNoneRequired(t *testing.T) {
	jwtSvc := newJWT(t)
	token, err := jwtSvc.GenerateAdminJWT("a1", "ed@modeva.io", services.RoleEditor)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "bearer "+token)
	w := httptest.NewRecorder()
	authRouter(jwtSvc).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExtractResourceType(t *testing.T) {
	assert.Equal(t, "filter_key", extractResourceType("/api/v1/filter/admin/keys/018d"))
	assert.Equal(t, "filter_option", extractResourceType("/api/v1/filter/admin/018d"))
	assert.Equal(t, "product", extractResourceType("/api/v1/admin/products/1"))
	assert.Equal(t, "filter_sync", extractResourceType("/api/v1/filter/sync"))
	assert.Empty(t, extractResourceType("/api/v1/health"))
}

type recordedActivity struct {
	entries []models.ActivityLog
}

func (r *recordedActivity) RecordActivity(_ context.Context, e *models.ActivityLog) error {
	r.entries = append(r.entries, *e)
	return nil
}

func TestAuditLog_RecordsAdminWrites(t *testing.T) {
	rec := &recordedActivity{}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ctxAdminID, "a-1")
		c.Set(ctxAdminEmail, "ops@modeva.io")
		c.Next()
	}, AuditLog(rec))
	r.POST("/api/v1/filter/sync", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.DELETE("/api/v1/filter/admin/keys/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/api/v1/filter/admin/keys", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/api/v1/filter/sync", nil),
		httptest.NewRequest(http.MethodDelete, "/api/v1/filter/admin/keys/k-9", nil),
		httptest.NewRequest(http.MethodGet, "/api/v1/filter/admin/keys", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Len(t, rec.entries, 2, "reads are not audited")
	assert.Equal(t, models.ActionRunFilterSync, rec.entries[0].Action)
	assert.Equal(t, models.StatusSuccess, rec.entries[0].Status)
	assert.Equal(t, "a-1", rec.entries[0].AdminID)

	assert.Equal(t, "deleted_filter_key", rec.entries[1].Action)
	assert.Equal(t, "k-9", rec.entries[1].ResourceID)
	assert.Equal(t, http.StatusNotFound, rec.entries[1].HTTPStatus)
	assert.Equal(t, models.StatusFailed, rec.entries[1].Status)
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	m := metrics.New(nil)
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/products/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/"+id, nil))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/products/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsInFlight))
}

func TestRateLimiter_DisabledWithoutRedis(t *testing.T) {
	r := gin.New()
	r.GET("/x", RateLimiter(nil, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_Redis(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	route := "/limited-" + uuid.NewString()
	r := gin.New()
	r.GET(route, RateLimiter(client, 2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
	t.Cleanup(func() {
		keys, _ := client.Keys(context.Background(), "rl:*"+route+"*").Result()
		if len(keys) > 0 {
			client.Del(context.Background(), keys...)
		}
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, route, nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
