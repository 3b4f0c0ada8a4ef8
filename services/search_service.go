package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/apperrors"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/metrics"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/store"
)

// reservedParams are pagination, sort and scoping parameters that are never
// interpreted as facets.
var reservedParams = map[string]bool{
	"page":       true,
	"limit":      true,
	"sort":       true,
	"sortBy":     true,
	"sortOrder":  true,
	"q":          true,
	"categoryId": true,
}

// FacetFilter is one parsed facet parameter. Exactly one of Values and
// Intervals is set.
type FacetFilter struct {
	Key       models.FilterKey
	Values    []string
	Intervals []store.Interval
	OnPrice   bool
}

// FilterRequest is the validated form of a storefront query string: one entry
// per recognized facet key, in key order.
type FilterRequest struct {
	Filters []FacetFilter
}

// Applied returns the recognized parameters and their normalized values.
func (r FilterRequest) Applied() map[string][]string {
	applied := make(map[string][]string, len(r.Filters))
	for _, f := range r.Filters {
		if f.Intervals != nil {
			rendered := make([]string, 0, len(f.Intervals))
			for _, iv := range f.Intervals {
				rendered = append(rendered, formatInterval(iv))
			}
			applied[f.Key.Key] = rendered
			continue
		}
		applied[f.Key.Key] = f.Values
	}
	return applied
}

// ParseFilterParams keeps the parameters that name an active filter key (or
// the built-in price_range) and parses their comma-separated alternatives.
// Unknown and reserved parameters are ignored. Range syntax errors fail the
// whole request with ErrValidation.
func ParseFilterParams(params url.Values, keys []models.FilterKey) (FilterRequest, error) {
	known := make(map[string]models.FilterKey, len(keys)+1)
	for _, k := range keys {
		if k.IsActive {
			known[k.Key] = k
		}
	}
	if _, ok := known[models.PriceRangeKey]; !ok {
		known[models.PriceRangeKey] = models.FilterKey{Key: models.PriceRangeKey, Label: "Price", DataType: models.DataTypeRange, IsActive: true}
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var req FilterRequest
	for _, name := range names {
		if reservedParams[name] {
			continue
		}
		key, ok := known[name]
		if !ok {
			continue
		}
		values := splitValues(params[name])
		if len(values) == 0 {
			continue
		}

		onPrice := key.Key == models.PriceRangeKey
		if onPrice || key.DataType == models.DataTypeRange {
			intervals := make([]store.Interval, 0, len(values))
			for _, v := range values {
				iv, err := ParseInterval(v)
				if err != nil {
					return FilterRequest{}, apperrors.Newf(apperrors.ErrValidation, "invalid %s value %q: %v", name, v, err)
				}
				intervals = append(intervals, iv)
			}
			req.Filters = append(req.Filters, FacetFilter{Key: key, Intervals: intervals, OnPrice: onPrice})
			continue
		}
		req.Filters = append(req.Filters, FacetFilter{Key: key, Values: values})
	}
	return req, nil
}

// splitValues merges repeated parameters, splits on commas, trims, and drops
// empties and duplicates while keeping first-seen order.
func splitValues(raw []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			v := strings.TrimSpace(part)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

var (
	errEmptyRange    = errors.New("range needs at least one bound")
	errRangeSyntax   = errors.New("expected <min>-<max>, <min>- or -<max>")
	errRangeInverted = errors.New("min is greater than max")
)

// ParseInterval parses "min-max", "min-" and "-max". Bounds are inclusive.
func ParseInterval(v string) (store.Interval, error) {
	idx := strings.Index(v, "-")
	if idx < 0 {
		return store.Interval{}, errRangeSyntax
	}
	lo, hi := strings.TrimSpace(v[:idx]), strings.TrimSpace(v[idx+1:])
	if lo == "" && hi == "" {
		return store.Interval{}, errEmptyRange
	}

	var iv store.Interval
	if lo != "" {
		n, err := parseBound(lo)
		if err != nil {
			return store.Interval{}, err
		}
		iv.Min = &n
	}
	if hi != "" {
		n, err := parseBound(hi)
		if err != nil {
			return store.Interval{}, err
		}
		iv.Max = &n
	}
	if iv.Min != nil && iv.Max != nil && *iv.Min > *iv.Max {
		return store.Interval{}, errRangeInverted
	}
	return iv, nil
}

func parseBound(s string) (float64, error) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("bound %q is not a number", s)
	}
	return n, nil
}

func formatInterval(iv store.Interval) string {
	var lo, hi string
	if iv.Min != nil {
		lo = strconv.FormatFloat(*iv.Min, 'f', -1, 64)
	}
	if iv.Max != nil {
		hi = strconv.FormatFloat(*iv.Max, 'f', -1, 64)
	}
	return lo + "-" + hi
}

// SearchRequest is a storefront product search. Limit 0 returns every match.
type SearchRequest struct {
	Params     url.Values
	CategoryID *uuid.UUID
	Page       int
	Limit      int
	SortBy     string
	SortOrder  string
}

type SearchResult struct {
	Products       []models.Product
	Total          int64
	AppliedFilters map[string][]string
}

// SearchService evaluates faceted product searches.
type SearchService struct {
	store   store.Store
	metrics *metrics.Metrics
	log     *zerolog.Logger
}

func NewSearchService(st store.Store, m *metrics.Metrics) *SearchService {
	if m == nil {
		m = metrics.New(nil)
	}
	return &SearchService{
		store:   st,
		metrics: m,
		log:     logger.WithComponent("product-search"),
	}
}

// SearchProducts returns the Active products matching every facet filter (AND
// across keys, OR within a key). No filters returns the whole active catalog.
func (s *SearchService) SearchProducts(ctx context.Context, req SearchRequest) (SearchResult, error) {
	start := time.Now()
	defer func() { s.metrics.SearchLatency.Observe(time.Since(start).Seconds()) }()

	keys, err := s.store.ListFilterKeys(ctx, true)
	if err != nil {
		s.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
		return SearchResult{}, err
	}
	filters, err := ParseFilterParams(req.Params, keys)
	if err != nil {
		s.metrics.SearchQueriesTotal.WithLabelValues("invalid").Inc()
		return SearchResult{}, err
	}

	q := BuildFacetQuery(filters)
	q.CategoryID = req.CategoryID
	q.Sort, q.Asc = ParseSort(req.SortBy, req.SortOrder)
	if req.Limit > 0 {
		page := req.Page
		if page < 1 {
			page = 1
		}
		q.Limit = req.Limit
		q.Offset = (page - 1) * req.Limit
	}

	products, total, err := s.store.QueryProductsByFacets(ctx, q)
	if err != nil {
		s.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Msg("faceted product query failed")
		return SearchResult{}, err
	}

	if total == 0 {
		s.metrics.SearchQueriesTotal.WithLabelValues("zero_result").Inc()
	} else {
		s.metrics.SearchQueriesTotal.WithLabelValues("hit").Inc()
	}
	s.log.Debug().Int("facets", len(filters.Filters)).Int64("total", total).Msg("product search")
	return SearchResult{Products: products, Total: total, AppliedFilters: filters.Applied()}, nil
}

// BuildFacetQuery translates parsed filters into the store's conjunction of
// disjunctions.
func BuildFacetQuery(req FilterRequest) store.FacetQuery {
	var q store.FacetQuery
	for _, f := range req.Filters {
		if f.Intervals != nil {
			q.Ranges = append(q.Ranges, store.RangeClause{FilterKeyID: f.Key.ID, OnPrice: f.OnPrice, Intervals: f.Intervals})
			continue
		}
		q.Discrete = append(q.Discrete, store.DiscreteClause{FilterKeyID: f.Key.ID, Values: f.Values})
	}
	return q
}

// ParseSort maps sortBy/sortOrder onto a sort field. Unknown fields fall back
// to newest first.
func ParseSort(sortBy, sortOrder string) (store.SortField, bool) {
	asc := strings.EqualFold(sortOrder, "asc")
	switch store.SortField(sortBy) {
	case store.SortPrice:
		return store.SortPrice, asc
	case store.SortName:
		return store.SortName, asc
	case store.SortNewest:
		return store.SortNewest, asc
	}
	return store.SortNewest, false
}
