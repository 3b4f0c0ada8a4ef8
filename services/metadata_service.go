package services

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/cache"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/metrics"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/normalizer"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/store"
)

// MetadataService assembles the storefront facet panel.
type MetadataService struct {
	store   store.Store
	cache   cache.MetadataCache
	metrics *metrics.Metrics
	group   singleflight.Group
	log     *zerolog.Logger
}

func NewMetadataService(st store.Store, c cache.MetadataCache, m *metrics.Metrics) *MetadataService {
	if c == nil {
		c = cache.Disabled{}
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &MetadataService{
		store:   st,
		cache:   c,
		metrics: m,
		log:     logger.WithComponent("filter-metadata"),
	}
}

// GetFilterMetadata returns the active filter keys ordered by display order,
// each with its active options. With a category the options are the global
// ones plus that category's; without one only global options are returned.
// The returned value may be shared with other callers and must not be mutated.
func (s *MetadataService) GetFilterMetadata(ctx context.Context, categoryID *uuid.UUID) (*models.FilterMetadata, error) {
	if categoryID != nil && *categoryID == uuid.Nil {
		categoryID = nil
	}
	scope := cache.ScopeKey(categoryID)
	if md, ok := s.cache.Get(ctx, scope); ok {
		s.metrics.MetadataCacheTotal.WithLabelValues("hit").Inc()
		return md, nil
	}
	s.metrics.MetadataCacheTotal.WithLabelValues("miss").Inc()

	v, err, _ := s.group.Do(scope, func() (interface{}, error) {
		if md, ok := s.cache.Get(ctx, scope); ok {
			return md, nil
		}
		md, err := s.assemble(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, scope, md)
		return md, nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("scope", scope).Msg("failed to assemble filter metadata")
		return nil, err
	}
	return v.(*models.FilterMetadata), nil
}

func (s *MetadataService) assemble(ctx context.Context, categoryID *uuid.UUID) (*models.FilterMetadata, error) {
	keys, err := s.store.ListFilterKeys(ctx, true)
	if err != nil {
		return nil, err
	}

	md := &models.FilterMetadata{Filters: make([]models.FilterKey, 0, len(keys))}
	if categoryID != nil {
		id := categoryID.String()
		md.CategoryID = &id
	}

	if len(keys) > 0 {
		ids := make([]uuid.UUID, 0, len(keys))
		for _, k := range keys {
			ids = append(ids, k.ID)
		}
		q := store.OptionQuery{FilterKeyIDs: ids, ActiveOnly: true, Scope: store.ScopeGlobal}
		if categoryID != nil {
			q.Scope = store.ScopeGlobalOrCategory
			q.CategoryID = categoryID
		}
		opts, err := s.store.ListFilterOptions(ctx, q)
		if err != nil {
			return nil, err
		}

		byKey := make(map[uuid.UUID][]models.FilterOption, len(keys))
		for _, o := range opts {
			byKey[o.FilterKeyID] = append(byKey[o.FilterKeyID], o)
		}
		for _, k := range keys {
			k.Options = byKey[k.ID]
			if k.Options == nil {
				k.Options = []models.FilterOption{}
			}
			SortOptions(k.Options)
			md.Filters = append(md.Filters, k)
		}
	}

	pr, err := s.store.PriceRange(ctx)
	if err != nil {
		return nil, err
	}
	md.PriceRange = &pr
	return md, nil
}

// SortOptions orders options for display: numeric values first in numeric
// order, then the rest lexically. Global options precede category-scoped
// ones with the same value.
func SortOptions(opts []models.FilterOption) {
	sort.SliceStable(opts, func(i, j int) bool {
		a, b := opts[i], opts[j]
		an, aNum := normalizer.ParseNumber(a.Value)
		bn, bNum := normalizer.ParseNumber(b.Value)
		switch {
		case aNum && !bNum:
			return true
		case !aNum && bNum:
			return false
		case aNum && bNum && an != bn:
			return an < bn
		case a.Value != b.Value:
			return a.Value < b.Value
		}
		return models.ScopeOf(a.CategoryID) < models.ScopeOf(b.CategoryID)
	})
}
