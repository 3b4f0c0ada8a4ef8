package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/apperrors"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/cache"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/metrics"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/normalizer"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/store"
)

const maxReportedFailures = 100

// SyncConfig bounds the synchronizer's resource use.
type SyncConfig struct {
	Concurrency int
	BatchSize   int
}

// facetKey is the merge-map key: one FilterOption per distinct tuple.
type facetKey struct {
	Key      string
	Value    string
	Category uuid.NullUUID
}

// SyncService derives FilterKey, FilterOption and ProductFilterValue rows from
// product spec data.
type SyncService struct {
	store   store.Store
	cache   cache.MetadataCache
	metrics *metrics.Metrics
	cfg     SyncConfig
	log     *zerolog.Logger
}

func NewSyncService(st store.Store, c cache.MetadataCache, m *metrics.Metrics, cfg SyncConfig) *SyncService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if c == nil {
		c = cache.Disabled{}
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &SyncService{
		store:   st,
		cache:   c,
		metrics: m,
		cfg:     cfg,
		log:     logger.WithComponent("facet-sync"),
	}
}

// syncRun carries the state of one synchronization pass.
type syncRun struct {
	mu      sync.Mutex
	report  models.SyncReport
	keys    map[string]models.FilterKey
	merge   map[facetKey]string // display value, first seen wins
	touched map[string]bool
}

func newSyncRun() *syncRun {
	return &syncRun{
		keys:    make(map[string]models.FilterKey),
		merge:   make(map[facetKey]string),
		touched: make(map[string]bool),
	}
}

func (r *syncRun) fail(productID uuid.UUID, skip normalizer.Skip) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.SkippedEntries++
	if len(r.report.Failures) < maxReportedFailures {
		r.report.Failures = append(r.report.Failures, models.SyncFailure{
			ProductID: productID.String(),
			Path:      skip.Path,
			Reason:    skip.Reason,
		})
	}
}

// SyncFilterOptionsFromProducts walks every non-deleted product, rebuilds its
// facet values and upserts the distinct options. Malformed spec entries are
// skipped and reported; store failures abort the run. Re-running is safe.
func (s *SyncService) SyncFilterOptionsFromProducts(ctx context.Context) (models.SyncReport, error) {
	start := time.Now()
	run := newSyncRun()
	s.log.Info().Int("concurrency", s.cfg.Concurrency).Int("batch_size", s.cfg.BatchSize).Msg("facet sync started")

	err := s.store.ListActiveProducts(ctx, s.cfg.BatchSize, func(batch []models.Product) error {
		return s.indexBatch(ctx, run, batch)
	})
	if err == nil {
		err = s.upsertOptions(ctx, run)
	}

	report := run.report
	report.KeysTouched = len(run.touched)
	report.DurationMs = time.Since(start).Milliseconds()
	s.metrics.SyncDuration.Observe(time.Since(start).Seconds())
	s.metrics.SyncSkippedEntries.Add(float64(report.SkippedEntries))

	if err != nil {
		s.metrics.SyncRunsTotal.WithLabelValues("full", "error").Inc()
		s.log.Error().Err(err).Int("products_scanned", report.ProductsScanned).Msg("facet sync failed")
		return report, err
	}

	s.invalidate(ctx)
	s.metrics.SyncRunsTotal.WithLabelValues("full", "ok").Inc()
	s.log.Info().
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("keys_touched", report.KeysTouched).
		Int("keys_created", report.KeysCreated).
		Int("products_scanned", report.ProductsScanned).
		Int("values_indexed", report.ValuesIndexed).
		Int("skipped_entries", report.SkippedEntries).
		Int64("duration_ms", report.DurationMs).
		Msg("facet sync finished")
	return report, nil
}

// SyncProduct runs the pipeline for one product. A product that no longer
// exists has its facet values removed and yields ErrNotFound.
func (s *SyncService) SyncProduct(ctx context.Context, productID uuid.UUID) (models.SyncReport, error) {
	start := time.Now()
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if pruneErr := s.DeleteProductFacets(ctx, productID); pruneErr != nil {
				return models.SyncReport{}, pruneErr
			}
		}
		s.metrics.SyncRunsTotal.WithLabelValues("product", "error").Inc()
		return models.SyncReport{}, err
	}

	run := newSyncRun()
	if err := s.indexBatch(ctx, run, []models.Product{*product}); err != nil {
		s.metrics.SyncRunsTotal.WithLabelValues("product", "error").Inc()
		return run.report, err
	}
	if err := s.upsertOptions(ctx, run); err != nil {
		s.metrics.SyncRunsTotal.WithLabelValues("product", "error").Inc()
		return run.report, err
	}

	report := run.report
	report.KeysTouched = len(run.touched)
	report.DurationMs = time.Since(start).Milliseconds()
	s.invalidate(ctx)
	s.metrics.SyncRunsTotal.WithLabelValues("product", "ok").Inc()
	s.log.Debug().
		Str("product_id", productID.String()).
		Int("values_indexed", report.ValuesIndexed).
		Int("created", report.Created).
		Msg("product facets synced")
	return report, nil
}

// DeleteProductFacets removes every facet value of a product.
func (s *SyncService) DeleteProductFacets(ctx context.Context, productID uuid.UUID) error {
	if err := s.store.PruneProductFilterValues(ctx, productID, nil); err != nil {
		s.log.Error().Err(err).Str("product_id", productID.String()).Msg("failed to drop product facets")
		return err
	}
	return nil
}

// indexBatch normalizes a batch of products, makes sure their keys exist and
// replaces each product's facet values. The distinct options are accumulated
// into the run's merge map.
func (s *SyncService) indexBatch(ctx context.Context, run *syncRun, batch []models.Product) error {
	perProduct := make([][]normalizer.Facet, len(batch))
	for i, p := range batch {
		perProduct[i] = s.facetsOf(run, p)
	}

	// keys first, sequentially: there are only a handful of distinct keys
	for i, p := range batch {
		for _, f := range perProduct[i] {
			if _, err := s.ensureKey(ctx, run, f); err != nil {
				return err
			}
			run.touched[f.Key] = true
			mk := facetKey{Key: f.Key, Value: f.Value, Category: nullUUID(p.CategoryID)}
			if _, seen := run.merge[mk]; !seen {
				run.merge[mk] = f.DisplayValue
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, p := range batch {
		facets := perProduct[i]
		productID := p.ID
		g.Go(func() error {
			return s.writeProductValues(gctx, run, productID, facets)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	run.report.ProductsScanned += len(batch)
	return nil
}

// facetsOf normalizes every spec entry of the product in document order,
// specs before specs_detail. Unmapped entries are dropped.
func (s *SyncService) facetsOf(run *syncRun, p models.Product) []normalizer.Facet {
	pairs, skips := normalizer.Flatten(p.Specs, p.SpecsDetail)
	for _, skip := range skips {
		s.log.Warn().Str("product_id", p.ID.String()).Str("path", skip.Path).Str("reason", skip.Reason).Msg("skipping malformed spec entry")
		run.fail(p.ID, skip)
	}

	facets := make([]normalizer.Facet, 0, len(pairs))
	for _, pair := range pairs {
		if f, ok := normalizer.Normalize(pair.Label, pair.Value); ok {
			facets = append(facets, f)
		}
	}
	return facets
}

// lastPerKey keeps one facet per key; a later entry replaces an earlier one.
func lastPerKey(facets []normalizer.Facet) []normalizer.Facet {
	byKey := make(map[string]int)
	out := make([]normalizer.Facet, 0, len(facets))
	for _, f := range facets {
		if idx, seen := byKey[f.Key]; seen {
			out[idx] = f
			continue
		}
		byKey[f.Key] = len(out)
		out = append(out, f)
	}
	return out
}

func (s *SyncService) ensureKey(ctx context.Context, run *syncRun, f normalizer.Facet) (models.FilterKey, error) {
	if fk, ok := run.keys[f.Key]; ok {
		return fk, nil
	}
	fk, created, err := s.store.UpsertFilterKey(ctx, f.Key, f.Label, models.DataTypeString, normalizer.DefaultOrder(f.Key))
	if err != nil {
		s.log.Error().Err(err).Str("filter_key", f.Key).Msg("failed to upsert filter key")
		return fk, err
	}
	if created {
		run.report.KeysCreated++
	}
	run.keys[f.Key] = fk
	return fk, nil
}

func (s *SyncService) writeProductValues(ctx context.Context, run *syncRun, productID uuid.UUID, facets []normalizer.Facet) error {
	facets = lastPerKey(facets)
	keep := make([]uuid.UUID, 0, len(facets))
	for _, f := range facets {
		fk := run.keys[f.Key]
		v := models.ProductFilterValue{
			ProductID:   productID,
			FilterKeyID: fk.ID,
			RawValue:    f.Value,
		}
		if n, ok := normalizer.ParseNumber(f.Value); ok {
			v.NumericValue = &n
		}
		if err := s.store.UpsertProductFilterValue(ctx, v); err != nil {
			s.log.Error().Err(err).Str("product_id", productID.String()).Str("filter_key", f.Key).Msg("failed to upsert product filter value")
			return err
		}
		keep = append(keep, fk.ID)
	}
	if err := s.store.PruneProductFilterValues(ctx, productID, keep); err != nil {
		s.log.Error().Err(err).Str("product_id", productID.String()).Msg("failed to prune product filter values")
		return err
	}

	run.mu.Lock()
	run.report.ValuesIndexed += len(keep)
	run.mu.Unlock()
	return nil
}

// upsertOptions writes the merge map with bounded parallelism. Entries are
// issued in sorted order so runs are reproducible in logs.
func (s *SyncService) upsertOptions(ctx context.Context, run *syncRun) error {
	entries := make([]facetKey, 0, len(run.merge))
	for k := range run.merge {
		entries = append(entries, k)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		if a.Value != b.Value {
			return a.Value < b.Value
		}
		return a.Category.UUID.String() < b.Category.UUID.String()
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, k := range entries {
		fk := run.keys[k.Key]
		display := run.merge[k]
		g.Go(func() error {
			var categoryID *uuid.UUID
			if k.Category.Valid {
				id := k.Category.UUID
				categoryID = &id
			}
			_, created, err := s.store.UpsertFilterOption(gctx, fk.ID, k.Value, display, categoryID)
			if err != nil {
				s.log.Error().Err(err).Str("filter_key", k.Key).Str("value", k.Value).Msg("failed to upsert filter option")
				return err
			}
			run.mu.Lock()
			if created {
				run.report.Created++
			} else {
				run.report.Updated++
			}
			run.mu.Unlock()
			if created {
				s.metrics.SyncOptionsCreated.Inc()
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *SyncService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate metadata cache")
	}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil || *id == uuid.Nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
