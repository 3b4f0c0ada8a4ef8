package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/apperrors"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/cache"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/normalizer"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/store"
)

var keySlugPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// FilterAdminService is the hand-curation surface for filter keys and
// options. Deletes are soft: rows are deactivated, never removed.
type FilterAdminService struct {
	store store.Store
	cache cache.MetadataCache
	log   *zerolog.Logger
}

func NewFilterAdminService(st store.Store, c cache.MetadataCache) *FilterAdminService {
	if c == nil {
		c = cache.Disabled{}
	}
	return &FilterAdminService{
		store: st,
		cache: c,
		log:   logger.WithComponent("filter-admin"),
	}
}

// ─────────────────────────────────────────────────────────────
// Filter keys
// ─────────────────────────────────────────────────────────────

func (s *FilterAdminService) ListFilterKeys(ctx context.Context, includeInactive bool) ([]models.FilterKey, error) {
	return s.store.ListFilterKeys(ctx, !includeInactive)
}

func (s *FilterAdminService) GetFilterKey(ctx context.Context, id uuid.UUID) (*models.FilterKey, error) {
	return s.store.GetFilterKey(ctx, id)
}

func (s *FilterAdminService) CreateFilterKey(ctx context.Context, req models.CreateFilterKeyRequest) (*models.FilterKey, error) {
	key := strings.TrimSpace(req.Key)
	label := strings.TrimSpace(req.Label)
	if err := validateKeySlug(key); err != nil {
		return nil, err
	}
	if label == "" {
		return nil, apperrors.Validation("label is required")
	}
	dataType := models.DataTypeString
	if req.DataType != "" {
		dataType = models.FilterDataType(req.DataType)
		if !dataType.Valid() {
			return nil, apperrors.Validation("data_type must be one of string, number, range")
		}
	}

	if err := s.ensureKeyFree(ctx, key, uuid.Nil); err != nil {
		return nil, err
	}

	fk := &models.FilterKey{
		Key:      key,
		Label:    label,
		DataType: dataType,
		IsActive: true,
		Order:    normalizer.DefaultOrder(key),
	}
	if req.Order != nil {
		fk.Order = *req.Order
	}
	if req.IsActive != nil {
		fk.IsActive = *req.IsActive
	}

	if err := s.store.CreateFilterKey(ctx, fk); err != nil {
		return nil, conflictMessage(err, "filter key %q already exists", key)
	}
	s.log.Info().Str("filter_key", key).Str("id", fk.ID.String()).Msg("filter key created")
	s.invalidate(ctx)
	return fk, nil
}

func (s *FilterAdminService) UpdateFilterKey(ctx context.Context, id uuid.UUID, req models.UpdateFilterKeyRequest) (*models.FilterKey, error) {
	var patch store.FilterKeyPatch
	if req.Key != nil {
		key := strings.TrimSpace(*req.Key)
		if err := validateKeySlug(key); err != nil {
			return nil, err
		}
		if err := s.ensureKeyFree(ctx, key, id); err != nil {
			return nil, err
		}
		patch.Key = &key
	}
	if req.Label != nil {
		label := strings.TrimSpace(*req.Label)
		if label == "" {
			return nil, apperrors.Validation("label cannot be empty")
		}
		patch.Label = &label
	}
	if req.DataType != nil {
		dt := models.FilterDataType(*req.DataType)
		if !dt.Valid() {
			return nil, apperrors.Validation("data_type must be one of string, number, range")
		}
		patch.DataType = &dt
	}
	patch.Order = req.Order
	patch.IsActive = req.IsActive

	fk, err := s.store.UpdateFilterKey(ctx, id, patch)
	if err != nil {
		return nil, conflictMessage(err, "filter key slug already in use")
	}
	s.log.Info().Str("id", id.String()).Msg("filter key updated")
	s.invalidate(ctx)
	return fk, nil
}

// DeactivateFilterKey soft-deletes a key; its options stay untouched.
func (s *FilterAdminService) DeactivateFilterKey(ctx context.Context, id uuid.UUID) (*models.FilterKey, error) {
	inactive := false
	fk, err := s.store.UpdateFilterKey(ctx, id, store.FilterKeyPatch{IsActive: &inactive})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("id", id.String()).Msg("filter key deactivated")
	s.invalidate(ctx)
	return fk, nil
}

func (s *FilterAdminService) ensureKeyFree(ctx context.Context, key string, self uuid.UUID) error {
	keys, err := s.store.ListFilterKeys(ctx, false)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if k.Key == key && k.ID != self {
			return apperrors.Newf(apperrors.ErrConflict, "filter key %q already exists", key)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────
// Filter options
// ─────────────────────────────────────────────────────────────

// OptionFilter narrows ListFilterOptions. A nil CategoryID lists every scope.
type OptionFilter struct {
	FilterKeyID     *uuid.UUID
	CategoryID      *uuid.UUID
	IncludeInactive bool
}

func (s *FilterAdminService) ListFilterOptions(ctx context.Context, f OptionFilter) ([]models.FilterOption, error) {
	q := store.OptionQuery{ActiveOnly: !f.IncludeInactive}
	if f.FilterKeyID != nil {
		q.FilterKeyIDs = []uuid.UUID{*f.FilterKeyID}
	}
	if f.CategoryID != nil {
		q.Scope = store.ScopeCategory
		q.CategoryID = f.CategoryID
	}
	opts, err := s.store.ListFilterOptions(ctx, q)
	if err != nil {
		return nil, err
	}
	SortOptions(opts)
	return opts, nil
}

func (s *FilterAdminService) GetFilterOption(ctx context.Context, id uuid.UUID) (*models.FilterOption, error) {
	return s.store.GetFilterOption(ctx, id)
}

func (s *FilterAdminService) CreateFilterOption(ctx context.Context, req models.CreateFilterOptionRequest) (*models.FilterOption, error) {
	value := strings.TrimSpace(req.Value)
	if req.FilterKeyID == uuid.Nil {
		return nil, apperrors.Validation("filter_key_id is required")
	}
	if value == "" {
		return nil, apperrors.Validation("value is required")
	}
	if _, err := s.store.GetFilterKey(ctx, req.FilterKeyID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Validation("filter_key_id does not reference an existing filter key")
		}
		return nil, err
	}
	categoryID := req.CategoryID
	if categoryID != nil && *categoryID == uuid.Nil {
		categoryID = nil
	}
	if err := s.ensureCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	if err := s.ensureOptionFree(ctx, req.FilterKeyID, value, categoryID, uuid.Nil); err != nil {
		return nil, err
	}

	display := strings.TrimSpace(req.DisplayValue)
	if display == "" {
		display = value
	}
	opt := &models.FilterOption{
		FilterKeyID:  req.FilterKeyID,
		Value:        value,
		DisplayValue: display,
		CategoryID:   categoryID,
		IsActive:     true,
	}
	if req.IsActive != nil {
		opt.IsActive = *req.IsActive
	}

	if err := s.store.CreateFilterOption(ctx, opt); err != nil {
		return nil, conflictMessage(err, "filter option %q already exists for this key and category", value)
	}
	s.log.Info().Str("id", opt.ID.String()).Str("value", value).Msg("filter option created")
	s.invalidate(ctx)
	return opt, nil
}

func (s *FilterAdminService) UpdateFilterOption(ctx context.Context, id uuid.UUID, req models.UpdateFilterOptionRequest) (*models.FilterOption, error) {
	current, err := s.store.GetFilterOption(ctx, id)
	if err != nil {
		return nil, err
	}

	var patch store.FilterOptionPatch
	value := current.Value
	categoryID := current.CategoryID
	if req.Value != nil {
		value = strings.TrimSpace(*req.Value)
		if value == "" {
			return nil, apperrors.Validation("value cannot be empty")
		}
		patch.Value = &value
	}
	if req.DisplayValue != nil {
		display := strings.TrimSpace(*req.DisplayValue)
		if display == "" {
			display = value
		}
		patch.DisplayValue = &display
	}
	if req.CategoryID != nil {
		categoryID = nil
		if raw := strings.TrimSpace(*req.CategoryID); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				return nil, apperrors.Validation("category_id must be a UUID or empty")
			}
			if err := s.ensureCategory(ctx, &parsed); err != nil {
				return nil, err
			}
			categoryID = &parsed
		}
		patch.SetCategory = true
		patch.CategoryID = categoryID
	}
	patch.IsActive = req.IsActive

	if patch.Value != nil || patch.SetCategory {
		if err := s.ensureOptionFree(ctx, current.FilterKeyID, value, categoryID, id); err != nil {
			return nil, err
		}
	}

	opt, err := s.store.UpdateFilterOption(ctx, id, patch)
	if err != nil {
		return nil, conflictMessage(err, "filter option %q already exists for this key and category", value)
	}
	s.log.Info().Str("id", id.String()).Msg("filter option updated")
	s.invalidate(ctx)
	return opt, nil
}

// DeactivateFilterOption soft-deletes an option.
func (s *FilterAdminService) DeactivateFilterOption(ctx context.Context, id uuid.UUID) (*models.FilterOption, error) {
	inactive := false
	opt, err := s.store.UpdateFilterOption(ctx, id, store.FilterOptionPatch{IsActive: &inactive})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("id", id.String()).Msg("filter option deactivated")
	s.invalidate(ctx)
	return opt, nil
}

func (s *FilterAdminService) ensureOptionFree(ctx context.Context, filterKeyID uuid.UUID, value string, categoryID *uuid.UUID, self uuid.UUID) error {
	q := store.OptionQuery{FilterKeyIDs: []uuid.UUID{filterKeyID}, Scope: store.ScopeGlobal}
	if categoryID != nil {
		q.Scope = store.ScopeCategory
		q.CategoryID = categoryID
	}
	opts, err := s.store.ListFilterOptions(ctx, q)
	if err != nil {
		return err
	}
	for _, o := range opts {
		if o.Value == value && o.ID != self {
			return apperrors.Newf(apperrors.ErrConflict, "filter option %q already exists for this key and category", value)
		}
	}
	return nil
}

func (s *FilterAdminService) ensureCategory(ctx context.Context, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	ok, err := s.store.CategoryExists(ctx, *categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Validation("category_id does not reference an existing category")
	}
	return nil
}

func (s *FilterAdminService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate metadata cache")
	}
}

func validateKeySlug(key string) error {
	if key == "" {
		return apperrors.Validation("key is required")
	}
	if !keySlugPattern.MatchString(key) {
		return apperrors.Validation("key must contain only lowercase letters, digits and underscores")
	}
	if reservedParams[key] {
		return apperrors.Newf(apperrors.ErrValidation, "key %q is a reserved query parameter", key)
	}
	return nil
}

// conflictMessage rewrites a store conflict with a caller-facing message and
// passes other errors through.
func conflictMessage(err error, format string, args ...any) error {
	if errors.Is(err, apperrors.ErrConflict) {
		return apperrors.Newf(apperrors.ErrConflict, format, args...)
	}
	return err
}
