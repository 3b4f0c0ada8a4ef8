package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/apperrors"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/store"
)

// ProductNotifier is told about catalog writes so facets can follow them.
type ProductNotifier interface {
	ProductChanged(ctx context.Context, productID uuid.UUID) error
	ProductDeleted(ctx context.Context, productID uuid.UUID) error
}

// InlineNotifier resyncs facets in the calling goroutine. Used when no
// message broker is configured.
type InlineNotifier struct {
	Sync *SyncService
}

func (n InlineNotifier) ProductChanged(ctx context.Context, productID uuid.UUID) error {
	_, err := n.Sync.SyncProduct(ctx, productID)
	return err
}

func (n InlineNotifier) ProductDeleted(ctx context.Context, productID uuid.UUID) error {
	return n.Sync.DeleteProductFacets(ctx, productID)
}

// ProductService handles admin catalog writes.
type ProductService struct {
	store    store.Store
	notifier ProductNotifier
	log      *zerolog.Logger
}

func NewProductService(st store.Store, notifier ProductNotifier) *ProductService {
	return &ProductService{
		store:    st,
		notifier: notifier,
		log:      logger.WithComponent("catalog"),
	}
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *ProductService) CreateProduct(ctx context.Context, req models.ProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("name is required")
	}
	if req.Price < 0 {
		return nil, apperrors.Validation("price cannot be negative")
	}
	status := req.Status
	if status == "" {
		status = models.ProductStatusDraft
	}
	if err := validateStatus(status); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	specs, err := specJSON("specs", req.Specs)
	if err != nil {
		return nil, err
	}
	specsDetail, err := specJSON("specs_detail", req.SpecsDetail)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Status:      status,
		Specs:       specs,
		SpecsDetail: specsDetail,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	s.log.Info().Str("product_id", product.ID.String()).Msg("product created")
	s.notifyChanged(ctx, product.ID)
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req models.UpdateProductRequest) (*models.Product, error) {
	var patch store.ProductPatch
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.Validation("name cannot be empty")
		}
		patch.Name = &name
	}
	patch.Description = req.Description
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, apperrors.Validation("price cannot be negative")
		}
		patch.Price = req.Price
	}
	if req.CategoryID != nil {
		if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
		patch.SetCategory = true
		patch.CategoryID = req.CategoryID
	}
	if req.Status != nil {
		if err := validateStatus(*req.Status); err != nil {
			return nil, err
		}
		patch.Status = req.Status
	}
	if req.Specs != nil {
		specs, err := specJSON("specs", *req.Specs)
		if err != nil {
			return nil, err
		}
		patch.Specs = &specs
	}
	if req.SpecsDetail != nil {
		detail, err := specJSON("specs_detail", *req.SpecsDetail)
		if err != nil {
			return nil, err
		}
		patch.SpecsDetail = &detail
	}

	product, err := s.store.UpdateProduct(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("product_id", id.String()).Msg("product updated")
	s.notifyChanged(ctx, id)
	return product, nil
}

// DeleteProduct soft-deletes the product and drops its facet values.
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("product_id", id.String()).Msg("product deleted")
	if s.notifier != nil {
		if err := s.notifier.ProductDeleted(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("product_id", id.String()).Msg("failed to publish product deletion")
		}
	}
	return nil
}

// notifyChanged never fails the write: a missed facet refresh is repaired by
// the next full sync.
func (s *ProductService) notifyChanged(ctx context.Context, id uuid.UUID) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.ProductChanged(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("product_id", id.String()).Msg("failed to publish product change")
	}
}

func (s *ProductService) ensureCategory(ctx context.Context, categoryID *uuid.UUID) error {
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

func validateStatus(status string) error {
	if status != models.ProductStatusActive && status != models.ProductStatusDraft {
		return apperrors.Validation("status must be Active or Draft")
	}
	return nil
}

// specJSON checks that raw spec data is a JSON array (or null). Entries
// inside the array are not validated here; the synchronizer skips bad ones.
func specJSON(field string, raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if !json.Valid([]byte(trimmed)) || !strings.HasPrefix(trimmed, "[") {
		return nil, apperrors.Newf(apperrors.ErrValidation, "%s must be a JSON array", field)
	}
	return datatypes.JSON(trimmed), nil
}
