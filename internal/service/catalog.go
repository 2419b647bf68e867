package service

import (
	"context"
	"strings"
	"time"

	"carshop/internal/models"
	"carshop/internal/store"
	"carshop/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogCache is the slice of the redis client the catalog uses.
// Satisfied by *redisclient.Client; nil disables caching.
type CatalogCache interface {
	GetCatalog(ctx context.Context) ([]models.Car, bool, error)
	SetCatalog(ctx context.Context, cars []models.Car, ttl time.Duration) error
	InvalidateCatalog(ctx context.Context) error
}

// CatalogService serves the car catalog, cache-first with DB fallback.
// A cache failure degrades to a database read and is logged, never
// surfaced to the caller.
type CatalogService struct {
	store  store.Store
	cache  CatalogCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(s store.Store, cache CatalogCache, ttl time.Duration) *CatalogService {
	return &CatalogService{
		store:  s,
		cache:  cache,
		ttl:    ttl,
		logger: util.GetLogger(),
	}
}

// CreateCarInput are the admin-supplied fields for a new catalog item
type CreateCarInput struct {
	Make        string          `json:"make"`
	Model       string          `json:"model"`
	Year        int             `json:"year"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
}

// List returns all catalog items
func (s *CatalogService) List(ctx context.Context) ([]models.Car, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.List")
	defer span.End()

	if s.cache != nil {
		cars, hit, err := s.cache.GetCatalog(ctx)
		if err != nil {
			util.CatalogCacheHitsTotal.WithLabelValues("error").Inc()
			s.logger.Warn("Catalog cache read failed, falling back to DB", zap.Error(err))
		} else if hit {
			util.CatalogCacheHitsTotal.WithLabelValues("hit").Inc()
			return cars, nil
		} else {
			util.CatalogCacheHitsTotal.WithLabelValues("miss").Inc()
		}
	}

	cars, err := s.store.ListCars(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetCatalog(ctx, cars, s.ttl); err != nil {
			s.logger.Warn("Failed to warm catalog cache", zap.Error(err))
		}
	}
	return cars, nil
}

// Create validates and inserts a new catalog item, then invalidates the
// cached listing. Admin only; the API layer enforces the claim.
func (s *CatalogService) Create(ctx context.Context, input CreateCarInput) (*models.Car, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Create")
	defer span.End()

	if err := validateCarInput(input); err != nil {
		return nil, err
	}

	car := &models.Car{
		ID:          uuid.New().String(),
		Make:        strings.TrimSpace(input.Make),
		Model:       strings.TrimSpace(input.Model),
		Year:        input.Year,
		Price:       input.Price,
		Image:       strings.TrimSpace(input.Image),
		Description: input.Description,
	}
	if err := s.store.CreateCar(ctx, car); err != nil {
		return nil, err
	}

	s.logger.Info("Catalog item created",
		zap.String("car_id", car.ID),
		zap.String("make", car.Make),
		zap.String("model", car.Model))

	if s.cache != nil {
		if err := s.cache.InvalidateCatalog(ctx); err != nil {
			s.logger.Warn("Failed to invalidate catalog cache", zap.Error(err))
		}
	}
	return car, nil
}

func validateCarInput(input CreateCarInput) error {
	switch {
	case strings.TrimSpace(input.Make) == "":
		return &models.ValidationError{Field: "make", Reason: "required"}
	case strings.TrimSpace(input.Model) == "":
		return &models.ValidationError{Field: "model", Reason: "required"}
	case input.Year <= 0:
		return &models.ValidationError{Field: "year", Reason: "must be positive"}
	case !input.Price.IsPositive():
		return &models.ValidationError{Field: "price", Reason: "must be positive"}
	case strings.TrimSpace(input.Image) == "":
		return &models.ValidationError{Field: "image", Reason: "required"}
	}
	return nil
}
