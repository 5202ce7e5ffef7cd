package catalog

import (
	"context"
	"sort"
	"strings"
	"time"

	"urbangear/internal/models"
	"urbangear/internal/redisclient"
	"urbangear/internal/store"
	"urbangear/internal/util"

	"go.uber.org/zap"
)

// Sort orders accepted by ListProducts
const (
	SortDefault   = "default"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
)

// Service serves the read-only product catalog. The database is the
// source of truth; category listings go through a Redis read-through
// cache, and search/sort are applied in memory over the fetched list.
type Service struct {
	store    *store.Store
	cache    *redisclient.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Query narrows and orders a product listing
type Query struct {
	Category string
	Search   string
	Sort     string
}

// NewService creates a catalog service
func NewService(store *store.Store, cache *redisclient.Client, cacheTTL time.Duration) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
	}
}

// ListProducts returns the products matching the query. A fetch
// failure is returned to the caller as-is; it never touches any
// session state.
func (s *Service) ListProducts(ctx context.Context, q Query) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	products, err := s.fetchCategory(ctx, q.Category)
	if err != nil {
		return nil, err
	}

	return filterAndSort(products, q.Search, q.Sort), nil
}

// GetProduct retrieves a single product by id
func (s *Service) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProduct")
	defer span.End()

	return s.store.GetProductByID(ctx, id)
}

func (s *Service) fetchCategory(ctx context.Context, category string) ([]models.Product, error) {
	if s.cache != nil {
		products, hit, err := s.cache.GetCachedProducts(ctx, category)
		if err != nil {
			s.logger.Warn("Catalog cache lookup failed, falling back to DB",
				zap.String("category", category),
				zap.Error(err))
		} else if hit {
			util.CatalogCacheHitsTotal.WithLabelValues("hit").Inc()
			return products, nil
		}
		util.CatalogCacheHitsTotal.WithLabelValues("miss").Inc()
	}

	var products []models.Product
	var err error
	if category == "" {
		products, err = s.store.GetProducts(ctx)
	} else {
		products, err = s.store.GetProductsByCategory(ctx, category)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetCachedProducts(ctx, category, products, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache catalog listing",
				zap.String("category", category),
				zap.Error(err))
		}
	}

	return products, nil
}

// filterAndSort applies a case-insensitive name search and an
// optional price sort. The input slice is never modified.
func filterAndSort(products []models.Product, search, sortOrder string) []models.Product {
	filtered := make([]models.Product, 0, len(products))

	if search == "" {
		filtered = append(filtered, products...)
	} else {
		needle := strings.ToLower(search)
		for _, p := range products {
			if strings.Contains(strings.ToLower(p.Name), needle) {
				filtered = append(filtered, p)
			}
		}
	}

	switch sortOrder {
	case SortPriceAsc:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Price < filtered[j].Price
		})
	case SortPriceDesc:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Price > filtered[j].Price
		})
	}

	return filtered
}
