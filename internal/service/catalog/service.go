package catalog

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrVariantUnavailable is returned for variants that are not for sale.
var ErrVariantUnavailable = errors.New("variant not available for sale")

type source interface {
	AllProducts(ctx context.Context) ([]domain.Product, error)
	ProductByHandle(ctx context.Context, handle string) (*domain.Product, error)
}

type entry struct {
	products []domain.Product
	fetched  time.Time
}

// Service caches catalog reads for ttl. Concurrent misses for the same key
// share one upstream call; upstream failures fall back to stale data.
type Service struct {
	src    source
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger

	group    singleflight.Group
	mu       sync.Mutex
	all      *entry
	byHandle map[string]entry
}

func New(src source, ttl time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		src:      src,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With().Str("component", "catalog").Logger(),
		byHandle: make(map[string]entry),
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	cached := s.all
	s.mu.Unlock()
	if cached != nil && s.fresh(cached.fetched) {
		return clone(cached.products), nil
	}

	v, err, _ := s.group.Do("all", func() (any, error) {
		products, err := s.src.AllProducts(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.all = &entry{products: products, fetched: s.now()}
		s.mu.Unlock()
		return products, nil
	})
	if err != nil {
		if cached != nil {
			s.logger.Warn().Err(err).Msg("list products failed, serving stale catalog")
			return clone(cached.products), nil
		}
		return nil, err
	}
	return clone(v.([]domain.Product)), nil
}

// Get returns domain.ErrNotFound for unknown handles.
func (s *Service) Get(ctx context.Context, handle string) (*domain.Product, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, domain.ErrNotFound
	}

	s.mu.Lock()
	cached, ok := s.byHandle[handle]
	s.mu.Unlock()
	if ok && s.fresh(cached.fetched) {
		p := cloneProduct(cached.products[0])
		return &p, nil
	}

	v, err, _ := s.group.Do("handle:"+handle, func() (any, error) {
		p, err := s.src.ProductByHandle(context.WithoutCancel(ctx), handle)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.byHandle[handle] = entry{products: []domain.Product{*p}, fetched: s.now()}
		s.mu.Unlock()
		return *p, nil
	})
	if err != nil {
		if ok && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Err(err).Str("handle", handle).Msg("get product failed, serving stale entry")
			p := cloneProduct(cached.products[0])
			return &p, nil
		}
		return nil, err
	}
	p := cloneProduct(v.(domain.Product))
	return &p, nil
}

// Variant resolves a purchasable variant of the product with handle. An
// empty variantID picks the product's default variant.
func (s *Service) Variant(ctx context.Context, handle, variantID string) (*domain.Product, domain.Variant, error) {
	p, err := s.Get(ctx, handle)
	if err != nil {
		return nil, domain.Variant{}, err
	}
	if variantID == "" {
		v, ok := p.DefaultVariant()
		if !ok {
			return nil, domain.Variant{}, ErrVariantUnavailable
		}
		return p, v, nil
	}
	v, ok := p.Variant(variantID)
	if !ok {
		return nil, domain.Variant{}, domain.ErrNotFound
	}
	if !v.AvailableForSale {
		return nil, domain.Variant{}, ErrVariantUnavailable
	}
	return p, v, nil
}

func (s *Service) fresh(fetched time.Time) bool {
	return s.now().Sub(fetched) < s.ttl
}

// clone deep-copies products so callers cannot reach cached slices.
func clone(products []domain.Product) []domain.Product {
	out := make([]domain.Product, len(products))
	for i, p := range products {
		out[i] = cloneProduct(p)
	}
	return out
}

func cloneProduct(p domain.Product) domain.Product {
	p.Images = slices.Clone(p.Images)
	p.Variants = slices.Clone(p.Variants)
	for i := range p.Variants {
		p.Variants[i].SelectedOptions = slices.Clone(p.Variants[i].SelectedOptions)
	}
	return p
}
