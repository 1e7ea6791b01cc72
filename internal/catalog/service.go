// Package catalog manages the product catalog. Reads go through a Redis
// cache; every mutation invalidates it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/store"
)

// Product is the catalog entry as exposed to callers.
type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Service orchestrates catalog reads and writes.
type Service struct {
	Products store.ProductStore
	Cache    *Cache
	Log      zerolog.Logger
}

// Create registers a new product.
func (s *Service) Create(ctx context.Context, name string, price float64) (Product, error) {
	p := store.Product{ID: uuid.NewString(), Name: name, Price: price}
	if err := s.Products.Add(ctx, p); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return Product{}, &common.AppError{
				Code: "PRODUCT_ALREADY_EXISTS", Message: fmt.Sprintf("product %q already exists", p.ID),
				HTTPStatus: http.StatusConflict, Err: err,
			}
		}
		return Product{}, err
	}
	s.Cache.Invalidate(ctx)
	return fromRecord(p), nil
}

// Get returns a product by id.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	p, err := s.Products.GetByID(ctx, id)
	if err != nil {
		return Product{}, s.translate(id, err)
	}
	return fromRecord(p), nil
}

// List returns the whole catalog, from cache when possible.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	var cached []Product
	if ok, err := s.Cache.GetList(ctx, &cached); err != nil {
		s.Log.Warn().Err(err).Msg("catalog cache read failed")
	} else if ok {
		return cached, nil
	}

	records, err := s.Products.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(records))
	for _, p := range records {
		products = append(products, fromRecord(p))
	}
	if err := s.Cache.SetList(ctx, products); err != nil {
		s.Log.Warn().Err(err).Msg("catalog cache write failed")
	}
	return products, nil
}

// Update rewrites a product's name and price. Receipt lines keep the unit
// price they snapshotted when they were added.
func (s *Service) Update(ctx context.Context, p Product) (Product, error) {
	err := s.Products.Update(ctx, store.Product{ID: p.ID, Name: p.Name, Price: p.Price})
	if err != nil {
		return Product{}, s.translate(p.ID, err)
	}
	s.Cache.Invalidate(ctx)
	return p, nil
}

func (s *Service) translate(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return &common.AppError{
			Code: "PRODUCT_NOT_FOUND", Message: fmt.Sprintf("product %q not found", id),
			HTTPStatus: http.StatusNotFound, Err: err,
		}
	}
	return err
}

func fromRecord(p store.Product) Product {
	return Product{ID: p.ID, Name: p.Name, Price: p.Price}
}
