package repository

import (
	"context"

	"catalogapi/internal/model"
)

// ProductRepository is the storage capability the product pipeline is written against.
// No business logic here, strictly persistence operations.
type ProductRepository interface {
	// Insert stores a new product. The identity and timestamps are assigned by the store
	// and returned on the stored record.
	Insert(ctx context.Context, p *model.Product) (*model.Product, error)

	// UpdateByID overwrites the mutable fields (name, price, description, category, image
	// reference) of the product with the given identity and returns the stored record.
	UpdateByID(ctx context.Context, id string, p *model.Product) (*model.Product, error)

	// FindByID returns a product by its identity.
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// ListAll returns a page of products, newest first, and the total count.
	ListAll(ctx context.Context, pq PageQuery) (*PageResult[model.Product], error)

	// ListByOwner returns every product of the owner, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Product, error)

	// DeleteByID removes a product. It returns ErrNotFound if nothing was removed.
	DeleteByID(ctx context.Context, id string) error
}
