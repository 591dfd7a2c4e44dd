package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"catalogapi/internal/model"
	"catalogapi/internal/repository"
)

// ProductPostgres is a PostgreSQL implementation of repository.ProductRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ProductPostgres struct {
	db *sql.DB
}

// NewProductPostgres creates a new ProductPostgres repository.
func NewProductPostgres(db *sql.DB) *ProductPostgres {
	return &ProductPostgres{db: db}
}

var _ repository.ProductRepository = (*ProductPostgres)(nil)

const productColumns = `id, name, price, description, category_name, image_url, image_local_path, user_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*model.Product, error) {
	var p model.Product
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.Description,
		&p.CategoryName,
		&p.RemoteURL,
		&p.LocalPath,
		&p.UserID,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// validID reports whether id can name a row. Anything else cannot match and is not sent to the database.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Insert stores a product row. The database assigns id, created_at and updated_at.
func (r *ProductPostgres) Insert(ctx context.Context, p *model.Product) (*model.Product, error) {
	const q = `
		INSERT INTO products (name, price, description, category_name, image_url, image_local_path, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + productColumns
	row := r.db.QueryRowContext(ctx, q,
		p.Name,
		p.Price,
		p.Description,
		p.CategoryName,
		p.RemoteURL,
		p.LocalPath,
		p.UserID,
	)
	return scanProduct(row)
}

// UpdateByID overwrites the mutable columns and bumps updated_at.
func (r *ProductPostgres) UpdateByID(ctx context.Context, id string, p *model.Product) (*model.Product, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	const q = `
		UPDATE products
		SET name = $2, price = $3, description = $4, category_name = $5,
		    image_url = $6, image_local_path = $7, updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns
	row := r.db.QueryRowContext(ctx, q,
		id,
		p.Name,
		p.Price,
		p.Description,
		p.CategoryName,
		p.RemoteURL,
		p.LocalPath,
	)
	out, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return out, err
}

// FindByID fetches a single product by its ID.
func (r *ProductPostgres) FindByID(ctx context.Context, id string) (*model.Product, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	const q = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return p, err
}

// ListAll returns products using LIMIT/OFFSET pagination and a total count.
func (r *ProductPostgres) ListAll(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Product], error) {
	const qCount = `SELECT COUNT(*) FROM products`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`
	items, err := r.query(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Product]{
		Items: items,
		Total: total,
	}, nil
}

// ListByOwner returns the owner's products, newest first.
func (r *ProductPostgres) ListByOwner(ctx context.Context, ownerID string) ([]model.Product, error) {
	const q = `SELECT ` + productColumns + `
		FROM products
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	return r.query(ctx, q, ownerID)
}

// DeleteByID removes a product row.
func (r *ProductPostgres) DeleteByID(ctx context.Context, id string) error {
	if !validID(id) {
		return repository.ErrNotFound
	}
	const q = `DELETE FROM products WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ProductPostgres) query(ctx context.Context, q string, args ...any) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
