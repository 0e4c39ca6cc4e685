package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"knot-art-api/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const productColumns = `p.id::text, p.category_id::text, p.sku, p.name, p.description, p.price_cents, p.rating, p.image_url, p.is_active, p.is_new, p.created_at`

func (r *postgresRepo) List(ctx context.Context, filter ListFilter) ([]domain.Product, error) {
	q := `
SELECT ` + productColumns + `
FROM products p
LEFT JOIN categories c ON c.id = p.category_id
WHERE 1=1
`
	var args []interface{}
	if !filter.IncludeInactive {
		q += " AND p.is_active"
	}
	if filter.CategoryName != "" {
		args = append(args, filter.CategoryName)
		q += fmt.Sprintf(" AND c.name = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		q += fmt.Sprintf(" AND (p.name ILIKE $%d OR p.description ILIKE $%d)", len(args), len(args))
	}

	switch filter.Sort {
	case "price":
		q += " ORDER BY p.price_cents ASC"
	case "-price":
		q += " ORDER BY p.price_cents DESC"
	case "name":
		q += " ORDER BY p.name ASC"
	case "-name":
		q += " ORDER BY p.name DESC"
	case "rating":
		q += " ORDER BY p.rating ASC NULLS LAST"
	case "-rating":
		q += " ORDER BY p.rating DESC NULLS LAST"
	default:
		q += " ORDER BY p.created_at DESC"
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	const q = `
SELECT ` + productColumns + `
FROM products p
WHERE p.id = $1
`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (category_id, sku, name, description, price_cents, rating, image_url, is_active, is_new)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id::text, created_at
`
	res := p
	err := r.pool.QueryRow(ctx, q,
		p.CategoryID, p.SKU, p.Name, p.Description, p.PriceCents, p.Rating, p.ImageURL, p.IsActive, p.IsNew,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Printf("product repo: create name=%s error=%v", p.Name, err)
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
UPDATE products
SET category_id = $2, sku = $3, name = $4, description = $5, price_cents = $6, rating = $7, image_url = $8, is_active = $9, is_new = $10
WHERE id = $1
RETURNING created_at
`
	res := p
	err := r.pool.QueryRow(ctx, q,
		p.ID, p.CategoryID, p.SKU, p.Name, p.Description, p.PriceCents, p.Rating, p.ImageURL, p.IsActive, p.IsNew,
	).Scan(&res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: update id=%s error=%v", p.ID, err)
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Printf("product repo: delete id=%s error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Upsert keys on the unique product name; used by the seeder and importer.
func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (category_id, sku, name, description, price_cents, rating, image_url, is_active, is_new)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (name) DO UPDATE SET
    category_id = EXCLUDED.category_id,
    sku = EXCLUDED.sku,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    rating = EXCLUDED.rating,
    image_url = EXCLUDED.image_url,
    is_active = EXCLUDED.is_active,
    is_new = EXCLUDED.is_new
RETURNING id::text, created_at
`
	res := p
	err := r.pool.QueryRow(ctx, q,
		p.CategoryID, p.SKU, p.Name, p.Description, p.PriceCents, p.Rating, p.ImageURL, p.IsActive, p.IsNew,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Printf("product repo: upsert name=%s error=%v", p.Name, err)
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text, name, friendly_name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.FriendlyName); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// EnsureCategory inserts the category if absent, refreshing the friendly
// name either way.
func (r *postgresRepo) EnsureCategory(ctx context.Context, name, friendlyName string) (*domain.Category, error) {
	const q = `
INSERT INTO categories (name, friendly_name)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET friendly_name = EXCLUDED.friendly_name
RETURNING id::text, name, friendly_name
`
	var c domain.Category
	if err := r.pool.QueryRow(ctx, q, name, friendlyName).Scan(&c.ID, &c.Name, &c.FriendlyName); err != nil {
		r.logger.Printf("product repo: ensure category name=%s error=%v", name, err)
		return nil, err
	}
	return &c, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ID, &p.CategoryID, &p.SKU, &p.Name, &p.Description,
		&p.PriceCents, &p.Rating, &p.ImageURL, &p.IsActive, &p.IsNew, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
