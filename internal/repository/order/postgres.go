package order

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"knot-art-api/internal/domain"
	"knot-art-api/internal/pricing"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	rule   pricing.Rule
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, rule pricing.Rule, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, rule: rule, logger: logger}
}

const orderColumns = `id::text, order_number, profile_id::text, full_name, email, phone_number,
street_address1, street_address2, town_or_city, postcode, county, country,
created_at, order_total_cents, delivery_cost_cents, grand_total_cents, original_cart, stripe_pid`

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	// Order number is assigned exactly once, here, and never changes.
	if o.OrderNumber == "" {
		o.OrderNumber = domain.NewOrderNumber()
	}
	const q = `
INSERT INTO orders (order_number, profile_id, full_name, email, phone_number,
                    street_address1, street_address2, town_or_city, postcode, county, country,
                    original_cart, stripe_pid)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING id::text, created_at
`
	res := o
	err := r.pool.QueryRow(ctx, q,
		o.OrderNumber, o.ProfileID, o.FullName, o.Email, o.PhoneNumber,
		o.StreetAddress1, o.StreetAddress2, o.TownOrCity, o.Postcode, o.County, o.Country,
		o.OriginalCart, o.StripePID,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Printf("order repo: create error=%v", err)
		return nil, err
	}
	r.logger.Printf("order repo: created order_number=%s stripe_pid=%s", res.OrderNumber, res.StripePID)
	return &res, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.fetchOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepo) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return r.fetchOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
}

func (r *postgresRepo) AddLineItem(ctx context.Context, orderID string, product domain.Product, quantity int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// The line total is captured now; later catalog price changes must
	// not touch it.
	lineTotal := product.PriceCents * int64(quantity)
	if _, err := tx.Exec(ctx, `
INSERT INTO order_line_items (order_id, product_id, quantity, lineitem_total_cents)
VALUES ($1, $2, $3, $4)
`, orderID, product.ID, quantity, lineTotal); err != nil {
		return err
	}

	if err := r.recomputeTotals(ctx, tx, orderID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) Delete(ctx context.Context, orderID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		r.logger.Printf("order repo: delete id=%s error=%v", orderID, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("order repo: deleted id=%s", orderID)
	return nil
}

func (r *postgresRepo) FindMatching(ctx context.Context, m Match) (*domain.Order, error) {
	// Customer fields compare case-insensitively; optional fields match
	// NULL against NULL (empty strings are normalized before we get
	// here). Cart snapshot and payment reference compare exactly.
	const q = `
SELECT ` + orderColumns + `
FROM orders
WHERE LOWER(full_name) = LOWER($1)
  AND LOWER(email) = LOWER($2)
  AND LOWER(phone_number) = LOWER($3)
  AND LOWER(street_address1) = LOWER($4)
  AND LOWER(street_address2) IS NOT DISTINCT FROM LOWER($5)
  AND LOWER(town_or_city) = LOWER($6)
  AND LOWER(postcode) IS NOT DISTINCT FROM LOWER($7)
  AND LOWER(county) IS NOT DISTINCT FROM LOWER($8)
  AND LOWER(country) = LOWER($9)
  AND grand_total_cents = $10
  AND original_cart = $11
  AND stripe_pid = $12
ORDER BY created_at ASC
LIMIT 1
`
	d := m.Details
	return r.fetchOrder(ctx, q,
		d.FullName, d.Email, d.PhoneNumber, d.StreetAddress1, d.StreetAddress2,
		d.TownOrCity, d.Postcode, d.County, d.Country,
		m.GrandTotalCents, m.OriginalCart, m.StripePID,
	)
}

func (r *postgresRepo) AttachProfile(ctx context.Context, orderID, profileID string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE orders SET profile_id = $1 WHERE id = $2`, profileID, orderID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ListByProfile(ctx context.Context, profileID string) ([]domain.Order, error) {
	const q = `
SELECT ` + orderColumns + `
FROM orders
WHERE profile_id = $1
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	return result, rows.Err()
}

// recomputeTotals re-derives the header totals from the live line item
// collection. Called explicitly whenever a line item is added, always
// inside that mutation's transaction.
func (r *postgresRepo) recomputeTotals(ctx context.Context, tx pgx.Tx, orderID string) error {
	var orderTotal int64
	if err := tx.QueryRow(ctx, `
SELECT COALESCE(SUM(lineitem_total_cents), 0)
FROM order_line_items
WHERE order_id = $1
`, orderID).Scan(&orderTotal); err != nil {
		return err
	}

	delivery, grand := r.rule.Totals(orderTotal)
	_, err := tx.Exec(ctx, `
UPDATE orders
SET order_total_cents = $2, delivery_cost_cents = $3, grand_total_cents = $4
WHERE id = $1
`, orderID, orderTotal, delivery, grand)
	return err
}

func (r *postgresRepo) fetchOrder(ctx context.Context, q string, args ...interface{}) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const linesQuery = `
SELECT li.id::text, li.order_id::text, li.product_id::text, p.name, li.quantity, li.lineitem_total_cents
FROM order_line_items li
JOIN products p ON p.id = li.product_id
WHERE li.order_id = $1
ORDER BY li.created_at ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLineItem
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.ProductName, &line.Quantity, &line.LineTotalCents); err != nil {
			return nil, err
		}
		o.LineItems = append(o.LineItems, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return o, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(
		&o.ID, &o.OrderNumber, &o.ProfileID, &o.FullName, &o.Email, &o.PhoneNumber,
		&o.StreetAddress1, &o.StreetAddress2, &o.TownOrCity, &o.Postcode, &o.County, &o.Country,
		&o.CreatedAt, &o.OrderTotalCents, &o.DeliveryCostCents, &o.GrandTotalCents, &o.OriginalCart, &o.StripePID,
	); err != nil {
		return nil, err
	}
	return &o, nil
}
