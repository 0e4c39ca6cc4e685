package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productSeed struct {
	Category    string
	SKU         string
	Name        string
	Description string
	PriceCents  int64
	Rating      float64
}

type marketSeed struct {
	Name      string
	Location  string
	Date      string
	StartTime string
	EndTime   string
	Website   string
}

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	categories := map[string]string{
		"wall-hangings": "Wall Hangings",
		"plant-hangers": "Plant Hangers",
		"accessories":   "Accessories",
	}
	categoryIDs := make(map[string]string, len(categories))
	for name, friendly := range categories {
		id, err := ensureCategory(ctx, pool, name, friendly)
		if err != nil {
			return fmt.Errorf("ensure category %s: %w", name, err)
		}
		categoryIDs[name] = id
	}

	products := []productSeed{
		{
			Category:    "wall-hangings",
			SKU:         "SKU-WH-LARGE-NATURAL",
			Name:        "Large Natural Wall Hanging",
			Description: "Hand-knotted cotton wall hanging in natural tones",
			PriceCents:  6500,
			Rating:      4.8,
		},
		{
			Category:    "wall-hangings",
			SKU:         "SKU-WH-MINI-OCHRE",
			Name:        "Mini Ochre Wall Hanging",
			Description: "Small macrame piece with an ochre stripe",
			PriceCents:  2400,
			Rating:      4.5,
		},
		{
			Category:    "plant-hangers",
			SKU:         "SKU-PH-DOUBLE",
			Name:        "Double Plant Hanger",
			Description: "Two-tier hanger for trailing plants",
			PriceCents:  3200,
			Rating:      4.9,
		},
		{
			Category:    "accessories",
			SKU:         "SKU-AC-KEYRING",
			Name:        "Knotted Keyring",
			Description: "Small knotted keyring in assorted colors",
			PriceCents:  800,
		},
	}
	for _, p := range products {
		if err := upsertProduct(ctx, pool, categoryIDs[p.Category], p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}

	markets := []marketSeed{
		{
			Name:      "Riverside Makers Market",
			Location:  "Riverside Park, Bristol",
			Date:      "2026-10-17",
			StartTime: "09:00",
			EndTime:   "16:00",
			Website:   "https://riversidemakers.example",
		},
		{
			Name:      "Winter Craft Fair",
			Location:  "Town Hall, Bath",
			Date:      "2026-12-05",
			StartTime: "10:00",
			EndTime:   "17:00",
		},
	}
	for _, m := range markets {
		if err := upsertMarket(ctx, pool, m); err != nil {
			return fmt.Errorf("upsert market %s: %w", m.Name, err)
		}
	}

	return nil
}

func ensureCategory(ctx context.Context, pool *pgxpool.Pool, name, friendly string) (string, error) {
	const q = `
INSERT INTO categories (name, friendly_name)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET friendly_name = EXCLUDED.friendly_name
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, name, friendly).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, categoryID string, p productSeed) error {
	const q = `
INSERT INTO products (category_id, sku, name, description, price_cents, rating)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, 0.0))
ON CONFLICT (name) DO UPDATE
SET category_id = EXCLUDED.category_id,
    sku = EXCLUDED.sku,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    rating = EXCLUDED.rating
`
	_, err := pool.Exec(ctx, q, categoryID, p.SKU, p.Name, p.Description, p.PriceCents, p.Rating)
	return err
}

func upsertMarket(ctx context.Context, pool *pgxpool.Pool, m marketSeed) error {
	// markets carry no unique key; refresh by name to stay idempotent.
	const update = `
UPDATE markets
SET location = $2, date = $3::date, start_time = $4, end_time = $5, website = $6
WHERE name = $1
`
	tag, err := pool.Exec(ctx, update, m.Name, m.Location, m.Date, m.StartTime, m.EndTime, m.Website)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	const insert = `
INSERT INTO markets (name, location, date, start_time, end_time, website)
VALUES ($1, $2, $3::date, $4, $5, $6)
`
	_, err = pool.Exec(ctx, insert, m.Name, m.Location, m.Date, m.StartTime, m.EndTime, m.Website)
	return err
}
