package market

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const marketColumns = `id::text, name, location, date, start_time, end_time, website, image_url, created_at`

func (r *postgresRepo) List(ctx context.Context, upcomingOnly bool) ([]domain.Market, error) {
	q := `SELECT ` + marketColumns + ` FROM markets`
	if upcomingOnly {
		q += ` WHERE date >= CURRENT_DATE`
	}
	q += ` ORDER BY date ASC`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Market, error) {
	m, err := scanMarket(r.pool.QueryRow(ctx, `SELECT `+marketColumns+` FROM markets WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresRepo) Create(ctx context.Context, m domain.Market) (*domain.Market, error) {
	const q = `
INSERT INTO markets (name, location, date, start_time, end_time, website, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id::text, created_at
`
	res := m
	err := r.pool.QueryRow(ctx, q, m.Name, m.Location, m.Date, m.StartTime, m.EndTime, m.Website, m.ImageURL).
		Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Printf("market repo: create name=%s error=%v", m.Name, err)
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepo) Update(ctx context.Context, m domain.Market) (*domain.Market, error) {
	const q = `
UPDATE markets
SET name = $2, location = $3, date = $4, start_time = $5, end_time = $6, website = $7, image_url = $8
WHERE id = $1
RETURNING created_at
`
	res := m
	err := r.pool.QueryRow(ctx, q, m.ID, m.Name, m.Location, m.Date, m.StartTime, m.EndTime, m.Website, m.ImageURL).
		Scan(&res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM markets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const commentColumns = `c.id::text, c.market_id::text, c.profile_id::text, p.username, c.body, c.created_at`

func (r *postgresRepo) ListComments(ctx context.Context, marketID string) ([]domain.Comment, error) {
	const q = `
SELECT ` + commentColumns + `
FROM market_comments c
JOIN profiles p ON p.id = c.profile_id
WHERE c.market_id = $1
ORDER BY c.created_at ASC
`
	rows, err := r.pool.Query(ctx, q, marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (r *postgresRepo) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	const q = `
SELECT ` + commentColumns + `
FROM market_comments c
JOIN profiles p ON p.id = c.profile_id
WHERE c.id = $1
`
	c, err := scanComment(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresRepo) CreateComment(ctx context.Context, c domain.Comment) (*domain.Comment, error) {
	const q = `
INSERT INTO market_comments (market_id, profile_id, body)
VALUES ($1, $2, $3)
RETURNING id::text, created_at
`
	res := c
	if err := r.pool.QueryRow(ctx, q, c.MarketID, c.ProfileID, c.Body).Scan(&res.ID, &res.CreatedAt); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepo) UpdateComment(ctx context.Context, id, body string) (*domain.Comment, error) {
	const q = `UPDATE market_comments SET body = $2 WHERE id = $1 RETURNING id::text`
	var updated string
	if err := r.pool.QueryRow(ctx, q, id, body).Scan(&updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return r.GetComment(ctx, id)
}

func (r *postgresRepo) DeleteComment(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM market_comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) SaveMarket(ctx context.Context, profileID, marketID string) error {
	const q = `
INSERT INTO saved_markets (profile_id, market_id)
VALUES ($1, $2)
`
	_, err := r.pool.Exec(ctx, q, profileID, marketID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *postgresRepo) UnsaveMarket(ctx context.Context, profileID, marketID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM saved_markets WHERE profile_id = $1 AND market_id = $2`, profileID, marketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ListSaved(ctx context.Context, profileID string) ([]domain.Market, error) {
	const q = `
SELECT m.id::text, m.name, m.location, m.date, m.start_time, m.end_time, m.website, m.image_url, m.created_at
FROM saved_markets s
JOIN markets m ON m.id = s.market_id
WHERE s.profile_id = $1
ORDER BY m.date ASC
`
	rows, err := r.pool.Query(ctx, q, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

func scanMarket(row pgx.Row) (*domain.Market, error) {
	var m domain.Market
	if err := row.Scan(&m.ID, &m.Name, &m.Location, &m.Date, &m.StartTime, &m.EndTime, &m.Website, &m.ImageURL, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var c domain.Comment
	if err := row.Scan(&c.ID, &c.MarketID, &c.ProfileID, &c.Author, &c.Body, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
