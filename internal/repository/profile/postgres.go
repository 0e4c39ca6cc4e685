package profile

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"knot-art-api/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const profileColumns = `id::text, username, email, password_hash, is_admin, created_at,
default_phone_number, default_street_address1, default_street_address2,
default_town_or_city, default_postcode, default_county, default_country`

func (r *postgresRepo) Create(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	const q = `
INSERT INTO profiles (username, email, password_hash, is_admin)
VALUES ($1, $2, $3, $4)
RETURNING ` + profileColumns + `
`
	out, err := scanProfile(r.pool.QueryRow(ctx, q,
		strings.ToLower(strings.TrimSpace(p.Username)),
		strings.ToLower(strings.TrimSpace(p.Email)),
		p.PasswordHash,
		p.IsAdmin,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("profile repo: create username=%s error=%v", p.Username, err)
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	const q = `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1 LIMIT 1`
	out, err := scanProfile(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) GetByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	const q = `SELECT ` + profileColumns + ` FROM profiles WHERE lower(username) = lower($1) LIMIT 1`
	out, err := scanProfile(r.pool.QueryRow(ctx, q, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) SaveDefaults(ctx context.Context, id string, d domain.DeliveryDefaults) error {
	const q = `
UPDATE profiles
SET default_phone_number = $2,
    default_street_address1 = $3,
    default_street_address2 = $4,
    default_town_or_city = $5,
    default_postcode = $6,
    default_county = $7,
    default_country = $8
WHERE id = $1
`
	cmd, err := r.pool.Exec(ctx, q, id,
		d.PhoneNumber, d.StreetAddress1, d.StreetAddress2,
		d.TownOrCity, d.Postcode, d.County, d.Country,
	)
	if err != nil {
		r.logger.Printf("profile repo: save defaults id=%s error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	if err := row.Scan(
		&p.ID, &p.Username, &p.Email, &p.PasswordHash, &p.IsAdmin, &p.CreatedAt,
		&p.DefaultPhoneNumber, &p.DefaultStreetAddress1, &p.DefaultStreetAddress2,
		&p.DefaultTownOrCity, &p.DefaultPostcode, &p.DefaultCounty, &p.DefaultCountry,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
