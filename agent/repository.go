package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested agent does not exist.
var ErrNotFound = errors.New("agent: not found")

const maxList = 100

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetByID(ctx context.Context, id string) (Profile, error) {
	if uuid.Validate(id) != nil {
		return Profile{}, ErrNotFound
	}
	const query = `
		SELECT id::text, full_name, email, phone, agency, created_at
		FROM agents
		WHERE id = $1
	`

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("agent: query by id: %w", err)
	}
	return profile, nil
}

// List fetches up to limit agents ordered by name. A non-empty agency
// narrows the result to that agency.
func (r *Repository) List(ctx context.Context, agency string, limit int) ([]Profile, error) {
	if limit <= 0 || limit > maxList {
		limit = maxList
	}

	const query = `
		SELECT id::text, full_name, email, phone, agency, created_at
		FROM agents
		WHERE ($1 = '' OR agency ILIKE $1)
		ORDER BY full_name ASC, id ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, agency, limit)
	if err != nil {
		return nil, fmt.Errorf("agent: list: %w", err)
	}
	defer rows.Close()

	profiles := make([]Profile, 0, limit)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("agent: scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("agent: iterate profiles: %w", err)
	}
	return profiles, nil
}

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.FullName, &p.Email, &p.Phone, &p.Agency, &p.CreatedAt)
	return p, err
}
