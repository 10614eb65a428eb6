package brief

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"buyersdesk/listing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("brief: not found")
)

type Repository interface {
	Create(ctx context.Context, b Brief) (Brief, error)
	List(ctx context.Context, filters Filters) ([]Brief, int, error)
	Get(ctx context.Context, id string) (Brief, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Brief, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status Status) (Brief, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const briefColumns = `id::text, client_name, regions, price_min, price_max, property_type, status, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, b Brief) (Brief, error) {
	query := `
		INSERT INTO client_briefs (id, client_name, regions, price_min, price_max, property_type, status)
		VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7)
		RETURNING ` + briefColumns

	row := r.pool.QueryRow(ctx, query,
		b.ID,
		b.ClientName,
		b.Regions,
		b.PriceMin,
		b.PriceMax,
		b.PropertyType,
		b.Status,
	)
	created, err := scanBrief(row)
	if err != nil {
		return Brief{}, fmt.Errorf("brief: insert: %w", err)
	}
	return created, nil
}

func (r *PGRepository) List(ctx context.Context, filters Filters) ([]Brief, int, error) {
	filters = normalizeFilters(filters)

	where := []string{"1=1"}
	args := []any{}

	if filters.Status != "" {
		where = append(where, fmt.Sprintf("status=$%d", len(args)+1))
		args = append(args, filters.Status)
	}
	if filters.Region != "" {
		where = append(where, fmt.Sprintf("$%d = ANY(regions)", len(args)+1))
		args = append(args, filters.Region)
	}

	whereClause := " WHERE " + strings.Join(where, " AND ")

	sortOrder := strings.ToUpper(filters.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`SELECT %s FROM client_briefs%s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d`,
		briefColumns, whereClause, mapSortKey(filters.SortKey), sortOrder, filters.PageSize, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("brief: query list: %w", err)
	}
	defer rows.Close()

	list := []Brief{}
	for rows.Next() {
		b, err := scanBrief(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("brief: scan: %w", err)
		}
		list = append(list, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("brief: iterate: %w", err)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM client_briefs" + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("brief: count list: %w", err)
	}
	return list, total, nil
}

func (r *PGRepository) Get(ctx context.Context, id string) (Brief, error) {
	if uuid.Validate(id) != nil {
		return Brief{}, ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+briefColumns+` FROM client_briefs WHERE id = $1`, id)
	b, err := scanBrief(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Brief{}, ErrNotFound
		}
		return Brief{}, fmt.Errorf("brief: get: %w", err)
	}
	return b, nil
}

func (r *PGRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Brief, error) {
	if uuid.Validate(id) != nil {
		return Brief{}, ErrNotFound
	}
	row := tx.QueryRow(ctx, `SELECT `+briefColumns+` FROM client_briefs WHERE id = $1 FOR UPDATE`, id)
	b, err := scanBrief(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Brief{}, ErrNotFound
		}
		return Brief{}, fmt.Errorf("brief: get for update: %w", err)
	}
	return b, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status Status) (Brief, error) {
	query := `
		UPDATE client_briefs
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + briefColumns

	b, err := scanBrief(tx.QueryRow(ctx, query, id, status))
	if err != nil {
		return Brief{}, fmt.Errorf("brief: update status: %w", err)
	}
	return b, nil
}

func normalizeFilters(filters Filters) Filters {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.Page > listing.MaxPage {
		filters.Page = listing.MaxPage
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	if filters.SortKey == "" {
		filters.SortKey = "createdAt"
	}
	if filters.SortOrder == "" {
		filters.SortOrder = "desc"
	}
	return filters
}

func scanBrief(row pgx.Row) (Brief, error) {
	var b Brief
	err := row.Scan(
		&b.ID,
		&b.ClientName,
		&b.Regions,
		&b.PriceMin,
		&b.PriceMax,
		&b.PropertyType,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	return b, err
}

func mapSortKey(key string) string {
	switch key {
	case "clientName":
		return "lower(client_name)"
	case "priceMin":
		return "price_min"
	case "priceMax":
		return "price_max"
	case "status":
		return "status"
	case "updatedAt":
		return "updated_at"
	default:
		return "created_at"
	}
}
