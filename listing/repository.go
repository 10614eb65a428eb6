package listing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotFound = errors.New("listing: not found")
)

// StatusFilterAll matches every record, soft-deleted ones included.
const StatusFilterAll = "all"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*pageSize within a Postgres int4 OFFSET.
	MaxPage = math.MaxInt32 / MaxPageSize
)

type Repository interface {
	Search(ctx context.Context, filters Filters) (SearchResult, error)
	Get(ctx context.Context, id string) (Record, error)
	Create(ctx context.Context, rec Record) (Record, error)
	Update(ctx context.Context, rec Record) (Record, error)
	SetDeleted(ctx context.Context, id string, deleted bool) (Record, error)
	SetDecision(ctx context.Context, id string, decision Decision) (Record, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectColumns = `l.id::text, l.address, l.suburb, l.price, l.yield, l.status, l.decision, l.deleted,
	l.agent_id::text, a.full_name, l.poster_name, l.client_brief_id::text, l.auction_date, l.listed_at, l.created_at, l.updated_at`

// NormalizeFilters applies paging and sort defaults.
func NormalizeFilters(filters Filters) Filters {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.Page > MaxPage {
		filters.Page = MaxPage
	}
	if filters.PageSize <= 0 || filters.PageSize > MaxPageSize {
		filters.PageSize = DefaultPageSize
	}
	if filters.SortKey == "" {
		filters.SortKey = "createdAt"
	}
	if filters.SortOrder == "" {
		filters.SortOrder = "desc"
	}
	return filters
}

func (r *PGRepository) Search(ctx context.Context, filters Filters) (SearchResult, error) {
	filters = NormalizeFilters(filters)

	where, args := buildWhere(filters)
	whereClause := " WHERE " + strings.Join(where, " AND ")
	from := ` FROM listings l LEFT JOIN agents a ON a.id = l.agent_id`

	sortKey := mapSortKey(filters.SortKey)
	sortOrder := strings.ToUpper(filters.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	limit := filters.PageSize
	offset := (filters.Page - 1) * filters.PageSize

	var result SearchResult
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		query := fmt.Sprintf(`SELECT %s%s%s ORDER BY %s %s NULLS LAST, l.id ASC LIMIT %d OFFSET %d`,
			selectColumns, from, whereClause, sortKey, sortOrder, limit, offset)
		rows, err := r.pool.Query(gctx, query, args...)
		if err != nil {
			return fmt.Errorf("listing: query search: %w", err)
		}
		defer rows.Close()

		items := []Record{}
		for rows.Next() {
			rec, err := scanRecord(rows)
			if err != nil {
				return fmt.Errorf("listing: scan search row: %w", err)
			}
			items = append(items, rec)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("listing: iterate search: %w", err)
		}
		result.Items = items
		return nil
	})

	g.Go(func() error {
		countQuery := "SELECT COUNT(*)" + from + whereClause
		if err := r.pool.QueryRow(gctx, countQuery, args...).Scan(&result.TotalCount); err != nil {
			return fmt.Errorf("listing: count search: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		const allQuery = `SELECT COUNT(*) FROM listings WHERE NOT (deleted OR status = 'deleted')`
		if err := r.pool.QueryRow(gctx, allQuery).Scan(&result.AllCount); err != nil {
			return fmt.Errorf("listing: count all: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return SearchResult{}, err
	}
	return result, nil
}

func buildWhere(filters Filters) ([]string, []any) {
	where := []string{"1=1"}
	args := []any{}

	if text := strings.TrimSpace(filters.Text); text != "" {
		n := len(args) + 1
		where = append(where, fmt.Sprintf(
			"(l.address ILIKE $%d OR l.suburb ILIKE $%d OR a.full_name ILIKE $%d OR l.poster_name ILIKE $%d)", n, n, n, n))
		args = append(args, "%"+escapeLike(text)+"%")
	}

	switch filters.Status {
	case "":
		where = append(where, "NOT (l.deleted OR l.status = 'deleted')")
	case StatusFilterAll:
	case string(StatusDeleted):
		where = append(where, "(l.deleted OR l.status = 'deleted')")
	default:
		where = append(where, fmt.Sprintf("l.status = $%d AND NOT l.deleted", len(args)+1))
		args = append(args, filters.Status)
	}

	if filters.MinPrice != nil {
		where = append(where, fmt.Sprintf("l.price >= $%d", len(args)+1))
		args = append(args, *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		where = append(where, fmt.Sprintf("l.price <= $%d", len(args)+1))
		args = append(args, *filters.MaxPrice)
	}
	if filters.PostedWithinDays != nil {
		where = append(where, fmt.Sprintf("COALESCE(l.listed_at, l.created_at) >= now() - make_interval(days => $%d)", len(args)+1))
		args = append(args, *filters.PostedWithinDays)
	}

	return where, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *PGRepository) Get(ctx context.Context, id string) (Record, error) {
	if uuid.Validate(id) != nil {
		return Record{}, ErrNotFound
	}
	query := `SELECT ` + selectColumns + ` FROM listings l LEFT JOIN agents a ON a.id = l.agent_id WHERE l.id = $1`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("listing: get: %w", err)
	}
	return rec, nil
}

func (r *PGRepository) Create(ctx context.Context, rec Record) (Record, error) {
	query := `
		WITH l AS (
			INSERT INTO listings (id, address, suburb, price, yield, status, decision, deleted, agent_id,
				poster_name, client_brief_id, auction_date, listed_at)
			VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, false, $8, $9, $10, $11, $12)
			RETURNING *
		)
		SELECT ` + selectColumns + ` FROM l LEFT JOIN agents a ON a.id = l.agent_id
	`

	created, err := scanRecord(r.pool.QueryRow(ctx, query,
		rec.ID,
		rec.Address,
		rec.Suburb,
		rec.Price,
		rec.Yield,
		rec.Status,
		rec.Decision,
		rec.AgentID,
		rec.PosterName,
		rec.ClientBriefID,
		rec.AuctionDate,
		rec.ListedAt,
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return Record{}, fmt.Errorf("%w: unknown agent or client brief", ErrInvalidInput)
		}
		return Record{}, fmt.Errorf("listing: create: %w", err)
	}
	return created, nil
}

func (r *PGRepository) Update(ctx context.Context, rec Record) (Record, error) {
	if uuid.Validate(rec.ID) != nil {
		return Record{}, ErrNotFound
	}
	query := `
		WITH l AS (
			UPDATE listings
			SET address = $2, suburb = $3, price = $4, yield = $5, status = $6, agent_id = $7,
			    poster_name = $8, client_brief_id = $9, auction_date = $10, listed_at = $11, updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + selectColumns + ` FROM l LEFT JOIN agents a ON a.id = l.agent_id
	`

	updated, err := scanRecord(r.pool.QueryRow(ctx, query,
		rec.ID,
		rec.Address,
		rec.Suburb,
		rec.Price,
		rec.Yield,
		rec.Status,
		rec.AgentID,
		rec.PosterName,
		rec.ClientBriefID,
		rec.AuctionDate,
		rec.ListedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		if isForeignKeyViolation(err) {
			return Record{}, fmt.Errorf("%w: unknown agent or client brief", ErrInvalidInput)
		}
		return Record{}, fmt.Errorf("listing: update: %w", err)
	}
	return updated, nil
}

// SetDeleted toggles the soft-delete flag. Restoring a record whose status
// is "deleted" also returns it to active.
func (r *PGRepository) SetDeleted(ctx context.Context, id string, deleted bool) (Record, error) {
	if uuid.Validate(id) != nil {
		return Record{}, ErrNotFound
	}
	query := `
		WITH l AS (
			UPDATE listings
			SET deleted = $2,
			    status = CASE WHEN NOT $2 AND status = 'deleted' THEN 'active' ELSE status END,
			    updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + selectColumns + ` FROM l LEFT JOIN agents a ON a.id = l.agent_id
	`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id, deleted))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("listing: set deleted: %w", err)
	}
	return rec, nil
}

func (r *PGRepository) SetDecision(ctx context.Context, id string, decision Decision) (Record, error) {
	if uuid.Validate(id) != nil {
		return Record{}, ErrNotFound
	}
	query := `
		WITH l AS (
			UPDATE listings
			SET decision = $2, updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + selectColumns + ` FROM l LEFT JOIN agents a ON a.id = l.agent_id
	`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id, decision))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("listing: set decision: %w", err)
	}
	return rec, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID,
		&rec.Address,
		&rec.Suburb,
		&rec.Price,
		&rec.Yield,
		&rec.Status,
		&rec.Decision,
		&rec.Deleted,
		&rec.AgentID,
		&rec.AgentName,
		&rec.PosterName,
		&rec.ClientBriefID,
		&rec.AuctionDate,
		&rec.ListedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	return rec, err
}

// mapSortKey folds text columns to lower case so the database orders them
// the same way query.Compare does.
func mapSortKey(key string) string {
	switch key {
	case "address":
		return "lower(l.address)"
	case "suburb":
		return "lower(NULLIF(l.suburb, ''))"
	case "price":
		return "l.price"
	case "yield":
		return "l.yield"
	case "status":
		return "l.status"
	case "decision":
		return "l.decision"
	case "agentName":
		return "lower(a.full_name)"
	case "auctionDate":
		return "NULLIF(l.auction_date, '')"
	case "listedAt":
		return "l.listed_at"
	case "updatedAt":
		return "l.updated_at"
	case "createdAt":
		fallthrough
	default:
		return "l.created_at"
	}
}
