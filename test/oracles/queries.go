package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Oracle is a query that must return no rows while the system is healthy.
type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_updated_not_before_created",
			SQL:  `SELECT id, created_at, updated_at FROM listings WHERE updated_at < created_at`,
		},
		{
			Name: "O2_deleted_status_without_flag",
			SQL:  `SELECT id FROM listings WHERE NOT deleted AND status = 'deleted'`,
		},
		{
			Name: "O3_visible_count_matches_partition",
			SQL: `SELECT v.n, d.n, t.n FROM
                      (SELECT COUNT(*) AS n FROM listings WHERE NOT (deleted OR status = 'deleted')) v,
                      (SELECT COUNT(*) AS n FROM listings WHERE deleted OR status = 'deleted') d,
                      (SELECT COUNT(*) AS n FROM listings) t
                  WHERE v.n + d.n <> t.n`,
		},
		{
			Name: "O4_dangling_agent",
			SQL: `SELECT l.id FROM listings l
                  LEFT JOIN agents a ON a.id = l.agent_id
                  WHERE l.agent_id IS NOT NULL AND a.id IS NULL`,
		},
		{
			Name: "O5_brief_price_range",
			SQL:  `SELECT id FROM client_briefs WHERE price_min >= price_max OR price_min < 0`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample
// row text) or an empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		if rows.Next() {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
	}
	return "", "", nil
}
