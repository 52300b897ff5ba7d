package postgres

import (
	"context"
	"fmt"

	"androbot/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader reads specialty question pools straight from Postgres for the catalog caches.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) QuestionIDs(ctx context.Context, specialty domain.Specialty) ([]int64, error) {
	rows, err := l.pool.Query(ctx, `SELECT id FROM question WHERE specialty=$1 ORDER BY id`, string(specialty))
	if err != nil {
		return nil, fmt.Errorf("load question ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan question id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load question ids: %w", err)
	}
	return ids, nil
}
