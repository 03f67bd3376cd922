package pg

import (
	"context"
	"database/sql"

	"reviewgate/internal/domain/stats"
)

type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) CountPullRequestsByStatus(ctx context.Context) ([]stats.StatusCount, error) {
	return r.counts(ctx, `
		SELECT status, COUNT(*)
		  FROM pull_requests
		 GROUP BY status
		 ORDER BY status`)
}

func (r *StatsRepository) CountReviewsByStatus(ctx context.Context) ([]stats.StatusCount, error) {
	return r.counts(ctx, `
		SELECT status, COUNT(*)
		  FROM reviews
		 GROUP BY status
		 ORDER BY status`)
}

func (r *StatsRepository) counts(ctx context.Context, q string) ([]stats.StatusCount, error) {
	rows, err := query(ctx, r.db, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []stats.StatusCount
	for rows.Next() {
		var c stats.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r *StatsRepository) CategoryBreakdown(ctx context.Context) ([]stats.CategoryStat, error) {
	rows, err := query(ctx, r.db, `
		SELECT category, COUNT(*), COALESCE(AVG(score), 0)
		  FROM reviews
		 GROUP BY category
		 ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []stats.CategoryStat
	for rows.Next() {
		var c stats.CategoryStat
		if err := rows.Scan(&c.Category, &c.ReviewCount, &c.AverageScore); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}
