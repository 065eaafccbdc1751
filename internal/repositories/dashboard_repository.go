package repositories

import (
	"context"
	"database/sql"
	"time"

	"controlhub/internal/models"
)

type DashboardRepository struct {
	DB *sql.DB
}

func (r *DashboardRepository) TotalUsers(ctx context.Context) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_profiles`).Scan(&count)
	return count, err
}

func (r *DashboardRepository) RegistrationsSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_profiles WHERE created_at >= ?`, since,
	).Scan(&count)
	return count, err
}

func (r *DashboardRepository) GenderDistribution(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT gender, COUNT(*) FROM user_profiles GROUP BY gender`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dist := make(map[string]int)
	for rows.Next() {
		var gender string
		var count int
		if err := rows.Scan(&gender, &count); err != nil {
			return nil, err
		}
		dist[gender] = count
	}
	return dist, rows.Err()
}

// RegistrationsByDay returns per-day signup counts since the given moment,
// oldest day first. Days without signups are absent from the result.
func (r *DashboardRepository) RegistrationsByDay(ctx context.Context, since time.Time) ([]models.DailyRegistrations, error) {
	rows, err := r.DB.QueryContext(ctx, `
SELECT DATE(created_at) AS day, COUNT(*)
FROM user_profiles
WHERE created_at >= ?
GROUP BY DATE(created_at)
ORDER BY day
`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trend []models.DailyRegistrations
	for rows.Next() {
		var d models.DailyRegistrations
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, err
		}
		trend = append(trend, d)
	}
	return trend, rows.Err()
}
