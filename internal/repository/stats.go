package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/creatorhub/creator-hub-api/internal/model"
)

// StatsRepository reads the satellite entities the dashboard composes. The
// rows are owned by the courses, portfolio, and gamification subsystems; only
// reads live here.
type StatsRepository interface {
	Points(ctx context.Context, userID string) (int64, error)
	Rank(ctx context.Context, userID string) (int64, error)
	EnrollmentCount(ctx context.Context, userID string) (int64, error)
	ProjectCount(ctx context.Context, userID string) (int64, error)
	Achievements(ctx context.Context, userID string) ([]model.Achievement, error)
}

type statsPostgresRepository struct {
	db *sql.DB
}

// NewStatsPostgresRepository creates a Postgres-backed StatsRepository.
func NewStatsPostgresRepository(db *sql.DB) StatsRepository {
	return &statsPostgresRepository{db: db}
}

func (r *statsPostgresRepository) Points(ctx context.Context, userID string) (int64, error) {
	var points int64
	err := r.db.QueryRowContext(ctx,
		`SELECT points FROM user_points WHERE user_id = $1`,
		userID,
	).Scan(&points)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}

	return points, err
}

func (r *statsPostgresRepository) Rank(ctx context.Context, userID string) (int64, error) {
	var rank int64
	err := r.db.QueryRowContext(ctx,
		`SELECT rank FROM (
			SELECT user_id, RANK() OVER (ORDER BY points DESC) AS rank
			FROM user_points
		 ) ranked WHERE user_id = $1`,
		userID,
	).Scan(&rank)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}

	return rank, err
}

func (r *statsPostgresRepository) EnrollmentCount(ctx context.Context, userID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM enrollments WHERE user_id = $1`, userID)
}

func (r *statsPostgresRepository) ProjectCount(ctx context.Context, userID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM projects WHERE user_id = $1`, userID)
}

func (r *statsPostgresRepository) count(ctx context.Context, query, userID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&n)

	return n, err
}

func (r *statsPostgresRepository) Achievements(ctx context.Context, userID string) ([]model.Achievement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, earned_at
		 FROM achievements WHERE user_id = $1 ORDER BY earned_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	achievements := []model.Achievement{}
	for rows.Next() {
		var a model.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.EarnedAt); err != nil {
			return nil, err
		}
		achievements = append(achievements, a)
	}

	return achievements, rows.Err()
}
