package usecase

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/creatorhub/creator-hub-api/internal/model"
	"github.com/creatorhub/creator-hub-api/internal/repository"
)

// DashboardUsecase composes the independent read endpoints (points, rank,
// enrollments, projects, achievements, recent activity) into display
// statistics. Sub-reads are independent: a failed one degrades its field to
// the zero value instead of failing the response.
type DashboardUsecase interface {
	Stats(ctx context.Context, uid string) (*model.DashboardStats, error)
}

// RankCacher is the leaderboard-rank cache surface; satisfied by
// *cache.RankCache.
type RankCacher interface {
	Get(ctx context.Context, userID string) (int64, error)
	Set(ctx context.Context, userID string, rank int64) error
}

const recentActivityLimit = 10

type dashboardUsecase struct {
	userRepo     repository.UserRepository
	statsRepo    repository.StatsRepository
	activityRepo repository.ActivityRepository
	rankCache    RankCacher
	logger       *zerolog.Logger
}

// NewDashboardUsecase creates a new instance of DashboardUsecase.
func NewDashboardUsecase(
	userRepo repository.UserRepository,
	statsRepo repository.StatsRepository,
	activityRepo repository.ActivityRepository,
	rankCache RankCacher,
	logger *zerolog.Logger,
) DashboardUsecase {
	return &dashboardUsecase{
		userRepo:     userRepo,
		statsRepo:    statsRepo,
		activityRepo: activityRepo,
		rankCache:    rankCache,
		logger:       logger,
	}
}

func (u *dashboardUsecase) Stats(ctx context.Context, uid string) (*model.DashboardStats, error) {
	if _, err := u.userRepo.GetUser(ctx, uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	stats := &model.DashboardStats{
		Achievements:   []model.Achievement{},
		RecentActivity: []model.ActivityEvent{},
	}

	var wg sync.WaitGroup
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				u.logger.Warn().Err(err).Str("uid", uid).Str("read", name).Msg("dashboard sub-read failed")
			}
		}()
	}

	run("points", func() error {
		points, err := u.statsRepo.Points(ctx, uid)
		if err != nil {
			return err
		}
		stats.Points = points
		return nil
	})

	run("rank", func() error {
		if rank, err := u.rankCache.Get(ctx, uid); err == nil {
			stats.Rank = rank
			return nil
		}
		rank, err := u.statsRepo.Rank(ctx, uid)
		if err != nil {
			return err
		}
		stats.Rank = rank
		if err := u.rankCache.Set(ctx, uid, rank); err != nil {
			u.logger.Warn().Err(err).Str("uid", uid).Msg("failed to cache rank")
		}
		return nil
	})

	run("enrollments", func() error {
		n, err := u.statsRepo.EnrollmentCount(ctx, uid)
		if err != nil {
			return err
		}
		stats.EnrolledCourses = n
		return nil
	})

	run("projects", func() error {
		n, err := u.statsRepo.ProjectCount(ctx, uid)
		if err != nil {
			return err
		}
		stats.CreatedProjects = n
		return nil
	})

	run("achievements", func() error {
		achievements, err := u.statsRepo.Achievements(ctx, uid)
		if err != nil {
			return err
		}
		stats.Achievements = achievements
		return nil
	})

	run("activity", func() error {
		events, err := u.activityRepo.RecentByUserID(ctx, uid, recentActivityLimit)
		if err != nil {
			return err
		}
		stats.RecentActivity = events
		return nil
	})

	wg.Wait()

	return stats, nil
}
