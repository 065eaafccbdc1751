package services

import (
	"context"
	"time"

	"controlhub/internal/models"
	"controlhub/internal/repositories"
)

type DashboardService struct {
	DashboardRepo *repositories.DashboardRepository
}

func (s *DashboardService) GetStats(ctx context.Context) (models.DashboardStats, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	total, err := s.DashboardRepo.TotalUsers(ctx)
	if err != nil {
		return models.DashboardStats{}, err
	}
	today, err := s.DashboardRepo.RegistrationsSince(ctx, midnight)
	if err != nil {
		return models.DashboardStats{}, err
	}
	genders, err := s.DashboardRepo.GenderDistribution(ctx)
	if err != nil {
		return models.DashboardStats{}, err
	}
	trend, err := s.DashboardRepo.RegistrationsByDay(ctx, midnight.AddDate(0, 0, -6))
	if err != nil {
		return models.DashboardStats{}, err
	}

	return models.DashboardStats{
		TotalUsers:          total,
		TodaysRegistrations: today,
		GenderDistribution:  genders,
		RegistrationTrend:   trend,
	}, nil
}
