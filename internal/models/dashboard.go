package models

type DailyRegistrations struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type DashboardStats struct {
	TotalUsers          int                  `json:"total_users"`
	TodaysRegistrations int                  `json:"todays_registrations"`
	GenderDistribution  map[string]int       `json:"gender_distribution"`
	RegistrationTrend   []DailyRegistrations `json:"registration_trend"`
}
