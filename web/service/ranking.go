package service

import (
	"math"
	"sort"

	"github.com/greenpoints/gp-ui/database/model"
)

// Impact coefficients per bottle and the rank curve divisor. These mirror the
// dashboard's published numbers and are not configurable.
const (
	co2KgPerBottle     = 0.08
	energyKwhPerBottle = 0.5
	rankCurveDivisor   = 100
)

// RankedProfile is one leaderboard row. Position starts at 1.
type RankedProfile struct {
	Position int               `json:"position"`
	Profile  model.UserProfile `json:"profile"`
}

// Impact is the derived environmental summary for one profile.
type Impact struct {
	Co2Kg         float64 `json:"co2Kg"`
	EnergyKwh     float64 `json:"energyKwh"`
	CommunityRank int     `json:"communityRank"`
}

// RankingService derives the leaderboard and per-profile metrics from a
// profile set. Pure projections, recomputed per call, no caching.
type RankingService struct{}

// Rank sorts profiles by points descending. The sort is stable so equal
// scores keep their incoming (insertion) order and positions do not flap
// between renders.
func (s *RankingService) Rank(profiles []model.UserProfile) []RankedProfile {
	sorted := make([]model.UserProfile, len(profiles))
	copy(sorted, profiles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Points > sorted[j].Points
	})

	ranked := make([]RankedProfile, 0, len(sorted))
	for i, profile := range sorted {
		ranked = append(ranked, RankedProfile{Position: i + 1, Profile: profile})
	}
	return ranked
}

// DeriveImpact computes the fixed linear impact estimates for one profile.
func (s *RankingService) DeriveImpact(profile model.UserProfile) Impact {
	rank := rankCurveDivisor - int(math.Floor(float64(profile.Points)/rankCurveDivisor))
	if rank < 1 {
		rank = 1
	}
	return Impact{
		Co2Kg:         float64(profile.Bottles) * co2KgPerBottle,
		EnergyKwh:     float64(profile.Bottles) * energyKwhPerBottle,
		CommunityRank: rank,
	}
}

// AggregateBottles sums bottle counts across profiles. Feeds the insights
// service.
func (s *RankingService) AggregateBottles(profiles []model.UserProfile) int {
	total := 0
	for _, profile := range profiles {
		total += profile.Bottles
	}
	return total
}
