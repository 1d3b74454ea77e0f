package service

import (
	"testing"

	"github.com/greenpoints/gp-ui/database/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileWith(id string, points, bottles int) model.UserProfile {
	return model.UserProfile{Id: id, Name: "Member " + id, Role: model.RoleUser, Points: points, Bottles: bottles}
}

func TestRankSortsByPointsDescending(t *testing.T) {
	s := RankingService{}
	profiles := []model.UserProfile{
		profileWith("ID-1001", 100, 2),
		profileWith("ID-1002", 300, 6),
		profileWith("ID-1003", 50, 1),
	}

	ranked := s.Rank(profiles)
	require.Len(t, ranked, 3)
	assert.Equal(t, 1, ranked[0].Position)
	assert.Equal(t, "ID-1002", ranked[0].Profile.Id)
	assert.Equal(t, "ID-1001", ranked[1].Profile.Id)
	assert.Equal(t, "ID-1003", ranked[2].Profile.Id)

	// Input order untouched.
	assert.Equal(t, "ID-1001", profiles[0].Id)
}

func TestRankTiesKeepInsertionOrder(t *testing.T) {
	s := RankingService{}
	profiles := []model.UserProfile{
		profileWith("ID-1001", 100, 2),
		profileWith("ID-1002", 100, 2),
		profileWith("ID-1003", 200, 4),
		profileWith("ID-1004", 100, 2),
	}

	ranked := s.Rank(profiles)
	require.Len(t, ranked, 4)
	assert.Equal(t, "ID-1003", ranked[0].Profile.Id)
	assert.Equal(t, "ID-1001", ranked[1].Profile.Id)
	assert.Equal(t, "ID-1002", ranked[2].Profile.Id)
	assert.Equal(t, "ID-1004", ranked[3].Profile.Id)

	// Re-ranking the same set must not flap positions.
	again := s.Rank(profiles)
	assert.Equal(t, ranked, again)
}

func TestDeriveImpact(t *testing.T) {
	s := RankingService{}

	tests := []struct {
		name     string
		profile  model.UserProfile
		expected Impact
	}{
		{
			name:     "ten bottles",
			profile:  profileWith("ID-1001", 0, 10),
			expected: Impact{Co2Kg: 0.8, EnergyKwh: 5.0, CommunityRank: 100},
		},
		{
			name:     "rank curve at 250 points",
			profile:  profileWith("ID-1001", 250, 0),
			expected: Impact{Co2Kg: 0, EnergyKwh: 0, CommunityRank: 98},
		},
		{
			name:     "rank floors at 1",
			profile:  profileWith("ID-1001", 100000, 0),
			expected: Impact{Co2Kg: 0, EnergyKwh: 0, CommunityRank: 1},
		},
		{
			name:     "zero profile",
			profile:  profileWith("ID-1001", 0, 0),
			expected: Impact{Co2Kg: 0, EnergyKwh: 0, CommunityRank: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.DeriveImpact(tt.profile)
			assert.InDelta(t, tt.expected.Co2Kg, got.Co2Kg, 1e-9)
			assert.InDelta(t, tt.expected.EnergyKwh, got.EnergyKwh, 1e-9)
			assert.Equal(t, tt.expected.CommunityRank, got.CommunityRank)
		})
	}
}

func TestAggregateBottles(t *testing.T) {
	s := RankingService{}

	assert.Equal(t, 0, s.AggregateBottles(nil))
	assert.Equal(t, 9, s.AggregateBottles([]model.UserProfile{
		profileWith("ID-1001", 100, 2),
		profileWith("ID-1002", 300, 6),
		profileWith("ID-1003", 50, 1),
	}))
}
