package storage

import (
	"context"
	"fmt"
	"math"

	"treewatch/models"
)

type groupCount struct {
	Label string
	Total int64
}

// GetTreeStats aggregates the dashboard figures. Everything except the raw
// total is scoped to approved trees.
func (s *Storage) GetTreeStats(ctx context.Context) (*models.TreeStats, error) {
	db := s.db.WithContext(ctx)
	stats := &models.TreeStats{
		SpeciesDistribution:   map[string]int64{},
		ConditionDistribution: map[string]int64{},
		RecentTrees:           []models.RecentTree{},
	}

	if err := db.Model(&models.Tree{}).Count(&stats.TotalTrees).Error; err != nil {
		return nil, fmt.Errorf("failed to count trees: %w", err)
	}

	var approved int64
	if err := db.Model(&models.Tree{}).
		Where("status = ?", models.StatusApproved).
		Count(&approved).Error; err != nil {
		return nil, fmt.Errorf("failed to count approved trees: %w", err)
	}

	var conditions []groupCount
	if err := db.Model(&models.Tree{}).
		Select(`"condition" AS label, COUNT(*) AS total`).
		Where("status = ?", models.StatusApproved).
		Group("condition").
		Scan(&conditions).Error; err != nil {
		return nil, fmt.Errorf("failed to group by condition: %w", err)
	}
	for _, c := range conditions {
		stats.ConditionDistribution[c.Label] = c.Total
	}

	var species []groupCount
	if err := db.Model(&models.Tree{}).
		Select("species AS label, COUNT(*) AS total").
		Where("status = ?", models.StatusApproved).
		Group("species").
		Scan(&species).Error; err != nil {
		return nil, fmt.Errorf("failed to group by species: %w", err)
	}
	for _, sp := range species {
		stats.SpeciesDistribution[sp.Label] = sp.Total
	}
	stats.Species = int64(len(species))

	if err := db.Model(&models.Tree{}).
		Where("status = ?", models.StatusApproved).
		Distinct("contributor_id").
		Count(&stats.Contributors).Error; err != nil {
		return nil, fmt.Errorf("failed to count contributors: %w", err)
	}

	stats.HealthyPercentage = healthyPercentage(stats.ConditionDistribution[models.ConditionExcellent], approved)

	var recent []models.Tree
	if err := db.Where("status = ?", models.StatusApproved).
		Order("created_at DESC").
		Limit(5).
		Find(&recent).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent trees: %w", err)
	}
	for _, tree := range recent {
		stats.RecentTrees = append(stats.RecentTrees, models.RecentTree{
			Tree:        tree,
			Contributor: tree.ContributorID,
		})
	}

	return stats, nil
}

func healthyPercentage(excellent, approved int64) int {
	if approved == 0 {
		return 0
	}
	return int(math.Round(float64(excellent) / float64(approved) * 100))
}
