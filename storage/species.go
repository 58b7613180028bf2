package storage

import (
	"context"
	"fmt"

	"treewatch/models"
)

func (s *Storage) GetAllTreeSpecies(ctx context.Context) ([]models.TreeSpecies, error) {
	var species []models.TreeSpecies
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&species).Error; err != nil {
		return nil, fmt.Errorf("failed to list species: %w", err)
	}
	return species, nil
}

func (s *Storage) GetTreeSpecies(ctx context.Context, name string) (*models.TreeSpecies, error) {
	var species models.TreeSpecies
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&species).Error; err != nil {
		return nil, notFound(err)
	}
	return &species, nil
}
