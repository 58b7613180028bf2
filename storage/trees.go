package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"treewatch/models"
)

func (s *Storage) GetAllTrees(ctx context.Context) ([]models.Tree, error) {
	var trees []models.Tree
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&trees).Error; err != nil {
		return nil, fmt.Errorf("failed to list trees: %w", err)
	}
	return trees, nil
}

func (s *Storage) GetTree(ctx context.Context, id uint) (*models.Tree, error) {
	var tree models.Tree
	if err := s.db.WithContext(ctx).First(&tree, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &tree, nil
}

// CreateTree persists a new observation and then runs the milestone check for
// its contributor. Server-owned fields are reset regardless of what the caller set.
func (s *Storage) CreateTree(ctx context.Context, tree *models.Tree) (*models.Tree, error) {
	tree.ID = 0
	tree.Status = models.StatusPending
	tree.ReviewedBy = nil
	tree.ReviewedAt = nil
	tree.ReviewNotes = nil
	tree.CreatedAt = time.Now()

	if err := s.db.WithContext(ctx).Create(tree).Error; err != nil {
		return nil, fmt.Errorf("failed to create tree: %w", err)
	}

	// Counts approved trees only, so a fresh pending tree never moves the total.
	if err := s.CheckTreeCountBadges(ctx, tree.ContributorID); err != nil {
		s.logger.WithError(err).WithField("user_id", tree.ContributorID).Warn("Milestone check failed")
	}
	return tree, nil
}

// UpdateTreeStatus records a moderation decision on a pending tree
func (s *Storage) UpdateTreeStatus(ctx context.Context, id uint, status, reviewerID string, notes *string) (*models.Tree, error) {
	if !models.IsReviewOutcome(status) {
		return nil, fmt.Errorf("invalid review status %q", status)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       status,
		"reviewed_at":  now,
		"review_notes": notes,
	}
	if reviewerID != "" {
		updates["reviewed_by"] = reviewerID
	}

	result := s.db.WithContext(ctx).Model(&models.Tree{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update tree status: %w", result.Error)
	}

	tree, err := s.GetTree(ctx, id)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		return nil, ErrAlreadyReviewed
	}

	s.logger.WithFields(logrus.Fields{
		"tree_id":  id,
		"status":   status,
		"reviewer": reviewerID,
	}).Info("Tree reviewed")
	return tree, nil
}

func (s *Storage) GetTreesByUser(ctx context.Context, userID string) ([]models.Tree, error) {
	var trees []models.Tree
	if err := s.db.WithContext(ctx).
		Where("contributor_id = ?", userID).
		Order("created_at DESC").
		Find(&trees).Error; err != nil {
		return nil, fmt.Errorf("failed to list user trees: %w", err)
	}
	return trees, nil
}

func (s *Storage) GetTreesByStatus(ctx context.Context, status string) ([]models.Tree, error) {
	var trees []models.Tree
	if err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&trees).Error; err != nil {
		return nil, fmt.Errorf("failed to list trees by status: %w", err)
	}
	return trees, nil
}

// SearchTrees returns trees whose species or notes contain query, case-insensitively
func (s *Storage) SearchTrees(ctx context.Context, query string) ([]models.Tree, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	var trees []models.Tree
	if err := s.db.WithContext(ctx).
		Where(`LOWER(species) LIKE ? ESCAPE '\' OR LOWER(notes) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("created_at DESC").
		Find(&trees).Error; err != nil {
		return nil, fmt.Errorf("failed to search trees: %w", err)
	}
	return trees, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
