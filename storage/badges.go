package storage

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/clause"

	"treewatch/models"
)

// GetUserBadges returns the user's awards with their badge details
func (s *Storage) GetUserBadges(ctx context.Context, userID string) ([]models.UserBadge, error) {
	var userBadges []models.UserBadge
	if err := s.db.WithContext(ctx).
		Joins("Badge").
		Where("user_badges.user_id = ?", userID).
		Order("user_badges.awarded_at DESC").
		Find(&userBadges).Error; err != nil {
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	return userBadges, nil
}

// AwardBadge links the badge to the user. Awarding a badge the user already
// holds is a no-op enforced by the unique (user_id, badge_id) index.
func (s *Storage) AwardBadge(ctx context.Context, userID string, badgeID uint) error {
	award := models.UserBadge{UserID: userID, BadgeID: badgeID}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit("Badge", "User").
		Create(&award)
	if result.Error != nil {
		return fmt.Errorf("failed to award badge: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		s.logger.WithFields(logrus.Fields{
			"user_id":  userID,
			"badge_id": badgeID,
		}).Info("Badge awarded")
	}
	return nil
}

func (s *Storage) GetAllBadges(ctx context.Context) ([]models.Badge, error) {
	var badges []models.Badge
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	return badges, nil
}

func (s *Storage) CreateBadge(ctx context.Context, badge *models.Badge) (*models.Badge, error) {
	badge.ID = 0
	if err := s.db.WithContext(ctx).Create(badge).Error; err != nil {
		return nil, fmt.Errorf("failed to create badge: %w", err)
	}
	return badge, nil
}

func (s *Storage) GetBadge(ctx context.Context, id uint) (*models.Badge, error) {
	var badge models.Badge
	if err := s.db.WithContext(ctx).First(&badge, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &badge, nil
}

func (s *Storage) GetBadgeByTypeAndRequirement(ctx context.Context, badgeType string, requirement int) (*models.Badge, error) {
	var badge models.Badge
	if err := s.db.WithContext(ctx).
		Where("type = ? AND requirement = ?", badgeType, requirement).
		First(&badge).Error; err != nil {
		return nil, notFound(err)
	}
	return &badge, nil
}

// CountApprovedTrees returns how many of the user's trees have been approved
func (s *Storage) CountApprovedTrees(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Tree{}).
		Where("contributor_id = ? AND status = ?", userID, models.StatusApproved).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count approved trees: %w", err)
	}
	return count, nil
}

// CheckTreeCountBadges awards every tree_count badge whose requirement the
// user's approved-tree count has reached. Milestones without a matching
// badge in the catalog are skipped.
func (s *Storage) CheckTreeCountBadges(ctx context.Context, userID string) error {
	count, err := s.CountApprovedTrees(ctx, userID)
	if err != nil {
		return err
	}

	for _, milestone := range models.TreeCountMilestones {
		if count < int64(milestone) {
			continue
		}
		badge, err := s.GetBadgeByTypeAndRequirement(ctx, models.BadgeTypeTreeCount, milestone)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return err
		}
		if err := s.AwardBadge(ctx, userID, badge.ID); err != nil {
			return err
		}
	}
	return nil
}

// ContributorsWithApprovedTrees lists the ids of users owning at least one approved tree
func (s *Storage) ContributorsWithApprovedTrees(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.Tree{}).
		Where("status = ?", models.StatusApproved).
		Distinct().
		Pluck("contributor_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list contributors: %w", err)
	}
	return ids, nil
}
