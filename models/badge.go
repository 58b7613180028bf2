package models

import "time"

// Badge types
const (
	BadgeTypeEducation = "education"
	BadgeTypeTreeCount = "tree_count"
)

// TreeCountMilestones are the approved-tree counts that earn a tree_count badge
var TreeCountMilestones = []int{50, 100, 200, 500}

// Badge is a catalog entry users can be awarded
type Badge struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	Type        string    `gorm:"type:varchar(50);not null;index:idx_badge_type_requirement" json:"type"`
	Requirement *int      `gorm:"index:idx_badge_type_requirement" json:"requirement"`
	Icon        *string   `gorm:"type:varchar(255)" json:"icon"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UserBadge records that a user was awarded a badge. A user holds a badge at most once.
type UserBadge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_user_badge" json:"userId"`
	BadgeID   uint      `gorm:"not null;uniqueIndex:idx_user_badge" json:"badgeId"`
	AwardedAt time.Time `gorm:"autoCreateTime" json:"awardedAt"`

	Badge Badge `gorm:"foreignKey:BadgeID" json:"badge"`
	User  *User `gorm:"foreignKey:UserID" json:"-"`
}
