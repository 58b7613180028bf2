package models

import "time"

// Tree conditions
const (
	ConditionExcellent = "excellent"
	ConditionFair      = "fair"
	ConditionPoor      = "poor"
)

// Moderation statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Tree is a single street-tree observation
type Tree struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Species   string  `gorm:"type:varchar(255);not null;index" json:"species"`
	Condition string  `gorm:"type:varchar(20);not null" json:"condition"`
	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`

	// Height is recorded either as a building-floor count or in meters
	HeightFloors *int     `json:"heightFloors"`
	HeightManual *float64 `json:"heightManual"`

	// Circumference is recorded in hand spans or measured directly (cm)
	CircumferenceHands  *int     `json:"circumferenceHands"`
	CircumferenceManual *float64 `json:"circumferenceManual"`

	ExcessivePruning     bool `gorm:"default:false" json:"excessivePruning"`
	ExcessiveGroundCover bool `gorm:"default:false" json:"excessiveGroundCover"`
	Damaged              bool `gorm:"default:false" json:"damaged"`

	PhotoURL *string `gorm:"type:varchar(500)" json:"photoUrl"`
	Notes    *string `gorm:"type:text" json:"notes"`

	ContributorID string     `gorm:"type:varchar(255);not null;index" json:"contributorId"`
	Status        string     `gorm:"type:varchar(20);default:pending;index" json:"status"`
	ReviewedBy    *string    `gorm:"type:varchar(255)" json:"reviewedBy"`
	ReviewedAt    *time.Time `json:"reviewedAt"`
	ReviewNotes   *string    `gorm:"type:text" json:"reviewNotes"`
	CreatedAt     time.Time  `gorm:"not null;index" json:"createdAt"`

	Contributor *User `gorm:"foreignKey:ContributorID" json:"-"`
	Reviewer    *User `gorm:"foreignKey:ReviewedBy" json:"-"`
}

// IsValidCondition reports whether c is a known tree condition
func IsValidCondition(c string) bool {
	switch c {
	case ConditionExcellent, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// IsReviewOutcome reports whether status is a valid result of a review
func IsReviewOutcome(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

// TreeStats is the aggregate view served on the statistics dashboard
type TreeStats struct {
	TotalTrees            int64            `json:"totalTrees"`
	Species               int64            `json:"species"`
	Contributors          int64            `json:"contributors"`
	HealthyPercentage     int              `json:"healthyPercentage"`
	SpeciesDistribution   map[string]int64 `json:"speciesDistribution"`
	ConditionDistribution map[string]int64 `json:"conditionDistribution"`
	RecentTrees           []RecentTree     `json:"recentTrees"`
}

// RecentTree is an approved tree as listed in the statistics overview
type RecentTree struct {
	Tree
	Contributor string `json:"contributor"`
}
