package models

import "time"

// Roles a user can hold. Reviewers are supervisors or admins.
const (
	RoleUser       = "user"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

// User is an account that contributes or reviews tree records
type User struct {
	ID              string    `gorm:"primaryKey;type:varchar(255)" json:"id"`
	Email           *string   `gorm:"uniqueIndex;type:varchar(255)" json:"email"`
	FirstName       *string   `gorm:"type:varchar(255)" json:"firstName"`
	LastName        *string   `gorm:"type:varchar(255)" json:"lastName"`
	ProfileImageURL *string   `gorm:"type:varchar(500)" json:"profileImageUrl"`
	Role            string    `gorm:"type:varchar(50);default:user" json:"role"`
	PasswordHash    string    `gorm:"not null" json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// IsReviewer reports whether the user may moderate tree records
func (u *User) IsReviewer() bool {
	return u.Role == RoleSupervisor || u.Role == RoleAdmin
}

// IsValidRole reports whether role is one of the known roles
func IsValidRole(role string) bool {
	switch role {
	case RoleUser, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

// UserProfile is the signed-in user's own view with contribution counters
type UserProfile struct {
	*User
	Badges            []UserBadge `json:"badges"`
	TreeCount         int         `json:"treeCount"`
	ApprovedTreeCount int         `json:"approvedTreeCount"`
}
