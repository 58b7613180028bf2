package models

// TreeInput is the client-supplied part of a tree record. It is validated the
// same way by the API and by the client before a request is sent.
type TreeInput struct {
	Species              string   `json:"species" validate:"required,max=255"`
	Condition            string   `json:"condition" validate:"required,oneof=excellent fair poor"`
	Latitude             *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude            *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	HeightFloors         *int     `json:"heightFloors" validate:"omitempty,gt=0"`
	HeightManual         *float64 `json:"heightManual" validate:"omitempty,gt=0"`
	CircumferenceHands   *int     `json:"circumferenceHands" validate:"omitempty,gt=0"`
	CircumferenceManual  *float64 `json:"circumferenceManual" validate:"omitempty,gt=0"`
	ExcessivePruning     bool     `json:"excessivePruning"`
	ExcessiveGroundCover bool     `json:"excessiveGroundCover"`
	Damaged              bool     `json:"damaged"`
	Notes                *string  `json:"notes" validate:"omitempty,max=5000"`
}

// ToTree builds a new pending tree owned by contributorID
func (in TreeInput) ToTree(contributorID string, photoURL *string) *Tree {
	t := &Tree{
		Species:              in.Species,
		Condition:            in.Condition,
		HeightFloors:         in.HeightFloors,
		HeightManual:         in.HeightManual,
		CircumferenceHands:   in.CircumferenceHands,
		CircumferenceManual:  in.CircumferenceManual,
		ExcessivePruning:     in.ExcessivePruning,
		ExcessiveGroundCover: in.ExcessiveGroundCover,
		Damaged:              in.Damaged,
		PhotoURL:             photoURL,
		Notes:                in.Notes,
		ContributorID:        contributorID,
		Status:               StatusPending,
	}
	if in.Latitude != nil {
		t.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		t.Longitude = *in.Longitude
	}
	return t
}

// ReviewInput is the body of a moderation decision
type ReviewInput struct {
	Status string  `json:"status" validate:"required,oneof=approved rejected"`
	Notes  *string `json:"notes"`
}

// BadgeInput is the body used to create a badge
type BadgeInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
	Type        string  `json:"type" validate:"required,oneof=education tree_count"`
	Requirement *int    `json:"requirement" validate:"omitempty,gte=0"`
	Icon        *string `json:"icon"`
}

// ToBadge converts the input to a storable badge
func (in BadgeInput) ToBadge() *Badge {
	return &Badge{
		Name:        in.Name,
		Description: in.Description,
		Type:        in.Type,
		Requirement: in.Requirement,
		Icon:        in.Icon,
	}
}

// UserInput is the admin body used to create or update a user
type UserInput struct {
	ID       string `json:"id" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=4"`
	Role     string `json:"role" validate:"omitempty,oneof=user supervisor admin"`
}

// RoleInput is the body of a role change
type RoleInput struct {
	Role string `json:"role" validate:"required,oneof=user supervisor admin"`
}

// LoginInput is the body of an email and password login
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
