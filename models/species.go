package models

// TreeSpecies is a reference catalog entry used to suggest species names
type TreeSpecies struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	Name             string  `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	ScientificName   *string `gorm:"type:varchar(255)" json:"scientificName"`
	Description      *string `gorm:"type:text" json:"description"`
	Characteristics  *string `gorm:"type:text" json:"characteristics"`
	CareInstructions *string `gorm:"type:text" json:"careInstructions"`
	Icon             *string `gorm:"type:varchar(255)" json:"icon"`
}

// TableName keeps the catalog in tree_species rather than the default plural
func (TreeSpecies) TableName() string {
	return "tree_species"
}
