package models

import "gorm.io/gorm"

// Placeholder identities used for writes while authorization is not enforced
const (
	PlaceholderContributorID = "temp_user"
	PlaceholderReviewerID    = "temp_reviewer"
)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

// CreateDefaultBadges seeds the tree_count milestone badges
func CreateDefaultBadges(db *gorm.DB) error {
	defaultBadges := []Badge{
		{Name: "새싹 관찰자", Description: strPtr("승인된 나무 50그루를 기록했습니다."), Type: BadgeTypeTreeCount, Requirement: intPtr(50), Icon: strPtr("sprout")},
		{Name: "숲 지킴이", Description: strPtr("승인된 나무 100그루를 기록했습니다."), Type: BadgeTypeTreeCount, Requirement: intPtr(100), Icon: strPtr("trees")},
		{Name: "거리의 숲", Description: strPtr("승인된 나무 200그루를 기록했습니다."), Type: BadgeTypeTreeCount, Requirement: intPtr(200), Icon: strPtr("tree-pine")},
		{Name: "도시 숲 마스터", Description: strPtr("승인된 나무 500그루를 기록했습니다."), Type: BadgeTypeTreeCount, Requirement: intPtr(500), Icon: strPtr("crown")},
	}
	for _, badge := range defaultBadges {
		if err := db.Where(Badge{Type: badge.Type, Requirement: badge.Requirement}).
			FirstOrCreate(&badge).Error; err != nil {
			return err
		}
	}
	return nil
}

// CreateDefaultSpecies seeds the species catalog shown in the submission form
func CreateDefaultSpecies(db *gorm.DB) error {
	defaultSpecies := []TreeSpecies{
		{Name: "은행나무", ScientificName: strPtr("Ginkgo biloba"), Description: strPtr("가을에 노랗게 물드는 대표적인 가로수"), CareInstructions: strPtr("건조와 공해에 강하며 가지치기를 최소화합니다."), Icon: strPtr("ginkgo")},
		{Name: "벚나무", ScientificName: strPtr("Prunus serrulata"), Description: strPtr("봄에 꽃이 피는 가로수"), CareInstructions: strPtr("병해충 관찰이 필요합니다."), Icon: strPtr("cherry")},
		{Name: "느티나무", ScientificName: strPtr("Zelkova serrata"), Description: strPtr("넓은 그늘을 만드는 낙엽 활엽수"), CareInstructions: strPtr("뿌리 주변 복토를 피합니다."), Icon: strPtr("zelkova")},
		{Name: "이팝나무", ScientificName: strPtr("Chionanthus retusus"), Description: strPtr("초여름 흰 꽃이 피는 가로수"), CareInstructions: strPtr("배수가 잘 되는 토양을 유지합니다."), Icon: strPtr("flower")},
		{Name: "플라타너스", ScientificName: strPtr("Platanus occidentalis"), Description: strPtr("빠르게 자라는 대형 가로수"), CareInstructions: strPtr("과도한 강전정을 피합니다."), Icon: strPtr("leaf")},
		{Name: "메타세쿼이아", ScientificName: strPtr("Metasequoia glyptostroboides"), Description: strPtr("곧게 자라는 침엽수"), CareInstructions: strPtr("충분한 수분을 공급합니다."), Icon: strPtr("tree-pine")},
	}
	for _, species := range defaultSpecies {
		if err := db.FirstOrCreate(&species, "name = ?", species.Name).Error; err != nil {
			return err
		}
	}
	return nil
}

// CreatePlaceholderUsers makes sure the placeholder contributor and reviewer
// rows exist so anonymous writes satisfy the foreign keys
func CreatePlaceholderUsers(db *gorm.DB) error {
	placeholders := []User{
		{ID: PlaceholderContributorID, Role: RoleUser},
		{ID: PlaceholderReviewerID, Role: RoleSupervisor},
	}
	for _, user := range placeholders {
		if err := db.FirstOrCreate(&user, "id = ?", user.ID).Error; err != nil {
			return err
		}
	}
	return nil
}
