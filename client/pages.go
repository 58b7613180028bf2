package client

import (
	"context"
	"fmt"
	"math"
	"sort"

	"treewatch/models"
)

// Marker colours by condition
const (
	ColorExcellent = "#10b981"
	ColorFair      = "#f59e0b"
	ColorPoor      = "#ef4444"
)

func ConditionColor(condition string) string {
	switch condition {
	case models.ConditionExcellent:
		return ColorExcellent
	case models.ConditionFair:
		return ColorFair
	default:
		return ColorPoor
	}
}

// ConditionLabel is the display name of a condition
func ConditionLabel(condition string) string {
	switch condition {
	case models.ConditionExcellent:
		return "우수"
	case models.ConditionFair:
		return "보통"
	default:
		return "나쁨"
	}
}

func ConditionEmoji(condition string) string {
	switch condition {
	case models.ConditionExcellent:
		return "😊"
	case models.ConditionFair:
		return "😐"
	default:
		return "☹️"
	}
}

// MapMarker is one tree on the map
type MapMarker struct {
	TreeID uint    `json:"treeId"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Color  string  `json:"color"`
	Popup  string  `json:"popup"`
}

func MapMarkers(trees []models.Tree) []MapMarker {
	markers := make([]MapMarker, 0, len(trees))
	for _, tree := range trees {
		popup := fmt.Sprintf("%s 나무\n상태: %s %s", tree.Species, ConditionLabel(tree.Condition), ConditionEmoji(tree.Condition))
		if tree.HeightFloors != nil {
			popup += fmt.Sprintf("\n높이: %d층", *tree.HeightFloors)
		} else if tree.HeightManual != nil {
			popup += fmt.Sprintf("\n높이: %gm", *tree.HeightManual)
		}
		popup += fmt.Sprintf("\n등록자: %s님\n%s", tree.ContributorID, tree.CreatedAt.Format("2006-01-02"))

		markers = append(markers, MapMarker{
			TreeID: tree.ID,
			Lat:    tree.Latitude,
			Lng:    tree.Longitude,
			Color:  ConditionColor(tree.Condition),
			Popup:  popup,
		})
	}
	return markers
}

// DistributionRow is one bar of a distribution chart
type DistributionRow struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Count   int64  `json:"count"`
	Percent int    `json:"percent"`
}

func percentOf(count, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

// RecentRow is a line in the dashboard's recent-approvals list
type RecentRow struct {
	TreeID      uint   `json:"treeId"`
	Species     string `json:"species"`
	Condition   string `json:"condition"`
	Label       string `json:"label"`
	Contributor string `json:"contributor"`
}

// Dashboard is the statistics page
type Dashboard struct {
	TotalTrees        int64             `json:"totalTrees"`
	Species           int64             `json:"species"`
	Contributors      int64             `json:"contributors"`
	HealthyPercentage int               `json:"healthyPercentage"`
	Conditions        []DistributionRow `json:"conditions"`
	SpeciesRows       []DistributionRow `json:"speciesRows"`
	Recent            []RecentRow       `json:"recent"`
}

// BuildDashboard lays out the statistics. Percentages are relative to the
// total number of trees, as the page shows them.
func BuildDashboard(stats *models.TreeStats) Dashboard {
	d := Dashboard{
		TotalTrees:        stats.TotalTrees,
		Species:           stats.Species,
		Contributors:      stats.Contributors,
		HealthyPercentage: stats.HealthyPercentage,
	}

	for _, cond := range []string{models.ConditionExcellent, models.ConditionFair, models.ConditionPoor} {
		count := stats.ConditionDistribution[cond]
		d.Conditions = append(d.Conditions, DistributionRow{
			Key:     cond,
			Label:   ConditionLabel(cond),
			Count:   count,
			Percent: percentOf(count, stats.TotalTrees),
		})
	}

	d.SpeciesRows = distribution(stats.SpeciesDistribution, stats.TotalTrees)

	for _, recent := range stats.RecentTrees {
		d.Recent = append(d.Recent, RecentRow{
			TreeID:      recent.ID,
			Species:     recent.Species,
			Condition:   recent.Condition,
			Label:       ConditionLabel(recent.Condition),
			Contributor: recent.Contributor,
		})
	}
	return d
}

// distribution orders rows by count, largest first, then by name
func distribution(counts map[string]int64, total int64) []DistributionRow {
	rows := make([]DistributionRow, 0, len(counts))
	for key, count := range counts {
		rows = append(rows, DistributionRow{
			Key:     key,
			Label:   key,
			Count:   count,
			Percent: percentOf(count, total),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

// TreeListPage is the searchable tree table with its filter options
type TreeListPage struct {
	Filter  TreeFilter           `json:"filter"`
	Trees   []models.Tree        `json:"trees"`
	Species []models.TreeSpecies `json:"species"`
}

func (c *Client) LoadTreeListPage(ctx context.Context, filter TreeFilter) (*TreeListPage, error) {
	trees, err := c.Trees(ctx, filter)
	if err != nil {
		return nil, err
	}
	species, err := c.Species(ctx)
	if err != nil {
		return nil, err
	}
	return &TreeListPage{Filter: filter, Trees: trees, Species: species}, nil
}

// LoadMap returns the markers for the trees matching search
func (c *Client) LoadMap(ctx context.Context, search string) ([]MapMarker, error) {
	trees, err := c.Trees(ctx, TreeFilter{Search: search})
	if err != nil {
		return nil, err
	}
	return MapMarkers(trees), nil
}

func (c *Client) LoadDashboard(ctx context.Context) (*Dashboard, error) {
	stats, err := c.Stats(ctx)
	if err != nil {
		return nil, err
	}
	d := BuildDashboard(stats)
	return &d, nil
}

// ProfilePage is the signed-in user's own page
type ProfilePage struct {
	User           *models.UserProfile `json:"user"`
	Badges         []models.UserBadge  `json:"badges"`
	Trees          []models.Tree       `json:"trees"`
	TreesBySpecies []DistributionRow   `json:"treesBySpecies"`
	Community      *models.TreeStats   `json:"community"`
}

// LoadProfilePage fails with an error satisfying IsUnauthorized when no
// session is active, so the caller can send the user to the login page
func (c *Client) LoadProfilePage(ctx context.Context) (*ProfilePage, error) {
	profile, err := c.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	badges, err := c.UserBadges(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	trees, err := c.UserTrees(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	stats, err := c.Stats(ctx)
	if err != nil {
		return nil, err
	}

	bySpecies := map[string]int64{}
	for _, tree := range trees {
		bySpecies[tree.Species]++
	}

	return &ProfilePage{
		User:           profile,
		Badges:         badges,
		Trees:          trees,
		TreesBySpecies: distribution(bySpecies, int64(len(trees))),
		Community:      stats,
	}, nil
}
