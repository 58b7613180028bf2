package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treewatch/models"
	"treewatch/utils"
)

func TestMapMarkers(t *testing.T) {
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	trees := []models.Tree{
		{ID: 1, Species: "은행나무", Condition: "excellent", Latitude: 37.5, Longitude: 127.0, ContributorID: "kim", CreatedAt: created, HeightFloors: utils.Pointer(3)},
		{ID: 2, Species: "벚나무", Condition: "fair", Latitude: 37.6, Longitude: 127.1, ContributorID: "lee", CreatedAt: created},
		{ID: 3, Species: "느티나무", Condition: "poor", Latitude: 37.7, Longitude: 127.2, ContributorID: "park", CreatedAt: created},
	}

	markers := MapMarkers(trees)
	require.Len(t, markers, 3)

	assert.Equal(t, ColorExcellent, markers[0].Color)
	assert.Equal(t, ColorFair, markers[1].Color)
	assert.Equal(t, ColorPoor, markers[2].Color)
	assert.Equal(t, 37.5, markers[0].Lat)
	assert.Equal(t, 127.0, markers[0].Lng)
	assert.Contains(t, markers[0].Popup, "은행나무 나무")
	assert.Contains(t, markers[0].Popup, "우수")
	assert.Contains(t, markers[0].Popup, "높이: 3층")
	assert.Contains(t, markers[0].Popup, "kim님")
	assert.Contains(t, markers[0].Popup, "2024-05-01")
	assert.Contains(t, markers[2].Popup, "나쁨")
}

func TestBuildDashboard(t *testing.T) {
	stats := &models.TreeStats{
		TotalTrees:            4,
		Species:               2,
		Contributors:          2,
		HealthyPercentage:     33,
		SpeciesDistribution:   map[string]int64{"벚나무": 1, "은행나무": 2},
		ConditionDistribution: map[string]int64{"excellent": 1, "poor": 2},
		RecentTrees: []models.RecentTree{
			{Tree: models.Tree{ID: 9, Species: "은행나무", Condition: "poor"}, Contributor: "kim"},
		},
	}

	d := BuildDashboard(stats)

	require.Len(t, d.Conditions, 3)
	assert.Equal(t, DistributionRow{Key: "excellent", Label: "우수", Count: 1, Percent: 25}, d.Conditions[0])
	assert.Equal(t, DistributionRow{Key: "fair", Label: "보통", Count: 0, Percent: 0}, d.Conditions[1])
	assert.Equal(t, 50, d.Conditions[2].Percent)

	require.Len(t, d.SpeciesRows, 2)
	assert.Equal(t, "은행나무", d.SpeciesRows[0].Key)
	assert.Equal(t, 50, d.SpeciesRows[0].Percent)

	require.Len(t, d.Recent, 1)
	assert.Equal(t, "나쁨", d.Recent[0].Label)
	assert.Equal(t, "kim", d.Recent[0].Contributor)
}

func TestBuildDashboardEmpty(t *testing.T) {
	d := BuildDashboard(&models.TreeStats{})
	for _, row := range d.Conditions {
		assert.Zero(t, row.Percent)
	}
	assert.Empty(t, d.SpeciesRows)
}

func TestLoadProfilePageRequiresSession(t *testing.T) {
	d := newFakeDoer()
	d.on("GET", "/api/auth/user", 401, `{"error":"Unauthorized"}`)
	c := newTestClient(d)

	_, err := c.LoadProfilePage(context.Background())
	assert.True(t, IsUnauthorized(err))
}

func TestLoadProfilePage(t *testing.T) {
	d := newFakeDoer()
	d.on("GET", "/api/auth/user", 200, `{"id":"kim","role":"user","badges":[],"treeCount":3,"approvedTreeCount":1}`)
	d.on("GET", "/api/users/kim/badges", 200, `[{"id":1,"userId":"kim","badgeId":5,"badge":{"id":5,"name":"교육 이수","type":"education"}}]`)
	d.on("GET", "/api/users/kim/trees", 200, `[{"id":1,"species":"은행나무"},{"id":2,"species":"은행나무"},{"id":3,"species":"벚나무"}]`)
	d.on("GET", "/api/trees/stats/overview", 200, `{"totalTrees":10,"contributors":4}`)
	c := newTestClient(d)

	page, err := c.LoadProfilePage(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "kim", page.User.ID)
	assert.Equal(t, 3, page.User.TreeCount)
	require.Len(t, page.Badges, 1)
	assert.Equal(t, "교육 이수", page.Badges[0].Badge.Name)
	require.Len(t, page.TreesBySpecies, 2)
	assert.Equal(t, "은행나무", page.TreesBySpecies[0].Key)
	assert.EqualValues(t, 2, page.TreesBySpecies[0].Count)
	assert.EqualValues(t, 4, page.Community.Contributors)
}

func TestLoadTreeListPage(t *testing.T) {
	d := newFakeDoer()
	d.on("GET", "/api/trees", 200, `[{"id":1,"species":"은행나무","condition":"poor"}]`)
	d.on("GET", "/api/tree-species", 200, `[{"id":1,"name":"은행나무"}]`)
	c := newTestClient(d)

	page, err := c.LoadTreeListPage(context.Background(), TreeFilter{Species: "은행나무", Condition: "poor"})
	require.NoError(t, err)
	assert.Len(t, page.Trees, 1)
	assert.Len(t, page.Species, 1)
	assert.Equal(t, "GET /api/trees?condition=poor&species=%EC%9D%80%ED%96%89%EB%82%98%EB%AC%B4", d.calls[0])
}
