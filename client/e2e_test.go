package client_test

import (
	"context"
	"net"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"treewatch/client"
	"treewatch/config"
	"treewatch/models"
	"treewatch/routes"
	"treewatch/storage"
	"treewatch/testutil"
	"treewatch/utils"
)

// newServer runs the real API on an in-memory listener
func newServer(t *testing.T) *client.Client {
	t.Helper()
	store := storage.New(testutil.NewDB(t))
	cfg := &config.Config{UploadDir: t.TempDir(), MaxUploadMB: 1, RateLimitSubmit: 1000}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	routes.SetupRoutes(app, store, cfg)

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	doer := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}
	return client.New("http://treewatch.local", client.WithDoer(doer))
}

func TestSubmitApproveThroughClient(t *testing.T) {
	c := newServer(t)
	ctx := context.Background()

	before, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, before.TotalTrees)

	tree, err := c.CreateTree(ctx, models.TreeInput{
		Species:   "은행나무",
		Condition: models.ConditionExcellent,
		Latitude:  utils.Pointer(37.5),
		Longitude: utils.Pointer(127.0),
	}, &client.Photo{Filename: "ginkgo.jpg", Data: []byte("\xff\xd8\xff")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, tree.Status)
	require.NotNil(t, tree.PhotoURL)

	pending, err := c.PendingTrees(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = c.ReviewTree(ctx, tree.ID, models.StatusApproved, nil)
	require.NoError(t, err)

	after, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, after.TotalTrees)
	assert.Equal(t, 100, after.HealthyPercentage)

	pending, err = c.PendingTrees(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = c.ReviewTree(ctx, tree.ID, models.StatusRejected, nil)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, fiber.StatusConflict, apiErr.Status)
}

func TestSessionThroughClient(t *testing.T) {
	c := newServer(t)
	ctx := context.Background()

	_, err := c.CurrentUser(ctx)
	assert.True(t, client.IsUnauthorized(err))

	require.NoError(t, c.Login(ctx, "walker@example.com", "pw"))
	require.NoError(t, c.AwardEducationBadge(ctx, "walker@example.com"))

	page, err := c.LoadProfilePage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "walker@example.com", page.User.ID)
	require.Len(t, page.Badges, 1)
	assert.Equal(t, "교육 이수", page.Badges[0].Badge.Name)

	require.NoError(t, c.Logout(ctx))
	_, err = c.CurrentUser(ctx)
	assert.True(t, client.IsUnauthorized(err))
}
