package client

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"treewatch/models"
	"treewatch/utils"
)

type fakeResponse struct {
	status int
	body   string
	cookie string
}

// fakeDoer answers by "METHOD path" and records every request it sees
type fakeDoer struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []string
	cookies   []string
	types     []string
}

func newFakeDoer() *fakeDoer {
	return &fakeDoer{responses: map[string]fakeResponse{}}
}

func (f *fakeDoer) on(method, path string, status int, body string) {
	f.responses[method+" "+path] = fakeResponse{status: status, body: body}
}

func (f *fakeDoer) Do(req *fasthttp.Request, resp *fasthttp.Response) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	method := string(req.Header.Method())
	path := string(req.URI().Path())
	f.calls = append(f.calls, method+" "+string(req.URI().RequestURI()))
	f.cookies = append(f.cookies, string(req.Header.Cookie(sessionCookie)))
	f.types = append(f.types, string(req.Header.ContentType()))

	r, ok := f.responses[method+" "+path]
	if !ok {
		resp.SetStatusCode(fasthttp.StatusNotFound)
		resp.SetBodyString(`{"error":"Not Found"}`)
		return nil
	}
	resp.SetStatusCode(r.status)
	resp.SetBodyString(r.body)
	if r.cookie != "" {
		c := fasthttp.AcquireCookie()
		c.SetKey(sessionCookie)
		c.SetValue(r.cookie)
		resp.Header.SetCookie(c)
		fasthttp.ReleaseCookie(c)
	}
	return nil
}

func (f *fakeDoer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestClient(d *fakeDoer) *Client {
	return New("http://trees.test/", WithDoer(d))
}

func TestCacheKey(t *testing.T) {
	q := url.Values{}
	q.Set("species", "은행나무")
	q.Set("search", "")
	q.Set("condition", "poor")

	assert.Equal(t, "/api/trees?condition=poor&species=%EC%9D%80%ED%96%89%EB%82%98%EB%AC%B4", CacheKey("/api/trees", q))
	assert.Equal(t, "/api/trees", CacheKey("/api/trees", url.Values{"search": {""}}))
	assert.Equal(t, "/api/badges", CacheKey("/api/badges", nil))
}

func TestReadsGoThroughCache(t *testing.T) {
	d := newFakeDoer()
	d.on("GET", "/api/trees", 200, `[{"id":1,"species":"은행나무","condition":"excellent"}]`)
	c := newTestClient(d)
	ctx := context.Background()

	trees, err := c.Trees(ctx, TreeFilter{})
	require.NoError(t, err)
	require.Len(t, trees, 1)

	_, err = c.Trees(ctx, TreeFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, d.callCount())

	_, err = c.Trees(ctx, TreeFilter{Condition: "poor"})
	require.NoError(t, err)
	assert.Equal(t, 2, d.callCount())
	assert.Equal(t, "GET /api/trees?condition=poor", d.calls[1])
}

func TestCreateTreeValidatesBeforeSending(t *testing.T) {
	d := newFakeDoer()
	c := newTestClient(d)

	_, err := c.CreateTree(context.Background(), models.TreeInput{
		Species:   "은행나무",
		Condition: "excellent",
		Latitude:  utils.Pointer(95.0),
		Longitude: utils.Pointer(127.0),
	}, nil)

	var verrs utils.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "latitude", verrs[0].Field)
	assert.Zero(t, d.callCount())
}

func TestMutationsInvalidateRelatedKeys(t *testing.T) {
	d := newFakeDoer()
	d.on("GET", "/api/trees", 200, `[]`)
	d.on("GET", "/api/trees/stats/overview", 200, `{"totalTrees":0}`)
	d.on("GET", "/api/badges", 200, `[]`)
	d.on("POST", "/api/trees", 201, `{"id":7,"species":"은행나무","status":"pending"}`)
	d.on("PATCH", "/api/trees/7/review", 200, `{"message":"Tree review updated","tree":{"id":7,"status":"approved"}}`)
	c := newTestClient(d)
	ctx := context.Background()

	warm := func() {
		_, err := c.Trees(ctx, TreeFilter{})
		require.NoError(t, err)
		_, err = c.Stats(ctx)
		require.NoError(t, err)
		_, err = c.Badges(ctx)
		require.NoError(t, err)
	}
	warm()
	require.Equal(t, 3, d.callCount())

	tree, err := c.CreateTree(ctx, models.TreeInput{
		Species:   "은행나무",
		Condition: "excellent",
		Latitude:  utils.Pointer(37.5),
		Longitude: utils.Pointer(127.0),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(7), tree.ID)
	assert.Equal(t, "application/json", d.types[3])

	warm()
	// trees and stats refetched, badges still cached
	assert.Equal(t, 6, d.callCount())

	reviewed, err := c.ReviewTree(ctx, 7, models.StatusApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, reviewed.Status)

	_, err = c.ReviewTree(ctx, 7, "maybe", nil)
	assert.Error(t, err)
	assert.Equal(t, 7, d.callCount())
}

func TestCreateTreeWithPhotoIsMultipart(t *testing.T) {
	d := newFakeDoer()
	d.on("POST", "/api/trees", 201, `{"id":1,"photoUrl":"/uploads/a.jpg"}`)
	c := newTestClient(d)

	tree, err := c.CreateTree(context.Background(), models.TreeInput{
		Species:   "벚나무",
		Condition: "fair",
		Latitude:  utils.Pointer(37.5),
		Longitude: utils.Pointer(127.0),
	}, &Photo{Filename: "a.jpg", Data: []byte("jpeg")})
	require.NoError(t, err)
	require.NotNil(t, tree.PhotoURL)
	assert.True(t, strings.HasPrefix(d.types[0], "multipart/form-data"))
}

func TestAPIErrors(t *testing.T) {
	d := newFakeDoer()
	d.on("GET", "/api/auth/user", 401, `{"error":"Unauthorized"}`)
	d.on("POST", "/api/trees", 400, `{"error":"Invalid tree data","details":[{"field":"latitude","message":"latitude must be at most 90"}]}`)
	d.on("GET", "/api/trees/3", 500, `oops`)
	c := newTestClient(d)
	ctx := context.Background()

	_, err := c.CurrentUser(ctx)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "401: Unauthorized", err.Error())

	_, err = c.CreateTree(ctx, models.TreeInput{
		Species:   "은행나무",
		Condition: "excellent",
		Latitude:  utils.Pointer(37.5),
		Longitude: utils.Pointer(127.0),
	}, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	require.Len(t, apiErr.Details, 1)
	assert.Equal(t, "latitude", apiErr.Details[0].Field)
	assert.False(t, IsUnauthorized(err))

	_, err = c.Tree(ctx, 3)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "oops", apiErr.Message)

	_, err = c.Tree(ctx, 4)
	assert.True(t, IsNotFound(err))
}

func TestLoginKeepsSessionCookie(t *testing.T) {
	d := newFakeDoer()
	d.responses["POST /api/login"] = fakeResponse{status: 200, body: `{"message":"로그인 성공"}`, cookie: "jwt-value"}
	d.on("GET", "/api/badges", 200, `[]`)
	d.responses["GET /api/logout"] = fakeResponse{status: 302, cookie: "deleted"}
	c := newTestClient(d)
	ctx := context.Background()

	_, err := c.Badges(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Login(ctx, "walker@example.com", "pw"))
	assert.Equal(t, "jwt-value", c.Token())

	// login drops the anonymous cache
	_, err = c.Badges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, d.callCount())
	assert.Equal(t, "jwt-value", d.cookies[2])

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.Token())

	err = c.Login(ctx, "not-an-email", "pw")
	assert.Error(t, err)
	assert.Equal(t, 4, d.callCount())
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	m := NewMemoryCache(0)
	m.Set(ctx, "/api/trees", []byte("a"))
	m.Set(ctx, "/api/trees?status=pending", []byte("b"))
	m.Set(ctx, "/api/badges", []byte("c"))

	m.InvalidatePrefix(ctx, "/api/trees")
	assert.Equal(t, 1, m.Len())
	_, ok := m.Get(ctx, "/api/badges")
	assert.True(t, ok)

	m.InvalidatePrefix(ctx, "")
	assert.Zero(t, m.Len())

	short := NewMemoryCache(10 * time.Millisecond)
	short.Set(ctx, "k", []byte("v"))
	time.Sleep(20 * time.Millisecond)
	_, ok = short.Get(ctx, "k")
	assert.False(t, ok)
}
