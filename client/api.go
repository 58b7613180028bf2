package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/url"
	"strconv"

	"github.com/valyala/fasthttp"

	"treewatch/models"
	"treewatch/utils"
)

// Cache key prefixes touched by mutations
const (
	prefixTrees    = "/api/trees"
	prefixUsers    = "/api/users/"
	prefixAuthUser = "/api/auth/user"
)

// TreeFilter narrows a tree listing. Empty fields are ignored.
type TreeFilter struct {
	Search    string
	Species   string
	Condition string
	Status    string
}

func (f TreeFilter) values() url.Values {
	q := url.Values{}
	for k, v := range map[string]string{
		"search":    f.Search,
		"species":   f.Species,
		"condition": f.Condition,
		"status":    f.Status,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}

// Photo is an image attached to a new tree
type Photo struct {
	Filename string
	Data     []byte
}

func (c *Client) Trees(ctx context.Context, filter TreeFilter) ([]models.Tree, error) {
	var trees []models.Tree
	if err := c.get(ctx, "/api/trees", filter.values(), &trees); err != nil {
		return nil, err
	}
	return trees, nil
}

func (c *Client) Tree(ctx context.Context, id uint) (*models.Tree, error) {
	var tree models.Tree
	if err := c.get(ctx, "/api/trees/"+strconv.FormatUint(uint64(id), 10), nil, &tree); err != nil {
		return nil, err
	}
	return &tree, nil
}

func (c *Client) PendingTrees(ctx context.Context) ([]models.Tree, error) {
	var trees []models.Tree
	if err := c.get(ctx, "/api/trees/pending", nil, &trees); err != nil {
		return nil, err
	}
	return trees, nil
}

func (c *Client) Stats(ctx context.Context) (*models.TreeStats, error) {
	var stats models.TreeStats
	if err := c.get(ctx, "/api/trees/stats/overview", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) Badges(ctx context.Context) ([]models.Badge, error) {
	var badges []models.Badge
	if err := c.get(ctx, "/api/badges", nil, &badges); err != nil {
		return nil, err
	}
	return badges, nil
}

func (c *Client) UserBadges(ctx context.Context, userID string) ([]models.UserBadge, error) {
	var badges []models.UserBadge
	if err := c.get(ctx, prefixUsers+url.PathEscape(userID)+"/badges", nil, &badges); err != nil {
		return nil, err
	}
	return badges, nil
}

func (c *Client) UserTrees(ctx context.Context, userID string) ([]models.Tree, error) {
	var trees []models.Tree
	if err := c.get(ctx, prefixUsers+url.PathEscape(userID)+"/trees", nil, &trees); err != nil {
		return nil, err
	}
	return trees, nil
}

func (c *Client) Species(ctx context.Context) ([]models.TreeSpecies, error) {
	var species []models.TreeSpecies
	if err := c.get(ctx, "/api/tree-species", nil, &species); err != nil {
		return nil, err
	}
	return species, nil
}

// CurrentUser returns the signed-in profile. Use IsUnauthorized on the error
// to detect a missing or expired session.
func (c *Client) CurrentUser(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.get(ctx, prefixAuthUser, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateTree validates input locally and submits it. Invalid input never
// reaches the network and comes back as utils.ValidationErrors.
func (c *Client) CreateTree(ctx context.Context, input models.TreeInput, photo *Photo) (*models.Tree, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	var tree models.Tree
	if photo == nil {
		if _, err := c.sendJSON(ctx, fasthttp.MethodPost, "/api/trees", input, &tree); err != nil {
			return nil, err
		}
	} else {
		body, contentType, err := treeForm(input, photo)
		if err != nil {
			return nil, err
		}
		resp, err := c.send(ctx, request{method: fasthttp.MethodPost, path: "/api/trees", body: body, contentType: contentType})
		if err != nil {
			return nil, err
		}
		if err := jsonUnmarshal(resp.body, &tree); err != nil {
			return nil, err
		}
	}

	c.invalidate(ctx, prefixTrees, prefixUsers, prefixAuthUser)
	return &tree, nil
}

func treeForm(input models.TreeInput, photo *Photo) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"species":              input.Species,
		"condition":            input.Condition,
		"excessivePruning":     strconv.FormatBool(input.ExcessivePruning),
		"excessiveGroundCover": strconv.FormatBool(input.ExcessiveGroundCover),
		"damaged":              strconv.FormatBool(input.Damaged),
	}
	setFloat := func(name string, v *float64) {
		if v != nil {
			fields[name] = strconv.FormatFloat(*v, 'f', -1, 64)
		}
	}
	setInt := func(name string, v *int) {
		if v != nil {
			fields[name] = strconv.Itoa(*v)
		}
	}
	setFloat("latitude", input.Latitude)
	setFloat("longitude", input.Longitude)
	setInt("heightFloors", input.HeightFloors)
	setFloat("heightManual", input.HeightManual)
	setInt("circumferenceHands", input.CircumferenceHands)
	setFloat("circumferenceManual", input.CircumferenceManual)
	if input.Notes != nil {
		fields["notes"] = *input.Notes
	}

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	fw, err := w.CreateFormFile("photo", photo.Filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(photo.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// ReviewTree approves or rejects a pending tree
func (c *Client) ReviewTree(ctx context.Context, id uint, status string, notes *string) (*models.Tree, error) {
	if !models.IsReviewOutcome(status) {
		return nil, fmt.Errorf("invalid review status %q", status)
	}

	var out struct {
		Message string      `json:"message"`
		Tree    models.Tree `json:"tree"`
	}
	path := prefixTrees + "/" + strconv.FormatUint(uint64(id), 10) + "/review"
	if _, err := c.sendJSON(ctx, fasthttp.MethodPatch, path, models.ReviewInput{Status: status, Notes: notes}, &out); err != nil {
		return nil, err
	}

	c.invalidate(ctx, prefixTrees, prefixUsers, prefixAuthUser)
	return &out.Tree, nil
}

func (c *Client) AwardBadge(ctx context.Context, userID string, badgeID uint) error {
	path := prefixUsers + url.PathEscape(userID) + "/badges/" + strconv.FormatUint(uint64(badgeID), 10)
	if _, err := c.sendJSON(ctx, fasthttp.MethodPost, path, nil, nil); err != nil {
		return err
	}
	c.invalidate(ctx, prefixUsers+url.PathEscape(userID)+"/badges", prefixAuthUser)
	return nil
}

func (c *Client) AwardEducationBadge(ctx context.Context, userID string) error {
	if _, err := c.sendJSON(ctx, fasthttp.MethodPost, "/api/admin/award-education-badge/"+url.PathEscape(userID), nil, nil); err != nil {
		return err
	}
	c.invalidate(ctx, prefixUsers+url.PathEscape(userID)+"/badges", prefixAuthUser, "/api/badges")
	return nil
}

// Login signs in and keeps the session token for later requests. Cached
// data from a previous identity is dropped.
func (c *Client) Login(ctx context.Context, email, password string) error {
	input := models.LoginInput{Email: email, Password: password}
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}

	resp, err := c.sendJSON(ctx, fasthttp.MethodPost, "/api/login", input, nil)
	if err != nil {
		return err
	}
	if !resp.hasToken {
		return fmt.Errorf("login response carried no session cookie")
	}
	c.setToken(resp.token)
	c.invalidate(ctx, "")
	return nil
}

func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.send(ctx, request{method: fasthttp.MethodGet, path: "/api/logout"}); err != nil {
		return err
	}
	c.setToken("")
	c.invalidate(ctx, "")
	return nil
}
