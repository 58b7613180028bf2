package controller

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"treewatch/config"
	"treewatch/metrics"
	"treewatch/middleware"
	"treewatch/models"
	"treewatch/storage"
	"treewatch/utils"
)

type TreeController struct {
	Store  *storage.Storage
	Config *config.Config
	Logger *logrus.Entry
}

func NewTreeController(store *storage.Storage, cfg *config.Config) *TreeController {
	return &TreeController{
		Store:  store,
		Config: cfg,
		Logger: logrus.WithField("component", "trees"),
	}
}

// GetTrees lists trees. search takes precedence over status; species and
// condition narrow the result further.
func (tc *TreeController) GetTrees(c *fiber.Ctx) error {
	ctx := c.UserContext()
	search := c.Query("search")
	status := c.Query("status")

	var (
		trees []models.Tree
		err   error
	)
	switch {
	case search != "":
		trees, err = tc.Store.SearchTrees(ctx, search)
	case status != "":
		trees, err = tc.Store.GetTreesByStatus(ctx, status)
	default:
		trees, err = tc.Store.GetAllTrees(ctx)
	}
	if err != nil {
		utils.LogError("list_trees", err, map[string]interface{}{"search": search, "status": status})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch trees", nil)
	}

	species := c.Query("species")
	condition := c.Query("condition")

	filtered := make([]models.Tree, 0, len(trees))
	for _, tree := range trees {
		if species != "" && tree.Species != species {
			continue
		}
		if condition != "" && tree.Condition != condition {
			continue
		}
		if !tc.canSee(c, &tree) {
			continue
		}
		filtered = append(filtered, tree)
	}

	return c.JSON(filtered)
}

// canSee hides unreviewed and rejected records from callers who are neither
// their contributor nor a reviewer, when authorization is enforced
func (tc *TreeController) canSee(c *fiber.Ctx, tree *models.Tree) bool {
	if !tc.Config.AuthEnforce || tree.Status == models.StatusApproved {
		return true
	}
	user := middleware.CurrentUser(c)
	if user == nil {
		return false
	}
	return user.IsReviewer() || user.ID == tree.ContributorID
}

func (tc *TreeController) GetPendingTrees(c *fiber.Ctx) error {
	trees, err := tc.Store.GetTreesByStatus(c.UserContext(), models.StatusPending)
	if err != nil {
		utils.LogError("list_pending_trees", err, nil)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch pending trees", nil)
	}
	return c.JSON(trees)
}

func (tc *TreeController) GetStats(c *fiber.Ctx) error {
	stats, err := tc.Store.GetTreeStats(c.UserContext())
	if err != nil {
		utils.LogError("tree_stats", err, nil)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch statistics", nil)
	}
	return c.JSON(stats)
}

func (tc *TreeController) GetTree(c *fiber.Ctx) error {
	id, ok := utils.ParseUint(c.Params("id"))
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tree ID", nil)
	}

	tree, err := tc.Store.GetTree(c.UserContext(), id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !tc.canSee(c, tree)) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Tree not found", nil)
	}
	if err != nil {
		utils.LogError("get_tree", err, map[string]interface{}{"tree_id": id})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch tree", nil)
	}
	return c.JSON(tree)
}

// CreateTree accepts a JSON body or a multipart form with an optional photo
// file. Nothing is written, photo included, unless the input validates.
func (tc *TreeController) CreateTree(c *fiber.Ctx) error {
	multipart := strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)

	var (
		input models.TreeInput
		err   error
	)
	if multipart {
		input, err = parseTreeForm(c)
	} else {
		err = c.BodyParser(&input)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tree data", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tree data", err)
	}

	var photoURL *string
	if multipart {
		file, err := c.FormFile("photo")
		switch {
		case err == nil:
			if file.Size > int64(tc.Config.MaxUploadMB)<<20 {
				return utils.ErrorResponse(c, fiber.StatusRequestEntityTooLarge, "Photo is too large", nil)
			}
			url, err := utils.SavePhoto(c, file, tc.Config.UploadDir)
			if errors.Is(err, utils.ErrNotAnImage) {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tree data", utils.ValidationErrors{
					{Field: "photo", Message: "photo must be an image"},
				})
			}
			if err != nil {
				utils.LogError("save_photo", err, nil)
				return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create tree", nil)
			}
			photoURL = &url
		case !errors.Is(err, fasthttp.ErrMissingFile):
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tree data", err)
		}
	}

	contributorID := middleware.CurrentUserID(c)
	if contributorID == "" {
		contributorID = models.PlaceholderContributorID
	}

	tree, err := tc.Store.CreateTree(c.UserContext(), input.ToTree(contributorID, photoURL))
	if err != nil {
		utils.LogError("create_tree", err, map[string]interface{}{"contributor_id": contributorID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create tree", nil)
	}

	metrics.RecordTreeSubmitted()
	utils.LogEvent("tree_submitted", map[string]interface{}{
		"tree_id":        tree.ID,
		"species":        tree.Species,
		"contributor_id": tree.ContributorID,
	})
	return c.Status(fiber.StatusCreated).JSON(tree)
}

// parseTreeForm reads the scalar fields of a multipart submission. Empty
// optional fields are left unset.
func parseTreeForm(c *fiber.Ctx) (models.TreeInput, error) {
	var (
		input models.TreeInput
		errs  utils.ValidationErrors
	)

	floatField := func(name string) *float64 {
		raw := strings.TrimSpace(c.FormValue(name))
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, utils.FieldError{Field: name, Message: name + " must be a number"})
			return nil
		}
		return &v
	}
	intField := func(name string) *int {
		raw := strings.TrimSpace(c.FormValue(name))
		if raw == "" {
			return nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, utils.FieldError{Field: name, Message: name + " must be a whole number"})
			return nil
		}
		return &v
	}
	boolField := func(name string) bool {
		switch strings.ToLower(strings.TrimSpace(c.FormValue(name))) {
		case "true", "on", "1", "yes":
			return true
		}
		return false
	}

	input.Species = strings.TrimSpace(c.FormValue("species"))
	input.Condition = strings.TrimSpace(c.FormValue("condition"))
	input.Latitude = floatField("latitude")
	input.Longitude = floatField("longitude")
	input.HeightFloors = intField("heightFloors")
	input.HeightManual = floatField("heightManual")
	input.CircumferenceHands = intField("circumferenceHands")
	input.CircumferenceManual = floatField("circumferenceManual")
	input.ExcessivePruning = boolField("excessivePruning")
	input.ExcessiveGroundCover = boolField("excessiveGroundCover")
	input.Damaged = boolField("damaged")
	if notes := c.FormValue("notes"); notes != "" {
		input.Notes = &notes
	}

	if len(errs) > 0 {
		return input, errs
	}
	return input, nil
}

// ReviewTree records an approve or reject decision on a pending tree
func (tc *TreeController) ReviewTree(c *fiber.Ctx) error {
	id, ok := utils.ParseUint(c.Params("id"))
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tree ID", nil)
	}

	var input models.ReviewInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if !models.IsReviewOutcome(input.Status) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid status", nil)
	}

	reviewerID := middleware.CurrentUserID(c)
	if reviewerID == "" {
		reviewerID = models.PlaceholderReviewerID
	}

	tree, err := tc.Store.UpdateTreeStatus(c.UserContext(), id, input.Status, reviewerID, input.Notes)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Tree not found", nil)
	case errors.Is(err, storage.ErrAlreadyReviewed):
		return utils.ErrorResponse(c, fiber.StatusConflict, "Tree has already been reviewed", nil)
	case err != nil:
		utils.LogError("review_tree", err, map[string]interface{}{"tree_id": id, "reviewer_id": reviewerID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to review tree", nil)
	}

	metrics.RecordTreeReviewed(input.Status)
	tc.Logger.WithFields(logrus.Fields{
		"tree_id":  id,
		"status":   input.Status,
		"reviewer": reviewerID,
	}).Info("Tree review updated")

	return c.JSON(fiber.Map{
		"message": "Tree review updated",
		"tree":    tree,
	})
}

// GetUserTrees lists every tree a user contributed, whatever its status
func (tc *TreeController) GetUserTrees(c *fiber.Ctx) error {
	userID := c.Params("userId")

	if tc.Config.AuthEnforce {
		user := middleware.CurrentUser(c)
		if user == nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized", nil)
		}
		if user.ID != userID && !user.IsReviewer() {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Forbidden", nil)
		}
	}

	trees, err := tc.Store.GetTreesByUser(c.UserContext(), userID)
	if err != nil {
		utils.LogError("list_user_trees", err, map[string]interface{}{"user_id": userID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch user trees", nil)
	}
	return c.JSON(trees)
}
