package controller

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"treewatch/metrics"
	"treewatch/models"
	"treewatch/storage"
	"treewatch/utils"
)

const (
	educationBadgeName        = "교육 이수"
	educationBadgeDescription = "나무 세기 교육을 이수했습니다."
	educationBadgeRequirement = 1
)

type BadgeController struct {
	Store  *storage.Storage
	Logger *logrus.Entry
}

func NewBadgeController(store *storage.Storage) *BadgeController {
	return &BadgeController{
		Store:  store,
		Logger: logrus.WithField("component", "badges"),
	}
}

func (bc *BadgeController) GetBadges(c *fiber.Ctx) error {
	badges, err := bc.Store.GetAllBadges(c.UserContext())
	if err != nil {
		utils.LogError("list_badges", err, nil)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch badges", nil)
	}
	return c.JSON(badges)
}

func (bc *BadgeController) CreateBadge(c *fiber.Ctx) error {
	var input models.BadgeInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid badge data", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid badge data", err)
	}

	badge, err := bc.Store.CreateBadge(c.UserContext(), input.ToBadge())
	if err != nil {
		utils.LogError("create_badge", err, map[string]interface{}{"name": input.Name})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create badge", nil)
	}
	return c.Status(fiber.StatusCreated).JSON(badge)
}

func (bc *BadgeController) GetUserBadges(c *fiber.Ctx) error {
	userID := c.Params("userId")
	userBadges, err := bc.Store.GetUserBadges(c.UserContext(), userID)
	if err != nil {
		utils.LogError("list_user_badges", err, map[string]interface{}{"user_id": userID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch user badges", nil)
	}
	return c.JSON(userBadges)
}

// AwardBadge links an existing badge to a user. Repeating it is harmless.
func (bc *BadgeController) AwardBadge(c *fiber.Ctx) error {
	userID := c.Params("userId")
	badgeID, ok := utils.ParseUint(c.Params("badgeId"))
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid badge ID", nil)
	}

	ctx := c.UserContext()
	if _, err := bc.Store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "User not found", nil)
		}
		utils.LogError("award_badge", err, map[string]interface{}{"user_id": userID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to award badge", nil)
	}

	badge, err := bc.Store.GetBadge(ctx, badgeID)
	if errors.Is(err, storage.ErrNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Badge not found", nil)
	}
	if err != nil {
		utils.LogError("award_badge", err, map[string]interface{}{"badge_id": badgeID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to award badge", nil)
	}

	if err := bc.Store.AwardBadge(ctx, userID, badge.ID); err != nil {
		utils.LogError("award_badge", err, map[string]interface{}{"user_id": userID, "badge_id": badgeID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to award badge", nil)
	}

	metrics.RecordBadgeAwarded(badge.Type)
	return c.JSON(fiber.Map{"message": "Badge awarded successfully"})
}

// AwardEducationBadge gives the training-completion badge to a user, creating
// the user and the badge on first use
func (bc *BadgeController) AwardEducationBadge(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Params("userId")

	if _, err := bc.Store.GetUser(ctx, userID); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			utils.LogError("award_education_badge", err, map[string]interface{}{"user_id": userID})
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to award education badge", nil)
		}
		email := fmt.Sprintf("%s@example.com", userID)
		if _, err := bc.Store.UpsertUser(ctx, &models.User{ID: userID, Email: &email, Role: models.RoleUser}); err != nil {
			utils.LogError("award_education_badge", err, map[string]interface{}{"user_id": userID})
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to award education badge", nil)
		}
		bc.Logger.WithField("user_id", userID).Info("Created user for education badge")
	}

	message := "Education badge awarded successfully"
	badge, err := bc.Store.GetBadgeByTypeAndRequirement(ctx, models.BadgeTypeEducation, educationBadgeRequirement)
	if errors.Is(err, storage.ErrNotFound) {
		badge, err = bc.Store.CreateBadge(ctx, &models.Badge{
			Name:        educationBadgeName,
			Description: utils.Pointer(educationBadgeDescription),
			Type:        models.BadgeTypeEducation,
			Requirement: utils.Pointer(educationBadgeRequirement),
		})
		message = "Education badge created and awarded successfully"
	}
	if err != nil {
		utils.LogError("award_education_badge", err, map[string]interface{}{"user_id": userID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to award education badge", nil)
	}

	if err := bc.Store.AwardBadge(ctx, userID, badge.ID); err != nil {
		utils.LogError("award_education_badge", err, map[string]interface{}{"user_id": userID, "badge_id": badge.ID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to award education badge", nil)
	}

	metrics.RecordBadgeAwarded(models.BadgeTypeEducation)
	return c.JSON(fiber.Map{"message": message})
}
