package controller

import (
	"errors"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"treewatch/models"
	"treewatch/storage"
	"treewatch/utils"
)

// UserController serves the admin user management endpoints
type UserController struct {
	Store  *storage.Storage
	Logger *logrus.Entry
}

func NewUserController(store *storage.Storage) *UserController {
	return &UserController{
		Store:  store,
		Logger: logrus.WithField("component", "users"),
	}
}

// CreateUser inserts a user or overwrites the one with the same id
func (uc *UserController) CreateUser(c *fiber.Ctx) error {
	var input models.UserInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user data", err)
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user data", err)
	}
	if err := checkmail.ValidateFormat(input.Email); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user data", utils.ValidationErrors{
			{Field: "email", Message: "email must be a valid email"},
		})
	}

	user := &models.User{
		ID:    input.ID,
		Email: &input.Email,
		Role:  input.Role,
	}
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			utils.LogError("create_user_hash", err, nil)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create user", nil)
		}
		user.PasswordHash = string(hash)
	}

	saved, err := uc.Store.UpsertUser(c.UserContext(), user)
	if err != nil {
		utils.LogError("create_user", err, map[string]interface{}{"user_id": input.ID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create user", nil)
	}

	uc.Logger.WithFields(logrus.Fields{"user_id": saved.ID, "role": saved.Role}).Info("User saved")
	return c.Status(fiber.StatusCreated).JSON(saved)
}

func (uc *UserController) GetUsers(c *fiber.Ctx) error {
	users, err := uc.Store.GetAllUsers(c.UserContext())
	if err != nil {
		utils.LogError("list_users", err, nil)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch users", nil)
	}
	return c.JSON(users)
}

func (uc *UserController) UpdateUserRole(c *fiber.Ctx) error {
	userID := c.Params("userId")

	var input models.RoleInput
	if err := c.BodyParser(&input); err != nil || !models.IsValidRole(input.Role) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid role", nil)
	}

	err := uc.Store.UpdateUserRole(c.UserContext(), userID, input.Role)
	if errors.Is(err, storage.ErrNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "User not found", nil)
	}
	if err != nil {
		utils.LogError("update_user_role", err, map[string]interface{}{"user_id": userID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update user role", nil)
	}

	utils.LogEvent("user_role_changed", map[string]interface{}{"user_id": userID, "role": input.Role})
	return c.JSON(fiber.Map{"message": "User role updated successfully"})
}
