package controller

import (
	"errors"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"treewatch/config"
	"treewatch/middleware"
	"treewatch/models"
	"treewatch/storage"
	"treewatch/utils"
)

type AuthController struct {
	Store  *storage.Storage
	Config *config.Config
	Logger *logrus.Entry
}

func NewAuthController(store *storage.Storage, cfg *config.Config) *AuthController {
	return &AuthController{
		Store:  store,
		Config: cfg,
		Logger: logrus.WithField("component", "auth"),
	}
}

// Login signs the caller in by email, creating the account on first sight.
// The password is only checked when authorization is enforced.
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input models.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid login data", err)
	}
	if err := checkmail.ValidateFormat(input.Email); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid login data", utils.ValidationErrors{
			{Field: "email", Message: "email must be a valid email"},
		})
	}

	ctx := c.UserContext()
	message := "로그인 성공"

	user, err := ac.Store.GetUserByEmail(ctx, input.Email)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			utils.LogError("login_hash", err, nil)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "로그인 중 오류 발생", nil)
		}
		email := input.Email
		user, err = ac.Store.UpsertUser(ctx, &models.User{
			ID:           email,
			Email:        &email,
			PasswordHash: string(hash),
			Role:         models.RoleUser,
		})
		if err != nil {
			utils.LogError("login_create_user", err, map[string]interface{}{"email": email})
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "로그인 중 오류 발생", nil)
		}
		message = "새 계정 생성 및 로그인 성공"
		ac.Logger.WithField("user_id", user.ID).Info("Account created on first login")

	case err != nil:
		utils.LogError("login", err, map[string]interface{}{"email": input.Email})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "로그인 중 오류 발생", nil)

	case ac.Config.AuthEnforce:
		if user.PasswordHash == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "비밀번호가 설정되지 않았습니다.", nil)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "비밀번호가 일치하지 않습니다.", nil)
		}
	}

	token, err := utils.GenerateSessionToken(user)
	if err != nil {
		utils.LogError("login_token", err, map[string]interface{}{"user_id": user.ID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "로그인 중 오류 발생", nil)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(utils.SessionTTL().Seconds()),
		HTTPOnly: true,
		Secure:   ac.Config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	utils.LogEvent("user_login", map[string]interface{}{"user_id": user.ID})
	return c.JSON(fiber.Map{"message": message})
}

// Logout clears the session cookie and sends the browser home
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
	})
	return c.Redirect("/")
}

// GetAuthUser returns the signed-in user's profile with badges and counts
func (ac *AuthController) GetAuthUser(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized", nil)
	}

	ctx := c.UserContext()
	badges, err := ac.Store.GetUserBadges(ctx, user.ID)
	if err != nil {
		utils.LogError("auth_user_badges", err, map[string]interface{}{"user_id": user.ID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch user", nil)
	}
	trees, err := ac.Store.GetTreesByUser(ctx, user.ID)
	if err != nil {
		utils.LogError("auth_user_trees", err, map[string]interface{}{"user_id": user.ID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch user", nil)
	}

	approved := 0
	for _, tree := range trees {
		if tree.Status == models.StatusApproved {
			approved++
		}
	}

	return c.JSON(models.UserProfile{
		User:              user,
		Badges:            badges,
		TreeCount:         len(trees),
		ApprovedTreeCount: approved,
	})
}
