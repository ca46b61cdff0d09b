package handlers

import (
	"errors"
	"fmt"
	"time"

	config "github.com/brightlearn/tutor_backend/configs"
	"github.com/brightlearn/tutor_backend/database"
	"github.com/brightlearn/tutor_backend/models"
	"github.com/brightlearn/tutor_backend/notifications"
	"github.com/brightlearn/tutor_backend/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	FullName string  `json:"full_name" validate:"required,min=2"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	TimeZone *string `json:"time_zone,omitempty"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func RegisterUser(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("Cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return utils.RespondError(c, utils.ValidationError(err.Error()))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.RespondError(c, err)
	}

	var newUser models.User
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		newUser = models.User{
			FullName: req.FullName,
			Email:    req.Email,
			Password: string(hashedPassword),
			TimeZone: req.TimeZone,
		}
		if err := tx.Create(&newUser).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return utils.Conflict("Email already exists")
			}
			return err
		}

		learner := models.Learner{UserID: newUser.ID, FullName: newUser.FullName}
		return tx.Create(&learner).Error
	})
	if err != nil {
		return utils.RespondError(c, err)
	}

	go notifications.SendEmail(newUser.FullName, newUser.Email, "Welcome!",
		"<h1>Welcome!</h1><p>Thank you for registering. Browse our teachers and book your first lesson.</p>")

	response := UserResponse{
		ID:        newUser.ID.String(),
		FullName:  newUser.FullName,
		Email:     newUser.Email,
		Role:      newUser.Role,
		CreatedAt: newUser.CreatedAt,
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}

func LoginUser(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("Cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return utils.RespondError(c, utils.ValidationError(err.Error()))
	}

	var user models.User
	if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return utils.RespondError(c, utils.Unauthorized("Invalid email or password"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return utils.RespondError(c, utils.Unauthorized("Invalid email or password"))
	}
	if !user.IsActive {
		return utils.RespondError(c, utils.Forbidden("This account has been deactivated"))
	}

	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"exp":     time.Now().Add(time.Hour * 72).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := token.SignedString([]byte(config.Config("JWT_SECRET")))
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{"token": t})
}

func ForgotPassword(c *fiber.Ctx) error {
	type Request struct {
		Email string `json:"email" validate:"required,email"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("Cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return utils.RespondError(c, utils.ValidationError(err.Error()))
	}

	// Always the same answer, whether the account exists or not.
	neutral := fiber.Map{"message": "If an account with that email exists, a password reset link has been sent."}

	var user models.User
	if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.JSON(neutral)
	}

	token, err := utils.GenerateToken()
	if err != nil {
		return utils.RespondError(c, err)
	}
	expiration := time.Now().Add(15 * time.Minute)
	user.ResetPasswordToken = &token
	user.ResetPasswordTokenExpiresAt = &expiration
	if err := database.DB.Save(&user).Error; err != nil {
		return utils.RespondError(c, err)
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s",
		config.ConfigOr("FRONTEND_URL", "https://www.brightlearn.io"), token)
	go notifications.SendEmail(user.FullName, user.Email, "Your Password Reset Link",
		fmt.Sprintf("<h1>Password Reset</h1><p>Click the link below to reset your password. This link is valid for 15 minutes.</p><p><a href='%s'>Reset Password</a></p>", resetLink))

	return c.JSON(neutral)
}

func ResetPassword(c *fiber.Ctx) error {
	type Request struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,min=6"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("Cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return utils.RespondError(c, utils.ValidationError(err.Error()))
	}

	var user models.User
	if err := database.DB.Where("reset_password_token = ?", req.Token).First(&user).Error; err != nil {
		return utils.RespondError(c, utils.ValidationError("Invalid or expired reset token"))
	}
	if user.ResetPasswordTokenExpiresAt == nil || user.ResetPasswordTokenExpiresAt.Before(time.Now()) {
		user.ResetPasswordToken = nil
		user.ResetPasswordTokenExpiresAt = nil
		database.DB.Save(&user)
		return utils.RespondError(c, utils.ValidationError("Invalid or expired reset token"))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return utils.RespondError(c, err)
	}

	user.Password = string(hashedPassword)
	user.ResetPasswordToken = nil
	user.ResetPasswordTokenExpiresAt = nil
	if err := database.DB.Save(&user).Error; err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password has been reset successfully."})
}
