package handlers

import (
	"github.com/brightlearn/tutor_backend/database"
	"github.com/brightlearn/tutor_backend/models"
	"github.com/brightlearn/tutor_backend/utils"
	"github.com/gofiber/fiber/v2"
)

func GetMe(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return utils.RespondError(c, utils.NotFound("User not found"))
	}
	return c.JSON(user)
}

type UpdateProfileRequest struct {
	FullName          *string `json:"full_name,omitempty" validate:"omitempty,min=2,max=255"`
	TimeZone          *string `json:"time_zone,omitempty"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`
}

func UpdateMe(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return utils.RespondError(c, utils.NotFound("User not found"))
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("Cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return utils.RespondError(c, utils.ValidationError(err.Error()))
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.TimeZone != nil {
		user.TimeZone = req.TimeZone
	}
	if req.ProfilePictureURL != nil {
		user.ProfilePictureURL = req.ProfilePictureURL
	}
	if err := database.DB.Save(&user).Error; err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(user)
}
