package handlers

import (
	"github.com/brightlearn/tutor_backend/services"
	"github.com/brightlearn/tutor_backend/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var validate = validator.New()

// Booking and Lifecycle are wired once at startup from cmd/api.
var (
	Booking   *services.BookingService
	Lifecycle *services.LifecycleService
)

func InitServices(booking *services.BookingService, lifecycle *services.LifecycleService) {
	Booking = booking
	Lifecycle = lifecycle
}

// currentUserID extracts the authenticated user's id from the JWT set by the
// Protected middleware.
func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, utils.Unauthorized("Missing authentication token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, utils.Unauthorized("Invalid authentication token")
	}
	raw, _ := claims["user_id"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, utils.Unauthorized("Invalid authentication token")
	}
	return id, nil
}
