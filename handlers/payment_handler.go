package handlers

import (
	"encoding/json"
	"log"

	config "github.com/brightlearn/tutor_backend/configs"
	"github.com/brightlearn/tutor_backend/payments"
	"github.com/brightlearn/tutor_backend/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type checkoutWebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// HandleCheckoutWebhook processes checkout.session.completed events from the
// payment processor. Confirmation is idempotent per pending booking, so
// redelivered events are acknowledged without side effects.
func HandleCheckoutWebhook(c *fiber.Ctx) error {
	body := c.Body()

	if secret := config.Config("STRIPE_WEBHOOK_SECRET"); secret != "" {
		if err := payments.VerifyWebhookSignature(body, c.Get("Stripe-Signature"), secret); err != nil {
			log.Printf("Rejected webhook with bad signature: %v", err)
			return utils.RespondError(c, utils.Unauthorized("Invalid webhook signature"))
		}
	}

	var event checkoutWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return utils.RespondError(c, utils.ValidationError("Cannot parse webhook payload"))
	}

	if event.Type != "checkout.session.completed" {
		return c.JSON(fiber.Map{"message": "Event ignored"})
	}

	rawID := event.Data.Object.Metadata["pending_booking_id"]
	pendingID, err := uuid.Parse(rawID)
	if err != nil {
		log.Printf("🔥 Webhook %s has no usable pending_booking_id: %q", event.ID, rawID)
		return utils.RespondError(c, utils.ValidationError("Missing pending_booking_id metadata"))
	}

	lessons, err := Booking.ConfirmPendingBooking(pendingID)
	if err != nil {
		log.Printf("🔥 CRITICAL: failed to confirm pending booking %s: %v", pendingID, err)
		return utils.RespondError(c, err)
	}
	if lessons == nil {
		return c.JSON(fiber.Map{"message": "Webhook already processed"})
	}

	log.Printf("✅ Confirmed pending booking %s: %d lesson(s) created", pendingID, len(lessons))
	return c.JSON(fiber.Map{"message": "Webhook processed successfully"})
}
