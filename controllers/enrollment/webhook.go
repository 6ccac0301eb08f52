package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// Webhook receives provider deliveries. Signature failures are 400; once
// the signature checks out the delivery is acknowledged with 200 even when
// the event type is unhandled, so the provider stops retrying.
func (ec *EnrollmentController) Webhook(c *fiber.Ctx) error {
	signature := c.Get("Stripe-Signature")

	if err := ec.engine.HandleWebhookEvent(c.Context(), c.Body(), signature); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}
