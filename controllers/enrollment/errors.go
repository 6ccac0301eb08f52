package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"lms/middleware"
	"lms/services/enrollment"
)

// respondError maps engine error kinds to HTTP statuses. Only the stable
// code and message cross the boundary; internals are logged server-side.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *enrollment.Error
	if !errors.As(err, &appErr) {
		log.Printf("enrollment: internal error: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Server error!", nil)
	}

	status := fiber.StatusBadRequest
	switch appErr.Kind {
	case enrollment.KindNotAuthorized:
		status = fiber.StatusForbidden
	case enrollment.KindNotFound:
		status = fiber.StatusNotFound
	case enrollment.KindConflict:
		status = fiber.StatusConflict
	case enrollment.KindGatewayUnavailable:
		status = fiber.StatusBadGateway
	case enrollment.KindGatewayRejected:
		status = fiber.StatusPaymentRequired
	}
	if appErr.Code == enrollment.CodePaymentNotSucceeded {
		status = fiber.StatusPaymentRequired
	}

	return middleware.JsonResponse(c, status, false, appErr.Message, fiber.Map{
		"code": appErr.Code,
	})
}
