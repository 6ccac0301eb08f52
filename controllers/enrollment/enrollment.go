package controllers

import (
	"github.com/gofiber/fiber/v2"

	"lms/middleware"
	courseModels "lms/models/course"
	"lms/services/enrollment"
	enrollmentValidator "lms/validators/enrollment"
)

// EnrollmentController exposes the consistency engine over HTTP. Handlers
// stay thin: parse locals, call the engine, map the error kind to a status.
type EnrollmentController struct {
	engine *enrollment.Engine
}

func NewEnrollmentController(engine *enrollment.Engine) *EnrollmentController {
	return &EnrollmentController{engine: engine}
}

// Enroll requests enrollment in a course. Free courses enroll directly;
// paid courses get a payment intent back to complete client-side.
func (ec *EnrollmentController) Enroll(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData := c.Locals("enrollReq").(*enrollmentValidator.EnrollRequest)

	result, err := ec.engine.RequestEnrollment(c.Context(), userID, reqData.CourseID, reqData.Amount)
	if err != nil {
		return respondError(c, err)
	}

	if result.Intent != nil {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment required to complete enrollment.", fiber.Map{
			"payment_intent_id": result.Intent.ID,
			"client_secret":     result.Intent.ClientSecret,
			"amount":            result.Intent.Amount,
			"currency":          result.Intent.Currency,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled in course successfully!", fiber.Map{
		"enrollment_id": result.Enrollment.ID,
		"status":        result.Enrollment.Status,
	})
}

// Confirm finalizes a paid enrollment once the payment intent succeeded.
func (ec *EnrollmentController) Confirm(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData := c.Locals("confirmReq").(*enrollmentValidator.ConfirmRequest)

	enr, err := ec.engine.ConfirmEnrollment(c.Context(), userID, reqData.CourseID, reqData.PaymentIntentID)
	if err != nil {
		return respondError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment confirmed and enrollment created successfully!", fiber.Map{
		"enrollment_id": enr.ID,
		"status":        enr.Status,
		"amount":        courseModels.DisplayAmount(enr.PaymentAmount),
		"currency":      enr.Currency,
	})
}

// UpdateProgress marks a module complete or incomplete.
func (ec *EnrollmentController) UpdateProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	enrollmentID := c.Locals("enrollmentID").(uint)
	reqData := c.Locals("progressReq").(*enrollmentValidator.ProgressRequest)

	quizScore := 0
	if reqData.QuizScore != nil {
		quizScore = *reqData.QuizScore
	}

	enr, err := ec.engine.UpdateModuleProgress(c.Context(), enrollmentID, userID, reqData.ModuleID, *reqData.Completed, quizScore)
	if err != nil {
		return respondError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated successfully!", fiber.Map{
		"overall_progress":   enr.OverallProgress,
		"status":             enr.Status,
		"certificate_issued": enr.CertificateIssued,
	})
}

// Drop transitions the enrollment to dropped without touching the payment.
func (ec *EnrollmentController) Drop(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	enrollmentID := c.Locals("enrollmentID").(uint)

	enr, err := ec.engine.DropEnrollment(c.Context(), enrollmentID, userID, middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment dropped successfully!", fiber.Map{
		"status": enr.Status,
	})
}

// Refund returns the payment through the provider and drops the enrollment.
func (ec *EnrollmentController) Refund(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	enrollmentID := c.Locals("enrollmentID").(uint)
	reqData := c.Locals("refundReq").(*enrollmentValidator.RefundRequest)

	refund, err := ec.engine.RefundEnrollment(c.Context(), enrollmentID, userID, reqData.Reason)
	if err != nil {
		return respondError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Refund processed successfully!", fiber.Map{
		"refund_id": refund.RefundID,
		"amount":    courseModels.DisplayAmount(refund.Amount),
		"status":    refund.Status,
	})
}
