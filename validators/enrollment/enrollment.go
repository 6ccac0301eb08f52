package enrollmentValidator

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"lms/middleware"
)

// EnrollRequest is the validated body for the enroll endpoint. Amount is in
// minor currency units and is informational only.
type EnrollRequest struct {
	CourseID uint  `json:"course_id"`
	Amount   int64 `json:"amount"`
}

// ConfirmRequest is the validated body for the confirm endpoint.
type ConfirmRequest struct {
	CourseID        uint   `json:"course_id"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// ProgressRequest is the validated body for the progress endpoint.
type ProgressRequest struct {
	ModuleID  uint  `json:"module_id"`
	Completed *bool `json:"completed"`
	QuizScore *int  `json:"quiz_score"`
}

// RefundRequest is the validated body for the refund endpoint.
type RefundRequest struct {
	Reason string `json:"reason"`
}

func Enroll() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(EnrollRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if reqData.CourseID == 0 {
			errors["course_id"] = "Course ID is required!"
		}
		if reqData.Amount < 0 {
			errors["amount"] = "Amount cannot be negative!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("enrollReq", reqData)
		return c.Next()
	}
}

func Confirm() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ConfirmRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if reqData.CourseID == 0 {
			errors["course_id"] = "Course ID is required!"
		}
		if strings.TrimSpace(reqData.PaymentIntentID) == "" {
			errors["payment_intent_id"] = "Payment intent ID is required!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("confirmReq", reqData)
		return c.Next()
	}
}

func Progress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := enrollmentIDParam(c); err != nil {
			return err
		}

		reqData := new(ProgressRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if reqData.ModuleID == 0 {
			errors["module_id"] = "Module ID is required!"
		}
		if reqData.Completed == nil {
			errors["completed"] = "Completed must be a boolean!"
		}
		if reqData.QuizScore != nil && (*reqData.QuizScore < 0 || *reqData.QuizScore > 100) {
			errors["quiz_score"] = "Quiz score must be between 0 and 100!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("progressReq", reqData)
		return c.Next()
	}
}

func Refund() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := enrollmentIDParam(c); err != nil {
			return err
		}

		reqData := new(RefundRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if strings.TrimSpace(reqData.Reason) == "" {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"reason": "Refund reason is required!",
			})
		}

		c.Locals("refundReq", reqData)
		return c.Next()
	}
}

func EnrollmentID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := enrollmentIDParam(c); err != nil {
			return err
		}
		return c.Next()
	}
}

func CourseID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseIDStr := strings.TrimSpace(c.Params("courseId"))
		courseID, err := strconv.Atoi(courseIDStr)
		if err != nil || courseID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}

		c.Locals("courseID", uint(courseID))
		return c.Next()
	}
}

func enrollmentIDParam(c *fiber.Ctx) error {
	idStr := strings.TrimSpace(c.Params("id"))
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Enrollment ID!", nil)
	}

	c.Locals("enrollmentID", uint(id))
	return nil
}
