package controllers

import (
	"github.com/gofiber/fiber/v2"

	"lms/middleware"
	courseModels "lms/models/course"
)

// GetEnrollments lists the requester's enrollments, newest first. The rows
// include the payment columns, so this is also the payment history view.
func (ec *EnrollmentController) GetEnrollments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollments, err := ec.engine.ListEnrollments(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	history := make([]fiber.Map, 0, len(enrollments))
	for _, enr := range enrollments {
		history = append(history, fiber.Map{
			"enrollment_id":    enr.ID,
			"course_id":        enr.CourseID,
			"status":           enr.Status,
			"overall_progress": enr.OverallProgress,
			"amount":           courseModels.DisplayAmount(enr.PaymentAmount),
			"currency":         enr.Currency,
			"payment_status":   enr.PaymentStatus,
			"transaction_id":   enr.TransactionID,
			"enrolled_at":      enr.CreatedAt,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", history)
}

// GetEnrollment returns one enrollment with its completed modules.
func (ec *EnrollmentController) GetEnrollment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	enrollmentID := c.Locals("enrollmentID").(uint)

	detail, err := ec.engine.GetEnrollment(c.Context(), enrollmentID, userID, middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment fetched successfully!", fiber.Map{
		"enrollment":        detail.Enrollment,
		"completed_modules": detail.Completions,
	})
}

// GetCourseEnrollment returns the requester's live enrollment in a course.
func (ec *EnrollmentController) GetCourseEnrollment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals("courseID").(uint)

	enr, err := ec.engine.EnrollmentForCourse(c.Context(), userID, courseID)
	if err != nil {
		return respondError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment fetched successfully!", enr)
}

// GetCourseRoster returns the enrolled-student roster for a course. Admin only.
func (ec *EnrollmentController) GetCourseRoster(c *fiber.Ctx) error {
	if !middleware.IsAdmin(c) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
	}
	courseID := c.Locals("courseID").(uint)

	roster, err := ec.engine.CourseRoster(c.Context(), courseID)
	if err != nil {
		return respondError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course roster fetched successfully!", roster)
}

// GetStats returns aggregate enrollment counts. Admin only.
func (ec *EnrollmentController) GetStats(c *fiber.Ctx) error {
	if !middleware.IsAdmin(c) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
	}

	stats, err := ec.engine.EnrollmentStats(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment stats fetched successfully!", stats)
}
