package enrollmentRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "lms/controllers/enrollment"
	"lms/middleware"
	validators "lms/validators/enrollment"
)

// SetupEnrollmentRoutes sets up enrollment, payment and webhook routes
func SetupEnrollmentRoutes(app *fiber.App, jwtSecret string, ec *controllers.EnrollmentController) {
	auth := middleware.JWTMiddleware(jwtSecret)

	enrollGroup := app.Group("/enrollment")

	// Enrollment lifecycle
	enrollGroup.Post("/enroll", auth, validators.Enroll(), ec.Enroll)
	enrollGroup.Post("/confirm", auth, validators.Confirm(), ec.Confirm)
	enrollGroup.Put("/:id/progress", auth, validators.Progress(), ec.UpdateProgress)
	enrollGroup.Delete("/:id", auth, validators.EnrollmentID(), ec.Drop)
	enrollGroup.Post("/:id/refund", auth, validators.Refund(), ec.Refund)

	// Lookups
	enrollGroup.Get("/list", auth, ec.GetEnrollments)
	enrollGroup.Get("/stats", auth, ec.GetStats)
	enrollGroup.Get("/course/:courseId/roster", auth, validators.CourseID(), ec.GetCourseRoster)
	enrollGroup.Get("/course/:courseId", auth, validators.CourseID(), ec.GetCourseEnrollment)
	enrollGroup.Get("/:id", auth, validators.EnrollmentID(), ec.GetEnrollment)

	// Provider webhook: authenticated by signature, not by JWT
	app.Post("/payments/webhook", ec.Webhook)
}
