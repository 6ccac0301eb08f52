package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"lms/config"
	controllers "lms/controllers/enrollment"
	"lms/database"
	"lms/routers/enrollmentRoutes"
	"lms/services/enrollment"
	"lms/services/payment"
	"lms/store"
	"lms/utils"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	courseStore := store.NewCourseStore(db)
	enrollmentStore := store.NewEnrollmentStore(db)
	webhookStore := store.NewWebhookStore(db)
	userStore := store.NewUserStore(db)

	gateway := payment.NewStripeGateway(cfg)
	mailer := utils.NewMailer(cfg)

	engine := enrollment.New(courseStore, enrollmentStore, webhookStore, userStore, gateway, mailer)
	enrollmentController := controllers.NewEnrollmentController(engine)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization,Stripe-Signature",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	enrollmentRoutes.SetupEnrollmentRoutes(app, cfg.JWTKey, enrollmentController)

	reconciler, err := utils.StartRosterReconciler(cfg.RosterReconcileSpec, courseStore, enrollmentStore)
	if err != nil {
		log.Fatalf("Failed to start roster reconciler: %v", err)
	}
	defer reconciler.Stop()

	log.Printf("Server is running on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
