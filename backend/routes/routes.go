package routes

import (
	"log"

	"mcqbank/backend/activation"
	"mcqbank/backend/config"
	"mcqbank/backend/controllers"
	"mcqbank/backend/ledger"
	"mcqbank/backend/middleware"
	"mcqbank/backend/notify"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, logger *log.Logger) {
	walletLedger := ledger.New(db)
	notifier := notify.New(db)
	engine := activation.NewEngine(db, walletLedger, notifier, logger)

	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(cfg)

	// Question bank routes
	questionsController := controllers.NewQuestionsController(db, cfg)
	app.Get("/api/questions", questionsController.GetQuestions)
	app.Post("/api/questions", authMiddleware, questionsController.CreateQuestion)
	app.Delete("/api/questions/:id", authMiddleware, adminMiddleware, questionsController.DeleteQuestion)

	// User routes
	usersController := controllers.NewUsersController(db, cfg, walletLedger)
	app.Get("/api/user/profile", authMiddleware, usersController.GetProfile)
	app.Get("/api/user/transactions", authMiddleware, usersController.GetTransactions)
	app.Post("/api/subscriptions/deduct", authMiddleware, usersController.DeductQuota)

	// Payment routes
	paymentsController := controllers.NewPaymentsController(db, cfg, engine, notifier)
	payments := app.Group("/api/payments", authMiddleware)
	payments.Post("/request", paymentsController.CreateRequest)
	payments.Post("/wallet", paymentsController.PayWithWallet)
	payments.Get("/", adminMiddleware, paymentsController.ListRequests)
	payments.Post("/:id/approve", adminMiddleware, paymentsController.Approve)
	payments.Post("/:id/reject", adminMiddleware, paymentsController.Reject)

	// Exam routes
	examsController := controllers.NewExamsController(db, cfg)
	exams := app.Group("/api/exams", authMiddleware)
	exams.Get("/", examsController.ListExams)
	exams.Get("/:id", examsController.GetExam)
	exams.Post("/:id/submit", examsController.Submit)
	exams.Get("/:id/leaderboard", examsController.Leaderboard)
	exams.Post("/", adminMiddleware, examsController.CreateExam)
	exams.Put("/:id/archive", adminMiddleware, examsController.ArchiveExam)
	app.Get("/api/results/:id", authMiddleware, examsController.GetResult)

	// Collection routes
	collectionsController := controllers.NewCollectionsController(db, cfg)
	collections := app.Group("/api/collections", authMiddleware)
	collections.Post("/", collectionsController.Create)
	collections.Get("/", collectionsController.ListMine)
	collections.Delete("/:id", collectionsController.Delete)

	// Notification routes
	notificationsController := controllers.NewNotificationsController(db, cfg, notifier)
	notifications := app.Group("/api/notifications", authMiddleware)
	notifications.Get("/", notificationsController.List)
	notifications.Put("/:id/read", notificationsController.MarkRead)
	notifications.Post("/broadcast", adminMiddleware, notificationsController.Broadcast)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("mcq bank server is running")
	})
}
