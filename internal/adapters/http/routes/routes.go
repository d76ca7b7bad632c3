package routes

import (
	"openshelf/internal/adapters/http/handlers"
	"openshelf/internal/adapters/http/middleware"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/config"
	"openshelf/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	issueRepo := repositories.NewIssueRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo, refreshTokenRepo)
	bookService := services.NewBookService(bookRepo, issueRepo)
	issueService := services.NewIssueService(issueRepo, bookRepo, userRepo)
	dashboardService := services.NewDashboardService(db)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService, cfg)
	bookHandler := handlers.NewBookHandler(bookService, cfg)
	issueHandler := handlers.NewIssueHandler(issueService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Uploaded assets (book covers, profile pictures)
	app.Use("/uploads", middleware.StaticAssetCache())
	app.Static("/uploads", cfg.Upload.Dir)

	// API group
	api := app.Group("/api")
	api.Get("/", healthHandler.APIInfo)

	setupAuthRoutes(api, authHandler, cfg)
	setupBookRoutes(api, bookHandler, cfg)
	setupUserRoutes(api, userHandler, cfg)
	setupIssueRoutes(api, issueHandler, cfg)
	setupDashboardRoutes(api, dashboardHandler, cfg)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes with a stricter rate limit
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", middleware.NoCacheHeaders(), handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), middleware.NoCacheHeaders(), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupBookRoutes configures catalog routes
func setupBookRoutes(router fiber.Router, handler *handlers.BookHandler, cfg *config.Config) {
	// Browsing is public; an access token only enriches the listing
	// with the viewer's display status
	router.Get("/books", middleware.OptionalAuth(cfg), handler.List)
	router.Get("/books/:id", middleware.OptionalAuth(cfg), handler.GetByID)

	// Catalog management (Admin only). Middleware is attached per route
	// because these paths share the /books prefix with the public listing.
	auth := middleware.AuthMiddleware(cfg)
	admin := middleware.AdminOnly()

	router.Post("/books", auth, admin, handler.Create)
	router.Put("/books/:id", auth, admin, handler.Update)
	router.Delete("/books/:id", auth, admin, handler.Delete)
	router.Post("/books/update-copies", auth, admin, handler.UpdateCopies)
	router.Post("/books/update-image", auth, admin, handler.UpdateImage)
}

// setupUserRoutes configures user management routes
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler, cfg *config.Config) {
	// Profile picture (any authenticated user)
	router.Post("/user/update-profile-picture",
		middleware.AuthMiddleware(cfg), handler.UpdateProfilePicture)

	// Roster management (Admin only)
	adminRoutes := router.Group("/users")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))
	adminRoutes.Use(middleware.AdminOnly())

	adminRoutes.Get("/", handler.ListUsers)
	adminRoutes.Post("/status", handler.UpdateStatus)
	adminRoutes.Delete("/:id", handler.DeleteUser)
}

// setupIssueRoutes configures loan lifecycle routes
func setupIssueRoutes(router fiber.Router, handler *handlers.IssueHandler, cfg *config.Config) {
	// The loan endpoints are flat top-level paths, so middleware is
	// attached per route rather than through a prefix group.
	auth := middleware.AuthMiddleware(cfg)
	admin := middleware.AdminOnly()

	// Student routes (authenticated)
	router.Post("/issue-book", auth, handler.RequestIssue)
	router.Get("/my-orders", auth, middleware.NoCacheHeaders(), handler.MyOrders)
	router.Get("/returned-books", auth, middleware.NoCacheHeaders(), handler.ReturnedBooks)
	router.Post("/return-book", auth, handler.ReturnBook)
	router.Post("/cancel-request", auth, handler.CancelRequest)

	// Admin decision routes
	router.Get("/issue-requests", auth, admin, handler.IssueRequests)
	router.Post("/handle-request", auth, admin, handler.HandleIssueRequest)
	router.Get("/return-requests", auth, admin, handler.ReturnRequests)
	router.Post("/handle-return", auth, admin, handler.HandleReturn)
}

// setupDashboardRoutes configures admin dashboard routes
func setupDashboardRoutes(router fiber.Router, handler *handlers.DashboardHandler, cfg *config.Config) {
	router.Get("/dashboard",
		middleware.AuthMiddleware(cfg),
		middleware.AdminOnly(),
		middleware.NoCacheHeaders(),
		handler.Stats)
}
