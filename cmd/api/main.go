package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/freelancehub/backend/internal/config"
	"github.com/freelancehub/backend/internal/db"
	"github.com/freelancehub/backend/internal/handlers"
	"github.com/freelancehub/backend/internal/lifecycle"
	"github.com/freelancehub/backend/internal/middleware"
	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/realtime"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}

	if err := database.AutoMigrate(
		&models.User{},
		&models.ClientProfile{},
		&models.FreelancerProfile{},
		&models.Project{},
		&models.Proposal{},
		&models.Message{},
		&models.Review{},
	); err != nil {
		log.Fatal("failed to migrate:", err)
	}

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Println("redis unreachable, realtime notifications disabled:", err)
		rdb = nil
	}

	hub := realtime.NewHub()
	go hub.Run()

	engine := lifecycle.NewEngine(database)

	authHandler := &handlers.AuthHandler{DB: database, JWTSecret: cfg.JWTSecret, Expires: cfg.JWTExpiresMin}
	googleHandler := &handlers.GoogleOAuthHandler{
		DB:              database,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	profileHandler := handlers.NewProfileHandler(database, cfg.UploadDir, cfg.AppBaseURL)
	projectHandler := handlers.NewProjectHandler(database, engine)
	proposalHandler := handlers.NewProposalHandler(database, engine)
	messageHandler := handlers.NewMessageHandler(database, engine, hub, rdb, cfg.UploadDir, cfg.AppBaseURL)
	reviewHandler := handlers.NewReviewHandler(database, engine)
	dashboardHandler := handlers.NewDashboardHandler(database)

	app := fiber.New(fiber.Config{
		AppName:   "freelancehub api",
		BodyLimit: 20 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
	}))

	app.Static("/uploads", cfg.UploadDir)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "message": "ok"})
	})

	api := app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/logout", authHandler.Logout)
	authGroup.Get("/google", googleHandler.GoogleStart)
	authGroup.Get("/google/callback", googleHandler.GoogleCallback)

	protected := api.Group("",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/auth/me", authHandler.Me)

	protected.Get("/profile/me", profileHandler.Me)
	protected.Patch("/profile/me", profileHandler.Update)
	protected.Post("/profile/photo", profileHandler.UploadPhoto)

	protected.Get("/projects", projectHandler.List)
	protected.Post("/projects", middleware.RequireRoles(string(models.RoleClient)), projectHandler.Create)
	protected.Get("/projects/:id", projectHandler.Detail)
	protected.Post("/projects/:id/complete", middleware.RequireRoles(string(models.RoleClient)), projectHandler.Complete)

	protected.Get("/projects/:id/proposals", middleware.RequireRoles(string(models.RoleClient)), proposalHandler.ListForProject)
	protected.Post("/projects/:id/proposals", middleware.RequireRoles(string(models.RoleFreelancer)), proposalHandler.Submit)
	protected.Get("/proposals/mine", middleware.RequireRoles(string(models.RoleFreelancer)), proposalHandler.ListMine)
	protected.Post("/proposals/:id/accept", middleware.RequireRoles(string(models.RoleClient)), proposalHandler.Accept)

	protected.Get("/projects/:id/messages", messageHandler.List)
	protected.Post("/projects/:id/messages", messageHandler.Send)

	protected.Post("/projects/:id/reviews", middleware.RequireRoles(string(models.RoleClient)), reviewHandler.Create)
	protected.Get("/freelancers/:id/reviews", reviewHandler.ListForFreelancer)

	protected.Get("/dashboard/client", middleware.RequireRoles(string(models.RoleClient)), dashboardHandler.Client)
	protected.Get("/dashboard/freelancer", middleware.RequireRoles(string(models.RoleFreelancer)), dashboardHandler.Freelancer)

	ws := app.Group("/ws",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
		func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	ws.Get("/chat", websocket.New(messageHandler.WebSocketHandler))

	log.Println("listening on :" + cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal(err)
	}
}
