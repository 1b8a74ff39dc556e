package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tennis-pickem-system/handlers"
	"tennis-pickem-system/middleware"
	"tennis-pickem-system/models"
	"tennis-pickem-system/services"
	"tennis-pickem-system/utils"
	"tennis-pickem-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 16 * 1024 * 1024, // draw payloads are JSON, 16MB is plenty
	})

	// Only Gateway requests allowed, no exceptions.
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Tournament{},
		&models.Round{},
		&models.ScoringRule{},
		&models.Match{},
		&models.UserRoundPick{},
		&models.MatchPick{},
		&models.UserStreak{},
		&models.AchievementDefinition{},
		&models.UserAchievement{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := services.SeedDefinitions(db); err != nil {
		log.Fatal("failed to seed achievement definitions:", err)
	}

	streakService := services.NewStreakService(db)
	achievementService := services.NewAchievementService(db)
	scoringService := services.NewScoringService(db, streakService, achievementService)
	propagationService := services.NewPropagationService(db)
	drawService := services.NewDrawService(db, propagationService, scoringService)
	adminService := services.NewAdminService(db, scoringService, propagationService, streakService, achievementService)
	tournamentService := services.NewTournamentService(db)
	pickService := services.NewPickService(db, achievementService)

	adminService.StartRoundScheduler()

	handlers.SetupTournamentRoutes(app, tournamentService, pickService)
	handlers.SetupProgressionRoutes(app, streakService, achievementService)
	handlers.SetupAdminRoutes(app, adminService, drawService, scoringService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if profileServiceURL := os.Getenv("PROFILE_SERVICE_URL"); profileServiceURL != "" {
		syncWorker := workers.NewProfileSyncWorker(db, profileServiceURL, "/api/v1/public/profiles", os.Getenv("PICKEM_SERVICE_TOKEN"))
		syncWorker.Start(ctx)
	} else {
		log.Println("PROFILE_SERVICE_URL not set, profile sync worker disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Server running on http://localhost:%s", port)
	log.Println("Round scheduler running (every 1m)")
	log.Printf("CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
