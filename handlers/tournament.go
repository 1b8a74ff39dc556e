package handlers

import (
	"tennis-pickem-system/middleware"
	"tennis-pickem-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTournamentRoutes(app *fiber.App, tournamentService *services.TournamentService, pickService *services.PickService) {
	// Public read surface
	app.Get("/tournaments", tournamentService.GetAllTournaments)
	app.Get("/tournaments/:slug", tournamentService.GetTournamentBySlug)
	app.Get("/tournaments/id/:id/leaderboard", tournamentService.GetTournamentLeaderboard)
	app.Get("/tournaments/id/:id/summary", tournamentService.GetTournamentSummary)
	app.Get("/rounds/:round_id/leaderboard", tournamentService.GetRoundLeaderboard)
	app.Get("/leaderboard", tournamentService.GetAllTimeLeaderboard)

	// Authenticated pick sheet routes
	secured := app.Group("/", middleware.UserContextMiddleware())
	secured.Put("/rounds/:round_id/picks", pickService.SavePicks)
	secured.Get("/rounds/:round_id/picks", pickService.GetMyPicks)
}
