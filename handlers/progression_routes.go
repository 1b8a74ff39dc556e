// handlers/progression_routes.go
package handlers

import (
	"tennis-pickem-system/middleware"
	"tennis-pickem-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressionRoutes(app *fiber.App, streakService *services.StreakService, achievementService *services.AchievementService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/user/streak", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		streak, err := streakService.GetByUser(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get streak",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"user_id":        userID,
			"current_streak": streak.CurrentStreak,
			"longest_streak": streak.LongestStreak,
		})
	})

	secured.Get("/user/achievements", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		unlocked, err := achievementService.ListForUser(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get achievements",
				"cause": err.Error(),
			})
		}
		return c.JSON(unlocked)
	})
}
