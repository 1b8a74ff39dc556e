package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"tennis-pickem-system/middleware"
	"tennis-pickem-system/models"
	"tennis-pickem-system/services"
	"tennis-pickem-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func SetupAdminRoutes(app *fiber.App, adminService *services.AdminService, drawService *services.DrawService, scoringService *services.ScoringService) {
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.AdminOnly())

	admin.Post("/draws", func(c *fiber.Ctx) error {
		actor := c.Locals("user_id").(string)
		body := c.Body()

		var parsed models.ParsedDraw
		if err := json.Unmarshal(body, &parsed); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid draw JSON", "cause": err.Error()})
		}

		// Archiving is best effort: a storage outage must not block the
		// commit.
		archiveURL := ""
		key := fmt.Sprintf("draws/%s-%d.json", uuid.NewString(), time.Now().Unix())
		if url, err := utils.ArchiveDrawPayload(body, key, "application/json"); err != nil {
			log.Printf("[DRAW] payload archive failed: %v", err)
		} else {
			archiveURL = url
		}

		tournament, err := drawService.CommitDraw(&parsed, services.CommitOptions{
			Overwrite:  c.QueryBool("overwrite"),
			Actor:      actor,
			ArchiveURL: archiveURL,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(tournament)
	})

	admin.Post("/tournaments/:id/rounds/:round_number/activate", func(c *fiber.Ctx) error {
		roundNumber, err := c.ParamsInt("round_number")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "round_number must be an integer"})
		}
		round, err := adminService.SetActiveRound(c.Params("id"), roundNumber)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(round)
	})

	admin.Post("/rounds/:round_id/close", func(c *fiber.Ctx) error {
		actor := c.Locals("user_id").(string)
		if err := adminService.CloseRoundSubmissions(c.Params("round_id"), actor); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "submissions closed"})
	})

	admin.Post("/matches/:match_id/finalize", func(c *fiber.Ctx) error {
		actor := c.Locals("user_id").(string)
		var result services.MatchResult
		if err := c.BodyParser(&result); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		match, err := adminService.FinalizeMatch(c.Params("match_id"), result, actor)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(match)
	})

	admin.Post("/matches/:match_id/unfinalize", func(c *fiber.Ctx) error {
		actor := c.Locals("user_id").(string)
		match, err := adminService.UnfinalizeMatch(c.Params("match_id"), actor)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(match)
	})

	admin.Post("/rounds/:round_id/rescore", func(c *fiber.Ctx) error {
		if err := scoringService.RescoreRound(c.Params("round_id")); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "round rescored"})
	})
}

func serviceError(c *fiber.Ctx, err error) error {
	return c.Status(services.ErrStatus(err)).JSON(fiber.Map{"error": err.Error()})
}
