package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrStatus maps the service error taxonomy onto HTTP statuses so every
// handler responds consistently.
func ErrStatus(err error) int {
	switch {
	case errors.Is(err, ErrTournamentNotFound),
		errors.Is(err, ErrRoundNotFound),
		errors.Is(err, ErrMatchNotFound),
		errors.Is(err, ErrPickNotFound),
		errors.Is(err, ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrMatchAlreadyFinalized),
		errors.Is(err, ErrPickAlreadySubmitted),
		errors.Is(err, ErrSubmissionsAlreadyClosed),
		errors.Is(err, ErrDrawHasUserPicks),
		errors.Is(err, ErrDrawOverFinalizedMatches):
		return fiber.StatusConflict
	case errors.Is(err, ErrMatchNotFinalized),
		errors.Is(err, ErrByeMatchImmutable),
		errors.Is(err, ErrMatchAwaitingPlayers),
		errors.Is(err, ErrRoundNotActive),
		errors.Is(err, ErrSubmissionsClosed),
		errors.Is(err, ErrWinnerNotInMatch),
		errors.Is(err, ErrInvalidSetScore),
		errors.Is(err, ErrBothPlayersBye),
		errors.Is(err, ErrEmptyDraw),
		errors.Is(err, ErrPickIncomplete),
		errors.Is(err, ErrPredictedSetScore),
		errors.Is(err, ErrMatchMissingResult):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func jsonError(c *fiber.Ctx, err error) error {
	return c.Status(ErrStatus(err)).JSON(fiber.Map{"error": err.Error()})
}
