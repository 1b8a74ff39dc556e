package services

import "errors"

// Shared errors used across services and HTTP mapping. Everything here is
// deterministic (bad input or an illegal state), so nothing is retried.
var (
	// Not found (fatal, no retry)
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrRoundNotFound      = errors.New("round not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrPickNotFound       = errors.New("pick not found")
	ErrUserNotFound       = errors.New("user not found")

	// Invalid state transitions
	ErrMatchNotFinalized         = errors.New("match is not finalized")
	ErrMatchAlreadyFinalized     = errors.New("match is already finalized")
	ErrByeMatchImmutable         = errors.New("bye matches resolve automatically and cannot be changed")
	ErrRoundNotActive            = errors.New("round is not active")
	ErrSubmissionsAlreadyClosed  = errors.New("round submissions are already closed")
	ErrSubmissionsClosed         = errors.New("round submissions are closed")
	ErrPickAlreadySubmitted      = errors.New("final pick sheet already submitted for this round")
	ErrDrawOverFinalizedMatches  = errors.New("tournament already has finalized matches; re-upload refused")

	// Validation (rejected before any write)
	ErrMatchAwaitingPlayers = errors.New("match is still waiting on players from earlier rounds")
	ErrWinnerNotInMatch     = errors.New("winner is not one of the match players")
	ErrInvalidSetScore      = errors.New("set score does not satisfy the tournament format")
	ErrBothPlayersBye       = errors.New("draw match has byes in both slots")
	ErrEmptyDraw            = errors.New("draw contains no rounds")
	ErrPickIncomplete       = errors.New("pick sheet does not cover the round's matches")
	ErrPredictedSetScore    = errors.New("predicted set score does not satisfy the tournament format")

	// Integrity (requires explicit consent to proceed)
	ErrDrawHasUserPicks = errors.New("existing user picks reference this tournament; set overwrite to replace it")

	// Incomplete data
	ErrMatchMissingResult = errors.New("match is missing winner or set counts")
)
