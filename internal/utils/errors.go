package utils

import "errors"

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrNotFound         = errors.New("not_found")
	ErrExpired          = errors.New("expired")
	ErrInvalidCode      = errors.New("invalid_code")
	ErrInvalidStudentID = errors.New("invalid_student_id")
	ErrNotVerified      = errors.New("not_verified")
	ErrAlreadyVoted     = errors.New("already_voted")
	ErrElectionNotLive  = errors.New("election_not_live")
	ErrVotingClosed     = errors.New("voting_closed")
	ErrValidationFailed = errors.New("validation_failed")

	// For rate limiting
	ErrRateLimitExceeded = errors.New("rate_limit_exceeded")
	ErrResendTooSoon     = errors.New("resend_too_soon")

	// For external service failures (e.g., Twilio, SendGrid)
	ErrExternalServiceFailure = errors.New("external_service_failure")

	// For conditional updates that matched no row
	ErrNoRowsUpdated = errors.New("no_rows_updated")
)
