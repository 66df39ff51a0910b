package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/campusvote/ballot-service/internal/utils"
)

// respondServiceError maps service-layer sentinel errors onto the JSON error
// envelope. Storage and other unexpected failures fall through to a generic
// 500 so internals never leak to voters.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, utils.ErrResendTooSoon):
		utils.RespondErrorWithCode(w, http.StatusTooManyRequests, utils.ErrCodeRateLimitExceeded,
			"Please wait before requesting another code.", nil, err)
	case errors.Is(err, utils.ErrRateLimitExceeded):
		utils.RespondErrorWithCode(w, http.StatusTooManyRequests, utils.ErrCodeRateLimitExceeded,
			"Too many attempts. Please request a new code.", nil, err)
	case errors.Is(err, utils.ErrInvalidCode):
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeInvalidCredentials,
			invalidCodeMessage(err), nil, err)
	case errors.Is(err, utils.ErrInvalidStudentID):
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeInvalidCredentials,
			"Invalid student ID", nil, err)
	case errors.Is(err, utils.ErrExpired):
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeExpired,
			"This code or session has expired. Please start over.", nil, err)
	case errors.Is(err, utils.ErrNotFound):
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound,
			"Voter token not found", nil, err)
	case errors.Is(err, utils.ErrElectionNotLive):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeElectionNotLive,
			"This election is not currently active", nil, err)
	case errors.Is(err, utils.ErrVotingClosed):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeVotingClosed,
			"Voting has closed for this election", nil, err)
	case errors.Is(err, utils.ErrNotVerified):
		utils.RespondErrorWithCode(w, http.StatusForbidden, utils.ErrCodeNotVerified,
			"Identity verification has not been completed", nil, err)
	case errors.Is(err, utils.ErrAlreadyVoted):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeAlreadyVoted,
			"A ballot has already been cast for this voter", nil, err)
	case errors.Is(err, utils.ErrValidationFailed):
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation,
			"Ballot selections are invalid", nil, err)
	case errors.Is(err, utils.ErrExternalServiceFailure):
		utils.RespondErrorWithCode(w, http.StatusBadGateway, utils.ErrCodeExternalServiceFailure,
			"Could not deliver the verification code. Please try again.", nil, err)
	default:
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"An unexpected error occurred", nil, err)
	}
}

// invalidCodeMessage surfaces the remaining-attempts hint the OTP engine
// folds into its error, without exposing the sentinel name.
func invalidCodeMessage(err error) string {
	prefix := utils.ErrInvalidCode.Error() + ": "
	if rest, found := strings.CutPrefix(err.Error(), prefix); found && rest != "" {
		return "Incorrect code. " + strings.ToUpper(rest[:1]) + rest[1:] + "."
	}
	return "Incorrect verification code"
}
