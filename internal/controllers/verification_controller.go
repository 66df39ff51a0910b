package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/campusvote/ballot-service/internal/dtos"
	"github.com/campusvote/ballot-service/internal/services"
	"github.com/campusvote/ballot-service/internal/utils"
)

type VerificationController struct {
	verificationService services.VerificationService
}

func NewVerificationController(verification services.VerificationService) *VerificationController {
	return &VerificationController{verificationService: verification}
}

var verificationValidate = validator.New()

// ConfirmCredentials handles POST /ballot/v1/verify/confirm.
func (c *VerificationController) ConfirmCredentials(w http.ResponseWriter, r *http.Request) {
	var req dtos.ConfirmCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := verificationValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid verification request", nil, err,
		)
		return
	}

	tokenID, err := uuid.Parse(req.VoterTokenRef)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid voter token reference", nil, err,
		)
		return
	}

	accessToken, expiresAt, err := c.verificationService.ConfirmCredentials(
		r.Context(), tokenID, req.StudentID, req.OTP,
	)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.ConfirmCredentialsResponse{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
	})
}

// ResendOTP handles POST /ballot/v1/verify/resend-otp.
func (c *VerificationController) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req dtos.ResendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := verificationValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid resend request", nil, err,
		)
		return
	}

	tokenID, err := uuid.Parse(req.VoterTokenRef)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid voter token reference", nil, err,
		)
		return
	}

	nextAllowedAt, err := c.verificationService.ResendOTP(r.Context(), tokenID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.ResendOTPResponse{
		Ok:            true,
		NextAllowedAt: nextAllowedAt,
	})
}
