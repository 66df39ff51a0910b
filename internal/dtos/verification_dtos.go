package dtos

import "time"

// ----------------------
// Credential confirmation
// ----------------------

type ConfirmCredentialsRequest struct {
	VoterTokenRef string `json:"voter_token_ref" validate:"required,uuid"`
	StudentID     string `json:"student_id" validate:"required"`
	OTP           string `json:"otp" validate:"required,numeric"`
}
type ConfirmCredentialsResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ----------------------
// OTP resend
// ----------------------

type ResendOTPRequest struct {
	VoterTokenRef string `json:"voter_token_ref" validate:"required,uuid"`
}
type ResendOTPResponse struct {
	Ok            bool      `json:"ok"`
	NextAllowedAt time.Time `json:"next_allowed_at"`
}
