package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/campusvote/ballot-service/internal/models"
)

type ValidateAccessRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

// VoterContext is the identity slice safe to hand back to the ballot UI.
// Token secrets and OTP state never leave the service layer.
type VoterContext struct {
	StudentRef string `json:"student_ref"`
	Email      string `json:"email"`
}

type ElectionContext struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	EndTime time.Time `json:"end_time"`
}

type ValidateAccessResponse struct {
	Voter                VoterContext       `json:"voter"`
	Election             ElectionContext    `json:"election"`
	Ballot               []models.Portfolio `json:"ballot"`
	TimeRemainingSeconds int64              `json:"time_remaining_seconds"`
}
