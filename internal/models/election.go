package models

import (
	"time"

	"github.com/google/uuid"
)

type ElectionStatusType string

const (
	ElectionStatusDraft           ElectionStatusType = "DRAFT"
	ElectionStatusPendingApproval ElectionStatusType = "PENDING_APPROVAL"
	ElectionStatusApproved        ElectionStatusType = "APPROVED"
	ElectionStatusLive            ElectionStatusType = "LIVE"
	ElectionStatusClosed          ElectionStatusType = "CLOSED"
	ElectionStatusArchived        ElectionStatusType = "ARCHIVED"
)

type Election struct {
	ID                 uuid.UUID          `json:"id"`
	Name               string             `json:"name"`
	Status             ElectionStatusType `json:"status"`
	StartTime          time.Time          `json:"start_time"`
	EndTime            time.Time          `json:"end_time"`
	VoterListGenerated bool               `json:"voter_list_generated"`
	EligibleVoterCount int                `json:"eligible_voter_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ElectionVoter is one row of the staff-maintained eligibility roster a
// voter token is minted from when the election activates.
type ElectionVoter struct {
	ElectionID uuid.UUID `json:"election_id"`
	StudentRef string    `json:"student_ref"`
	Email      string    `json:"email"`
	Phone      *string   `json:"phone,omitempty"`
}
