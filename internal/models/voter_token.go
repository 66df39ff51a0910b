package models

import (
	"time"

	"github.com/google/uuid"
)

// RateLimitState groups the OTP throttling columns of a voter token. It is
// persisted on the same row as VotingState for transactional simplicity, but
// the two are separate concerns: this one only gates code delivery and entry.
type RateLimitState struct {
	OTPHash        *string    `json:"-"`
	OTPExpiresAt   *time.Time `json:"otp_expires_at,omitempty"`
	OTPAttempts    int        `json:"otp_attempts"`
	OTPResendCount int        `json:"otp_resend_count"`
	LastOTPSentAt  *time.Time `json:"last_otp_sent_at,omitempty"`
}

// VotingState groups the columns that track progress toward a counted vote.
// Used is terminal: nothing ever resets it.
type VotingState struct {
	VerifiedAt           *time.Time `json:"verified_at,omitempty"`
	AccessToken          *string    `json:"-"`
	AccessTokenExpiresAt *time.Time `json:"access_token_expires_at,omitempty"`
	Used                 bool       `json:"used"`
}

// VoterToken represents one voter's eligibility for one election,
// unique per (election_id, student_ref). TokenSecret is the opaque
// vote-casting secret; only its hash ever reaches the votes table.
type VoterToken struct {
	ID          uuid.UUID `json:"id"`
	ElectionID  uuid.UUID `json:"election_id"`
	StudentRef  string    `json:"student_ref"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone,omitempty"`
	TokenSecret string    `json:"-"`

	RateLimitState
	VotingState

	CreatedAt time.Time `json:"created_at"`
}
