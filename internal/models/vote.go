package models

import (
	"time"

	"github.com/google/uuid"
)

// Vote is one counted ballot choice. VoterHash is a one-way digest of the
// voter token secret; the (election_id, voter_hash, portfolio_id) unique
// constraint in storage is the authoritative double-vote guard.
type Vote struct {
	ID          uuid.UUID `json:"id"`
	ElectionID  uuid.UUID `json:"election_id"`
	PortfolioID uuid.UUID `json:"portfolio_id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	VoterHash   string    `json:"voter_hash"`
	CastAt      time.Time `json:"cast_at"`
}

// Selection is one portfolio/candidate pair within a submitted ballot.
type Selection struct {
	PortfolioID uuid.UUID `json:"portfolio_id"`
	CandidateID uuid.UUID `json:"candidate_id"`
}
