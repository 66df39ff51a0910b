package models

import "github.com/google/uuid"

// Portfolio is an electable position ("President", "Treasurer", ...).
type Portfolio struct {
	ID          uuid.UUID   `json:"id"`
	ElectionID  uuid.UUID   `json:"election_id"`
	Title       string      `json:"title"`
	BallotOrder int         `json:"ballot_order"`
	Candidates  []Candidate `json:"candidates,omitempty"`
}

type Candidate struct {
	ID          uuid.UUID `json:"id"`
	PortfolioID uuid.UUID `json:"portfolio_id"`
	Name        string    `json:"name"`
}
