package dtos

type Selection struct {
	PortfolioID string `json:"portfolio_id" validate:"required,uuid"`
	CandidateID string `json:"candidate_id" validate:"required,uuid"`
}

type CastVoteRequest struct {
	AccessToken string      `json:"access_token" validate:"required"`
	Selections  []Selection `json:"selections" validate:"required,min=1,dive"`
}

type CastVoteResponse struct {
	Ok bool `json:"ok"`
}
