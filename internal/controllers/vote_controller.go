package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/campusvote/ballot-service/internal/dtos"
	"github.com/campusvote/ballot-service/internal/models"
	"github.com/campusvote/ballot-service/internal/services"
	"github.com/campusvote/ballot-service/internal/utils"
)

type VoteController struct {
	votingService services.VotingService
}

func NewVoteController(voting services.VotingService) *VoteController {
	return &VoteController{votingService: voting}
}

var voteValidate = validator.New()

// CastVote handles POST /ballot/v1/vote/cast.
func (c *VoteController) CastVote(w http.ResponseWriter, r *http.Request) {
	var req dtos.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := voteValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid ballot submission", nil, err,
		)
		return
	}

	selections := make([]models.Selection, 0, len(req.Selections))
	for _, sel := range req.Selections {
		portfolioID, pErr := uuid.Parse(sel.PortfolioID)
		candidateID, cErr := uuid.Parse(sel.CandidateID)
		if pErr != nil || cErr != nil {
			parseErr := pErr
			if parseErr == nil {
				parseErr = cErr
			}
			utils.RespondErrorWithCode(
				w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid ballot submission", nil, parseErr,
			)
			return
		}
		selections = append(selections, models.Selection{
			PortfolioID: portfolioID,
			CandidateID: candidateID,
		})
	}

	if err := c.votingService.CastVote(r.Context(), req.AccessToken, selections); err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.CastVoteResponse{Ok: true})
}
