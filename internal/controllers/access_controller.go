package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/campusvote/ballot-service/internal/dtos"
	"github.com/campusvote/ballot-service/internal/services"
	"github.com/campusvote/ballot-service/internal/utils"
)

type AccessController struct {
	accessService services.AccessService
}

func NewAccessController(access services.AccessService) *AccessController {
	return &AccessController{accessService: access}
}

var accessValidate = validator.New()

// ValidateAccess handles POST /ballot/v1/access/validate. It returns the
// voter and election context needed to render a ballot; nothing is marked
// used here.
func (c *AccessController) ValidateAccess(w http.ResponseWriter, r *http.Request) {
	var req dtos.ValidateAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := accessValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Access token is required", nil, err,
		)
		return
	}

	acc, err := c.accessService.ValidateAccess(r.Context(), req.AccessToken)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.ValidateAccessResponse{
		Voter: dtos.VoterContext{
			StudentRef: acc.Token.StudentRef,
			Email:      acc.Token.Email,
		},
		Election: dtos.ElectionContext{
			ID:      acc.Election.ID,
			Name:    acc.Election.Name,
			EndTime: acc.Election.EndTime,
		},
		Ballot:               acc.Ballot,
		TimeRemainingSeconds: int64(acc.TimeRemaining.Seconds()),
	})
}
