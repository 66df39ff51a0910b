package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/campusvote/ballot-service/internal/dtos"
	"github.com/campusvote/ballot-service/internal/services"
	"github.com/campusvote/ballot-service/internal/utils"
)

type LifecycleController struct {
	lifecycleService services.LifecycleService
}

func NewLifecycleController(lifecycle services.LifecycleService) *LifecycleController {
	return &LifecycleController{lifecycleService: lifecycle}
}

// Run handles GET /ballot/v1/lifecycle/run, the externally triggered
// scheduler tick. Per-election failures are logged and skipped inside the
// service; only an unreachable store turns into a non-200.
func (c *LifecycleController) Run(w http.ResponseWriter, r *http.Request) {
	activated, closed, err := c.lifecycleService.Run(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if activated == nil {
		activated = []uuid.UUID{}
	}
	if closed == nil {
		closed = []uuid.UUID{}
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.LifecycleRunResponse{
		Activated: activated,
		Closed:    closed,
	})
}
