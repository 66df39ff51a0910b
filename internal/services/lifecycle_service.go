package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/campusvote/ballot-service/internal/models"
	"github.com/campusvote/ballot-service/internal/repositories"
	"github.com/campusvote/ballot-service/internal/utils"
)

// LifecycleService flips elections APPROVED→LIVE and LIVE→CLOSED on
// schedule. Safe under overlapping invocations: every flip is a conditional
// update guarded by the current status, and each election is processed
// independently so one bad row never halts the batch.
type LifecycleService interface {
	ActivateDue(ctx context.Context) ([]uuid.UUID, error)
	CloseDue(ctx context.Context) ([]uuid.UUID, error)
	Run(ctx context.Context) (activated, closed []uuid.UUID, err error)
}

type lifecycleService struct {
	electionRepo repositories.ElectionRepository
	tokenRepo    repositories.VoterTokenRepository

	now func() time.Time
}

func NewLifecycleService(
	electionRepo repositories.ElectionRepository,
	tokenRepo repositories.VoterTokenRepository,
) LifecycleService {
	return &lifecycleService{
		electionRepo: electionRepo,
		tokenRepo:    tokenRepo,
		now:          time.Now,
	}
}

func (s *lifecycleService) ActivateDue(ctx context.Context) ([]uuid.UUID, error) {
	due, err := s.electionRepo.ListDueForActivation(ctx, s.now())
	if err != nil {
		return nil, err
	}

	var activated []uuid.UUID
	for _, e := range due {
		if err := s.activateOne(ctx, e); err != nil {
			utils.Logger.WithError(err).Errorf("Failed to activate election %s", e.ID)
			continue
		}
		activated = append(activated, e.ID)
	}
	return activated, nil
}

func (s *lifecycleService) activateOne(ctx context.Context, e *models.Election) error {
	if !e.VoterListGenerated {
		created, err := s.tokenRepo.GenerateForElection(ctx, e.ID)
		if err != nil {
			return err
		}
		// The eligible count comes from storage, not the insert delta: a
		// retry after a failed flag flip finds the tokens already minted
		// and must not record zero.
		total, err := s.tokenRepo.CountForElection(ctx, e.ID)
		if err != nil {
			return err
		}
		marked, err := s.electionRepo.MarkVoterListGenerated(ctx, e.ID, total)
		if err != nil {
			return err
		}
		if marked {
			utils.Logger.Infof("Voter roster ready for election %s: %d tokens (%d new)", e.ID, total, created)
		}
	}

	flipped, err := s.electionRepo.TransitionStatus(ctx, e.ID,
		models.ElectionStatusApproved, models.ElectionStatusLive)
	if err != nil {
		return err
	}
	if !flipped {
		// Another scheduler run got there first.
		return utils.ErrNoRowsUpdated
	}
	utils.Logger.Infof("Election %s is now LIVE", e.ID)
	return nil
}

func (s *lifecycleService) CloseDue(ctx context.Context) ([]uuid.UUID, error) {
	due, err := s.electionRepo.ListDueForClosing(ctx, s.now())
	if err != nil {
		return nil, err
	}

	var closed []uuid.UUID
	for _, e := range due {
		flipped, err := s.electionRepo.TransitionStatus(ctx, e.ID,
			models.ElectionStatusLive, models.ElectionStatusClosed)
		if err != nil {
			utils.Logger.WithError(err).Errorf("Failed to close election %s", e.ID)
			continue
		}
		if !flipped {
			continue
		}
		utils.Logger.Infof("Election %s is now CLOSED", e.ID)
		closed = append(closed, e.ID)
	}
	return closed, nil
}

// Run performs one scheduler tick. Per-election failures stay logged and
// skipped inside the passes; only a storage-level failure of the due-list
// queries propagates to the caller.
func (s *lifecycleService) Run(ctx context.Context) (activated, closed []uuid.UUID, err error) {
	if activated, err = s.ActivateDue(ctx); err != nil {
		return nil, nil, err
	}
	if closed, err = s.CloseDue(ctx); err != nil {
		return activated, nil, err
	}
	return activated, closed, nil
}
