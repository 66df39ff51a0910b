package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/campusvote/ballot-service/internal/models"
	"github.com/campusvote/ballot-service/internal/repositories"
	"github.com/campusvote/ballot-service/internal/utils"
)

// VotingService records one complete ballot per voter per election. The used
// flag is a fast, friendly pre-check; the storage-level uniqueness constraint
// on the voter hash is the authoritative guard under concurrency.
type VotingService interface {
	CastVote(ctx context.Context, accessToken string, selections []models.Selection) error
}

type votingService struct {
	tokenRepo repositories.VoterTokenRepository
	accessSvc AccessService
	voteRepo  repositories.VoteRepository

	now func() time.Time
}

func NewVotingService(
	tokenRepo repositories.VoterTokenRepository,
	accessSvc AccessService,
	voteRepo repositories.VoteRepository,
) VotingService {
	return &votingService{
		tokenRepo: tokenRepo,
		accessSvc: accessSvc,
		voteRepo:  voteRepo,
		now:       time.Now,
	}
}

func (s *votingService) CastVote(ctx context.Context, accessToken string, selections []models.Selection) error {
	vt, err := s.tokenRepo.GetByAccessToken(ctx, accessToken)
	if err != nil {
		return err
	}
	if vt == nil {
		return utils.ErrNotFound
	}
	if vt.Used {
		return utils.ErrAlreadyVoted
	}

	// Revalidate from scratch; the client's earlier validate call may be
	// arbitrarily stale.
	acc, err := s.accessSvc.ValidateAccess(ctx, accessToken)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			// The token was consumed between the two reads: a
			// concurrent cast won. Report it as a duplicate, not a
			// vanished session.
			if cur, gErr := s.tokenRepo.GetByAccessToken(ctx, accessToken); gErr == nil && cur != nil && cur.Used {
				return utils.ErrAlreadyVoted
			}
		}
		return err
	}

	if err := validateSelections(acc.Ballot, selections); err != nil {
		return err
	}

	voterHash := utils.HashToken(acc.Token.TokenSecret)
	return s.voteRepo.CastBallot(ctx, acc.Token.ID, acc.Election.ID, voterHash, selections, s.now())
}

// validateSelections requires exactly one candidate per portfolio on the
// ballot, and every referenced candidate to belong to its portfolio.
func validateSelections(ballot []models.Portfolio, selections []models.Selection) error {
	if len(ballot) == 0 || len(selections) != len(ballot) {
		return utils.ErrValidationFailed
	}

	candidatesByPortfolio := make(map[uuid.UUID]map[uuid.UUID]bool, len(ballot))
	for _, p := range ballot {
		set := make(map[uuid.UUID]bool, len(p.Candidates))
		for _, c := range p.Candidates {
			set[c.ID] = true
		}
		candidatesByPortfolio[p.ID] = set
	}

	seen := make(map[uuid.UUID]bool, len(selections))
	for _, sel := range selections {
		if seen[sel.PortfolioID] {
			return utils.ErrValidationFailed
		}
		seen[sel.PortfolioID] = true

		candidates, ok := candidatesByPortfolio[sel.PortfolioID]
		if !ok || !candidates[sel.CandidateID] {
			return utils.ErrValidationFailed
		}
	}
	return nil
}
