package services

import (
	"context"
	"time"

	"github.com/campusvote/ballot-service/internal/config"
	"github.com/campusvote/ballot-service/internal/models"
	"github.com/campusvote/ballot-service/internal/repositories"
	"github.com/campusvote/ballot-service/internal/utils"
)

// AccessContext is everything the web layer needs to render a ballot after a
// successful access-token validation.
type AccessContext struct {
	Token         *models.VoterToken
	Election      *models.Election
	Ballot        []models.Portfolio
	TimeRemaining time.Duration
}

// AccessService bridges verification success to ballot access. Access tokens
// are short-lived, single-election session credentials; expiry is checked on
// every validation call against the injected clock, never by a sweep.
type AccessService interface {
	GrantAccess(ctx context.Context, token *models.VoterToken) (string, time.Time, error)
	ValidateAccess(ctx context.Context, accessToken string) (*AccessContext, error)
}

type accessService struct {
	tokenRepo    repositories.VoterTokenRepository
	electionRepo repositories.ElectionRepository
	ballotRepo   repositories.BallotRepository
	cfg          *config.Config

	now func() time.Time
}

func NewAccessService(
	tokenRepo repositories.VoterTokenRepository,
	electionRepo repositories.ElectionRepository,
	ballotRepo repositories.BallotRepository,
	cfg *config.Config,
) AccessService {
	return &accessService{
		tokenRepo:    tokenRepo,
		electionRepo: electionRepo,
		ballotRepo:   ballotRepo,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (s *accessService) GrantAccess(ctx context.Context, token *models.VoterToken) (string, time.Time, error) {
	accessToken := utils.RandomString(48)
	expiresAt := s.now().Add(s.cfg.AccessTokenTTL)

	ok, err := s.tokenRepo.StoreAccessToken(ctx, token.ID, accessToken, expiresAt)
	if err != nil {
		return "", time.Time{}, err
	}
	if !ok {
		// Token went terminal between verification and the grant.
		return "", time.Time{}, utils.ErrNotFound
	}
	return accessToken, expiresAt, nil
}

func (s *accessService) ValidateAccess(ctx context.Context, accessToken string) (*AccessContext, error) {
	now := s.now()

	vt, err := s.tokenRepo.GetByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if vt == nil || vt.Used {
		// A consumed token no longer grants ballot access; callers that
		// need to distinguish "already voted" check the flag themselves.
		return nil, utils.ErrNotFound
	}

	if vt.AccessTokenExpiresAt == nil || now.After(*vt.AccessTokenExpiresAt) {
		return nil, utils.ErrExpired
	}

	election, err := s.electionRepo.GetByID(ctx, vt.ElectionID)
	if err != nil {
		return nil, err
	}
	if election == nil {
		return nil, utils.ErrNotFound
	}
	if election.Status != models.ElectionStatusLive {
		return nil, utils.ErrElectionNotLive
	}
	if now.After(election.EndTime) {
		return nil, utils.ErrVotingClosed
	}

	if vt.VerifiedAt == nil {
		return nil, utils.ErrNotVerified
	}

	ballot, err := s.ballotRepo.GetBallot(ctx, election.ID)
	if err != nil {
		return nil, err
	}

	remaining := vt.AccessTokenExpiresAt.Sub(now)
	if remaining < 0 {
		remaining = 0
	}

	return &AccessContext{
		Token:         vt,
		Election:      election,
		Ballot:        ballot,
		TimeRemaining: remaining,
	}, nil
}
