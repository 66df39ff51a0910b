package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campusvote/ballot-service/internal/config"
	"github.com/campusvote/ballot-service/internal/models"
	"github.com/campusvote/ballot-service/internal/repositories"
	"github.com/campusvote/ballot-service/internal/utils"
)

// VerificationService drives a voter token from issued through code-sent,
// verified, and access-granted. The used flag is terminal: no operation here
// can restart verification for a token that already produced a counted vote.
type VerificationService interface {
	ConfirmCredentials(ctx context.Context, tokenID uuid.UUID, studentRef, otp string) (string, time.Time, error)
	ResendOTP(ctx context.Context, tokenID uuid.UUID) (time.Time, error)
}

type verificationService struct {
	tokenRepo    repositories.VoterTokenRepository
	electionRepo repositories.ElectionRepository
	otpService   OTPService
	accessSvc    AccessService
	cfg          *config.Config

	now func() time.Time
}

func NewVerificationService(
	tokenRepo repositories.VoterTokenRepository,
	electionRepo repositories.ElectionRepository,
	otpService OTPService,
	accessSvc AccessService,
	cfg *config.Config,
) VerificationService {
	return &verificationService{
		tokenRepo:    tokenRepo,
		electionRepo: electionRepo,
		otpService:   otpService,
		accessSvc:    accessSvc,
		cfg:          cfg,
		now:          time.Now,
	}
}

// ConfirmCredentials checks the claimed student identity and the submitted
// code, then mints a ballot-access token. While a previously granted access
// token is still valid the call is an idempotent no-op returning that
// session.
func (s *verificationService) ConfirmCredentials(
	ctx context.Context,
	tokenID uuid.UUID,
	studentRef, otp string,
) (string, time.Time, error) {
	now := s.now()

	vt, err := s.tokenRepo.GetByID(ctx, tokenID)
	if err != nil {
		return "", time.Time{}, err
	}
	if vt == nil || vt.Used {
		return "", time.Time{}, utils.ErrNotFound
	}

	if !strings.EqualFold(strings.TrimSpace(studentRef), vt.StudentRef) {
		return "", time.Time{}, utils.ErrInvalidStudentID
	}

	// Re-entrancy: a repeated confirm while the session is still live
	// returns the existing access token instead of burning state.
	if vt.VerifiedAt != nil && vt.AccessToken != nil &&
		vt.AccessTokenExpiresAt != nil && now.Before(*vt.AccessTokenExpiresAt) {
		return *vt.AccessToken, *vt.AccessTokenExpiresAt, nil
	}

	if err := s.otpService.Check(ctx, vt, otp); err != nil {
		return "", time.Time{}, err
	}

	if err := s.tokenRepo.MarkVerified(ctx, vt.ID, now); err != nil {
		return "", time.Time{}, err
	}

	return s.accessSvc.GrantAccess(ctx, vt)
}

// ResendOTP issues a fresh code for a token whose election is currently
// live. Returns the earliest time another resend will be accepted.
func (s *verificationService) ResendOTP(ctx context.Context, tokenID uuid.UUID) (time.Time, error) {
	now := s.now()

	vt, err := s.tokenRepo.GetByID(ctx, tokenID)
	if err != nil {
		return time.Time{}, err
	}
	if vt == nil || vt.Used {
		return time.Time{}, utils.ErrNotFound
	}

	election, err := s.electionRepo.GetByID(ctx, vt.ElectionID)
	if err != nil {
		return time.Time{}, err
	}
	if election == nil {
		return time.Time{}, utils.ErrNotFound
	}
	if election.Status != models.ElectionStatusLive || now.After(election.EndTime) {
		return time.Time{}, utils.ErrElectionNotLive
	}

	if err := s.otpService.Issue(ctx, vt); err != nil {
		return time.Time{}, err
	}
	return now.Add(s.cfg.OTPResendCooldown), nil
}
