package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/campusvote/ballot-service/internal/config"
	"github.com/campusvote/ballot-service/internal/models"
	"github.com/campusvote/ballot-service/internal/repositories"
	"github.com/campusvote/ballot-service/internal/utils"
)

// OTPService generates, delivers, and checks one-time codes for a voter
// token. Only a salted hash of the code is ever stored; the plaintext exists
// solely in the delivery message.
type OTPService interface {
	Issue(ctx context.Context, token *models.VoterToken) error
	Check(ctx context.Context, token *models.VoterToken, submittedCode string) error
}

type otpService struct {
	tokenRepo repositories.VoterTokenRepository
	notifier  Notifier
	cfg       *config.Config

	now func() time.Time
}

func NewOTPService(
	tokenRepo repositories.VoterTokenRepository,
	notifier Notifier,
	cfg *config.Config,
) OTPService {
	return &otpService{
		tokenRepo: tokenRepo,
		notifier:  notifier,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Issue persists a fresh code hash and then dispatches the code. The
// persist-then-send order is deliberate: a code that was issued stays issued
// even if delivery fails, so a flaky provider cannot grant unlimited resends.
func (s *otpService) Issue(ctx context.Context, token *models.VoterToken) error {
	now := s.now()

	if token.OTPResendCount >= s.cfg.MaxOTPResends {
		return utils.ErrRateLimitExceeded
	}
	if token.LastOTPSentAt != nil && now.Sub(*token.LastOTPSentAt) < s.cfg.OTPResendCooldown {
		return utils.ErrResendTooSoon
	}

	code := utils.RandomNumericString(s.cfg.OTPLength)
	hash := utils.HashOTP(code, token.ID.String())
	expiresAt := now.Add(s.cfg.OTPExpiry)

	cooldownCutoff := now.Add(-s.cfg.OTPResendCooldown)
	ok, err := s.tokenRepo.StoreOTP(ctx, token.ID, hash, expiresAt, now, s.cfg.MaxOTPResends, cooldownCutoff)
	if err != nil {
		return err
	}
	if !ok {
		// Lost a race with a concurrent resend, or the quota or cooldown
		// closed between the read and the conditional write.
		return utils.ErrRateLimitExceeded
	}

	body := fmt.Sprintf("Your %s voting code is %s. It expires in %d minutes.",
		s.cfg.OrganizationName, code, int(s.cfg.OTPExpiry.Minutes()))

	if token.Phone != nil && *token.Phone != "" {
		return s.notifier.SendSMS(ctx, *token.Phone, body)
	}
	subject := s.cfg.OrganizationName + " - Voter Verification Code"
	return s.notifier.SendEmail(ctx, token.Email, subject, body)
}

// Check validates a submitted code against the stored hash and enforces the
// failed-attempt quota. On a match the hash is cleared so the code is
// single-use.
func (s *otpService) Check(ctx context.Context, token *models.VoterToken, submittedCode string) error {
	now := s.now()

	// Quota first: once the counter fills, even the correct code is
	// rejected until a new one is issued.
	if token.OTPAttempts >= s.cfg.MaxOTPAttempts {
		return utils.ErrRateLimitExceeded
	}

	if token.OTPHash == nil || token.OTPExpiresAt == nil {
		return utils.ErrExpired
	}
	if now.After(*token.OTPExpiresAt) {
		return utils.ErrExpired
	}

	submittedHash := utils.HashOTP(submittedCode, token.ID.String())
	if subtle.ConstantTimeCompare([]byte(submittedHash), []byte(*token.OTPHash)) != 1 {
		attempts, err := s.tokenRepo.IncrementOTPAttempts(ctx, token.ID)
		if err != nil {
			return err
		}
		if attempts >= s.cfg.MaxOTPAttempts {
			if invErr := s.tokenRepo.InvalidateOTP(ctx, token.ID); invErr != nil {
				utils.Logger.WithError(invErr).Error("Failed to invalidate OTP after lockout")
			}
			return utils.ErrRateLimitExceeded
		}
		return fmt.Errorf("%w: %d attempts remaining", utils.ErrInvalidCode, s.cfg.MaxOTPAttempts-attempts)
	}

	// Single-use: the conditional clear spends the code, and only one of
	// two racing confirms can win it.
	cleared, err := s.tokenRepo.ClearOTP(ctx, token.ID, *token.OTPHash)
	if err != nil {
		return err
	}
	if !cleared {
		return utils.ErrExpired
	}
	return nil
}
