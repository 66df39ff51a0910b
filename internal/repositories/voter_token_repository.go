package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/campusvote/ballot-service/internal/models"
)

type VoterTokenRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.VoterToken, error)
	GetByAccessToken(ctx context.Context, accessToken string) (*models.VoterToken, error)

	// StoreOTP writes a fresh code hash and resets the attempt counter,
	// but only while the token is unused, under the resend quota, and
	// not sent since cooldownCutoff. The WHERE guard makes concurrent
	// resends race-safe.
	StoreOTP(ctx context.Context, id uuid.UUID, otpHash string, expiresAt, sentAt time.Time, maxResends int, cooldownCutoff time.Time) (bool, error)
	IncrementOTPAttempts(ctx context.Context, id uuid.UUID) (int, error)
	InvalidateOTP(ctx context.Context, id uuid.UUID) error

	// ClearOTP consumes a matched code. Conditional on the stored hash so
	// two racing confirms cannot both spend the same code; false means
	// another caller got there first.
	ClearOTP(ctx context.Context, id uuid.UUID, otpHash string) (bool, error)

	MarkVerified(ctx context.Context, id uuid.UUID, verifiedAt time.Time) error
	StoreAccessToken(ctx context.Context, id uuid.UUID, accessToken string, expiresAt time.Time) (bool, error)

	// GenerateForElection mints one token per roster entry that does not
	// already have one. Returns the number of tokens created.
	GenerateForElection(ctx context.Context, electionID uuid.UUID) (int, error)

	// CountForElection reports how many voter tokens exist for an
	// election, regardless of verification or used state.
	CountForElection(ctx context.Context, electionID uuid.UUID) (int, error)
}

type voterTokenRepository struct {
	db DB
}

func NewVoterTokenRepository(db DB) VoterTokenRepository {
	return &voterTokenRepository{db: db}
}

func baseSelectVoterToken() string {
	return `
        SELECT id, election_id, student_ref, email, phone, token_secret,
               otp_hash, otp_expires_at, otp_attempts, otp_resend_count, last_otp_sent_at,
               verified_at, access_token, access_token_expires_at, used, created_at
        FROM voter_tokens
    `
}

func scanVoterToken(row pgx.Row) (*models.VoterToken, error) {
	var vt models.VoterToken
	err := row.Scan(
		&vt.ID,
		&vt.ElectionID,
		&vt.StudentRef,
		&vt.Email,
		&vt.Phone,
		&vt.TokenSecret,
		&vt.OTPHash,
		&vt.OTPExpiresAt,
		&vt.OTPAttempts,
		&vt.OTPResendCount,
		&vt.LastOTPSentAt,
		&vt.VerifiedAt,
		&vt.AccessToken,
		&vt.AccessTokenExpiresAt,
		&vt.Used,
		&vt.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &vt, nil
}

func (r *voterTokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.VoterToken, error) {
	row := r.db.QueryRow(ctx, baseSelectVoterToken()+" WHERE id=$1", id)
	return scanVoterToken(row)
}

func (r *voterTokenRepository) GetByAccessToken(ctx context.Context, accessToken string) (*models.VoterToken, error) {
	row := r.db.QueryRow(ctx, baseSelectVoterToken()+" WHERE access_token=$1", accessToken)
	return scanVoterToken(row)
}

func (r *voterTokenRepository) StoreOTP(
	ctx context.Context,
	id uuid.UUID,
	otpHash string,
	expiresAt, sentAt time.Time,
	maxResends int,
	cooldownCutoff time.Time,
) (bool, error) {
	query := `
        UPDATE voter_tokens
        SET otp_hash = $2,
            otp_expires_at = $3,
            otp_attempts = 0,
            otp_resend_count = otp_resend_count + 1,
            last_otp_sent_at = $4
        WHERE id = $1 AND used = FALSE AND otp_resend_count < $5
          AND (last_otp_sent_at IS NULL OR last_otp_sent_at <= $6)
    `
	tag, err := r.db.Exec(ctx, query, id, otpHash, expiresAt, sentAt, maxResends, cooldownCutoff)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *voterTokenRepository) IncrementOTPAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
        UPDATE voter_tokens
        SET otp_attempts = otp_attempts + 1
        WHERE id = $1
        RETURNING otp_attempts
    `
	var attempts int
	if err := r.db.QueryRow(ctx, query, id).Scan(&attempts); err != nil {
		return 0, err
	}
	return attempts, nil
}

// InvalidateOTP drops the stored hash so the current code can never match
// again. Attempt and resend counters are left alone.
func (r *voterTokenRepository) InvalidateOTP(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE voter_tokens SET otp_hash = NULL, otp_expires_at = NULL WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *voterTokenRepository) ClearOTP(ctx context.Context, id uuid.UUID, otpHash string) (bool, error) {
	query := `UPDATE voter_tokens SET otp_hash = NULL WHERE id = $1 AND otp_hash = $2`
	tag, err := r.db.Exec(ctx, query, id, otpHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *voterTokenRepository) MarkVerified(ctx context.Context, id uuid.UUID, verifiedAt time.Time) error {
	query := `UPDATE voter_tokens SET verified_at = $2 WHERE id = $1 AND verified_at IS NULL`
	_, err := r.db.Exec(ctx, query, id, verifiedAt)
	return err
}

func (r *voterTokenRepository) StoreAccessToken(
	ctx context.Context,
	id uuid.UUID,
	accessToken string,
	expiresAt time.Time,
) (bool, error) {
	query := `
        UPDATE voter_tokens
        SET access_token = $2, access_token_expires_at = $3
        WHERE id = $1 AND used = FALSE
    `
	tag, err := r.db.Exec(ctx, query, id, accessToken, expiresAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *voterTokenRepository) GenerateForElection(ctx context.Context, electionID uuid.UUID) (int, error) {
	query := `
        INSERT INTO voter_tokens
            (id, election_id, student_ref, email, phone, token_secret, used, otp_attempts, otp_resend_count, created_at)
        SELECT gen_random_uuid(), ev.election_id, ev.student_ref, ev.email, ev.phone,
               encode(gen_random_bytes(24), 'hex'), FALSE, 0, 0, NOW()
        FROM election_voters ev
        WHERE ev.election_id = $1
        ON CONFLICT (election_id, student_ref) DO NOTHING
    `
	tag, err := r.db.Exec(ctx, query, electionID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *voterTokenRepository) CountForElection(ctx context.Context, electionID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM voter_tokens WHERE election_id = $1`, electionID).Scan(&count)
	return count, err
}
