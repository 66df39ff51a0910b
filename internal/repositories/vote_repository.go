package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/campusvote/ballot-service/internal/models"
	"github.com/campusvote/ballot-service/internal/utils"
)

type VoteRepository interface {
	// CastBallot inserts one vote row per selection under voterHash and
	// flips the voter token to used, all inside one transaction. A
	// unique-constraint violation on (election_id, voter_hash,
	// portfolio_id) aborts the whole ballot and is reported as
	// utils.ErrAlreadyVoted.
	CastBallot(
		ctx context.Context,
		tokenID uuid.UUID,
		electionID uuid.UUID,
		voterHash string,
		selections []models.Selection,
		castAt time.Time,
	) error

	HasVoted(ctx context.Context, electionID uuid.UUID, voterHash string) (bool, error)
	CountForElection(ctx context.Context, electionID uuid.UUID) (int, error)
}

type voteRepository struct {
	db DB
}

func NewVoteRepository(db DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) CastBallot(
	ctx context.Context,
	tokenID uuid.UUID,
	electionID uuid.UUID,
	voterHash string,
	selections []models.Selection,
	castAt time.Time,
) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insert := `
        INSERT INTO votes (id, election_id, portfolio_id, candidate_id, voter_hash, cast_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	for _, sel := range selections {
		if _, err := tx.Exec(ctx, insert,
			uuid.New(), electionID, sel.PortfolioID, sel.CandidateID, voterHash, castAt,
		); err != nil {
			if isUniqueViolation(err) {
				return utils.ErrAlreadyVoted
			}
			return err
		}
	}

	// Same atomic unit as the inserts: a crash between the two can never
	// leave counted votes behind an unused-looking token.
	tag, err := tx.Exec(ctx,
		`UPDATE voter_tokens SET used = TRUE WHERE id = $1 AND used = FALSE`, tokenID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrAlreadyVoted
	}

	return tx.Commit(ctx)
}

func (r *voteRepository) HasVoted(ctx context.Context, electionID uuid.UUID, voterHash string) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM votes WHERE election_id = $1 AND voter_hash = $2
        )
    `
	var exists bool
	err := r.db.QueryRow(ctx, query, electionID, voterHash).Scan(&exists)
	return exists, err
}

func (r *voteRepository) CountForElection(ctx context.Context, electionID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(DISTINCT voter_hash) FROM votes WHERE election_id = $1`, electionID).Scan(&count)
	return count, err
}
