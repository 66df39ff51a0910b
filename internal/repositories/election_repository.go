package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/campusvote/ballot-service/internal/models"
)

type ElectionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Election, error)

	ListDueForActivation(ctx context.Context, now time.Time) ([]*models.Election, error)
	ListDueForClosing(ctx context.Context, now time.Time) ([]*models.Election, error)

	// TransitionStatus performs the conditional flip that keeps
	// overlapping scheduler runs idempotent: at most one caller observes
	// rows affected == 1 for a given from→to edge.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.ElectionStatusType) (bool, error)
	MarkVoterListGenerated(ctx context.Context, id uuid.UUID, count int) (bool, error)
}

type electionRepository struct {
	db DB
}

func NewElectionRepository(db DB) ElectionRepository {
	return &electionRepository{db: db}
}

func baseSelectElection() string {
	return `
        SELECT id, name, status, start_time, end_time,
               voter_list_generated, eligible_voter_count, created_at, updated_at
        FROM elections
    `
}

func scanElection(row pgx.Row) (*models.Election, error) {
	var e models.Election
	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Status,
		&e.StartTime,
		&e.EndTime,
		&e.VoterListGenerated,
		&e.EligibleVoterCount,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *electionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Election, error) {
	row := r.db.QueryRow(ctx, baseSelectElection()+" WHERE id=$1", id)
	return scanElection(row)
}

func (r *electionRepository) ListDueForActivation(ctx context.Context, now time.Time) ([]*models.Election, error) {
	return r.listByStatusAndTime(ctx,
		baseSelectElection()+" WHERE status=$1 AND start_time <= $2 ORDER BY start_time",
		models.ElectionStatusApproved, now)
}

func (r *electionRepository) ListDueForClosing(ctx context.Context, now time.Time) ([]*models.Election, error) {
	return r.listByStatusAndTime(ctx,
		baseSelectElection()+" WHERE status=$1 AND end_time <= $2 ORDER BY end_time",
		models.ElectionStatusLive, now)
}

func (r *electionRepository) listByStatusAndTime(
	ctx context.Context,
	query string,
	status models.ElectionStatusType,
	now time.Time,
) ([]*models.Election, error) {
	rows, err := r.db.Query(ctx, query, status, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Election
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *electionRepository) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to models.ElectionStatusType,
) (bool, error) {
	query := `
        UPDATE elections
        SET status = $3, updated_at = NOW()
        WHERE id = $1 AND status = $2
    `
	tag, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *electionRepository) MarkVoterListGenerated(ctx context.Context, id uuid.UUID, count int) (bool, error) {
	query := `
        UPDATE elections
        SET voter_list_generated = TRUE, eligible_voter_count = $2, updated_at = NOW()
        WHERE id = $1 AND voter_list_generated = FALSE
    `
	tag, err := r.db.Exec(ctx, query, id, count)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
