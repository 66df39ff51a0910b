package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/campusvote/ballot-service/internal/models"
)

type BallotRepository interface {
	// GetBallot returns the election's portfolios in ballot order, each
	// with its candidates.
	GetBallot(ctx context.Context, electionID uuid.UUID) ([]models.Portfolio, error)
}

type ballotRepository struct {
	db DB
}

func NewBallotRepository(db DB) BallotRepository {
	return &ballotRepository{db: db}
}

func (r *ballotRepository) GetBallot(ctx context.Context, electionID uuid.UUID) ([]models.Portfolio, error) {
	query := `
        SELECT p.id, p.election_id, p.title, p.ballot_order,
               c.id, c.portfolio_id, c.name
        FROM portfolios p
        LEFT JOIN candidates c ON c.portfolio_id = p.id
        WHERE p.election_id = $1
        ORDER BY p.ballot_order, c.name
    `
	rows, err := r.db.Query(ctx, query, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out   []models.Portfolio
		index = make(map[uuid.UUID]int)
	)
	for rows.Next() {
		var (
			p          models.Portfolio
			candID     *uuid.UUID
			candPortID *uuid.UUID
			candName   *string
		)
		if err := rows.Scan(&p.ID, &p.ElectionID, &p.Title, &p.BallotOrder,
			&candID, &candPortID, &candName); err != nil {
			return nil, err
		}

		i, seen := index[p.ID]
		if !seen {
			index[p.ID] = len(out)
			i = len(out)
			out = append(out, p)
		}
		if candID != nil {
			out[i].Candidates = append(out[i].Candidates, models.Candidate{
				ID:          *candID,
				PortfolioID: *candPortID,
				Name:        *candName,
			})
		}
	}
	return out, rows.Err()
}
