package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"lotto/database"
	"lotto/models"
)

// RoundRepository implements the RoundRepository interface
type RoundRepository struct {
	q queryable
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(db *database.DB) *RoundRepository {
	return &RoundRepository{q: db.Pool}
}

// newRoundRepositoryWithTx creates a new round repository with a transaction
func newRoundRepositoryWithTx(tx queryable) *RoundRepository {
	return &RoundRepository{q: tx}
}

const roundColumns = `id, round, winner, payout::text, entrant_size, winner_index, seed, picked_by, created_at`

// Create records a completed round
func (r *RoundRepository) Create(ctx context.Context, round *models.Round) error {
	query := `
		INSERT INTO lottery_rounds
		(round, winner, payout, entrant_size, winner_index, seed, picked_by)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		round.Round,
		addressParam(round.Winner),
		weiParam(round.Payout),
		round.EntrantSize,
		round.WinnerIndex,
		round.Seed.Hex(),
		addressParam(round.PickedBy),
	).Scan(&round.ID, &round.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create round %d: %w", round.Round, err)
	}

	return nil
}

// GetByRound retrieves a completed round by number
func (r *RoundRepository) GetByRound(ctx context.Context, number int64) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM lottery_rounds WHERE round = $1`

	round, err := scanRound(r.q.QueryRow(ctx, query, number))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round %d: %w", number, err)
	}
	return round, nil
}

// List returns completed rounds, newest first
func (r *RoundRepository) List(ctx context.Context, limit int) ([]*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM lottery_rounds ORDER BY round DESC LIMIT $1`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*models.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, round)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rounds: %w", err)
	}

	return rounds, nil
}

func scanRound(row pgx.Row) (*models.Round, error) {
	var (
		round                    models.Round
		winner, payout, seed, by string
	)
	err := row.Scan(&round.ID, &round.Round, &winner, &payout, &round.EntrantSize, &round.WinnerIndex, &seed, &by, &round.CreatedAt)
	if err != nil {
		return nil, err
	}

	if round.Winner, err = parseAddress(winner); err != nil {
		return nil, err
	}
	if round.PickedBy, err = parseAddress(by); err != nil {
		return nil, err
	}
	if round.Payout, err = parseWei(payout); err != nil {
		return nil, err
	}
	round.Seed = common.HexToHash(seed)
	return &round, nil
}
