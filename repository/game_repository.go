package repository

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"lotto/database"
	"lotto/models"
	"lotto/service"
)

const uniqueViolation = "23505"

// GameRepository implements the GameRepository interface
type GameRepository struct {
	q queryable
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{q: db.Pool}
}

// newGameRepositoryWithTx creates a new game repository with a transaction
func newGameRepositoryWithTx(tx queryable) *GameRepository {
	return &GameRepository{q: tx}
}

const gameColumns = `id, manager, min_stake::text, balance::text, current_round, created_at, updated_at`

// Create inserts the singleton game row
func (r *GameRepository) Create(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO lottery_game (id, manager, min_stake, balance, current_round)
		VALUES ($1, $2, $3::numeric, 0, 1)
		RETURNING current_round, created_at, updated_at
	`

	game.ID = models.GameID
	err := r.q.QueryRow(ctx, query, game.ID, addressParam(game.Manager), weiParam(game.MinStake)).
		Scan(&game.CurrentRound, &game.CreatedAt, &game.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return service.ErrAlreadyDeployed
	}
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	game.Balance = new(big.Int)

	return nil
}

// Get retrieves the game row
func (r *GameRepository) Get(ctx context.Context) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM lottery_game WHERE id = $1`

	game, err := scanGame(r.q.QueryRow(ctx, query, models.GameID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

// GetForUpdate retrieves the game row with a row lock. Every mutating lottery
// operation takes this lock first, which serializes them.
func (r *GameRepository) GetForUpdate(ctx context.Context) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM lottery_game WHERE id = $1 FOR UPDATE`

	game, err := scanGame(r.q.QueryRow(ctx, query, models.GameID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game for update: %w", err)
	}
	return game, nil
}

// UpdateBalance sets the held balance
func (r *GameRepository) UpdateBalance(ctx context.Context, balance *big.Int) error {
	query := `
		UPDATE lottery_game
		SET balance = $1::numeric, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, weiParam(balance), models.GameID)
	if err != nil {
		return fmt.Errorf("failed to update game balance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("game not found")
	}
	return nil
}

// AdvanceRound opens the next round with an empty balance and returns its number
func (r *GameRepository) AdvanceRound(ctx context.Context) (int64, error) {
	query := `
		UPDATE lottery_game
		SET current_round = current_round + 1, balance = 0, updated_at = NOW()
		WHERE id = $1
		RETURNING current_round
	`

	var round int64
	err := r.q.QueryRow(ctx, query, models.GameID).Scan(&round)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("game not found")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to advance round: %w", err)
	}
	return round, nil
}

func scanGame(row pgx.Row) (*models.Game, error) {
	var (
		game              models.Game
		manager           string
		minStake, balance string
	)
	err := row.Scan(&game.ID, &manager, &minStake, &balance, &game.CurrentRound, &game.CreatedAt, &game.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if game.Manager, err = parseAddress(manager); err != nil {
		return nil, err
	}
	if game.MinStake, err = parseWei(minStake); err != nil {
		return nil, err
	}
	if game.Balance, err = parseWei(balance); err != nil {
		return nil, err
	}
	return &game, nil
}
