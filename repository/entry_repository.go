package repository

import (
	"context"
	"fmt"

	"lotto/database"
	"lotto/models"
)

// EntryRepository implements the EntryRepository interface
type EntryRepository struct {
	q queryable
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(db *database.DB) *EntryRepository {
	return &EntryRepository{q: db.Pool}
}

// newEntryRepositoryWithTx creates a new entry repository with a transaction
func newEntryRepositoryWithTx(tx queryable) *EntryRepository {
	return &EntryRepository{q: tx}
}

// Append inserts the entry at the next position of its round. Callers hold the
// game row lock, so positions are gapless and never contended.
func (r *EntryRepository) Append(ctx context.Context, entry *models.Entry) error {
	query := `
		INSERT INTO lottery_entries (round, position, address, stake)
		SELECT $1::bigint, COALESCE(MAX(position) + 1, 0), $2::text, $3::numeric
		FROM lottery_entries
		WHERE round = $1
		RETURNING id, position, created_at
	`

	err := r.q.QueryRow(ctx, query, entry.Round, addressParam(entry.Address), weiParam(entry.Stake)).
		Scan(&entry.ID, &entry.Position, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append entry for %s in round %d: %w", entry.Address.Hex(), entry.Round, err)
	}

	return nil
}

// ListRound returns the round's entries ordered by position
func (r *EntryRepository) ListRound(ctx context.Context, round int64) ([]*models.Entry, error) {
	query := `
		SELECT id, round, position, address, stake::text, created_at
		FROM lottery_entries
		WHERE round = $1
		ORDER BY position
	`

	rows, err := r.q.Query(ctx, query, round)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for round %d: %w", round, err)
	}
	defer rows.Close()

	var entries []*models.Entry
	for rows.Next() {
		var (
			entry          models.Entry
			address, stake string
		)
		if err := rows.Scan(&entry.ID, &entry.Round, &entry.Position, &address, &stake, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if entry.Address, err = parseAddress(address); err != nil {
			return nil, err
		}
		if entry.Stake, err = parseWei(stake); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}

	return entries, nil
}
