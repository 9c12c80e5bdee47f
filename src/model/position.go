package model

import (
	"database/sql"
	"errors"

	"github.com/username/sixex/backend/src/models"
)

// Querier lets position reads and writes run either on the pool or inside
// a transaction. Both *sql.DB and *sql.Tx satisfy it.
type Querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

// GetPosition returns the user's position in symbol, or nil when the user
// holds none. Run it on the same transaction as the following
// UpsertPosition so a concurrent buy of the same symbol cannot lose the
// read-merge-write.
func GetPosition(q Querier, userID int64, symbol string) (*models.Position, error) {
	query := `
	SELECT id, user_id, symbol, shares, invested_amount, created_at, updated_at
	FROM positions
	WHERE user_id = ? AND symbol = ?`

	var pos models.Position
	err := q.QueryRow(query, userID, symbol).Scan(
		&pos.ID, &pos.UserID, &pos.Symbol,
		&pos.Shares, &pos.InvestedAmount,
		&pos.CreatedAt, &pos.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &pos, nil
}

// ListPositions returns all of a user's positions, oldest purchase first.
func ListPositions(q Querier, userID int64) ([]models.Position, error) {
	query := `
	SELECT id, user_id, symbol, shares, invested_amount, created_at, updated_at
	FROM positions
	WHERE user_id = ?
	ORDER BY created_at, id`

	rows, err := q.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var pos models.Position
		if err := rows.Scan(
			&pos.ID, &pos.UserID, &pos.Symbol,
			&pos.Shares, &pos.InvestedAmount,
			&pos.CreatedAt, &pos.UpdatedAt); err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

// UpsertPosition writes a position. The UNIQUE(user_id, symbol) constraint
// plus the conflict clause keep the one-row-per-(user, symbol) invariant
// even if two transactions insert concurrently.
func UpsertPosition(q Querier, pos *models.Position) error {
	query := `
	INSERT INTO positions (id, user_id, symbol, shares, invested_amount, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id, symbol) DO UPDATE SET
		shares = excluded.shares,
		invested_amount = excluded.invested_amount,
		updated_at = excluded.updated_at`
	_, err := q.Exec(query,
		pos.ID, pos.UserID, pos.Symbol,
		pos.Shares, pos.InvestedAmount,
		pos.CreatedAt, pos.UpdatedAt)
	return err
}
