package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/harshbajani/GujaratStore-sub003/internal/entity"
	"github.com/harshbajani/GujaratStore-sub003/internal/usecase"
)

type MySQLUserRepo struct{ db *sql.DB }

func NewMySQLUserRepo(db *sql.DB) *MySQLUserRepo { return &MySQLUserRepo{db: db} }

func (r *MySQLUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, email, phone, addresses_json, reward_points, last_active_at
FROM users WHERE id = ?`, id)

	var u domain.User
	var addressesJSON []byte
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &addressesJSON, &u.RewardPoints, &u.LastActiveAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(addressesJSON) > 0 {
		if err := json.Unmarshal(addressesJSON, &u.Addresses); err != nil {
			return nil, fmt.Errorf("decode addresses: %w", err)
		}
	}
	return &u, nil
}

// ListInactiveSince feeds the re-engagement scheduler.
func (r *MySQLUserRepo) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, email, last_active_at
FROM users WHERE last_active_at < ? ORDER BY last_active_at ASC LIMIT 500`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.LastActiveAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

var _ usecase.UserRepo = (*MySQLUserRepo)(nil)
