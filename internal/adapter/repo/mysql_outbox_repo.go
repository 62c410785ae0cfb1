package repo

import (
	"context"
	"database/sql"
)

// OutboxRow is one undelivered notification awaiting redelivery.
type OutboxRow struct {
	ID      int64
	Channel string
	Payload []byte
}

// MySQLOutboxRepo is the durable fallback for notification jobs that could
// not be published to the broker at trigger time; a drain loop retries them.
type MySQLOutboxRepo struct{ db *sql.DB }

func NewMySQLOutboxRepo(db *sql.DB) *MySQLOutboxRepo { return &MySQLOutboxRepo{db: db} }

func (r *MySQLOutboxRepo) Insert(ctx context.Context, channel string, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO outbox (channel, payload, status, retry_count, next_attempt_at, created_at)
VALUES (?, ?, 'PENDING', 0, NOW(), NOW())
`, channel, payload)
	return err
}

func (r *MySQLOutboxRepo) FetchPending(ctx context.Context, limit int) ([]OutboxRow, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, channel, payload FROM outbox
WHERE status = 'PENDING' AND next_attempt_at <= NOW()
ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutboxRow
	for rows.Next() {
		var row OutboxRow
		if err := rows.Scan(&row.ID, &row.Channel, &row.Payload); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *MySQLOutboxRepo) MarkSent(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox SET status = 'SENT' WHERE id = ?`, id)
	return err
}

// MarkFailed schedules the next attempt with a linear backoff.
func (r *MySQLOutboxRepo) MarkFailed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE outbox
SET retry_count = retry_count + 1,
    next_attempt_at = DATE_ADD(NOW(), INTERVAL LEAST(retry_count + 1, 30) MINUTE)
WHERE id = ?`, id)
	return err
}
