package notify

import (
	"context"
	"time"

	"github.com/harshbajani/GujaratStore-sub003/internal/logging"
	"github.com/harshbajani/GujaratStore-sub003/internal/usecase"
)

// Reengager periodically finds users who have gone quiet and queues a
// "we miss you" email for each. The idempotency lock keeps a user from being
// mailed again until the lock expires, regardless of how often the sweep runs.
type Reengager struct {
	users    usecase.UserRepo
	queue    usecase.NotificationQueue
	idem     usecase.IdempotencyStore
	interval time.Duration
	after    time.Duration
}

func NewReengager(users usecase.UserRepo, queue usecase.NotificationQueue, idem usecase.IdempotencyStore, interval, inactiveAfter time.Duration) *Reengager {
	return &Reengager{users: users, queue: queue, idem: idem, interval: interval, after: inactiveAfter}
}

// Start runs the sweep loop until ctx is cancelled.
func (r *Reengager) Start(ctx context.Context) {
	go func() {
		t := time.NewTicker(r.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				r.sweep(ctx)
			}
		}
	}()
}

func (r *Reengager) sweep(ctx context.Context) {
	log := logging.New("reengage")

	cutoff := time.Now().UTC().Add(-r.after)
	users, err := r.users.ListInactiveSince(ctx, cutoff)
	if err != nil {
		log.Error("list inactive users", "err", err)
		return
	}

	queued := 0
	for _, u := range users {
		if u.Email == "" {
			continue
		}
		ok, err := r.idem.TryLock(ctx, "reengage", u.ID)
		if err != nil {
			log.Error("reengage lock", "user", u.ID, "err", err)
			continue
		}
		if !ok {
			continue
		}
		if err := r.queue.Enqueue(ctx, usecase.WeMissYouEvent(u.Email, u.Name)); err != nil {
			log.Error("enqueue reengage", "user", u.ID, "err", err)
			continue
		}
		queued++
	}
	if queued > 0 {
		log.Info("reengagement sweep", "inactive", len(users), "queued", queued)
	}
}
