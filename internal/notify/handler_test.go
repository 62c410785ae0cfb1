package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	domain "github.com/harshbajani/GujaratStore-sub003/internal/entity"
	"github.com/harshbajani/GujaratStore-sub003/internal/usecase"
)

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func TestConsumer_SendsRenderedMail(t *testing.T) {
	m := &fakeMailer{}
	c := NewConsumer(m)

	ev, ok := usecase.ShippingEvent("ORD-77", "a@b.c", domain.StatusShipped, "AWB123")
	if !ok {
		t.Fatal("shipped should be a notification boundary")
	}
	if err := c.Handle(context.Background(), ev); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(m.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(m.sent))
	}
	got := m.sent[0]
	if got.To != "a@b.c" {
		t.Errorf("to = %q", got.To)
	}
	if !strings.Contains(got.Subject, "ORD-77") {
		t.Errorf("subject %q should name the order", got.Subject)
	}
	if !strings.Contains(got.Body, "AWB123") {
		t.Errorf("body %q should carry the tracking number", got.Body)
	}
}

func TestConsumer_UnknownEventIsAckedNotRetried(t *testing.T) {
	m := &fakeMailer{}
	c := NewConsumer(m)

	ev := usecase.NotificationEvent{ID: "x", Name: "no such template", Email: "a@b.c"}
	if err := c.Handle(context.Background(), ev); err != nil {
		t.Fatalf("unknown event must be dropped without error, got %v", err)
	}
	if len(m.sent) != 0 {
		t.Fatalf("nothing should be sent for unknown events")
	}
}

func TestConsumer_MissingRecipientIsDropped(t *testing.T) {
	m := &fakeMailer{}
	c := NewConsumer(m)

	ev := usecase.ConfirmedEvent("ORD-1", "")
	if err := c.Handle(context.Background(), ev); err != nil {
		t.Fatalf("missing recipient must be dropped without error, got %v", err)
	}
}

func TestConsumer_DeliveryFailurePropagates(t *testing.T) {
	m := &fakeMailer{fail: errors.New("connection refused")}
	c := NewConsumer(m)

	err := c.Handle(context.Background(), usecase.ConfirmedEvent("ORD-1", "a@b.c"))
	if err == nil {
		t.Fatal("send failure must surface so the message is requeued")
	}
}

func TestRender_CoversEveryEmittedEvent(t *testing.T) {
	names := []string{
		usecase.EventOrderConfirmed,
		usecase.EventOrderCancelled,
		usecase.EventOrderShipped,
		usecase.EventOrderOutForDelivery,
		usecase.EventOrderDelivered,
		usecase.EventRefundProcessed,
		usecase.EventRefundPending,
		usecase.EventRefundManualReview,
		usecase.EventRefundFailed,
		usecase.EventShippingUpdate,
		usecase.EventWeMissYou,
	}
	for _, name := range names {
		ev := usecase.NotificationEvent{Name: name, OrderNumber: "ORD-9", Email: "a@b.c", At: time.Now()}
		msg, ok := Render(ev)
		if !ok {
			t.Errorf("no template for %q", name)
			continue
		}
		if msg.Subject == "" || msg.Body == "" {
			t.Errorf("empty render for %q", name)
		}
	}
}

type fakeUserRepo struct {
	inactive []domain.User
}

func (f *fakeUserRepo) GetByID(context.Context, string) (*domain.User, error) {
	return nil, usecase.ErrUserNotFound
}

func (f *fakeUserRepo) ListInactiveSince(context.Context, time.Time) ([]domain.User, error) {
	return f.inactive, nil
}

type fakeQueue struct {
	mu     sync.Mutex
	events []usecase.NotificationEvent
}

func (f *fakeQueue) Enqueue(_ context.Context, ev usecase.NotificationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

type fakeIdem struct {
	mu    sync.Mutex
	locks map[string]bool
}

func (f *fakeIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := scope + ":" + key
	if f.locks[k] {
		return false, nil
	}
	f.locks[k] = true
	return true, nil
}

func (f *fakeIdem) Remember(context.Context, string, string, string) error { return nil }
func (f *fakeIdem) Recall(context.Context, string, string) (string, bool, error) {
	return "", false, nil
}

func TestReengager_MailsEachInactiveUserOnce(t *testing.T) {
	users := &fakeUserRepo{inactive: []domain.User{
		{ID: "u1", Name: "Asha", Email: "asha@example.com"},
		{ID: "u2", Name: "Ravi", Email: "ravi@example.com"},
		{ID: "u3"}, // no email on file
	}}
	q := &fakeQueue{}
	r := NewReengager(users, q, &fakeIdem{locks: map[string]bool{}}, time.Minute, 30*24*time.Hour)

	r.sweep(context.Background())
	r.sweep(context.Background())

	if len(q.events) != 2 {
		t.Fatalf("queued = %d, want 2 (one per user with email, lock blocks the repeat)", len(q.events))
	}
	for _, ev := range q.events {
		if ev.Name != usecase.EventWeMissYou {
			t.Errorf("event = %q", ev.Name)
		}
	}
}
