package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeUserRegistered      EventType = "user_registered"
	EventTypeReferralCredited    EventType = "referral_credited"
	EventTypeWithdrawalCompleted EventType = "withdrawal_completed"
	EventTypeBonusClaimed        EventType = "bonus_claimed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// UserRegisteredEvent represents a new user registration
type UserRegisteredEvent struct {
	TelegramID int64
	ReferrerID int64
}

func (e UserRegisteredEvent) Type() EventType {
	return EventTypeUserRegistered
}

// ReferralCreditedEvent represents a referral bonus credited to a referrer
type ReferralCreditedEvent struct {
	ReferredID int64
	ReferrerID int64
	Bonus      int64
	NewLevel   int
	LeveledUp  bool
}

func (e ReferralCreditedEvent) Type() EventType {
	return EventTypeReferralCredited
}

// WithdrawalCompletedEvent represents a successful withdrawal
type WithdrawalCompletedEvent struct {
	TelegramID int64
	Amount     int64
}

func (e WithdrawalCompletedEvent) Type() EventType {
	return EventTypeWithdrawalCompleted
}

// BonusClaimedEvent represents a daily bonus credit
type BonusClaimedEvent struct {
	TelegramID int64
	Amount     int64
}

func (e BonusClaimedEvent) Type() EventType {
	return EventTypeBonusClaimed
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking the mutation path
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus stashes events published during a unit of work and emits
// them on the underlying bus only after the database commit succeeds.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events. Called after a successful commit. Event
// handlers run independently of the transaction lifecycle, so a background
// context is used instead of the (possibly expired) transaction context.
func (b *TransactionalBus) Flush() {
	ctx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(ctx, ev)
	}
	b.pending = nil
}

// Discard drops pending events. Called after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
