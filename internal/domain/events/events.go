// Package events defines domain events that represent significant business occurrences.
// Events are immutable facts about what happened in the past.
//
// SOLID Principles:
// - SRP: Each event type represents one business occurrence
// - OCP: New events can be added without modifying existing code
// - ISP: Event consumers only handle events they care about
//
// Pattern: Domain Events (Observer Pattern foundation)
// - Events are raised by usecases when state changes
// - Handlers react asynchronously via the transactional outbox
// - Enables loose coupling between domain modules
package events

import (
	"time"

	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// DomainEvent is the base interface for all domain events.
// All events must have an ID, timestamp, and type.
//
// Why interface? (ISP principle)
// - Consumers can work with any event type
// - Easy to add new event types
// - Type-safe event handling with type switches
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID // ID of the entity that raised this event
}

// BaseEvent provides common fields for all events.
// Embedded in specific event types to avoid duplication (DRY).
type BaseEvent struct {
	eventID     uuid.UUID
	eventType   string
	occurredAt  time.Time
	aggregateID uuid.UUID
}

func newBaseEvent(eventType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New(),
		eventType:   eventType,
		occurredAt:  time.Now(),
		aggregateID: aggregateID,
	}
}

func (e BaseEvent) EventID() uuid.UUID {
	return e.eventID
}

func (e BaseEvent) EventType() string {
	return e.eventType
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.occurredAt
}

func (e BaseEvent) AggregateID() uuid.UUID {
	return e.aggregateID
}

// Event Types (constants for type checking, also used as NATS subject suffixes)
const (
	EventTypeWalletCreated       = "wallet.created"
	EventTypeWalletDeleted       = "wallet.deleted"
	EventTypeWalletHoldCreated   = "wallet_hold.created"
	EventTypeProposalCompleted   = "proposal.completed"
	EventTypeProposalFailed      = "proposal.failed"
	EventTypeTransactionAppended = "transaction.appended"
)

// ===== Wallet Events =====

// WalletCreated is raised when a new wallet is created, including the
// implicit default wallet created on first ListWallets by a User issuer.
type WalletCreated struct {
	BaseEvent
	BusinessName string
	UserID       uuid.UUID
	WalletType   string
}

func NewWalletCreated(walletID, userID uuid.UUID, businessName, walletType string) *WalletCreated {
	return &WalletCreated{
		BaseEvent:    newBaseEvent(EventTypeWalletCreated, walletID),
		BusinessName: businessName,
		UserID:       userID,
		WalletType:   walletType,
	}
}

// WalletDeleted is raised when a wallet is soft-deleted.
type WalletDeleted struct {
	BaseEvent
	BusinessName string
}

func NewWalletDeleted(walletID uuid.UUID, businessName string) *WalletDeleted {
	return &WalletDeleted{
		BaseEvent:    newBaseEvent(EventTypeWalletDeleted, walletID),
		BusinessName: businessName,
	}
}

// WalletHoldCreated is raised when a new hold is placed on a wallet.
type WalletHoldCreated struct {
	BaseEvent
	WalletID uuid.UUID
	Amount   valueobjects.Decimal
}

func NewWalletHoldCreated(holdID, walletID uuid.UUID, amount valueobjects.Decimal) *WalletHoldCreated {
	return &WalletHoldCreated{
		BaseEvent: newBaseEvent(EventTypeWalletHoldCreated, holdID),
		WalletID:  walletID,
		Amount:    amount,
	}
}

// ===== Proposal Events =====

// ProposalCompleted is raised when a proposal's commit phase succeeds.
// Supplements the original implementation's synchronous wallet.notify /
// business.notify calls with an asynchronous, decoupled event instead.
type ProposalCompleted struct {
	BaseEvent
	BusinessName     string
	Currency         valueobjects.Currency
	TransactionCount int
}

func NewProposalCompleted(proposalID uuid.UUID, businessName string, currency valueobjects.Currency, transactionCount int) *ProposalCompleted {
	return &ProposalCompleted{
		BaseEvent:        newBaseEvent(EventTypeProposalCompleted, proposalID),
		BusinessName:     businessName,
		Currency:         currency,
		TransactionCount: transactionCount,
	}
}

// ProposalFailed is raised when a proposal's validation or commit fails.
type ProposalFailed struct {
	BaseEvent
	BusinessName string
	Reason       string
}

func NewProposalFailed(proposalID uuid.UUID, businessName, reason string) *ProposalFailed {
	return &ProposalFailed{
		BaseEvent:    newBaseEvent(EventTypeProposalFailed, proposalID),
		BusinessName: businessName,
		Reason:       reason,
	}
}

// ===== Ledger Events =====

// TransactionAppended is raised for every ledger row a proposal commit
// writes. Consumers (analytics, notifications) fan out per-participant.
type TransactionAppended struct {
	BaseEvent
	WalletID   uuid.UUID
	ProposalID uuid.UUID
	Amount     valueobjects.Decimal
	Balance    valueobjects.Decimal
}

func NewTransactionAppended(transactionID, walletID, proposalID uuid.UUID, amount, balance valueobjects.Decimal) *TransactionAppended {
	return &TransactionAppended{
		BaseEvent:  newBaseEvent(EventTypeTransactionAppended, transactionID),
		WalletID:   walletID,
		ProposalID: proposalID,
		Amount:     amount,
		Balance:    balance,
	}
}

// EventStore is a simple in-memory buffer for events collected during a
// proposal commit, flushed to the outbox atomically with the ledger rows.
//
// Pattern: Event Sourcing foundation
// - Collect events during usecase execution
// - Publish them atomically with state changes via the outbox
// - Enables eventual consistency and event-driven architecture
type EventStore struct {
	events []DomainEvent
}

// NewEventStore creates a new event store.
func NewEventStore() *EventStore {
	return &EventStore{
		events: make([]DomainEvent, 0),
	}
}

// Add appends an event to the store.
func (s *EventStore) Add(event DomainEvent) {
	s.events = append(s.events, event)
}

// GetAll returns all collected events.
func (s *EventStore) GetAll() []DomainEvent {
	return s.events
}

// Clear removes all events from the store.
func (s *EventStore) Clear() {
	s.events = make([]DomainEvent, 0)
}

// Count returns the number of events in the store.
func (s *EventStore) Count() int {
	return len(s.events)
}
