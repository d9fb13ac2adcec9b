package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/messages"
)

// TransactionInput carries the mutable fields of a create or update.
type TransactionInput struct {
	CategoryID  string
	Amount      core.Money
	Type        core.TransactionType
	Description string
	Date        core.Date
}

// TransactionResult pairs the stored transaction with the composed
// confirmation and advice messages.
type TransactionResult struct {
	Transaction   core.Transaction
	Message       string
	AdviceClass   core.AdviceClass
	AdviceMessage string
}

// TransactionService owns the transaction lifecycle and the summary
// computation.
type TransactionService struct {
	store      TransactionStore
	categories CategoryStore
	resolver   core.CategoryNamer
	events     EventPublisher
}

// NewTransactionService wires the service. events may be nil; resolver is
// the (usually cached) namer used on the summary path.
func NewTransactionService(store TransactionStore, categories CategoryStore, resolver core.CategoryNamer, events EventPublisher) *TransactionService {
	if resolver == nil {
		resolver = categories
	}
	return &TransactionService{
		store:      store,
		categories: categories,
		resolver:   resolver,
		events:     events,
	}
}

// Create validates and stores a new transaction for the owner, classifies
// its advice and publishes a created event.
//
// A referenced category must exist and belong to the owner (strict
// lookup). Whether its type matches the transaction's is deliberately not
// checked.
func (s *TransactionService) Create(ctx context.Context, ownerID string, in TransactionInput) (TransactionResult, error) {
	t := core.Transaction{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		CategoryID:  in.CategoryID,
		Amount:      in.Amount,
		Type:        in.Type,
		Description: in.Description,
		Date:        in.Date,
	}
	if t.Date.IsZero() {
		t.Date = core.Today()
	}
	if err := t.Validate(); err != nil {
		return TransactionResult{}, err
	}

	if t.CategoryID != "" {
		if _, err := s.categories.GetCategory(ctx, t.CategoryID, ownerID); err != nil {
			return TransactionResult{}, fmt.Errorf("resolve category %s: %w", t.CategoryID, err)
		}
	}

	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return TransactionResult{}, fmt.Errorf("create transaction: %w", err)
	}

	s.publishEvent(ctx, t, amqp.ActionCreated)

	msg, err := messages.TransactionSuccess(t.Type, t.Amount.String(), t.Description)
	if err != nil {
		return TransactionResult{}, err
	}
	return s.withAdvice(t, msg)
}

// Update replaces the mutable fields of an owner's transaction.
func (s *TransactionService) Update(ctx context.Context, ownerID, id string, in TransactionInput) (TransactionResult, error) {
	existing, err := s.store.GetTransaction(ctx, id, ownerID)
	if err != nil {
		return TransactionResult{}, err
	}

	t := existing
	t.CategoryID = in.CategoryID
	t.Amount = in.Amount
	t.Type = in.Type
	t.Description = in.Description
	if !in.Date.IsZero() {
		t.Date = in.Date
	}
	if err := t.Validate(); err != nil {
		return TransactionResult{}, err
	}

	if t.CategoryID != "" {
		if _, err := s.categories.GetCategory(ctx, t.CategoryID, ownerID); err != nil {
			return TransactionResult{}, fmt.Errorf("resolve category %s: %w", t.CategoryID, err)
		}
	}

	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return TransactionResult{}, fmt.Errorf("update transaction: %w", err)
	}

	s.publishEvent(ctx, t, amqp.ActionUpdated)

	msg, err := messages.TransactionUpdated(t.Type, t.Amount.String())
	if err != nil {
		return TransactionResult{}, err
	}
	return s.withAdvice(t, msg)
}

// Delete removes an owner's transaction.
func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) (string, error) {
	if err := s.store.DeleteTransaction(ctx, id, ownerID); err != nil {
		return "", err
	}
	return messages.TransactionDeleted(), nil
}

// Get returns one transaction, scoped to its owner.
func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id, ownerID)
}

// List returns the owner's transactions narrowed by the filter.
func (s *TransactionService) List(ctx context.Context, ownerID string, f core.Filter) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, ownerID, f)
}

// Summary aggregates the owner's transactions within the filter.
func (s *TransactionService) Summary(ctx context.Context, ownerID string, f core.Filter) (core.Summary, error) {
	ts, err := s.store.ListTransactions(ctx, ownerID, f)
	if err != nil {
		return core.Summary{}, fmt.Errorf("list transactions: %w", err)
	}
	return core.Summarize(ctx, ts, s.resolver), nil
}

func (s *TransactionService) withAdvice(t core.Transaction, msg string) (TransactionResult, error) {
	class := core.ClassifyAdvice(t.Amount)
	advice, err := messages.Advice(class, t.Type, t.Amount.String())
	if err != nil {
		return TransactionResult{}, err
	}
	return TransactionResult{
		Transaction:   t,
		Message:       msg,
		AdviceClass:   class,
		AdviceMessage: advice,
	}, nil
}

// publishEvent never fails the request: the transaction is already stored.
func (s *TransactionService) publishEvent(ctx context.Context, t core.Transaction, action string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, t.ID, t.OwnerID, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", t.ID,
			"user_id", t.OwnerID,
			"action", action,
			"error", err)
	}
}
