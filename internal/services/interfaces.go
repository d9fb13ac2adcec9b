// Package services orchestrates the domain operations on top of storage,
// messaging and rendering collaborators. Every dependency is an interface
// passed at construction; nothing is looked up globally.
package services

import (
	"context"

	"ledger/internal/core"
)

// TransactionStore is the persistence surface the transaction and report
// services need.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) error
	GetTransaction(ctx context.Context, id, ownerID string) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id, ownerID string) error
	ListTransactions(ctx context.Context, ownerID string, f core.Filter) ([]core.Transaction, error)
}

// CategoryStore is the persistence surface for categories. CategoryName is
// the tolerant lookup; GetCategory is the strict one.
type CategoryStore interface {
	core.CategoryNamer

	CreateCategory(ctx context.Context, c core.Category) error
	GetCategory(ctx context.Context, id, ownerID string) (core.Category, error)
	ListCategories(ctx context.Context, ownerID string, typ core.TransactionType) ([]core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, id, ownerID string) error
	CategoryExists(ctx context.Context, ownerID, name string, typ core.TransactionType) (bool, error)
}

// EventPublisher announces transaction mutations to the worker. A nil
// publisher disables events.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, transactionID, ownerID, action string) error
}
