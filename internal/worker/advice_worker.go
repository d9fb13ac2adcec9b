// Package worker turns transaction events into stored advice
// notifications. It runs out of process from the API; the queue carries
// only ids, so every event is re-read from storage before classification.
package worker

import (
	"context"
	"errors"
	"fmt"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/messages"
	"ledger/internal/storage"
)

// TransactionReader is the slice of storage the worker reads from.
type TransactionReader interface {
	GetTransaction(ctx context.Context, id, ownerID string) (core.Transaction, error)
}

// NotificationWriter stores the produced advice.
type NotificationWriter interface {
	AddNotification(ctx context.Context, n storage.Notification) error
}

// Exporter receives each classified transaction after the notification is
// stored. A nil exporter disables the hook.
type Exporter interface {
	ExportTransaction(ctx context.Context, t core.Transaction, class core.AdviceClass) error
}

// AdviceWorker handles transaction events.
type AdviceWorker struct {
	transactions  TransactionReader
	notifications NotificationWriter
	exporter      Exporter
	logger        *log.Logger
}

func NewAdviceWorker(transactions TransactionReader, notifications NotificationWriter, exporter Exporter, logger *log.Logger) *AdviceWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	}
	return &AdviceWorker{
		transactions:  transactions,
		notifications: notifications,
		exporter:      exporter,
		logger:        logger,
	}
}

// HandleEvent classifies the referenced transaction and stores an advice
// notification for its owner.
//
// A transaction that no longer exists is not an error: the user may have
// deleted it before the event was consumed. Returning nil acks the
// message instead of requeueing it forever.
func (w *AdviceWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	t, err := w.transactions.GetTransaction(ctx, msg.TransactionID, msg.OwnerID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			w.logger.WarnContext(ctx, "Transaction gone before advice could run",
				log.FieldTransactionID, msg.TransactionID,
				log.FieldUserID, msg.OwnerID)
			return nil
		}
		return fmt.Errorf("load transaction %s: %w", msg.TransactionID, err)
	}

	class := core.ClassifyAdvice(t.Amount)
	advice, err := messages.Advice(class, t.Type, t.Amount.String())
	if err != nil {
		return fmt.Errorf("compose advice: %w", err)
	}

	err = w.notifications.AddNotification(ctx, storage.Notification{
		OwnerID:       t.OwnerID,
		TransactionID: t.ID,
		AdviceClass:   string(class),
		Message:       advice,
	})
	if err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	w.logger.InfoContext(ctx, "Stored advice notification",
		log.FieldTransactionID, t.ID,
		log.FieldUserID, t.OwnerID,
		log.FieldAdviceClass, string(class),
		log.FieldOperation, msg.Action)

	if w.exporter != nil {
		if err := w.exporter.ExportTransaction(ctx, t, class); err != nil {
			// Export is best effort; the notification is already stored.
			w.logger.ErrorContext(ctx, "Failed to export transaction",
				log.FieldTransactionID, t.ID,
				log.FieldError, err)
		}
	}

	return nil
}
