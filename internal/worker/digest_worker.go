package worker

import (
	"context"
	"fmt"
	"time"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/messages"
	"ledger/internal/storage"
)

// DigestClass tags monthly digest notifications in the feed.
const DigestClass = "monthly-digest"

// OwnerLister enumerates all registered owners.
type OwnerLister interface {
	ListOwnerIDs(ctx context.Context) ([]string, error)
}

// DigestStore is the storage surface the digest job needs.
type DigestStore interface {
	OwnerLister
	ListTransactions(ctx context.Context, ownerID string, f core.Filter) ([]core.Transaction, error)
	AddNotification(ctx context.Context, n storage.Notification) error
	NotificationExists(ctx context.Context, ownerID, transactionID string) (bool, error)
}

// SummaryExporter receives the digest summary after it is stored. A nil
// exporter disables the hook.
type SummaryExporter interface {
	ExportMonthlySummary(ctx context.Context, month string, s core.Summary) error
}

// DigestWorker summarizes each owner's previous calendar month into a
// notification. Digests are keyed by a marker in the transaction id
// column, so re-running a period is a no-op.
type DigestWorker struct {
	store    DigestStore
	names    core.CategoryNamer
	exporter SummaryExporter
	logger   *log.Logger
}

func NewDigestWorker(store DigestStore, names core.CategoryNamer, exporter SummaryExporter, logger *log.Logger) *DigestWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	}
	return &DigestWorker{
		store:    store,
		names:    names,
		exporter: exporter,
		logger:   logger,
	}
}

// RunOnce produces digests for the month preceding now, returning how many
// were stored. Owners with no transactions that month get none; owners
// already digested for the month are skipped.
func (w *DigestWorker) RunOnce(ctx context.Context, now time.Time) (int, error) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	last := first.AddDate(0, 1, -1)
	marker := fmt.Sprintf("digest-%04d-%02d", first.Year(), int(first.Month()))
	label := fmt.Sprintf("%s %d", first.Month(), first.Year())

	owners, err := w.store.ListOwnerIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list owners: %w", err)
	}

	stored := 0
	for _, ownerID := range owners {
		exists, err := w.store.NotificationExists(ctx, ownerID, marker)
		if err != nil {
			return stored, err
		}
		if exists {
			continue
		}

		f := core.Filter{
			StartDate: core.NewDate(first.Year(), int(first.Month()), 1),
			EndDate:   core.NewDate(last.Year(), int(last.Month()), last.Day()),
		}
		ts, err := w.store.ListTransactions(ctx, ownerID, f)
		if err != nil {
			return stored, fmt.Errorf("list transactions for %s: %w", ownerID, err)
		}
		if len(ts) == 0 {
			continue
		}

		summary := core.Summarize(ctx, ts, w.names)
		msg, err := messages.MonthlyDigest(first.Month().String(), first.Year(), summary)
		if err != nil {
			return stored, fmt.Errorf("compose digest: %w", err)
		}

		err = w.store.AddNotification(ctx, storage.Notification{
			OwnerID:       ownerID,
			TransactionID: marker,
			AdviceClass:   DigestClass,
			Message:       msg,
		})
		if err != nil {
			return stored, fmt.Errorf("store digest: %w", err)
		}
		stored++

		w.logger.InfoContext(ctx, "Stored monthly digest",
			log.FieldUserID, ownerID,
			"month", label,
			log.FieldCount, summary.TransactionCount)

		if w.exporter != nil {
			if err := w.exporter.ExportMonthlySummary(ctx, label, summary); err != nil {
				w.logger.ErrorContext(ctx, "Failed to export monthly summary",
					log.FieldUserID, ownerID,
					"month", label,
					log.FieldError, err)
			}
		}
	}
	return stored, nil
}
