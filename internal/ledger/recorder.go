package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/corebank-ledger/internal/domain/outbox"
	"github.com/corebank-ledger/internal/domain/transaction"
)

const recordTimeout = 5 * time.Second

// rejectionRecorder writes the audit trail of failed attempts in a unit of
// work of its own, since the attempt's own unit of work was rolled back.
type rejectionRecorder struct {
	store  Store
	logger *slog.Logger
}

// record never fails the caller: the original error is what the caller
// must see, so a recording failure is only logged.
func (r *rejectionRecorder) record(ctx context.Context, op *operation, cause error) {
	// the caller may already be cancelled; the record must still be written
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	withRecord := rejectedRecordAllowed(op, cause)
	err := r.write(ctx, op, cause, withRecord)
	if withRecord && errors.Is(err, transaction.ErrDuplicateRecord{}) {
		// the id already has a record from an earlier attempt; the audit entry
		// for this attempt is still owed
		r.logger.Debug("Rejected transaction id already recorded", "transaction_id", op.id.String())
		err = r.write(ctx, op, cause, false)
	}
	if err != nil {
		r.logger.Error("Failed to record rejected operation",
			"transaction_id", op.id.String(),
			"cause", cause,
			"error", err,
		)
	}
}

// rejectedRecordAllowed limits REJECTED transaction records to business
// rejections of well-formed requests against accounts known to exist. Every
// other failure leaves an audit entry only.
func rejectedRecordAllowed(op *operation, cause error) bool {
	switch KindOf(cause) {
	case KindInsufficientFunds, KindInvalidAccountStatus:
		return op.amount.IsPositive()
	}
	return false
}

func (r *rejectionRecorder) write(ctx context.Context, op *operation, cause error, withRecord bool) error {
	return r.store.ExecuteTx(ctx, func(ctx context.Context, tx Tx) error {
		var record *transaction.Record
		if withRecord {
			rec, err := transaction.New(op.params(), transaction.StatusRejected, string(KindOf(cause)))
			if err != nil {
				return err
			}
			if err := tx.CreateTransaction(ctx, rec); err != nil {
				return err
			}
			record = rec
		}

		entry, err := op.auditEntry(record, cause)
		if err != nil {
			return err
		}
		if err := tx.AppendAudit(ctx, entry); err != nil {
			return err
		}

		event, err := outbox.NewEvent(outbox.EventTransactionRejected, op.accountIDs(), record, entry)
		if err != nil {
			return err
		}
		msg, err := outbox.NewMessage(event)
		if err != nil {
			return err
		}
		return tx.EnqueueEvent(ctx, msg)
	})
}
