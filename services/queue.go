package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"sftpflow/contract"
	"sftpflow/domain"
	"sftpflow/errors"
	"sftpflow/runtime"
)

// DefaultCompletedTTL is how long a successfully completed record stays
// visible before it is removed automatically.
const DefaultCompletedTTL = 5 * time.Second

// QueueSnapshot aggregates the observable queue state for display bindings.
type QueueSnapshot struct {
	Records          []domain.TransferSnapshot
	ActiveCount      int
	HasActive        bool
	TotalBytes       int64
	TransferredBytes int64
	OverallPercent   float64
}

// TransferQueue owns the ordered record set and the single-worker drain loop.
// At most one transfer is in flight per queue: the remote session is one
// shared channel, and serializing keeps progress accounting simple.
//
// Collection mutation (insert/remove) is marshaled onto the dispatcher;
// per-record state is mutated by the executor from the drain goroutine.
type TransferQueue struct {
	executor    *TransferExecutor
	resume      *ResumeStateTracker
	dispatcher  *runtime.Dispatcher
	journal     contract.Journal
	log         *slog.Logger
	removeDelay time.Duration

	mu      sync.Mutex
	records []*domain.TransferRecord
	nextSeq uint64

	// gate admits one drain loop at a time; enqueues during a drain are
	// picked up by the running loop instead of starting a second one.
	gate    sync.Mutex
	baseCtx context.Context
	stop    context.CancelFunc
}

// NewTransferQueue builds an empty queue. journal may be nil when durability
// is not wanted (tests, throwaway sessions).
func NewTransferQueue(
	executor *TransferExecutor,
	resume *ResumeStateTracker,
	dispatcher *runtime.Dispatcher,
	journal contract.Journal,
	log *slog.Logger,
	removeDelay time.Duration,
) *TransferQueue {
	if removeDelay <= 0 {
		removeDelay = DefaultCompletedTTL
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TransferQueue{
		executor:    executor,
		resume:      resume,
		dispatcher:  dispatcher,
		journal:     journal,
		log:         log,
		removeDelay: removeDelay,
		baseCtx:     ctx,
		stop:        cancel,
	}
}

// Close stops the drain loop and waits for the in-flight transfer to settle.
func (q *TransferQueue) Close() {
	q.stop()
	q.gate.Lock()
	q.gate.Unlock()
}

// Enqueue inserts the record at the tail of the drain order and kicks the
// drain loop. It returns once the record is part of the collection, not once
// the transfer finishes.
func (q *TransferQueue) Enqueue(rec *domain.TransferRecord) {
	err := q.dispatcher.Invoke(func() {
		q.mu.Lock()
		q.nextSeq++
		rec.AssignSequence(q.nextSeq)
		q.records = append(q.records, rec)
		q.mu.Unlock()
	})
	if err != nil {
		q.log.Error("Enqueue dropped, dispatcher stopped", "id", rec.ID(), "file", rec.FileName())
		return
	}
	q.journalSave(rec)
	q.kick()
}

// kick starts a drain goroutine unless one is already running.
func (q *TransferQueue) kick() {
	if q.baseCtx.Err() != nil {
		return
	}
	if !q.gate.TryLock() {
		return
	}
	go func() {
		q.drain()
		q.gate.Unlock()
		// A record enqueued after the loop found nothing pending but before
		// the gate was released would otherwise wait for the next command.
		if q.hasPending() {
			q.kick()
		}
	}()
}

func (q *TransferQueue) drain() {
	for {
		if q.baseCtx.Err() != nil {
			return
		}
		rec := q.nextPending()
		if rec == nil {
			return
		}
		q.executor.Execute(q.baseCtx, rec)
		q.journalSave(rec)
		if rec.Status() == domain.StatusCompleted {
			q.scheduleRemoval(rec)
		}
	}
}

// nextPending returns the oldest Pending record, preserving enqueue order.
func (q *TransferQueue) nextPending() *domain.TransferRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, rec := range q.records {
		if rec.Status() == domain.StatusPending {
			return rec
		}
	}
	return nil
}

func (q *TransferQueue) hasPending() bool {
	return q.nextPending() != nil
}

// scheduleRemoval expires a completed record after the configured delay,
// unless it was mutated or removed in the meantime.
func (q *TransferQueue) scheduleRemoval(rec *domain.TransferRecord) {
	time.AfterFunc(q.removeDelay, func() {
		_ = q.dispatcher.Submit(func() {
			if rec.Status() != domain.StatusCompleted {
				return
			}
			q.removeByID(rec.ID())
		})
	})
}

func (q *TransferQueue) removeByID(id string) {
	q.mu.Lock()
	q.records = lo.Reject(q.records, func(r *domain.TransferRecord, _ int) bool {
		return r.ID() == id
	})
	q.mu.Unlock()
	q.journalRemove(id)
}

// Find returns the record with the given id.
func (q *TransferQueue) Find(id string) (*domain.TransferRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	rec, ok := lo.Find(q.records, func(r *domain.TransferRecord) bool { return r.ID() == id })
	if !ok {
		return nil, errors.ErrRecordNotFound
	}
	return rec, nil
}

// CancelOne cancels a single record: a Pending record settles directly, an
// InProgress one through its cancellation handle. Settled records are left
// alone.
func (q *TransferQueue) CancelOne(id string) error {
	rec, err := q.Find(id)
	if err != nil {
		return err
	}
	q.cancelRecord(rec)
	return nil
}

func (q *TransferQueue) cancelRecord(rec *domain.TransferRecord) {
	// The record decides Pending-vs-InProgress under its own lock; only a
	// directly settled record needs journaling here, an interrupted one is
	// journaled by the drain loop after the executor settles it.
	if rec.RequestCancel() {
		q.journalSave(rec)
	}
}

// CancelAll cancels every Pending and InProgress record. Records whose
// cancellation handle is already gone settle without error.
func (q *TransferQueue) CancelAll() {
	for _, rec := range q.list() {
		q.cancelRecord(rec)
	}
}

// Retry re-arms a Failed or Cancelled record from scratch (offset 0).
func (q *TransferQueue) Retry(id string) error {
	rec, err := q.Find(id)
	if err != nil {
		return err
	}
	if rec.Rearm(0) {
		q.journalSave(rec)
		q.kick()
	}
	return nil
}

// Resume re-arms a Failed or Cancelled record at whatever offset the
// destination currently holds, after recomputing eligibility.
func (q *TransferQueue) Resume(id string) error {
	rec, err := q.Find(id)
	if err != nil {
		return err
	}
	if rec.Status() != domain.StatusFailed && rec.Status() != domain.StatusCancelled {
		return nil
	}
	q.resume.Recompute(q.baseCtx, rec)
	if rec.Rearm(rec.ResumeOffset()) {
		q.journalSave(rec)
		q.kick()
	}
	return nil
}

// ClearCompleted removes every settled record (Completed, Failed, Cancelled).
func (q *TransferQueue) ClearCompleted() {
	_ = q.dispatcher.Submit(func() {
		q.mu.Lock()
		removed := lo.Filter(q.records, func(r *domain.TransferRecord, _ int) bool {
			return r.Status().Terminal()
		})
		q.records = lo.Reject(q.records, func(r *domain.TransferRecord, _ int) bool {
			return r.Status().Terminal()
		})
		q.mu.Unlock()
		for _, rec := range removed {
			q.journalRemove(rec.ID())
		}
	})
}

// ActiveCount counts records that are not settled yet.
func (q *TransferQueue) ActiveCount() int {
	return lo.CountBy(q.list(), func(r *domain.TransferRecord) bool {
		return !r.Status().Terminal()
	})
}

// HasActive reports whether any transfer is pending or running.
func (q *TransferQueue) HasActive() bool {
	return q.ActiveCount() > 0
}

// Snapshot copies the whole queue state for display.
func (q *TransferQueue) Snapshot() QueueSnapshot {
	snaps := lo.Map(q.list(), func(r *domain.TransferRecord, _ int) domain.TransferSnapshot {
		return r.Snapshot()
	})
	out := QueueSnapshot{Records: snaps}
	for _, s := range snaps {
		if !s.Status.Terminal() {
			out.ActiveCount++
		}
		out.TotalBytes += s.TotalBytes
		out.TransferredBytes += s.TransferredBytes
	}
	out.HasActive = out.ActiveCount > 0
	if out.TotalBytes > 0 {
		out.OverallPercent = float64(out.TransferredBytes) / float64(out.TotalBytes) * 100
	}
	return out
}

// RestoreFromJournal rebuilds records persisted by a previous run. Transfers
// that were in flight come back Pending; Failed and Cancelled keep their
// state (and their Retry/Resume affordances) with resume eligibility
// recomputed against the current destination. Completed leftovers are purged.
func (q *TransferQueue) RestoreFromJournal(ctx context.Context) (int, error) {
	if q.journal == nil {
		return 0, nil
	}
	snaps, err := q.journal.LoadAll()
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, snap := range snaps {
		if snap.Status == domain.StatusCompleted {
			q.journalRemove(snap.ID)
			continue
		}
		rec := domain.RestoreTransferRecord(snap)
		if rec.Status().Terminal() {
			q.resume.Recompute(ctx, rec)
		}
		err := q.dispatcher.Invoke(func() {
			q.mu.Lock()
			q.nextSeq++
			rec.AssignSequence(q.nextSeq)
			q.records = append(q.records, rec)
			q.mu.Unlock()
		})
		if err != nil {
			return restored, err
		}
		restored++
	}
	if restored > 0 {
		q.log.Info("Restored journaled transfers", "count", restored)
		q.kick()
	}
	return restored, nil
}

func (q *TransferQueue) list() []*domain.TransferRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*domain.TransferRecord, len(q.records))
	copy(out, q.records)
	return out
}

func (q *TransferQueue) journalSave(rec *domain.TransferRecord) {
	if q.journal == nil {
		return
	}
	if err := q.journal.Save(rec.Snapshot()); err != nil {
		q.log.Warn("Journal write failed", "id", rec.ID(), "error", err)
	}
}

func (q *TransferQueue) journalRemove(id string) {
	if q.journal == nil {
		return
	}
	if err := q.journal.Remove(id); err != nil {
		q.log.Warn("Journal delete failed", "id", id, "error", err)
	}
}
