package domain

import (
	"context"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"sftpflow/progress"
)

// Direction tells which way the bytes move.
type Direction int

const (
	Upload Direction = iota
	Download
)

func (d Direction) String() string {
	if d == Upload {
		return "upload"
	}
	return "download"
}

// TransferStatus is the lifecycle state of one record.
// Transitions are monotonic: Pending -> InProgress -> {Completed|Failed|Cancelled}.
// Failed and Cancelled can be re-armed back to Pending; Completed cannot.
type TransferStatus int

const (
	StatusPending TransferStatus = iota
	StatusInProgress
	StatusCompleted
	StatusFailed
	StatusCancelled
)

func (s TransferStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in-progress"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is a settled end state.
func (s TransferStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// TransferSnapshot is an immutable copy of a record's observable state,
// delivered to subscribers and rendered by the UI layer.
type TransferSnapshot struct {
	ID               string
	Seq              uint64
	FileName         string
	LocalPath        string
	RemotePath       string
	Direction        Direction
	MimeType         string
	TotalBytes       int64
	TransferredBytes int64
	ResumeOffset     int64
	Status           TransferStatus
	ErrorMessage     string
	CanResume        bool
	Percent          float64
	BytesPerSec      float64
	ETA              time.Duration
	EnqueuedAt       time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
}

// TransferRecord tracks one upload or download. Identity and paths are fixed
// at creation; everything else is mutated by the queue and the executor only.
// Observers read through Snapshot or Subscribe, never through shared state.
type TransferRecord struct {
	id         string
	fileName   string
	localPath  string
	remotePath string
	direction  Direction
	enqueuedAt time.Time

	mu          sync.Mutex
	seq         uint64
	mimeType    string
	totalBytes  int64
	transferred int64
	offset      int64
	status      TransferStatus
	errMsg      string
	canResume   bool
	startedAt   *time.Time
	completedAt *time.Time
	cancel      context.CancelFunc
	meter       *progress.Meter
	subs        map[int]func(TransferSnapshot)
	nextSub     int
}

// NewTransferRecord builds a Pending record. The display name is the base of
// the source path: local for uploads, remote for downloads.
func NewTransferRecord(direction Direction, localPath, remotePath string, totalBytes, resumeOffset int64) *TransferRecord {
	name := path.Base(remotePath)
	if direction == Upload {
		name = filepath.Base(localPath)
	}
	return &TransferRecord{
		id:          uuid.NewString(),
		fileName:    name,
		localPath:   localPath,
		remotePath:  remotePath,
		direction:   direction,
		enqueuedAt:  time.Now(),
		totalBytes:  totalBytes,
		transferred: resumeOffset,
		offset:      resumeOffset,
		canResume:   resumeOffset > 0,
		status:      StatusPending,
		meter:       progress.NewMeter(),
		subs:        make(map[int]func(TransferSnapshot)),
	}
}

func (r *TransferRecord) ID() string           { return r.id }
func (r *TransferRecord) FileName() string     { return r.fileName }
func (r *TransferRecord) LocalPath() string    { return r.localPath }
func (r *TransferRecord) RemotePath() string   { return r.remotePath }
func (r *TransferRecord) Direction() Direction { return r.direction }

// AssignSequence fixes the record's place in the drain order. Called once by
// the queue when the record is inserted.
func (r *TransferRecord) AssignSequence(seq uint64) {
	r.mu.Lock()
	r.seq = seq
	r.mu.Unlock()
}

// SetMimeType attaches display metadata probed from the source file.
func (r *TransferRecord) SetMimeType(mime string) {
	r.mu.Lock()
	r.mimeType = mime
	r.mu.Unlock()
}

func (r *TransferRecord) Status() TransferStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *TransferRecord) ResumeOffset() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.offset
}

func (r *TransferRecord) TotalBytes() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalBytes
}

// Snapshot returns a copy of the observable state.
func (r *TransferRecord) Snapshot() TransferSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Subscribe registers a change listener and returns its removal func.
// Listeners receive a snapshot after every mutation; they are invoked outside
// the record lock and may come from background goroutines, so implementations
// must hand the snapshot to their own context (see runtime.Dispatcher).
func (r *TransferRecord) Subscribe(fn func(TransferSnapshot)) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Begin moves Pending -> InProgress and arms the cancellation handle.
// Progress is pre-seeded with the resume offset so the displayed percentage
// does not drop back to zero on a resumed transfer.
func (r *TransferRecord) Begin(cancel context.CancelFunc) bool {
	r.mu.Lock()
	if r.status != StatusPending {
		r.mu.Unlock()
		return false
	}
	now := time.Now()
	r.status = StatusInProgress
	r.startedAt = &now
	r.completedAt = nil
	r.errMsg = ""
	r.transferred = r.offset
	r.cancel = cancel
	r.meter.Reset(r.totalBytes, r.offset)
	r.notify(r.unlockWithSnapshot())
	return true
}

// UpdateTransferred records absolute progress, clamped to the invariant
// resumeOffset <= transferred <= totalBytes (when the total is known).
func (r *TransferRecord) UpdateTransferred(transferred int64) {
	r.mu.Lock()
	if r.status != StatusInProgress {
		r.mu.Unlock()
		return
	}
	if transferred < r.offset {
		transferred = r.offset
	}
	if r.totalBytes > 0 && transferred > r.totalBytes {
		transferred = r.totalBytes
	}
	r.transferred = transferred
	r.meter.Observe(transferred)
	r.notify(r.unlockWithSnapshot())
}

// Complete settles the record successfully and drops the cancellation handle.
func (r *TransferRecord) Complete() bool {
	r.mu.Lock()
	if r.status != StatusInProgress {
		r.mu.Unlock()
		return false
	}
	now := time.Now()
	r.status = StatusCompleted
	r.transferred = r.totalBytes
	r.canResume = false
	r.completedAt = &now
	r.cancel = nil
	r.notify(r.unlockWithSnapshot())
	return true
}

// MarkFailed settles the record with an error message.
func (r *TransferRecord) MarkFailed(msg string) bool {
	r.mu.Lock()
	if r.status != StatusInProgress {
		r.mu.Unlock()
		return false
	}
	now := time.Now()
	r.status = StatusFailed
	r.errMsg = msg
	r.completedAt = &now
	r.cancel = nil
	r.notify(r.unlockWithSnapshot())
	return true
}

// MarkCancelled settles a Pending or InProgress record as Cancelled.
// Cancellation carries no error message.
func (r *TransferRecord) MarkCancelled() bool {
	r.mu.Lock()
	if r.status != StatusPending && r.status != StatusInProgress {
		r.mu.Unlock()
		return false
	}
	now := time.Now()
	r.status = StatusCancelled
	r.completedAt = &now
	r.cancel = nil
	r.notify(r.unlockWithSnapshot())
	return true
}

// Cancel fires the cancellation handle if one is armed. Calling it on a
// settled record, or more than once, is a safe no-op: settling clears the
// handle under the same lock that guards the status transition.
func (r *TransferRecord) Cancel() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// RequestCancel cancels the record whatever stage it is in, deciding under
// the record lock so the drain loop cannot slip a Pending record into
// InProgress between the check and the act. A Pending record settles
// Cancelled directly (returns true); an InProgress one has its armed handle
// fired and settles through the executor; settled records are untouched.
func (r *TransferRecord) RequestCancel() bool {
	r.mu.Lock()
	switch r.status {
	case StatusPending:
		now := time.Now()
		r.status = StatusCancelled
		r.completedAt = &now
		r.cancel = nil
		r.notify(r.unlockWithSnapshot())
		return true
	case StatusInProgress:
		cancel := r.cancel
		r.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return false
	default:
		r.mu.Unlock()
		return false
	}
}

// Rearm moves a Failed or Cancelled record back to Pending at the given
// offset. Retry passes 0; Resume passes the recomputed destination size.
func (r *TransferRecord) Rearm(offset int64) bool {
	r.mu.Lock()
	if r.status != StatusFailed && r.status != StatusCancelled {
		r.mu.Unlock()
		return false
	}
	r.status = StatusPending
	r.offset = offset
	r.transferred = offset
	r.canResume = offset > 0
	r.errMsg = ""
	r.startedAt = nil
	r.completedAt = nil
	r.notify(r.unlockWithSnapshot())
	return true
}

// SetResumeState applies a recomputed resume eligibility, realigning the
// transferred counter with what is actually present at the destination.
func (r *TransferRecord) SetResumeState(canResume bool, offset int64) {
	r.mu.Lock()
	r.canResume = canResume
	r.offset = offset
	r.transferred = offset
	r.notify(r.unlockWithSnapshot())
}

// RestoreTransferRecord rebuilds a journaled record from a previous run.
// A transfer that was in flight when the process stopped comes back Pending;
// terminal states are preserved so their Retry/Resume affordances survive.
func RestoreTransferRecord(snap TransferSnapshot) *TransferRecord {
	status := snap.Status
	if status == StatusInProgress {
		status = StatusPending
	}
	r := &TransferRecord{
		id:          snap.ID,
		fileName:    snap.FileName,
		localPath:   snap.LocalPath,
		remotePath:  snap.RemotePath,
		direction:   snap.Direction,
		enqueuedAt:  snap.EnqueuedAt,
		mimeType:    snap.MimeType,
		totalBytes:  snap.TotalBytes,
		transferred: snap.TransferredBytes,
		offset:      snap.ResumeOffset,
		status:      status,
		errMsg:      snap.ErrorMessage,
		canResume:   snap.CanResume,
		meter:       progress.NewMeter(),
		subs:        make(map[int]func(TransferSnapshot)),
	}
	if status == StatusPending {
		r.transferred = r.offset
		r.errMsg = ""
	}
	if status.Terminal() && snap.CompletedAt != nil {
		t := *snap.CompletedAt
		r.completedAt = &t
	}
	return r
}

// unlockWithSnapshot captures the snapshot and subscriber list, releases the
// lock and returns both; mutations call notify with the result so listeners
// never run under the record lock.
func (r *TransferRecord) unlockWithSnapshot() (TransferSnapshot, []func(TransferSnapshot)) {
	snap := r.snapshotLocked()
	subs := make([]func(TransferSnapshot), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()
	return snap, subs
}

func (r *TransferRecord) notify(snap TransferSnapshot, subs []func(TransferSnapshot)) {
	for _, fn := range subs {
		fn(snap)
	}
}

func (r *TransferRecord) snapshotLocked() TransferSnapshot {
	rate := r.meter.Current()
	snap := TransferSnapshot{
		ID:               r.id,
		Seq:              r.seq,
		FileName:         r.fileName,
		LocalPath:        r.localPath,
		RemotePath:       r.remotePath,
		Direction:        r.direction,
		MimeType:         r.mimeType,
		TotalBytes:       r.totalBytes,
		TransferredBytes: r.transferred,
		ResumeOffset:     r.offset,
		Status:           r.status,
		ErrorMessage:     r.errMsg,
		CanResume:        r.canResume,
		BytesPerSec:      rate.BytesPerSec,
		ETA:              rate.ETA,
		EnqueuedAt:       r.enqueuedAt,
	}
	if r.startedAt != nil {
		t := *r.startedAt
		snap.StartedAt = &t
	}
	if r.completedAt != nil {
		t := *r.completedAt
		snap.CompletedAt = &t
	}
	if r.totalBytes > 0 {
		snap.Percent = float64(r.transferred) / float64(r.totalBytes) * 100
		if snap.Percent > 100 {
			snap.Percent = 100
		}
	}
	if r.status == StatusCompleted {
		snap.Percent = 100
	}
	return snap
}
