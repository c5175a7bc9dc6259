package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"sftpflow/contract"
	"sftpflow/domain"
	"sftpflow/errors"
	"sftpflow/mocks"
	"sftpflow/runtime"
)

type queueHarness struct {
	queue   *TransferQueue
	session *mocks.MockRemoteSession
}

func newQueueHarness(t *testing.T, removeDelay time.Duration) *queueHarness {
	t.Helper()
	ctrl := gomock.NewController(t)
	session := mocks.NewMockRemoteSession(ctrl)
	log := discardLogger()

	dispatcher := runtime.NewDispatcher(log, 64)
	ctx, cancel := context.WithCancel(context.Background())
	go dispatcher.Run(ctx)

	tracker := NewResumeStateTracker(session, log)
	executor := NewTransferExecutor(session, tracker, nil, log)
	queue := NewTransferQueue(executor, tracker, dispatcher, nil, log, removeDelay)

	t.Cleanup(func() {
		queue.Close()
		cancel()
	})
	return &queueHarness{queue: queue, session: session}
}

func waitSettled(t *testing.T, q *TransferQueue) {
	t.Helper()
	require.Eventually(t, func() bool { return !q.HasActive() }, 5*time.Second, 10*time.Millisecond)
}

func TestTransferQueue_DrainsInEnqueueOrderOneAtATime(t *testing.T) {
	req := require.New(t)
	h := newQueueHarness(t, time.Minute)

	var mu sync.Mutex
	var order []string
	var inFlight, maxInFlight int32

	h.session.EXPECT().
		Upload(gomock.Any(), gomock.Any(), gomock.Any(), int64(0), gomock.Any()).
		DoAndReturn(func(_ context.Context, localPath, _ string, _ int64, _ contract.ProgressFunc) error {
			cur := atomic.AddInt32(&inFlight, 1)
			for {
				prev := atomic.LoadInt32(&maxInFlight)
				if cur <= prev || atomic.CompareAndSwapInt32(&maxInFlight, prev, cur) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			mu.Lock()
			order = append(order, filepath.Base(localPath))
			mu.Unlock()
			atomic.AddInt32(&inFlight, -1)
			return nil
		}).
		Times(3)

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		h.queue.Enqueue(domain.NewTransferRecord(domain.Upload, "/tmp/"+name, "/dest/"+name, 10, 0))
	}
	waitSettled(t, h.queue)

	mu.Lock()
	defer mu.Unlock()
	req.Equal([]string{"a.txt", "b.txt", "c.txt"}, order)
	req.Equal(int32(1), atomic.LoadInt32(&maxInFlight), "exactly one transfer in flight")
}

func TestTransferQueue_FailureDoesNotStopTheDrain(t *testing.T) {
	req := require.New(t)
	h := newQueueHarness(t, time.Minute)

	h.session.EXPECT().
		Upload(gomock.Any(), "/tmp/bad.txt", gomock.Any(), int64(0), gomock.Any()).
		Return(fmt.Errorf("permission denied"))
	h.session.EXPECT().
		Stat(gomock.Any(), "/dest/bad.txt").
		Return(contract.RemoteFileInfo{}, fmt.Errorf("stat failed"))
	h.session.EXPECT().
		Upload(gomock.Any(), "/tmp/good.txt", gomock.Any(), int64(0), gomock.Any()).
		Return(nil)

	bad := domain.NewTransferRecord(domain.Upload, "/tmp/bad.txt", "/dest/bad.txt", 10, 0)
	good := domain.NewTransferRecord(domain.Upload, "/tmp/good.txt", "/dest/good.txt", 10, 0)
	h.queue.Enqueue(bad)
	h.queue.Enqueue(good)
	waitSettled(t, h.queue)

	req.Equal(domain.StatusFailed, bad.Status())
	req.Contains(bad.Snapshot().ErrorMessage, "permission denied")
	req.Equal(domain.StatusCompleted, good.Status())
}

func TestTransferQueue_CancelAll(t *testing.T) {
	req := require.New(t)
	h := newQueueHarness(t, time.Minute)

	h.session.EXPECT().
		Download(gomock.Any(), "/remote/slow.bin", gomock.Any(), int64(0), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _ string, _ int64, _ contract.ProgressFunc) error {
			<-ctx.Done()
			return ctx.Err()
		})

	running := domain.NewTransferRecord(domain.Download, "/tmp/nope/slow.bin", "/remote/slow.bin", 100, 0)
	waiting := domain.NewTransferRecord(domain.Download, "/tmp/nope/later.bin", "/remote/later.bin", 100, 0)
	h.queue.Enqueue(running)
	h.queue.Enqueue(waiting)

	require.Eventually(t, func() bool { return running.Status() == domain.StatusInProgress },
		5*time.Second, 10*time.Millisecond)

	req.NotPanics(h.queue.CancelAll)
	waitSettled(t, h.queue)

	req.Equal(domain.StatusCancelled, running.Status())
	req.Equal(domain.StatusCancelled, waiting.Status())

	// Settled records have disposed handles; a second sweep must be harmless.
	req.NotPanics(h.queue.CancelAll)
}

func TestTransferQueue_RetryRunsAgainFromScratch(t *testing.T) {
	req := require.New(t)
	h := newQueueHarness(t, time.Minute)

	first := h.session.EXPECT().
		Upload(gomock.Any(), "/tmp/r.txt", "/dest/r.txt", int64(0), gomock.Any()).
		Return(fmt.Errorf("broken pipe"))
	h.session.EXPECT().
		Stat(gomock.Any(), "/dest/r.txt").
		Return(contract.RemoteFileInfo{}, fmt.Errorf("gone")).
		AnyTimes()
	h.session.EXPECT().
		Upload(gomock.Any(), "/tmp/r.txt", "/dest/r.txt", int64(0), gomock.Any()).
		Return(nil).
		After(first)

	rec := domain.NewTransferRecord(domain.Upload, "/tmp/r.txt", "/dest/r.txt", 10, 0)
	h.queue.Enqueue(rec)
	waitSettled(t, h.queue)
	req.Equal(domain.StatusFailed, rec.Status())

	req.NoError(h.queue.Retry(rec.ID()))
	waitSettled(t, h.queue)
	req.Equal(domain.StatusCompleted, rec.Status())
}

func TestTransferQueue_ResumeContinuesAtDestinationSize(t *testing.T) {
	req := require.New(t)
	h := newQueueHarness(t, time.Minute)

	dir := t.TempDir()
	localPath := filepath.Join(dir, "part.bin")

	h.session.EXPECT().
		Download(gomock.Any(), "/remote/part.bin", localPath, int64(0), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, local string, _ int64, _ contract.ProgressFunc) error {
			// Half the file made it to disk before the connection dropped.
			if err := writeBytes(local, 500); err != nil {
				return err
			}
			return fmt.Errorf("connection reset by peer")
		})
	h.session.EXPECT().
		Download(gomock.Any(), "/remote/part.bin", localPath, int64(500), gomock.Any()).
		Return(nil)

	rec := domain.NewTransferRecord(domain.Download, localPath, "/remote/part.bin", 1000, 0)
	h.queue.Enqueue(rec)
	waitSettled(t, h.queue)

	snap := rec.Snapshot()
	req.Equal(domain.StatusFailed, snap.Status)
	req.True(snap.CanResume)
	req.Equal(int64(500), snap.ResumeOffset)

	req.NoError(h.queue.Resume(rec.ID()))
	waitSettled(t, h.queue)
	req.Equal(domain.StatusCompleted, rec.Status())
	req.Equal(int64(1000), rec.Snapshot().TransferredBytes)
}

func TestTransferQueue_CompletedRecordsExpire(t *testing.T) {
	req := require.New(t)
	h := newQueueHarness(t, 50*time.Millisecond)

	h.session.EXPECT().
		Upload(gomock.Any(), gomock.Any(), gomock.Any(), int64(0), gomock.Any()).
		Return(nil)

	rec := domain.NewTransferRecord(domain.Upload, "/tmp/x.txt", "/dest/x.txt", 10, 0)
	h.queue.Enqueue(rec)
	waitSettled(t, h.queue)
	req.Equal(domain.StatusCompleted, rec.Status())

	require.Eventually(t, func() bool { return len(h.queue.Snapshot().Records) == 0 },
		5*time.Second, 10*time.Millisecond)
}

func TestTransferQueue_ClearCompleted(t *testing.T) {
	req := require.New(t)
	h := newQueueHarness(t, time.Minute)

	h.session.EXPECT().
		Upload(gomock.Any(), "/tmp/ok.txt", gomock.Any(), int64(0), gomock.Any()).
		Return(nil)
	h.session.EXPECT().
		Upload(gomock.Any(), "/tmp/bad.txt", gomock.Any(), int64(0), gomock.Any()).
		Return(fmt.Errorf("nope"))
	h.session.EXPECT().
		Stat(gomock.Any(), gomock.Any()).
		Return(contract.RemoteFileInfo{}, fmt.Errorf("gone")).
		AnyTimes()

	h.queue.Enqueue(domain.NewTransferRecord(domain.Upload, "/tmp/ok.txt", "/dest/ok.txt", 10, 0))
	h.queue.Enqueue(domain.NewTransferRecord(domain.Upload, "/tmp/bad.txt", "/dest/bad.txt", 10, 0))
	waitSettled(t, h.queue)

	req.Len(h.queue.Snapshot().Records, 2)
	h.queue.ClearCompleted()
	require.Eventually(t, func() bool { return len(h.queue.Snapshot().Records) == 0 },
		5*time.Second, 10*time.Millisecond)
}

func TestTransferQueue_RestoreFromJournal(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	session := mocks.NewMockRemoteSession(ctrl)
	journal := mocks.NewMockJournal(ctrl)
	log := discardLogger()

	dispatcher := runtime.NewDispatcher(log, 64)
	ctx, cancel := context.WithCancel(context.Background())
	go dispatcher.Run(ctx)
	defer cancel()

	tracker := NewResumeStateTracker(session, log)
	executor := NewTransferExecutor(session, tracker, nil, log)
	queue := NewTransferQueue(executor, tracker, dispatcher, journal, log, time.Minute)
	defer queue.Close()

	partialPath := filepath.Join(t.TempDir(), "part.bin")
	req.NoError(writeBytes(partialPath, 300))

	inFlight := domain.TransferSnapshot{
		ID: "id-run", Seq: 7, FileName: "run.txt",
		LocalPath: "/tmp/run.txt", RemotePath: "/dest/run.txt",
		Direction: domain.Upload, TotalBytes: 100, TransferredBytes: 40,
		Status: domain.StatusInProgress, EnqueuedAt: time.Now(),
	}
	failed := domain.TransferSnapshot{
		ID: "id-fail", Seq: 8, FileName: "part.bin",
		LocalPath: partialPath, RemotePath: "/remote/part.bin",
		Direction: domain.Download, TotalBytes: 1000, TransferredBytes: 0,
		Status: domain.StatusFailed, ErrorMessage: "connection reset",
		EnqueuedAt: time.Now(),
	}
	leftover := domain.TransferSnapshot{
		ID: "id-done", Seq: 9, FileName: "done.txt",
		LocalPath: "/tmp/done.txt", RemotePath: "/dest/done.txt",
		Direction: domain.Upload, TotalBytes: 50, TransferredBytes: 50,
		Status: domain.StatusCompleted, EnqueuedAt: time.Now(),
	}

	journal.EXPECT().LoadAll().Return([]domain.TransferSnapshot{inFlight, failed, leftover}, nil)
	journal.EXPECT().Remove("id-done").Return(nil)
	journal.EXPECT().Save(gomock.Any()).Return(nil).AnyTimes()

	// The interrupted upload comes back Pending and re-drains from scratch.
	session.EXPECT().
		Upload(gomock.Any(), "/tmp/run.txt", "/dest/run.txt", int64(0), gomock.Any()).
		Return(nil)

	restored, err := queue.RestoreFromJournal(ctx)
	req.NoError(err)
	req.Equal(2, restored, "completed leftovers are purged, not restored")
	waitSettled(t, queue)

	_, err = queue.Find("id-done")
	req.ErrorIs(err, errors.ErrRecordNotFound)

	run, err := queue.Find("id-run")
	req.NoError(err)
	req.Equal(domain.StatusCompleted, run.Status())

	fail, err := queue.Find("id-fail")
	req.NoError(err)
	failSnap := fail.Snapshot()
	req.Equal(domain.StatusFailed, failSnap.Status)
	req.Equal("connection reset", failSnap.ErrorMessage)
	req.True(failSnap.CanResume, "eligibility recomputed against the partial file")
	req.Equal(int64(300), failSnap.ResumeOffset)

	// Sequences are reassigned in journal order.
	snaps := queue.Snapshot().Records
	req.Len(snaps, 2)
	req.Equal("id-run", snaps[0].ID)
	req.Equal("id-fail", snaps[1].ID)
	req.Less(snaps[0].Seq, snaps[1].Seq)
}

func TestTransferQueue_CancelOneUnknownID(t *testing.T) {
	h := newQueueHarness(t, time.Minute)
	require.Error(t, h.queue.CancelOne("no-such-id"))
}

func writeBytes(path string, n int) error {
	return os.WriteFile(path, make([]byte, n), 0o644)
}
