package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"sftpflow/contract"
	"sftpflow/domain"
	"sftpflow/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTransferExecutor_Execute(t *testing.T) {
	req := require.New(t)

	t.Run("successful upload settles completed and refreshes the remote pane", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		session := mocks.NewMockRemoteSession(ctrl)
		refresher := mocks.NewMockBrowserRefresher(ctrl)
		executor := NewTransferExecutor(session, NewResumeStateTracker(session, discardLogger()), refresher, discardLogger())

		rec := domain.NewTransferRecord(domain.Upload, "/tmp/a.txt", "/home/user/a.txt", 1000, 0)

		session.EXPECT().
			Upload(gomock.Any(), "/tmp/a.txt", "/home/user/a.txt", int64(0), gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ string, _ int64, onProgress contract.ProgressFunc) error {
				onProgress(400)
				onProgress(1000)
				return nil
			})
		refresher.EXPECT().RefreshRemote()

		executor.Execute(context.Background(), rec)

		snap := rec.Snapshot()
		req.Equal(domain.StatusCompleted, snap.Status)
		req.Equal(int64(1000), snap.TransferredBytes)
		req.Equal(100.0, snap.Percent)
		req.False(snap.CanResume)
	})

	t.Run("resumed transfer starts at the offset without resetting progress", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		session := mocks.NewMockRemoteSession(ctrl)
		refresher := mocks.NewMockBrowserRefresher(ctrl)
		executor := NewTransferExecutor(session, NewResumeStateTracker(session, discardLogger()), refresher, discardLogger())

		rec := domain.NewTransferRecord(domain.Upload, "/tmp/b.txt", "/home/user/b.txt", 1000, 600)

		var observed []int64
		rec.Subscribe(func(snap domain.TransferSnapshot) {
			observed = append(observed, snap.TransferredBytes)
		})

		session.EXPECT().
			Upload(gomock.Any(), "/tmp/b.txt", "/home/user/b.txt", int64(600), gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ string, _ int64, onProgress contract.ProgressFunc) error {
				onProgress(800)
				return nil
			})
		refresher.EXPECT().RefreshRemote()

		executor.Execute(context.Background(), rec)

		// Progress never dipped below the pre-seeded offset.
		for _, b := range observed {
			req.GreaterOrEqual(b, int64(600))
		}
		req.Equal(domain.StatusCompleted, rec.Status())
	})

	t.Run("failed download captures the error and recomputes resume state", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		dir := t.TempDir()
		localPath := filepath.Join(dir, "c.bin")
		req.NoError(os.WriteFile(localPath, make([]byte, 300), 0o644))

		session := mocks.NewMockRemoteSession(ctrl)
		refresher := mocks.NewMockBrowserRefresher(ctrl)
		executor := NewTransferExecutor(session, NewResumeStateTracker(session, discardLogger()), refresher, discardLogger())

		rec := domain.NewTransferRecord(domain.Download, localPath, "/remote/c.bin", 1000, 0)

		session.EXPECT().
			Download(gomock.Any(), "/remote/c.bin", localPath, int64(0), gomock.Any()).
			Return(fmt.Errorf("connection reset by peer"))

		executor.Execute(context.Background(), rec)

		snap := rec.Snapshot()
		req.Equal(domain.StatusFailed, snap.Status)
		req.Contains(snap.ErrorMessage, "connection reset")
		req.True(snap.CanResume, "300 partial bytes on disk should be resumable")
		req.Equal(int64(300), snap.ResumeOffset)
	})

	t.Run("cancellation settles cancelled without an error message", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		session := mocks.NewMockRemoteSession(ctrl)
		refresher := mocks.NewMockBrowserRefresher(ctrl)
		executor := NewTransferExecutor(session, NewResumeStateTracker(session, discardLogger()), refresher, discardLogger())

		rec := domain.NewTransferRecord(domain.Download, "/tmp/missing/d.bin", "/remote/d.bin", 1000, 0)

		session.EXPECT().
			Download(gomock.Any(), "/remote/d.bin", "/tmp/missing/d.bin", int64(0), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _, _ string, _ int64, _ contract.ProgressFunc) error {
				rec.Cancel()
				return ctx.Err()
			})

		executor.Execute(context.Background(), rec)

		snap := rec.Snapshot()
		req.Equal(domain.StatusCancelled, snap.Status)
		req.Empty(snap.ErrorMessage)
		req.False(snap.CanResume, "no partial destination file exists")

		req.NotPanics(rec.Cancel, "late cancel against the disposed handle")
	})

	t.Run("upload failure probes the remote side for resume", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		session := mocks.NewMockRemoteSession(ctrl)
		refresher := mocks.NewMockBrowserRefresher(ctrl)
		executor := NewTransferExecutor(session, NewResumeStateTracker(session, discardLogger()), refresher, discardLogger())

		rec := domain.NewTransferRecord(domain.Upload, "/tmp/e.bin", "/remote/e.bin", 1000, 0)

		session.EXPECT().
			Upload(gomock.Any(), "/tmp/e.bin", "/remote/e.bin", int64(0), gomock.Any()).
			Return(fmt.Errorf("broken pipe"))
		session.EXPECT().
			Stat(gomock.Any(), "/remote/e.bin").
			Return(contract.RemoteFileInfo{Size: 450}, nil)

		executor.Execute(context.Background(), rec)

		snap := rec.Snapshot()
		req.Equal(domain.StatusFailed, snap.Status)
		req.True(snap.CanResume)
		req.Equal(int64(450), snap.ResumeOffset)
	})
}
