package services

import (
	"context"
	"errors"
	"log/slog"

	"sftpflow/contract"
	"sftpflow/domain"
)

// TransferExecutor drives exactly one record from Pending to a settled state
// against the remote session. Every transfer-level error is captured on the
// record; Execute itself never fails, so a bad transfer cannot stop the
// queue's drain loop.
type TransferExecutor struct {
	session   contract.RemoteSession
	resume    *ResumeStateTracker
	refresher contract.BrowserRefresher
	log       *slog.Logger
}

func NewTransferExecutor(
	session contract.RemoteSession,
	resume *ResumeStateTracker,
	refresher contract.BrowserRefresher,
	log *slog.Logger,
) *TransferExecutor {
	return &TransferExecutor{
		session:   session,
		resume:    resume,
		refresher: refresher,
		log:       log,
	}
}

// Execute runs the record's transfer to completion, cancellation or failure.
// The cancellation handle armed on the record is scoped to this call and
// cleared when the record settles; a Cancel issued afterwards is a no-op.
func (e *TransferExecutor) Execute(ctx context.Context, rec *domain.TransferRecord) {
	transferCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !rec.Begin(cancel) {
		return
	}

	offset := rec.ResumeOffset()
	e.log.Debug("Transfer started",
		"id", rec.ID(), "direction", rec.Direction().String(),
		"file", rec.FileName(), "resume_offset", offset)

	onProgress := func(transferred int64) {
		rec.UpdateTransferred(transferred)
	}

	var err error
	if rec.Direction() == domain.Upload {
		err = e.session.Upload(transferCtx, rec.LocalPath(), rec.RemotePath(), offset, onProgress)
	} else {
		err = e.session.Download(transferCtx, rec.RemotePath(), rec.LocalPath(), offset, onProgress)
	}

	switch {
	case err == nil:
		rec.Complete()
		e.log.Info("Transfer completed", "id", rec.ID(), "file", rec.FileName())
		e.notifyRefresh(rec)
	case errors.Is(err, context.Canceled) || transferCtx.Err() != nil:
		rec.MarkCancelled()
		e.log.Info("Transfer cancelled", "id", rec.ID(), "file", rec.FileName())
		e.resume.Recompute(ctx, rec)
	default:
		rec.MarkFailed(err.Error())
		e.log.Warn("Transfer failed", "id", rec.ID(), "file", rec.FileName(), "error", err)
		e.resume.Recompute(ctx, rec)
	}
}

func (e *TransferExecutor) notifyRefresh(rec *domain.TransferRecord) {
	if e.refresher == nil {
		return
	}
	if rec.Direction() == domain.Upload {
		e.refresher.RefreshRemote()
		return
	}
	e.refresher.RefreshLocal()
}
