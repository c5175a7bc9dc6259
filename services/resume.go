package services

import (
	"context"
	"log/slog"
	"os"

	"sftpflow/contract"
	"sftpflow/domain"
)

// ResumeStateTracker decides whether a settled transfer can pick up where the
// destination left off, by probing what is actually on disk on either side.
type ResumeStateTracker struct {
	session contract.RemoteSession
	log     *slog.Logger
}

func NewResumeStateTracker(session contract.RemoteSession, log *slog.Logger) *ResumeStateTracker {
	return &ResumeStateTracker{session: session, log: log}
}

// Recompute re-evaluates resume eligibility after a transfer settles.
// An unknown total size means nothing can be resumed; a destination probe
// failure counts as an empty destination.
func (t *ResumeStateTracker) Recompute(ctx context.Context, rec *domain.TransferRecord) {
	total := rec.TotalBytes()
	if total <= 0 {
		rec.SetResumeState(false, 0)
		return
	}
	existing := t.destinationSize(ctx, rec)
	if domain.CanResumeTransfer(existing, total) {
		rec.SetResumeState(true, existing)
		return
	}
	rec.SetResumeState(false, 0)
}

// destinationSize probes the current byte count at the transfer destination:
// remote stat for uploads, local stat for downloads. Any error maps to 0.
func (t *ResumeStateTracker) destinationSize(ctx context.Context, rec *domain.TransferRecord) int64 {
	if rec.Direction() == domain.Upload {
		info, err := t.session.Stat(ctx, rec.RemotePath())
		if err != nil {
			return 0
		}
		return info.Size
	}
	fi, err := os.Stat(rec.LocalPath())
	if err != nil {
		return 0
	}
	return fi.Size()
}
