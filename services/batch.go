package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shirou/gopsutil/disk"

	"sftpflow/contract"
	"sftpflow/domain"
	"sftpflow/errors"
)

// BatchCoordinator expands a list of selected sources into transfer records,
// resolving destination conflicts one at a time (the resolver usually fronts
// an interactive prompt) and feeding accepted records into the queue.
//
// Both entry points return once every pair is classified or the batch is
// aborted — not once the transfers finish.
type BatchCoordinator struct {
	queue   contract.Enqueuer
	session contract.RemoteSession
	log     *slog.Logger

	mu       sync.Mutex
	override *domain.ConflictDecision

	// freeBytes is swappable in tests; defaults to the destination volume's
	// free space.
	freeBytes func(dir string) (uint64, error)
}

func NewBatchCoordinator(queue contract.Enqueuer, session contract.RemoteSession, log *slog.Logger) *BatchCoordinator {
	return &BatchCoordinator{
		queue:   queue,
		session: session,
		log:     log,
		freeBytes: func(dir string) (uint64, error) {
			usage, err := disk.Usage(dir)
			if err != nil {
				return 0, err
			}
			return usage.Free, nil
		},
	}
}

// SetApplyToAllResolution stages a batch-wide decision: the next batch uses
// it for every conflict without consulting the resolver. The override is
// consumed at batch start and never leaks across batches.
func (c *BatchCoordinator) SetApplyToAllResolution(decision *domain.ConflictDecision) {
	c.mu.Lock()
	c.override = decision
	c.mu.Unlock()
}

func (c *BatchCoordinator) takeOverride() *domain.ConflictDecision {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.override
	c.override = nil
	return d
}

// UploadFiles classifies localPaths for upload into remoteDestDir and
// enqueues the accepted ones. It returns the number of records enqueued.
// A nil resolver answer aborts the remaining classification; already
// enqueued pairs are unaffected.
func (c *BatchCoordinator) UploadFiles(
	ctx context.Context,
	localPaths []string,
	remoteDestDir string,
	resolve contract.ConflictResolver,
) (int, error) {
	override := c.takeOverride()
	defer c.SetApplyToAllResolution(nil)

	enqueued := 0
	for _, localPath := range localPaths {
		fi, err := os.Stat(localPath)
		if err != nil || fi.IsDir() {
			c.log.Warn("Skipping inaccessible upload source", "path", localPath, "error", err)
			continue
		}
		totalSize := fi.Size()
		remotePath := joinRemote(remoteDestDir, filepath.Base(localPath))

		existingSize, exists := c.remoteSize(ctx, remotePath)
		if !exists {
			c.enqueueUpload(localPath, remotePath, totalSize, 0)
			enqueued++
			continue
		}

		decision := override
		if decision == nil {
			decision = resolve(domain.ConflictRequest{
				LocalPath:    localPath,
				RemotePath:   remotePath,
				ExistingSize: existingSize,
				TotalSize:    totalSize,
				CanResume:    domain.CanResumeTransfer(existingSize, totalSize),
			})
			if decision == nil {
				c.log.Debug("Upload batch aborted by resolver", "at", localPath)
				return enqueued, nil
			}
			if decision.ApplyToAll {
				override = decision
			}
		}

		switch effectiveAction(decision.Action, existingSize, totalSize) {
		case domain.ActionSkip:
			continue
		case domain.ActionResume:
			c.enqueueUpload(localPath, remotePath, totalSize, existingSize)
		case domain.ActionKeepBoth:
			unique, err := c.session.UniqueRemotePath(ctx, remotePath)
			if err != nil {
				c.log.Warn("Could not derive a unique remote name", "path", remotePath, "error", err)
				continue
			}
			c.enqueueUpload(localPath, unique, totalSize, 0)
		default:
			c.enqueueUpload(localPath, remotePath, totalSize, 0)
		}
		enqueued++
	}
	return enqueued, nil
}

// DownloadFiles classifies remotePaths for download into localDestDir.
// The whole batch is rejected up front when the destination volume does not
// have room for it.
func (c *BatchCoordinator) DownloadFiles(
	ctx context.Context,
	remotePaths []string,
	localDestDir string,
	resolve contract.ConflictResolver,
) (int, error) {
	override := c.takeOverride()
	defer c.SetApplyToAllResolution(nil)

	type candidate struct {
		remotePath string
		size       int64
	}
	candidates := make([]candidate, 0, len(remotePaths))
	var batchBytes int64
	for _, remotePath := range remotePaths {
		size, err := c.session.RemoteFileSize(ctx, remotePath)
		if err != nil {
			c.log.Warn("Skipping inaccessible download source", "path", remotePath, "error", err)
			continue
		}
		candidates = append(candidates, candidate{remotePath: remotePath, size: size})
		batchBytes += size
	}

	if free, err := c.freeBytes(localDestDir); err == nil && batchBytes > 0 && uint64(batchBytes) > free {
		return 0, fmt.Errorf("%d bytes needed, %d free: %w", batchBytes, free, errors.ErrInsufficientSpace)
	}

	enqueued := 0
	for _, cand := range candidates {
		localPath := filepath.Join(localDestDir, path.Base(cand.remotePath))
		existingSize, exists := localSize(localPath)
		if !exists {
			c.enqueueDownload(cand.remotePath, localPath, cand.size, 0)
			enqueued++
			continue
		}

		decision := override
		if decision == nil {
			decision = resolve(domain.ConflictRequest{
				LocalPath:    localPath,
				RemotePath:   cand.remotePath,
				ExistingSize: existingSize,
				TotalSize:    cand.size,
				CanResume:    domain.CanResumeTransfer(existingSize, cand.size),
			})
			if decision == nil {
				c.log.Debug("Download batch aborted by resolver", "at", cand.remotePath)
				return enqueued, nil
			}
			if decision.ApplyToAll {
				override = decision
			}
		}

		switch effectiveAction(decision.Action, existingSize, cand.size) {
		case domain.ActionSkip:
			continue
		case domain.ActionResume:
			c.enqueueDownload(cand.remotePath, localPath, cand.size, existingSize)
		case domain.ActionKeepBoth:
			c.enqueueDownload(cand.remotePath, uniqueLocalPath(localPath), cand.size, 0)
		default:
			c.enqueueDownload(cand.remotePath, localPath, cand.size, 0)
		}
		enqueued++
	}
	return enqueued, nil
}

// effectiveAction degrades Resume when the destination state does not
// support it; all other actions pass through.
func effectiveAction(action domain.ConflictAction, existingSize, totalSize int64) domain.ConflictAction {
	if action == domain.ActionResume {
		return domain.EffectiveResumeAction(existingSize, totalSize)
	}
	return action
}

func (c *BatchCoordinator) enqueueUpload(localPath, remotePath string, totalSize, offset int64) {
	rec := domain.NewTransferRecord(domain.Upload, localPath, remotePath, totalSize, offset)
	if mt, err := mimetype.DetectFile(localPath); err == nil {
		rec.SetMimeType(mt.String())
	}
	c.queue.Enqueue(rec)
}

func (c *BatchCoordinator) enqueueDownload(remotePath, localPath string, totalSize, offset int64) {
	rec := domain.NewTransferRecord(domain.Download, localPath, remotePath, totalSize, offset)
	c.queue.Enqueue(rec)
}

// remoteSize probes the upload destination; stat errors count as absence.
func (c *BatchCoordinator) remoteSize(ctx context.Context, remotePath string) (int64, bool) {
	info, err := c.session.Stat(ctx, remotePath)
	if err != nil {
		return 0, false
	}
	return info.Size, true
}

func localSize(localPath string) (int64, bool) {
	fi, err := os.Stat(localPath)
	if err != nil {
		return 0, false
	}
	return fi.Size(), true
}

// joinRemote joins remote path segments with forward slashes, never with the
// host separator.
func joinRemote(dir, name string) string {
	if dir == "" {
		return name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}

// uniqueLocalPath derives a non-colliding sibling name by inserting " (n)"
// before the extension, probing n=1..999, then falling back to a random
// suffix.
func uniqueLocalPath(localPath string) string {
	dir := filepath.Dir(localPath)
	name := filepath.Base(localPath)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for n := 1; n <= 999; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return filepath.Join(dir, fmt.Sprintf("%s-%s%s", stem, hex.EncodeToString(suffix), ext))
}
