//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"sftpflow/domain"
)

// ProgressFunc reports absolute transferred bytes, including any resume offset.
type ProgressFunc func(transferred int64)

// RemoteFileInfo is the metadata subset the engine needs from the remote side.
type RemoteFileInfo struct {
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// RemoteSession is the established file-transfer channel the engine drives.
// Session setup, authentication and directory browsing live outside the
// engine; this interface only probes metadata and moves bytes.
//
// Stat returns errors.ErrRemoteNotFound (wrapped or bare) when the path does
// not exist. Upload and Download honour ctx cancellation, continue from
// offset bytes when offset > 0, and call onProgress as bytes move.
type RemoteSession interface {
	Stat(ctx context.Context, remotePath string) (RemoteFileInfo, error)
	RemoteFileSize(ctx context.Context, remotePath string) (int64, error)
	Upload(ctx context.Context, localPath, remotePath string, offset int64, onProgress ProgressFunc) error
	Download(ctx context.Context, remotePath, localPath string, offset int64, onProgress ProgressFunc) error
	UniqueRemotePath(ctx context.Context, remotePath string) (string, error)
}

// BrowserRefresher is notified after a transfer completes so file listings
// can be reloaded.
type BrowserRefresher interface {
	RefreshRemote()
	RefreshLocal()
}

// ConflictResolver decides what to do with an already-existing destination.
// It is invoked strictly sequentially within a batch (it usually fronts an
// interactive prompt). A nil result aborts the remainder of the batch.
type ConflictResolver func(req domain.ConflictRequest) *domain.ConflictDecision

// Enqueuer accepts classified records into the transfer queue.
type Enqueuer interface {
	Enqueue(rec *domain.TransferRecord)
}

// Journal persists transfer records so an interrupted queue can be rebuilt.
type Journal interface {
	Save(snap domain.TransferSnapshot) error
	Remove(id string) error
	LoadAll() ([]domain.TransferSnapshot, error)
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
