package errors

import "fmt"

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrRemoteNotFound    = fmt.Errorf("remote file not found")
	ErrRecordNotFound    = fmt.Errorf("transfer record not found")
	ErrInsufficientSpace = fmt.Errorf("not enough free space on destination volume")
	ErrDispatcherStopped = fmt.Errorf("dispatcher stopped")
)
