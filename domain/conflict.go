package domain

// ConflictAction is what to do with a transfer whose destination already exists.
type ConflictAction int

const (
	ActionOverwrite ConflictAction = iota
	ActionSkip
	ActionResume
	ActionKeepBoth
)

func (a ConflictAction) String() string {
	switch a {
	case ActionOverwrite:
		return "overwrite"
	case ActionSkip:
		return "skip"
	case ActionResume:
		return "resume"
	case ActionKeepBoth:
		return "keep-both"
	default:
		return "unknown"
	}
}

// ConflictDecision is the transient answer of a conflict resolver for one
// destination collision. ApplyToAll promotes the decision to every remaining
// conflict of the same batch. Decisions are never persisted.
type ConflictDecision struct {
	Action     ConflictAction
	ApplyToAll bool
}

// ConflictRequest carries everything a resolver needs to decide.
type ConflictRequest struct {
	LocalPath    string
	RemotePath   string
	ExistingSize int64
	TotalSize    int64
	CanResume    bool
}

// CanResumeTransfer reports whether a partially written destination can be
// continued: both sizes must be known and the destination strictly smaller
// than the source.
func CanResumeTransfer(existingSize, totalSize int64) bool {
	return existingSize > 0 && totalSize > 0 && existingSize < totalSize
}

// EffectiveResumeAction degrades a Resume choice when the destination is not
// actually resumable. A destination at least as large as the source has
// nothing left to transfer (Skip); an unknown or empty size means restarting
// from zero (Overwrite).
func EffectiveResumeAction(existingSize, totalSize int64) ConflictAction {
	if CanResumeTransfer(existingSize, totalSize) {
		return ActionResume
	}
	if totalSize > 0 && existingSize >= totalSize {
		return ActionSkip
	}
	return ActionOverwrite
}
