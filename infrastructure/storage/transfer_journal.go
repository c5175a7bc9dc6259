package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"sftpflow/domain"
)

const journalPrefix = "transfer:"

// journalEntry is the durable subset of a transfer record. Telemetry
// (rate, ETA) is recomputed live and never persisted.
type journalEntry struct {
	ID           string                `json:"id"`
	Seq          uint64                `json:"seq"`
	FileName     string                `json:"file_name"`
	LocalPath    string                `json:"local_path"`
	RemotePath   string                `json:"remote_path"`
	Direction    domain.Direction      `json:"direction"`
	MimeType     string                `json:"mime_type,omitempty"`
	TotalBytes   int64                 `json:"total_bytes"`
	Transferred  int64                 `json:"transferred_bytes"`
	ResumeOffset int64                 `json:"resume_offset"`
	Status       domain.TransferStatus `json:"status"`
	ErrorMessage string                `json:"error_message,omitempty"`
	CanResume    bool                  `json:"can_resume"`
	EnqueuedAt   time.Time             `json:"enqueued_at"`
	StartedAt    *time.Time            `json:"started_at,omitempty"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
}

// TransferJournal persists transfer records in BadgerDB so an interrupted
// queue survives a restart. One key per record, write-through on every
// settle.
type TransferJournal struct {
	db  *badger.DB
	log *slog.Logger
}

func NewTransferJournal(db *badger.DB, log *slog.Logger) *TransferJournal {
	return &TransferJournal{db: db, log: log}
}

// Save upserts the record under its id.
func (j *TransferJournal) Save(snap domain.TransferSnapshot) error {
	data, err := json.Marshal(toEntry(snap))
	if err != nil {
		return fmt.Errorf("failed to encode journal entry: %w", err)
	}
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(journalKey(snap.ID), data)
	})
}

// Remove deletes the record; a missing key is not an error.
func (j *TransferJournal) Remove(id string) error {
	return j.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(journalKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// LoadAll returns every journaled record in original enqueue order.
func (j *TransferJournal) LoadAll() ([]domain.TransferSnapshot, error) {
	var entries []journalEntry
	prefix := []byte(journalPrefix)

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var entry journalEntry
				if err := json.Unmarshal(v, &entry); err != nil {
					return fmt.Errorf("failed to decode journal entry: %w", err)
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error during journal scan: %w", err)
	}

	sort.Slice(entries, func(a, b int) bool { return entries[a].Seq < entries[b].Seq })

	snaps := make([]domain.TransferSnapshot, 0, len(entries))
	for _, e := range entries {
		snaps = append(snaps, fromEntry(e))
	}
	return snaps, nil
}

func journalKey(id string) []byte {
	return []byte(journalPrefix + id)
}

func toEntry(snap domain.TransferSnapshot) journalEntry {
	return journalEntry{
		ID:           snap.ID,
		Seq:          snap.Seq,
		FileName:     snap.FileName,
		LocalPath:    snap.LocalPath,
		RemotePath:   snap.RemotePath,
		Direction:    snap.Direction,
		MimeType:     snap.MimeType,
		TotalBytes:   snap.TotalBytes,
		Transferred:  snap.TransferredBytes,
		ResumeOffset: snap.ResumeOffset,
		Status:       snap.Status,
		ErrorMessage: snap.ErrorMessage,
		CanResume:    snap.CanResume,
		EnqueuedAt:   snap.EnqueuedAt,
		StartedAt:    snap.StartedAt,
		CompletedAt:  snap.CompletedAt,
	}
}

func fromEntry(e journalEntry) domain.TransferSnapshot {
	return domain.TransferSnapshot{
		ID:               e.ID,
		Seq:              e.Seq,
		FileName:         e.FileName,
		LocalPath:        e.LocalPath,
		RemotePath:       e.RemotePath,
		Direction:        e.Direction,
		MimeType:         e.MimeType,
		TotalBytes:       e.TotalBytes,
		TransferredBytes: e.Transferred,
		ResumeOffset:     e.ResumeOffset,
		Status:           e.Status,
		ErrorMessage:     e.ErrorMessage,
		CanResume:        e.CanResume,
		EnqueuedAt:       e.EnqueuedAt,
		StartedAt:        e.StartedAt,
		CompletedAt:      e.CompletedAt,
	}
}
