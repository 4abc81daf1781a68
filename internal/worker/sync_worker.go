// Package worker mirrors locally recorded ledger entries to the shared
// spreadsheet. It is driven by AMQP messages, with a startup sweep over
// unsynced rows to recover from missed deliveries.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"duit/internal/amqp"
	"duit/internal/ledger"
	"duit/internal/storage"
)

type SyncWorker struct {
	storage   *storage.SQLiteRepository
	appender  ledger.Appender
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, appender ledger.Appender, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single entry sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.EntrySyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID)

	record, err := w.storage.GetEntry(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get entry from storage: %w", err)
	}
	if record.Synced {
		slog.InfoContext(ctx, "Entry already synced, skipping", "id", msg.ID)
		return nil
	}

	if err := w.syncEntry(ctx, msg.ID, record); err != nil {
		return fmt.Errorf("sync entry: %w", err)
	}
	return nil
}

// ProcessPending syncs entries that have not reached the spreadsheet yet.
// This is the backup path for lost AMQP messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingEntries(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending entries: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending entries", "count", len(pending))

	for _, record := range pending {
		if err := w.syncEntry(ctx, record.ID, record); err != nil {
			slog.ErrorContext(ctx, "Failed to sync entry", "id", record.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupSyncCheck drains the unsynced backlog once at worker startup,
// using a larger batch than the periodic sweep.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingEntries(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending entries for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending entries found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending entries on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, record := range pending {
		if err := w.syncEntry(ctx, record.ID, record); err != nil {
			slog.ErrorContext(ctx, "Failed to sync entry during startup",
				"id", record.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) syncEntry(ctx context.Context, id int64, record storage.EntryRecord) error {
	ref, err := w.appender.Append(ctx, record.Entry)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		// The append went through; the next sweep will retry the flag.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Entry synced to sheet",
		"id", id,
		"sheet_ref", ref,
		"category", record.Entry.Category,
		"amount", record.Entry.Amount.String())

	return nil
}
