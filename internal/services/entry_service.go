// Package services orchestrates operations that span storage and messaging.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"duit/internal/amqp"
	"duit/internal/core"
	"duit/internal/storage"
)

// EntryService records ledger entries locally and hands off spreadsheet
// mirroring to the sync worker over AMQP.
type EntryService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewEntryService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *EntryService {
	return &EntryService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// RecordEntry saves an entry to SQLite first, then publishes a sync message.
// A publish failure never fails the request; the entry is already durable
// locally and the worker's startup sweep will pick it up.
func (s *EntryService) RecordEntry(ctx context.Context, e core.LedgerEntry) (int64, error) {
	id, err := s.storage.AppendEntry(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save entry: %w", err)
	}

	if err := s.publishSyncMessage(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "error", err)
	}

	return id, nil
}

func (s *EntryService) publishSyncMessage(ctx context.Context, id int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}

	return s.amqpClient.PublishEntrySync(ctx, id)
}

// Close closes both storage and AMQP connections.
func (s *EntryService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close entry service: %v", errs)
	}

	return nil
}
