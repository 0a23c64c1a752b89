// Package store provides the durable, append-only audit trail for segment
// analyses. One record per analyzed segment, optionally one ad attachment,
// and a full reset — nothing else mutates persisted data.
package store

import (
	"context"
	"errors"

	"adpulse/internal/model"
)

// ErrRecordNotFound is returned when an ad attachment references a record
// that does not exist.
var ErrRecordNotFound = errors.New("store: record not found")

// Store is the persistence collaborator interface.
type Store interface {
	// CreateRecord appends one pipeline record. The record's ID must be set.
	CreateRecord(ctx context.Context, rec *model.PipelineRecord) error

	// AttachAd attaches generated ad content to an existing record. This is
	// the only post-creation update the store supports.
	AttachAd(ctx context.Context, ad *model.AdContent) error

	// ListRecords returns all records ordered by segment start time.
	ListRecords(ctx context.Context) ([]model.PipelineRecord, error)

	// ListAds returns all ad attachments ordered by creation time.
	ListAds(ctx context.Context) ([]model.AdContent, error)

	// Stats aggregates the audit trail for the metrics endpoint.
	Stats(ctx context.Context) (model.PipelineStats, error)

	// Reset deletes all records and ads.
	Reset(ctx context.Context) error

	// Close releases the underlying database.
	Close() error
}
