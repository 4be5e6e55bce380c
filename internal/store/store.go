// Package store defines the checkpoint store contract and its Redis
// implementation
//
// The store is the sole source of truth between the two workflow phases;
// every field needed to resume a workflow is durably recorded here
package store

import (
	"context"
	"errors"
	"time"

	"github.com/signoff-io/signoff/pkg/api"
)

type (
	// Fields carries the optional fields of a partial status update.
	// Nil pointers leave the stored values untouched
	Fields struct {
		SuspendedAt     *time.Time
		ResumedAt       *time.Time
		RejectionReason string

		// ClearRejectionReason erases any stored rejection reason
		ClearRejectionReason bool
	}

	// CheckpointStore persists workflow checkpoints keyed by workflow ID
	CheckpointStore interface {
		// Create writes a new checkpoint, failing with ErrAlreadyExists
		// if the key is taken
		Create(ctx context.Context, cp *api.Checkpoint) error

		// Get retrieves a checkpoint, failing with ErrNotFound if the
		// key is unknown
		Get(ctx context.Context, id api.WorkflowID) (*api.Checkpoint, error)

		// UpdateStatus applies a partial update, always refreshing
		// updated_at. The payload is write-once and never rewritten
		UpdateStatus(
			ctx context.Context, id api.WorkflowID, status api.Status,
			step string, fields Fields,
		) error

		// UpdateStatusIf applies the same partial update only when the
		// stored status equals expected, failing with
		// ErrPreconditionFailed otherwise. At most one of two racing
		// callers succeeds
		UpdateStatusIf(
			ctx context.Context, id api.WorkflowID, expected api.Status,
			status api.Status, step string, fields Fields,
		) error
	}
)

var (
	// ErrAlreadyExists is returned when creating a checkpoint whose
	// workflow ID is already taken
	ErrAlreadyExists = errors.New("checkpoint already exists")

	// ErrNotFound is returned when no checkpoint exists for a workflow ID
	ErrNotFound = errors.New("checkpoint not found")

	// ErrPreconditionFailed is returned by UpdateStatusIf when the stored
	// status does not match the expected status
	ErrPreconditionFailed = errors.New("checkpoint status precondition failed")
)
