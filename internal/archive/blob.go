// Package archive exports terminal checkpoints to blob storage
//
// Archiving is best-effort: the checkpoint store remains the source of
// truth and an archive failure never affects workflow state
package archive

import (
	"context"
	"encoding/json"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/signoff-io/signoff/pkg/api"
)

// BlobArchiver writes checkpoint records to a bucket via gocloud.dev/blob,
// supporting S3, GCS, Azure Blob Storage, and local files
type BlobArchiver struct {
	bucket *blob.Bucket
	prefix string
}

// NewBlobArchiver opens the bucket at bucketURL (e.g. "s3://...",
// "gs://...", "file:///...")
func NewBlobArchiver(
	ctx context.Context, bucketURL, prefix string,
) (*BlobArchiver, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return &BlobArchiver{bucket: bucket, prefix: prefix}, nil
}

// Archive writes the checkpoint as a JSON object keyed by workflow ID
func (a *BlobArchiver) Archive(
	ctx context.Context, cp *api.Checkpoint,
) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	return a.bucket.WriteAll(ctx, a.keyFor(cp.WorkflowID), data, nil)
}

// Get reads back an archived checkpoint, returning found=false when no
// archive record exists
func (a *BlobArchiver) Get(
	ctx context.Context, id api.WorkflowID,
) (*api.Checkpoint, bool, error) {
	data, err := a.bucket.ReadAll(ctx, a.keyFor(id))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var cp api.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, false, err
	}
	return &cp, true, nil
}

func (a *BlobArchiver) Close() error {
	return a.bucket.Close()
}

func (a *BlobArchiver) keyFor(id api.WorkflowID) string {
	return a.prefix + string(id) + ".json"
}
