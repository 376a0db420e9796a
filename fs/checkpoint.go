package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/sapnhap"
)

// Ensure CheckpointStore implements sapnhap.Checkpointer at compile time.
var _ sapnhap.Checkpointer = (*CheckpointStore)(nil)

// CheckpointStore writes full snapshots of collected records as
// pretty-printed JSON arrays.
type CheckpointStore struct {
	dir string

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewCheckpointStore creates a store writing to dir.
func NewCheckpointStore(dir string) *CheckpointStore {
	return &CheckpointStore{dir: dir}
}

// Checkpoint writes checkpoint_<n>_<timestamp>.json and returns its path.
func (s *CheckpointStore) Checkpoint(ctx context.Context, n int, records []*sapnhap.MergerRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	name := fmt.Sprintf("%s%d_%s.json", CheckpointPrefix, n, now().Format(FileTimestampLayout))
	path := filepath.Join(s.dir, name)

	if records == nil {
		records = []*sapnhap.MergerRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return "", fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := WriteFileAtomic(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("write checkpoint: %w", err)
	}
	return path, nil
}

// ReadCheckpoint loads the records of a checkpoint file. Records are rebuilt
// so derived fields agree with their details whatever the file says.
func ReadCheckpoint(path string) ([]*sapnhap.MergerRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []*sapnhap.MergerRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, sapnhap.Errorf(sapnhap.EINVALID, "invalid checkpoint %s: %v", filepath.Base(path), err)
	}
	for i, rec := range records {
		if rec == nil {
			return nil, sapnhap.Errorf(sapnhap.EINVALID, "invalid checkpoint %s: record %d is null", filepath.Base(path), i)
		}
		info := &sapnhap.MergerInfo{Before: rec.Before, After: rec.After, Details: rec.Details}
		records[i] = sapnhap.NewMergerRecord(rec.Province(), rec.Commune(), rec.SourceURL, info)
		if err := records[i].Validate(); err != nil {
			return nil, sapnhap.Errorf(sapnhap.EINVALID, "invalid checkpoint %s: record %d: %s", filepath.Base(path), i, sapnhap.ErrorMessage(err))
		}
	}
	return records, nil
}
