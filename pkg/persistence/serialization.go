package persistence

import (
	"encoding/json"
	"fmt"
)

// MarshalSnapshotRecord serializes a SnapshotRecord to JSON bytes.
func MarshalSnapshotRecord(record *SnapshotRecord) ([]byte, error) {
	if record == nil {
		return nil, fmt.Errorf("cannot marshal nil SnapshotRecord")
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal SnapshotRecord to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalSnapshotRecord deserializes a SnapshotRecord from JSON bytes.
// The embedded snapshot is re-validated while decoding.
func UnmarshalSnapshotRecord(data []byte) (*SnapshotRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var record SnapshotRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to SnapshotRecord: %w", err)
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	return &record, nil
}

// CloneSnapshotRecord deep copies a record through its JSON form.
func CloneSnapshotRecord(record *SnapshotRecord) (*SnapshotRecord, error) {
	data, err := MarshalSnapshotRecord(record)
	if err != nil {
		return nil, err
	}
	return UnmarshalSnapshotRecord(data)
}
