package gdocs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ChangeRecord is the per-document state persisted after each successful
// sync. Its marker always reflects the state the vector index was last
// brought in line with.
type ChangeRecord struct {
	DocID        string    `json:"doc_id"`
	ModifiedTime string    `json:"modifiedTime"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MarkerCache stores one JSON file per document under a local directory.
type MarkerCache struct {
	dir string
}

func NewMarkerCache(dir string) (*MarkerCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create marker cache dir: %w", err)
	}
	return &MarkerCache{dir: dir}, nil
}

// Read returns the persisted record for docID, or nil when none exists.
func (c *MarkerCache) Read(docID string) (*ChangeRecord, error) {
	data, err := os.ReadFile(c.path(docID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read marker cache for %s: %w", docID, err)
	}
	var record ChangeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode marker cache for %s: %w", docID, err)
	}
	return &record, nil
}

// Write overwrites the record for docID with the given marker.
func (c *MarkerCache) Write(docID, marker string) error {
	record := ChangeRecord{
		DocID:        docID,
		ModifiedTime: marker,
		UpdatedAt:    time.Now().UTC(),
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode marker cache for %s: %w", docID, err)
	}
	if err := os.WriteFile(c.path(docID), data, 0o644); err != nil {
		return fmt.Errorf("write marker cache for %s: %w", docID, err)
	}
	return nil
}

func (c *MarkerCache) path(docID string) string {
	safe := strings.ReplaceAll(docID, "/", "_")
	return filepath.Join(c.dir, safe+".json")
}
