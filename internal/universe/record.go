package universe

import (
	"encoding/json"
	"fmt"
)

// Record is the wire form of a universe, used both for POST /api/universe
// and for every entry of a pushed snapshot.
type Record struct {
	Colour Colour `json:"colour"`
	Cells  Grid   `json:"cells"`
}

// Validate checks the record's grid shape.
func (r Record) Validate() error {
	return r.Cells.Validate()
}

// DecodeSnapshot parses a pushed snapshot: a JSON array of records.
// A JSON null decodes to an empty snapshot.
func DecodeSnapshot(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("snapshot entry %d: %w", i, err)
		}
	}
	return records, nil
}
