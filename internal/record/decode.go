package record

import (
	"encoding/json"
	"fmt"
)

// DecodePage splits a JSON array response body into records.
//
// Each element is kept as raw bytes. The "stamp" field is read when the
// element is an object with a string stamp; any other shape yields an empty
// Stamp and is left for the overlap filter to discard. A JSON null body
// decodes to an empty page.
func DecodePage(body []byte) (Page, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}

	page := make(Page, 0, len(raws))
	for _, raw := range raws {
		page = append(page, Record{Stamp: StampOf(raw), Raw: raw})
	}
	return page, nil
}

// NewRecord builds a record from a value, marshaling it to raw JSON.
func NewRecord(v any) (Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Record{}, fmt.Errorf("marshal record: %w", err)
	}
	return Record{Stamp: StampOf(raw), Raw: raw}, nil
}

// StampOf returns the string "stamp" field of a JSON object, or "" when raw
// is not an object or has no string stamp.
func StampOf(raw json.RawMessage) string {
	var probe struct {
		Stamp string `json:"stamp"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.Stamp
}
