package pipedrive

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Version selects which Pipedrive API generation serves an entity.
// The two generations disagree on URL prefix, credential placement,
// update verb and pagination shape; everything else in this package is
// version-agnostic.
type Version int

const (
	// V1 is the legacy API generation (v1 path prefix, token as query
	// parameter, offset pagination).
	V1 Version = iota + 1

	// V2 is the current API generation (api/v2 path prefix, bearer
	// token header, cursor pagination).
	V2
)

// String implements fmt.Stringer.
func (v Version) String() string {
	switch v {
	case V1:
		return "v1"
	case V2:
		return "v2"
	default:
		return "unknown"
	}
}

// Valid reports whether v is a known API generation.
func (v Version) Valid() bool {
	return v == V1 || v == V2
}

// Envelope is the normalized wrapper around every API response body:
//
//	{ "success": bool, "data": object|array,
//	  "additional_data": {...}, "related_objects": {...} }
//
// Data keeps its wire shape (object vs array); whether a response is
// singular or plural is decided by the operation that requested it, not
// by the envelope.
type Envelope struct {
	Success        bool            `json:"success"                   yaml:"success"`
	Data           json.RawMessage `json:"data,omitempty"            yaml:"data,omitempty"`
	AdditionalData map[string]any  `json:"additional_data,omitempty" yaml:"additional_data,omitempty"`
	RelatedObjects RelatedObjects  `json:"related_objects,omitempty" yaml:"related_objects,omitempty"`
}

// RelatedObjects holds embedded related records keyed by entity name,
// then by the related record's id.
type RelatedObjects map[string]map[string]map[string]any

// Lookup returns the embedded record for an entity name and id.
func (r RelatedObjects) Lookup(entity, id string) (map[string]any, bool) {
	byID, ok := r[entity]
	if !ok {
		return nil, false
	}

	record, ok := byID[id]

	return record, ok
}

// Merge combines r and other into a new map, so related records can be
// accumulated across pages. Records from other win on id collisions;
// either side may be nil.
func (r RelatedObjects) Merge(other RelatedObjects) RelatedObjects {
	if len(other) == 0 {
		return r
	}

	if len(r) == 0 {
		return other
	}

	merged := make(RelatedObjects, len(r))

	for entity, byID := range r {
		copied := make(map[string]map[string]any, len(byID))
		for id, record := range byID {
			copied[id] = record
		}

		merged[entity] = copied
	}

	for entity, byID := range other {
		if _, ok := merged[entity]; !ok {
			merged[entity] = make(map[string]map[string]any, len(byID))
		}

		for id, record := range byID {
			merged[entity][id] = record
		}
	}

	return merged
}

// HasData reports whether the envelope carries a non-null payload.
func (e *Envelope) HasData() bool {
	return len(e.Data) > 0 && !bytes.Equal(e.Data, []byte("null"))
}

// One decodes the payload as a single record. Numbers are preserved as
// json.Number so integer identifiers survive undamaged.
func (e *Envelope) One() (map[string]any, error) {
	if !e.HasData() {
		return nil, ErrNoData
	}

	var record map[string]any

	err := decodeWithNumbers(e.Data, &record)
	if err != nil {
		return nil, &TransportError{Op: "decode record", Err: err}
	}

	return record, nil
}

// Many decodes the payload as an ordered sequence of records.
func (e *Envelope) Many() ([]map[string]any, error) {
	if !e.HasData() {
		return nil, nil
	}

	var records []map[string]any

	err := decodeWithNumbers(e.Data, &records)
	if err != nil {
		return nil, &TransportError{Op: "decode records", Err: err}
	}

	return records, nil
}

// NextCursor returns the opaque cursor from additional_data, if the
// response carries one. The value must be echoed verbatim on the next
// page request.
func (e *Envelope) NextCursor() (string, bool) {
	if e.AdditionalData == nil {
		return "", false
	}

	cursor, ok := e.AdditionalData["next_cursor"].(string)
	if !ok || cursor == "" {
		return "", false
	}

	return cursor, true
}

// OffsetPagination reports the v1 pagination block: whether more items
// remain and the limit the server applied to this page.
func (e *Envelope) OffsetPagination() (more bool, limit int) {
	if e.AdditionalData == nil {
		return false, 0
	}

	block, ok := e.AdditionalData["pagination"].(map[string]any)
	if !ok {
		return false, 0
	}

	more, _ = block["more_items_in_collection"].(bool)
	limit = intFromAny(block["limit"])

	return more, limit
}

func intFromAny(value any) int {
	switch v := value.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}

		return int(n)
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func decodeWithNumbers(data []byte, out any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	return decoder.Decode(out)
}

// Record is the serialized snapshot of an entity instance, used outside
// the live API context (caching, logging, fixtures). Fields are keyed
// by remote name and hold wire-encoded values.
type Record struct {
	Entity    string         `json:"entity"               yaml:"entity"`
	CreatedAt string         `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	ID        string         `json:"id,omitempty"         yaml:"id,omitempty"`
	Fields    map[string]any `json:"fields"               yaml:"fields"`
}

// SaveResult describes what a Save call did. A clean save on a
// persisted instance performs no request and reports Saved() == false.
type SaveResult struct {
	ID         string   `json:"id"                    yaml:"id"`
	Created    bool     `json:"created"               yaml:"created"`
	Updated    bool     `json:"updated"               yaml:"updated"`
	Forced     bool     `json:"forced"                yaml:"forced"`
	FieldNames []string `json:"field_names,omitempty" yaml:"field_names,omitempty"`
}

// Saved reports whether the call wrote anything to the API.
func (r *SaveResult) Saved() bool {
	return r.Created || r.Updated
}

// BatchDeleteOutcome is the per-identifier result of a batch delete.
type BatchDeleteOutcome struct {
	ID      string `json:"id"               yaml:"id"`
	Deleted bool   `json:"deleted"          yaml:"deleted"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// BatchDeleteResult reports the outcome of a batch delete per requested
// identifier, in request order. A partially failing batch is not an
// error: callers inspect the outcomes.
type BatchDeleteResult struct {
	Outcomes []BatchDeleteOutcome `json:"outcomes" yaml:"outcomes"`
}

// DeletedIDs returns the identifiers the server confirmed deleted.
func (r *BatchDeleteResult) DeletedIDs() []string {
	var ids []string

	for _, outcome := range r.Outcomes {
		if outcome.Deleted {
			ids = append(ids, outcome.ID)
		}
	}

	return ids
}

// FailedIDs returns the identifiers the server did not delete.
func (r *BatchDeleteResult) FailedIDs() []string {
	var ids []string

	for _, outcome := range r.Outcomes {
		if !outcome.Deleted {
			ids = append(ids, outcome.ID)
		}
	}

	return ids
}

// AllDeleted reports whether every requested identifier was deleted.
func (r *BatchDeleteResult) AllDeleted() bool {
	for _, outcome := range r.Outcomes {
		if !outcome.Deleted {
			return false
		}
	}

	return true
}

func sortedNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
