package pipedrive

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmanprz/pipedrive-client/internal/constants"
)

// FieldKind enumerates the value kinds a field can hold. The kind
// drives validation on assignment and the wire encoding of values.
type FieldKind int

const (
	// KindInteger holds whole numbers (int64 internally).
	KindInteger FieldKind = iota + 1

	// KindText holds strings.
	KindText

	// KindBoolean holds booleans.
	KindBoolean

	// KindFloat holds floating point numbers.
	KindFloat

	// KindDatetime holds timestamps, exchanged as "2006-01-02T15:04:05.000Z".
	KindDatetime

	// KindDate holds calendar dates, exchanged as "2006-01-02".
	KindDate

	// KindTime holds a time of day, exchanged as "15:04".
	KindTime

	// KindDuration holds a duration, exchanged as "HH:MM".
	KindDuration

	// KindReference holds the integer identifier of a related record.
	KindReference

	// KindCollection holds an ordered list of values.
	KindCollection

	// KindObject holds a nested mapping, e.g. an address or monetary value.
	KindObject
)

var kindNames = map[FieldKind]string{
	KindInteger:    "integer",
	KindText:       "text",
	KindBoolean:    "boolean",
	KindFloat:      "float",
	KindDatetime:   "datetime",
	KindDate:       "date",
	KindTime:       "time",
	KindDuration:   "duration",
	KindReference:  "reference",
	KindCollection: "collection",
	KindObject:     "object",
}

// String implements fmt.Stringer.
func (k FieldKind) String() string {
	name, ok := kindNames[k]
	if !ok {
		return "unknown"
	}

	return name
}

// Valid reports whether k is a known kind.
func (k FieldKind) Valid() bool {
	_, ok := kindNames[k]

	return ok
}

// FieldSpec declares one mapped attribute of an entity: its remote
// name (the sole translation key to wire JSON), its kind, and whether
// the API owns the value. Specs are declared once per schema and shared
// read-only across all instances.
type FieldSpec struct {
	RemoteName string
	Kind       FieldKind
	ReadOnly   bool
	Default    any
}

// Integer declares a whole-number field.
func Integer(remoteName string) FieldSpec {
	return FieldSpec{RemoteName: remoteName, Kind: KindInteger}
}

// Text declares a string field.
func Text(remoteName string) FieldSpec {
	return FieldSpec{RemoteName: remoteName, Kind: KindText}
}

// Boolean declares a boolean field.
func Boolean(remoteName string) FieldSpec {
	return FieldSpec{RemoteName: remoteName, Kind: KindBoolean}
}

// Float declares a floating point field.
func Float(remoteName string) FieldSpec {
	return FieldSpec{RemoteName: remoteName, Kind: KindFloat}
}

// Datetime declares a timestamp field.
func Datetime(remoteName string) FieldSpec {
	return FieldSpec{RemoteName: remoteName, Kind: KindDatetime}
}

// Date declares a calendar date field.
func Date(remoteName string) FieldSpec {
	return FieldSpec{RemoteName: remoteName, Kind: KindDate}
}

// TimeOfDay declares a time-of-day field.
func TimeOfDay(remoteName string) FieldSpec {
	return FieldSpec{RemoteName: remoteName, Kind: KindTime}
}

// Duration declares a duration field.
func Duration(remoteName string) FieldSpec {
	return FieldSpec{RemoteName: remoteName, Kind: KindDuration}
}

// Reference declares a field holding a related record's identifier.
func Reference(remoteName string) FieldSpec {
	return FieldSpec{RemoteName: remoteName, Kind: KindReference}
}

// Collection declares a list-valued field.
func Collection(remoteName string) FieldSpec {
	return FieldSpec{RemoteName: remoteName, Kind: KindCollection}
}

// Object declares a nested-mapping field.
func Object(remoteName string) FieldSpec {
	return FieldSpec{RemoteName: remoteName, Kind: KindObject}
}

// WithReadOnly marks the field as owned by the API; assignments fail
// with *ReadOnlyFieldError.
func (f FieldSpec) WithReadOnly() FieldSpec {
	f.ReadOnly = true

	return f
}

// WithDefault sets the value reported when the field is unset.
func (f FieldSpec) WithDefault(value any) FieldSpec {
	f.Default = value

	return f
}

// normalize validates a caller-supplied value against the declared kind
// and returns its internal representation. A nil value clears the
// field and is always accepted.
func (f FieldSpec) normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch f.Kind {
	case KindInteger, KindReference:
		n, ok := toInt64(value)
		if !ok {
			return nil, &FieldTypeError{Field: f.RemoteName, Kind: f.Kind, Value: value}
		}

		return n, nil
	case KindText:
		s, ok := value.(string)
		if !ok {
			return nil, &FieldTypeError{Field: f.RemoteName, Kind: f.Kind, Value: value}
		}

		return s, nil
	case KindBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, &FieldTypeError{Field: f.RemoteName, Kind: f.Kind, Value: value}
		}

		return b, nil
	case KindFloat:
		x, ok := toFloat64(value)
		if !ok {
			return nil, &FieldTypeError{Field: f.RemoteName, Kind: f.Kind, Value: value}
		}

		return x, nil
	case KindDatetime:
		t, ok := toDatetime(value)
		if !ok {
			return nil, &FieldTypeError{Field: f.RemoteName, Kind: f.Kind, Value: value}
		}

		return t, nil
	case KindDate:
		t, ok := toDate(value)
		if !ok {
			return nil, &FieldTypeError{Field: f.RemoteName, Kind: f.Kind, Value: value}
		}

		return t, nil
	case KindTime:
		s, ok := toTimeOfDay(value)
		if !ok {
			return nil, &FieldTypeError{Field: f.RemoteName, Kind: f.Kind, Value: value}
		}

		return s, nil
	case KindDuration:
		d, ok := toDuration(value)
		if !ok {
			return nil, &FieldTypeError{Field: f.RemoteName, Kind: f.Kind, Value: value}
		}

		return d, nil
	case KindCollection:
		list, ok := toCollection(value)
		if !ok {
			return nil, &FieldTypeError{Field: f.RemoteName, Kind: f.Kind, Value: value}
		}

		return list, nil
	case KindObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, &FieldTypeError{Field: f.RemoteName, Kind: f.Kind, Value: value}
		}

		return obj, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, f.Kind)
	}
}

// fromWire converts a decoded JSON value into the internal
// representation. The wire is more permissive than assignment: v1
// endpoints return flags as 0/1 and references as nested objects.
func (f FieldSpec) fromWire(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch f.Kind {
	case KindBoolean:
		if n, ok := toInt64(value); ok {
			return n != 0, nil
		}
	case KindReference:
		if obj, ok := value.(map[string]any); ok {
			for _, key := range []string{"value", "id"} {
				if nested, found := obj[key]; found {
					return f.normalize(nested)
				}
			}
		}
	}

	return f.normalize(value)
}

// toWire converts an internal value into its wire encoding.
func (f FieldSpec) toWire(value any) any {
	if value == nil {
		return nil
	}

	switch f.Kind {
	case KindDatetime:
		if t, ok := value.(time.Time); ok {
			return t.UTC().Format(constants.DatetimeFormat)
		}
	case KindDate:
		if t, ok := value.(time.Time); ok {
			return t.UTC().Format(constants.DateFormat)
		}
	case KindDuration:
		if d, ok := value.(time.Duration); ok {
			return formatDuration(d)
		}
	}

	return value
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}

		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}

		return n, true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}

		return n, true
	default:
		return 0, false
	}
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		x, err := v.Float64()
		if err != nil {
			return 0, false
		}

		return x, true
	default:
		return 0, false
	}
}

// datetimeLayouts lists the timestamp layouts seen on the wire: v2
// emits RFC 3339 (with or without milliseconds), v1 a space-separated
// UTC form.
var datetimeLayouts = []string{
	constants.DatetimeFormat,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func toDatetime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), true
	case string:
		for _, layout := range datetimeLayouts {
			t, err := time.Parse(layout, v)
			if err == nil {
				return t.UTC(), true
			}
		}

		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func toDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		year, month, day := v.UTC().Date()

		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
	case string:
		t, err := time.Parse(constants.DateFormat, v)
		if err != nil {
			return time.Time{}, false
		}

		return t, true
	default:
		return time.Time{}, false
	}
}

func toTimeOfDay(value any) (string, bool) {
	switch v := value.(type) {
	case time.Time:
		return v.Format(constants.TimeFormat), true
	case string:
		t, err := time.Parse(constants.TimeFormat, v)
		if err != nil {
			return "", false
		}

		return t.Format(constants.TimeFormat), true
	default:
		return "", false
	}
}

func toDuration(value any) (time.Duration, bool) {
	switch v := value.(type) {
	case time.Duration:
		return v, true
	case string:
		return parseDuration(v)
	default:
		return 0, false
	}
}

func toCollection(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		list := make([]any, len(v))
		for i, item := range v {
			list[i] = item
		}

		return list, true
	case []int:
		list := make([]any, len(v))
		for i, item := range v {
			list[i] = int64(item)
		}

		return list, true
	case []int64:
		list := make([]any, len(v))
		for i, item := range v {
			list[i] = item
		}

		return list, true
	case []map[string]any:
		list := make([]any, len(v))
		for i, item := range v {
			list[i] = item
		}

		return list, true
	default:
		return nil, false
	}
}

// formatDuration renders a duration as "HH:MM", truncating seconds.
func formatDuration(d time.Duration) string {
	totalMinutes := int(d.Minutes())
	hours := totalMinutes / 60
	minutes := totalMinutes % 60

	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

func parseDuration(value string) (time.Duration, bool) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}

	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}

	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, true
}
