package pipedrive

import (
	"fmt"
	"strconv"
	"time"
)

// State is an instance's lifecycle stage. Instances move NEW ->
// PERSISTED on a successful create, and PERSISTED -> DELETED on a
// successful delete. DELETED is terminal: mutations and persistence
// operations fail with *StaleInstanceError.
type State int

const (
	// StateNew marks a locally constructed instance with no remote row.
	StateNew State = iota + 1

	// StatePersisted marks an instance bound to a remote row.
	StatePersisted

	// StateDeleted marks an instance whose remote row was removed.
	StateDeleted
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StatePersisted:
		return "persisted"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// addTimeField is the wire name of the server-side creation timestamp.
const addTimeField = "add_time"

// Entity is the mapped instance type: a bag of normalized field values
// keyed by remote name, the set of names assigned since the last
// synchronization, and the lifecycle state. Typed models embed Entity
// and expose accessors over it.
//
// Entity is not safe for concurrent mutation.
type Entity struct {
	schema *Schema
	values map[string]any
	dirty  map[string]struct{}
	state  State
}

// NewEntity constructs an unsaved instance of the schema's type.
func NewEntity(schema *Schema) *Entity {
	return &Entity{
		schema: schema,
		values: make(map[string]any),
		dirty:  make(map[string]struct{}),
		state:  StateNew,
	}
}

// Base returns the entity itself, satisfying Model for embedders.
func (e *Entity) Base() *Entity {
	return e
}

// Schema returns the declaration this instance is mapped by.
func (e *Entity) Schema() *Schema {
	return e.schema
}

// State returns the lifecycle stage.
func (e *Entity) State() State {
	return e.state
}

// IsNew reports whether the instance has never been persisted.
func (e *Entity) IsNew() bool {
	return e.state == StateNew
}

// IsPersisted reports whether the instance is bound to a remote row.
func (e *Entity) IsPersisted() bool {
	return e.state == StatePersisted
}

// IsDeleted reports whether the remote row was removed.
func (e *Entity) IsDeleted() bool {
	return e.state == StateDeleted
}

// ID returns the identifier as a string, or "" when unset.
func (e *Entity) ID() string {
	value, ok := e.values[IDField]
	if !ok || value == nil {
		return ""
	}

	switch v := value.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Get returns the internal value of a declared field. Unset fields
// report the declared default.
func (e *Entity) Get(name string) (any, error) {
	field, ok := e.schema.Field(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, e.schema.EntityName(), name)
	}

	value, set := e.values[name]
	if !set {
		return field.Default, nil
	}

	return value, nil
}

// Value is Get without the error, returning nil for undeclared names.
func (e *Entity) Value(name string) any {
	value, err := e.Get(name)
	if err != nil {
		return nil
	}

	return value
}

// GetString returns a text field's value, or "" when unset.
func (e *Entity) GetString(name string) string {
	s, _ := e.Value(name).(string)

	return s
}

// GetInt returns an integer or reference field's value, or 0 when
// unset.
func (e *Entity) GetInt(name string) int64 {
	n, _ := e.Value(name).(int64)

	return n
}

// GetFloat returns a float field's value, or 0 when unset.
func (e *Entity) GetFloat(name string) float64 {
	x, _ := e.Value(name).(float64)

	return x
}

// GetBool returns a boolean field's value, or false when unset.
func (e *Entity) GetBool(name string) bool {
	b, _ := e.Value(name).(bool)

	return b
}

// GetTime returns a datetime or date field's value, or the zero time
// when unset.
func (e *Entity) GetTime(name string) time.Time {
	t, _ := e.Value(name).(time.Time)

	return t
}

// GetDuration returns a duration field's value, or 0 when unset.
func (e *Entity) GetDuration(name string) time.Duration {
	d, _ := e.Value(name).(time.Duration)

	return d
}

// Set validates and assigns a writable field, marking it dirty.
// Assigning nil clears the value. Read-only fields fail with
// *ReadOnlyFieldError, kind mismatches with *FieldTypeError, and any
// assignment on a DELETED instance with *StaleInstanceError.
func (e *Entity) Set(name string, value any) error {
	if e.state == StateDeleted {
		return &StaleInstanceError{Entity: e.schema.EntityName(), ID: e.ID()}
	}

	field, ok := e.schema.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, e.schema.EntityName(), name)
	}

	if field.ReadOnly {
		return &ReadOnlyFieldError{Entity: e.schema.EntityName(), Field: name}
	}

	normalized, err := field.normalize(value)
	if err != nil {
		return err
	}

	e.values[name] = normalized
	e.dirty[name] = struct{}{}

	return nil
}

// SetAll assigns multiple fields, stopping at the first failure.
func (e *Entity) SetAll(values map[string]any) error {
	for _, name := range sortedKeys(values) {
		if err := e.Set(name, values[name]); err != nil {
			return err
		}
	}

	return nil
}

// IsSet reports whether the field holds a value, explicit nil included.
func (e *Entity) IsSet(name string) bool {
	_, set := e.values[name]

	return set
}

// Dirty returns the names assigned since the last synchronization,
// sorted.
func (e *Entity) Dirty() []string {
	return sortedNames(e.dirty)
}

// IsDirty reports whether any field awaits synchronization.
func (e *Entity) IsDirty() bool {
	return len(e.dirty) > 0
}

// Values returns a copy of the set fields in internal representation.
func (e *Entity) Values() map[string]any {
	values := make(map[string]any, len(e.values))
	for name, value := range e.values {
		values[name] = value
	}

	return values
}

// Hydrate loads decoded wire values into the instance: every declared
// field present in the map is converted to its internal
// representation, the dirty set is cleared, and the state becomes
// PERSISTED. Undeclared keys are ignored; declared fields absent from
// the map keep their current value, which folds server-assigned
// columns into a just-created instance without losing local ones.
func (e *Entity) Hydrate(wire map[string]any) error {
	if e.state == StateDeleted {
		return &StaleInstanceError{Entity: e.schema.EntityName(), ID: e.ID()}
	}

	for _, name := range e.schema.FieldNames() {
		raw, present := wire[name]
		if !present {
			continue
		}

		field, _ := e.schema.Field(name)

		value, err := field.fromWire(raw)
		if err != nil {
			return err
		}

		e.values[name] = value
	}

	e.dirty = make(map[string]struct{})
	e.state = StatePersisted

	return nil
}

// MarkClean clears the dirty set without touching values.
func (e *Entity) MarkClean() {
	e.dirty = make(map[string]struct{})
}

// Reset drops every local value and dirty mark, ahead of a reload.
func (e *Entity) Reset() {
	e.values = make(map[string]any)
	e.dirty = make(map[string]struct{})
}

// MarkDeleted moves the instance to its terminal state.
func (e *Entity) MarkDeleted() {
	e.state = StateDeleted
}

// Payload builds the wire map for a write. NEW instances and forced
// saves send every set writable field; otherwise only dirty ones go
// out. Explicit nil values are included so fields can be cleared.
func (e *Entity) Payload(force bool) map[string]any {
	payload := make(map[string]any)

	for _, name := range e.schema.WritableNames() {
		value, set := e.values[name]
		if !set {
			continue
		}

		if !force && e.state == StatePersisted {
			if _, dirty := e.dirty[name]; !dirty {
				continue
			}
		}

		field, _ := e.schema.Field(name)
		payload[name] = field.toWire(value)
	}

	return payload
}

// ToRecord renders the instance as a portable record: entity name,
// identifier, creation timestamp when known, and all set fields in
// wire encoding.
func (e *Entity) ToRecord() Record {
	record := Record{
		Entity: e.schema.EntityName(),
		ID:     e.ID(),
		Fields: make(map[string]any),
	}

	for _, name := range e.schema.FieldNames() {
		value, set := e.values[name]
		if !set || name == IDField {
			continue
		}

		field, _ := e.schema.Field(name)
		record.Fields[name] = field.toWire(value)
	}

	if created, ok := record.Fields[addTimeField].(string); ok {
		record.CreatedAt = created
	}

	return record
}

// FromRecord rebuilds an instance from a record produced by ToRecord.
// The record's entity name must match the schema. A record carrying an
// identifier yields a PERSISTED instance, one without stays NEW.
func FromRecord(schema *Schema, record Record) (*Entity, error) {
	if schema == nil {
		return nil, ErrSchemaRequired
	}

	if record.Entity != schema.EntityName() {
		return nil, fmt.Errorf("%w: record %q, schema %q", ErrEntityMismatch, record.Entity, schema.EntityName())
	}

	entity := NewEntity(schema)

	wire := make(map[string]any, len(record.Fields)+1)
	for name, value := range record.Fields {
		wire[name] = value
	}

	if record.ID != "" {
		wire[IDField] = record.ID
	}

	if err := entity.Hydrate(wire); err != nil {
		return nil, err
	}

	if record.ID == "" {
		entity.state = StateNew
	}

	return entity, nil
}

// Model is anything backed by an Entity. Typed models satisfy it by
// embedding Entity.
type Model interface {
	Base() *Entity
}

func sortedKeys(values map[string]any) []string {
	set := make(map[string]struct{}, len(values))
	for name := range values {
		set[name] = struct{}{}
	}

	return sortedNames(set)
}
