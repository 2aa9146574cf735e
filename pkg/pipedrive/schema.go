package pipedrive

import (
	"fmt"
	"regexp"
)

// identifierPattern constrains field names to wire-safe snake case.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IDField is the remote name of the identifier every entity carries.
const IDField = "id"

// Schema is the explicit, immutable declaration of one entity type:
// its collection name (which doubles as the endpoint path segment),
// the API version that serves it, and its field specs keyed by remote
// name. Build one with NewSchema and share it across all instances.
type Schema struct {
	entityName string
	version    Version
	fields     map[string]FieldSpec
	order      []string
}

// NewSchema validates and builds a schema. Field names must be unique,
// wire-safe identifiers. When no "id" field is declared a read-only
// integer one is added; a declared "id" must be read-only and either
// integer or text.
func NewSchema(entityName string, version Version, fields ...FieldSpec) (*Schema, error) {
	if entityName == "" {
		return nil, ErrEntityNameRequired
	}

	if !version.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, version)
	}

	schema := &Schema{
		entityName: entityName,
		version:    version,
		fields:     make(map[string]FieldSpec, len(fields)+1),
		order:      make([]string, 0, len(fields)+1),
	}

	for _, field := range fields {
		if field.RemoteName == "" {
			return nil, fmt.Errorf("%w: %s", ErrFieldNameRequired, entityName)
		}

		if !identifierPattern.MatchString(field.RemoteName) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, field.RemoteName)
		}

		if !field.Kind.Valid() {
			return nil, fmt.Errorf("%w: field %q", ErrUnknownKind, field.RemoteName)
		}

		if _, exists := schema.fields[field.RemoteName]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, field.RemoteName)
		}

		if field.RemoteName == IDField {
			if !field.ReadOnly {
				return nil, fmt.Errorf("%w: %q must be read-only", ErrInvalidIdentifier, IDField)
			}

			if field.Kind != KindInteger && field.Kind != KindText {
				return nil, fmt.Errorf("%w: %q must be integer or text", ErrInvalidIdentifier, IDField)
			}
		}

		schema.fields[field.RemoteName] = field
		schema.order = append(schema.order, field.RemoteName)
	}

	if _, declared := schema.fields[IDField]; !declared {
		schema.fields[IDField] = Integer(IDField).WithReadOnly()
		schema.order = append([]string{IDField}, schema.order...)
	}

	return schema, nil
}

// MustNewSchema is NewSchema but panics on error, for package-level
// schema declarations.
func MustNewSchema(entityName string, version Version, fields ...FieldSpec) *Schema {
	schema, err := NewSchema(entityName, version, fields...)
	if err != nil {
		panic(err)
	}

	return schema
}

// EntityName returns the collection name, e.g. "deals".
func (s *Schema) EntityName() string {
	return s.entityName
}

// Version returns the API version that serves this entity.
func (s *Schema) Version() Version {
	return s.version
}

// Field looks up a spec by remote name.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	field, ok := s.fields[name]

	return field, ok
}

// Has reports whether the schema declares the named field.
func (s *Schema) Has(name string) bool {
	_, ok := s.fields[name]

	return ok
}

// FieldNames returns all remote names in declaration order, identifier
// first.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)

	return names
}

// Fields returns all specs in declaration order.
func (s *Schema) Fields() []FieldSpec {
	fields := make([]FieldSpec, 0, len(s.order))
	for _, name := range s.order {
		fields = append(fields, s.fields[name])
	}

	return fields
}

// WritableNames returns the remote names of fields callers may assign,
// in declaration order.
func (s *Schema) WritableNames() []string {
	names := make([]string, 0, len(s.order))

	for _, name := range s.order {
		if !s.fields[name].ReadOnly {
			names = append(names, name)
		}
	}

	return names
}

// IDKind returns the kind of the identifier field.
func (s *Schema) IDKind() FieldKind {
	return s.fields[IDField].Kind
}
