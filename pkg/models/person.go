package models

import (
	"context"
	"time"

	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
)

// PersonSchema describes the persons collection. Phones, emails, and
// instant-messenger handles are lists of labeled objects on the wire, so
// they surface here as collection fields.
var PersonSchema = pipedrive.MustNewSchema("persons", pipedrive.V2,
	pipedrive.Text("name"),
	pipedrive.Text("first_name"),
	pipedrive.Text("last_name"),
	pipedrive.Datetime("add_time").WithReadOnly(),
	pipedrive.Datetime("update_time").WithReadOnly(),
	pipedrive.Integer("visible_to"),
	pipedrive.Integer("owner_id").WithReadOnly(),
	pipedrive.Collection("label_ids"),
	pipedrive.Integer("org_id").WithReadOnly(),
	pipedrive.Boolean("is_deleted").WithReadOnly(),
	pipedrive.Integer("picture_id").WithReadOnly(),
	pipedrive.Collection("phones"),
	pipedrive.Collection("emails"),
	pipedrive.Collection("im"),
	pipedrive.Object("postal_address"),
	pipedrive.Text("notes"),
	pipedrive.Text("job_title"),
	pipedrive.Date("birthday"),
)

// Person is a typed wrapper over a persons entity.
type Person struct {
	*pipedrive.Entity
}

// NewPerson creates an unsaved person.
func NewPerson() *Person {
	return &Person{Entity: pipedrive.NewEntity(PersonSchema)}
}

// FetchPerson retrieves one person by identifier.
func FetchPerson(ctx context.Context, client pipedrive.Client, id string) (*Person, error) {
	entity, err := client.Fetch(ctx, PersonSchema, id)
	if err != nil {
		return nil, err
	}

	return &Person{Entity: entity}, nil
}

// ListPersons retrieves every person matching the given parameters,
// walking all pages.
func ListPersons(ctx context.Context, client pipedrive.Client, params *pipedrive.ListParams) ([]*Person, error) {
	entities, err := client.All(ctx, PersonSchema, params)
	if err != nil {
		return nil, err
	}

	persons := make([]*Person, 0, len(entities))
	for _, entity := range entities {
		persons = append(persons, &Person{Entity: entity})
	}

	return persons, nil
}

func (p *Person) Name() string { return p.GetString("name") }

func (p *Person) SetName(v string) error { return p.Set("name", v) }

func (p *Person) FirstName() string { return p.GetString("first_name") }

func (p *Person) SetFirstName(v string) error { return p.Set("first_name", v) }

func (p *Person) LastName() string { return p.GetString("last_name") }

func (p *Person) SetLastName(v string) error { return p.Set("last_name", v) }

func (p *Person) JobTitle() string { return p.GetString("job_title") }

func (p *Person) SetJobTitle(v string) error { return p.Set("job_title", v) }

func (p *Person) Notes() string { return p.GetString("notes") }

func (p *Person) SetNotes(v string) error { return p.Set("notes", v) }

func (p *Person) Birthday() time.Time { return p.GetTime("birthday") }

func (p *Person) SetBirthday(v time.Time) error { return p.Set("birthday", v) }

func (p *Person) OwnerID() int64 { return p.GetInt("owner_id") }

func (p *Person) OrgID() int64 { return p.GetInt("org_id") }

// Emails returns the labeled email objects as they came off the wire.
func (p *Person) Emails() []any {
	emails, _ := p.Value("emails").([]any)

	return emails
}

// SetEmails replaces the labeled email objects, for example
// []any{map[string]any{"value": "a@b.co", "label": "work", "primary": true}}.
func (p *Person) SetEmails(v []any) error { return p.Set("emails", v) }

// Phones returns the labeled phone objects as they came off the wire.
func (p *Person) Phones() []any {
	phones, _ := p.Value("phones").([]any)

	return phones
}

// SetPhones replaces the labeled phone objects.
func (p *Person) SetPhones(v []any) error { return p.Set("phones", v) }

func (p *Person) AddTime() time.Time { return p.GetTime("add_time") }

func (p *Person) UpdateTime() time.Time { return p.GetTime("update_time") }
