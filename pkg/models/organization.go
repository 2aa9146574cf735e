package models

import (
	"context"
	"time"

	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
)

// OrganizationSchema describes the organizations collection.
var OrganizationSchema = pipedrive.MustNewSchema("organizations", pipedrive.V2,
	pipedrive.Text("name"),
	pipedrive.Datetime("add_time").WithReadOnly(),
	pipedrive.Datetime("update_time").WithReadOnly(),
	pipedrive.Integer("visible_to"),
	pipedrive.Integer("owner_id"),
	pipedrive.Collection("label_ids"),
	pipedrive.Boolean("is_deleted").WithReadOnly(),
	pipedrive.Object("address"),
)

// Organization is a typed wrapper over an organizations entity.
type Organization struct {
	*pipedrive.Entity
}

// NewOrganization creates an unsaved organization.
func NewOrganization() *Organization {
	return &Organization{Entity: pipedrive.NewEntity(OrganizationSchema)}
}

// FetchOrganization retrieves one organization by identifier.
func FetchOrganization(ctx context.Context, client pipedrive.Client, id string) (*Organization, error) {
	entity, err := client.Fetch(ctx, OrganizationSchema, id)
	if err != nil {
		return nil, err
	}

	return &Organization{Entity: entity}, nil
}

// ListOrganizations retrieves every organization matching the given
// parameters, walking all pages.
func ListOrganizations(ctx context.Context, client pipedrive.Client, params *pipedrive.ListParams) ([]*Organization, error) {
	entities, err := client.All(ctx, OrganizationSchema, params)
	if err != nil {
		return nil, err
	}

	orgs := make([]*Organization, 0, len(entities))
	for _, entity := range entities {
		orgs = append(orgs, &Organization{Entity: entity})
	}

	return orgs, nil
}

func (o *Organization) Name() string { return o.GetString("name") }

func (o *Organization) SetName(v string) error { return o.Set("name", v) }

func (o *Organization) OwnerID() int64 { return o.GetInt("owner_id") }

func (o *Organization) SetOwnerID(v int64) error { return o.Set("owner_id", v) }

func (o *Organization) VisibleTo() int64 { return o.GetInt("visible_to") }

func (o *Organization) SetVisibleTo(v int64) error { return o.Set("visible_to", v) }

// Address returns the structured address object, keyed by component
// such as "street_number", "city", or "postal_code".
func (o *Organization) Address() map[string]any {
	address, _ := o.Value("address").(map[string]any)

	return address
}

// SetAddress replaces the structured address object.
func (o *Organization) SetAddress(v map[string]any) error { return o.Set("address", v) }

func (o *Organization) AddTime() time.Time { return o.GetTime("add_time") }

func (o *Organization) UpdateTime() time.Time { return o.GetTime("update_time") }
