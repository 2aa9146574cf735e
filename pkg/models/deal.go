package models

import (
	"context"
	"time"

	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
)

// DealSchema describes the deals collection. Deals represent ongoing, won,
// or lost sales to an organization or to a person; each has a monetary
// value and sits in a pipeline stage.
var DealSchema = pipedrive.MustNewSchema("deals", pipedrive.V2,
	pipedrive.Text("title"),
	pipedrive.Integer("creator_user_id").WithReadOnly(),
	pipedrive.Integer("user_id").WithReadOnly(),
	pipedrive.Integer("org_id"),
	pipedrive.Integer("person_id"),
	pipedrive.Integer("stage_id"),
	pipedrive.Integer("pipeline_id"),
	pipedrive.Integer("owner_id"),
	pipedrive.Float("value"),
	pipedrive.Text("currency"),
	pipedrive.Datetime("add_time").WithReadOnly(),
	pipedrive.Datetime("update_time").WithReadOnly(),
	pipedrive.Text("status"),
	pipedrive.Integer("probability"),
	pipedrive.Text("lost_reason"),
	pipedrive.Integer("visible_to"),
	pipedrive.Datetime("close_time"),
	pipedrive.Datetime("won_time"),
	pipedrive.Datetime("lost_time"),
	pipedrive.Datetime("stage_change_time"),
	pipedrive.Date("local_won_date"),
	pipedrive.Date("local_lost_date"),
	pipedrive.Date("local_close_date"),
	pipedrive.Date("expected_close_date"),
	pipedrive.Collection("label_ids"),
	pipedrive.Boolean("is_deleted").WithReadOnly(),
	pipedrive.Text("origin"),
	pipedrive.Text("origin_id"),
	pipedrive.Text("channel"),
	pipedrive.Integer("channel_id"),
	pipedrive.Boolean("is_archived"),
	pipedrive.Datetime("archive_time"),
	pipedrive.Float("acv"),
	pipedrive.Float("arr"),
	pipedrive.Float("mrr"),
	pipedrive.Object("custom_fields"),
)

// Deal is a typed wrapper over a deals entity.
type Deal struct {
	*pipedrive.Entity
}

// NewDeal creates an unsaved deal.
func NewDeal() *Deal {
	return &Deal{Entity: pipedrive.NewEntity(DealSchema)}
}

// FetchDeal retrieves one deal by identifier.
func FetchDeal(ctx context.Context, client pipedrive.Client, id string) (*Deal, error) {
	entity, err := client.Fetch(ctx, DealSchema, id)
	if err != nil {
		return nil, err
	}

	return &Deal{Entity: entity}, nil
}

// ListDeals retrieves every deal matching the given parameters, walking
// all pages.
func ListDeals(ctx context.Context, client pipedrive.Client, params *pipedrive.ListParams) ([]*Deal, error) {
	entities, err := client.All(ctx, DealSchema, params)
	if err != nil {
		return nil, err
	}

	deals := make([]*Deal, 0, len(entities))
	for _, entity := range entities {
		deals = append(deals, &Deal{Entity: entity})
	}

	return deals, nil
}

func (d *Deal) Title() string { return d.GetString("title") }

func (d *Deal) SetTitle(v string) error { return d.Set("title", v) }

func (d *Deal) Value() float64 { return d.GetFloat("value") }

func (d *Deal) SetValue(v float64) error { return d.Set("value", v) }

func (d *Deal) Currency() string { return d.GetString("currency") }

// SetCurrency sets the ISO code the deal value is expressed in.
func (d *Deal) SetCurrency(v string) error { return d.Set("currency", v) }

// Status is one of "open", "won", "lost", or "deleted".
func (d *Deal) Status() string { return d.GetString("status") }

func (d *Deal) SetStatus(v string) error { return d.Set("status", v) }

func (d *Deal) StageID() int64 { return d.GetInt("stage_id") }

func (d *Deal) SetStageID(v int64) error { return d.Set("stage_id", v) }

func (d *Deal) PipelineID() int64 { return d.GetInt("pipeline_id") }

func (d *Deal) SetPipelineID(v int64) error { return d.Set("pipeline_id", v) }

func (d *Deal) OwnerID() int64 { return d.GetInt("owner_id") }

func (d *Deal) SetOwnerID(v int64) error { return d.Set("owner_id", v) }

func (d *Deal) OrgID() int64 { return d.GetInt("org_id") }

func (d *Deal) SetOrgID(v int64) error { return d.Set("org_id", v) }

func (d *Deal) PersonID() int64 { return d.GetInt("person_id") }

func (d *Deal) SetPersonID(v int64) error { return d.Set("person_id", v) }

func (d *Deal) Probability() int64 { return d.GetInt("probability") }

func (d *Deal) SetProbability(v int64) error { return d.Set("probability", v) }

func (d *Deal) LostReason() string { return d.GetString("lost_reason") }

func (d *Deal) SetLostReason(v string) error { return d.Set("lost_reason", v) }

func (d *Deal) ExpectedCloseDate() time.Time { return d.GetTime("expected_close_date") }

func (d *Deal) SetExpectedCloseDate(v time.Time) error { return d.Set("expected_close_date", v) }

func (d *Deal) AddTime() time.Time { return d.GetTime("add_time") }

func (d *Deal) UpdateTime() time.Time { return d.GetTime("update_time") }
