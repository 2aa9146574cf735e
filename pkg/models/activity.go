package models

import (
	"context"
	"time"

	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
)

// ActivitySchema describes the activities collection. Activities are
// calendar items such as calls, meetings, or tasks, optionally linked to
// a deal, lead, person, organization, or project. The due time is a
// clock time without a date and the duration travels as "HH:MM".
var ActivitySchema = pipedrive.MustNewSchema("activities", pipedrive.V2,
	pipedrive.Text("subject"),
	pipedrive.Text("type"),
	pipedrive.Integer("owner_id"),
	pipedrive.Boolean("is_deleted").WithReadOnly(),
	pipedrive.Datetime("add_time").WithReadOnly(),
	pipedrive.Datetime("update_time").WithReadOnly(),
	pipedrive.Integer("deal_id"),
	pipedrive.Integer("lead_id"),
	pipedrive.Integer("person_id"),
	pipedrive.Integer("org_id"),
	pipedrive.Integer("project_id"),
	pipedrive.Date("due_date"),
	pipedrive.TimeOfDay("due_time"),
	pipedrive.Duration("duration"),
	pipedrive.Boolean("done"),
	pipedrive.Boolean("busy"),
	pipedrive.Datetime("marked_as_done_time").WithReadOnly(),
	pipedrive.Object("location"),
	pipedrive.Collection("participants"),
	pipedrive.Collection("attendees"),
	pipedrive.Text("conference_meeting_client").WithReadOnly(),
	pipedrive.Text("conference_meeting_url").WithReadOnly(),
	pipedrive.Integer("conference_meeting_id").WithReadOnly(),
	pipedrive.Text("public_description"),
	pipedrive.Integer("priority"),
	pipedrive.Text("note"),
)

// Activity is a typed wrapper over an activities entity.
type Activity struct {
	*pipedrive.Entity
}

// NewActivity creates an unsaved activity.
func NewActivity() *Activity {
	return &Activity{Entity: pipedrive.NewEntity(ActivitySchema)}
}

// FetchActivity retrieves one activity by identifier.
func FetchActivity(ctx context.Context, client pipedrive.Client, id string) (*Activity, error) {
	entity, err := client.Fetch(ctx, ActivitySchema, id)
	if err != nil {
		return nil, err
	}

	return &Activity{Entity: entity}, nil
}

// ListActivities retrieves every activity matching the given parameters,
// walking all pages.
func ListActivities(ctx context.Context, client pipedrive.Client, params *pipedrive.ListParams) ([]*Activity, error) {
	entities, err := client.All(ctx, ActivitySchema, params)
	if err != nil {
		return nil, err
	}

	activities := make([]*Activity, 0, len(entities))
	for _, entity := range entities {
		activities = append(activities, &Activity{Entity: entity})
	}

	return activities, nil
}

func (a *Activity) Subject() string { return a.GetString("subject") }

func (a *Activity) SetSubject(v string) error { return a.Set("subject", v) }

// Type is an activity type key string, for example "call" or "meeting".
func (a *Activity) Type() string { return a.GetString("type") }

func (a *Activity) SetType(v string) error { return a.Set("type", v) }

func (a *Activity) OwnerID() int64 { return a.GetInt("owner_id") }

func (a *Activity) SetOwnerID(v int64) error { return a.Set("owner_id", v) }

func (a *Activity) DealID() int64 { return a.GetInt("deal_id") }

func (a *Activity) SetDealID(v int64) error { return a.Set("deal_id", v) }

func (a *Activity) PersonID() int64 { return a.GetInt("person_id") }

func (a *Activity) SetPersonID(v int64) error { return a.Set("person_id", v) }

func (a *Activity) OrgID() int64 { return a.GetInt("org_id") }

func (a *Activity) SetOrgID(v int64) error { return a.Set("org_id", v) }

func (a *Activity) DueDate() time.Time { return a.GetTime("due_date") }

func (a *Activity) SetDueDate(v time.Time) error { return a.Set("due_date", v) }

// DueTime returns the wall-clock due time in "15:04" form.
func (a *Activity) DueTime() string { return a.GetString("due_time") }

func (a *Activity) SetDueTime(v string) error { return a.Set("due_time", v) }

func (a *Activity) Duration() time.Duration { return a.GetDuration("duration") }

func (a *Activity) SetDuration(v time.Duration) error { return a.Set("duration", v) }

func (a *Activity) Done() bool { return a.GetBool("done") }

func (a *Activity) SetDone(v bool) error { return a.Set("done", v) }

func (a *Activity) Busy() bool { return a.GetBool("busy") }

func (a *Activity) SetBusy(v bool) error { return a.Set("busy", v) }

func (a *Activity) Note() string { return a.GetString("note") }

func (a *Activity) SetNote(v string) error { return a.Set("note", v) }

func (a *Activity) MarkedAsDoneTime() time.Time { return a.GetTime("marked_as_done_time") }

func (a *Activity) AddTime() time.Time { return a.GetTime("add_time") }

func (a *Activity) UpdateTime() time.Time { return a.GetTime("update_time") }
