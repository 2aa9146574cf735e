package models

import (
	"context"
	"time"

	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
)

// ActivityTypeSchema describes the activityTypes collection. Activity
// types only exist on the legacy host, so the schema targets V1: updates
// go out as PUT and listing pages by offset. The key string is generated
// by the API from the name on creation and links types to activities.
var ActivityTypeSchema = pipedrive.MustNewSchema("activityTypes", pipedrive.V1,
	pipedrive.Integer("order_nr"),
	pipedrive.Text("name"),
	pipedrive.Text("key_string").WithReadOnly(),
	pipedrive.Text("icon_key"),
	pipedrive.Boolean("active_flag"),
	pipedrive.Text("color"),
	pipedrive.Boolean("is_custom_flag").WithReadOnly(),
	pipedrive.Datetime("add_time").WithReadOnly(),
	pipedrive.Datetime("update_time").WithReadOnly(),
)

// ActivityType is a typed wrapper over an activityTypes entity.
type ActivityType struct {
	*pipedrive.Entity
}

// NewActivityType creates an unsaved activity type.
func NewActivityType() *ActivityType {
	return &ActivityType{Entity: pipedrive.NewEntity(ActivityTypeSchema)}
}

// ListActivityTypes retrieves every activity type. The collection has no
// single-record read, so there is no fetch helper.
func ListActivityTypes(ctx context.Context, client pipedrive.Client, params *pipedrive.ListParams) ([]*ActivityType, error) {
	entities, err := client.All(ctx, ActivityTypeSchema, params)
	if err != nil {
		return nil, err
	}

	types := make([]*ActivityType, 0, len(entities))
	for _, entity := range entities {
		types = append(types, &ActivityType{Entity: entity})
	}

	return types, nil
}

func (t *ActivityType) Name() string { return t.GetString("name") }

func (t *ActivityType) SetName(v string) error { return t.Set("name", v) }

// KeyString is the stable identifier referenced by Activity.Type.
func (t *ActivityType) KeyString() string { return t.GetString("key_string") }

func (t *ActivityType) IconKey() string { return t.GetString("icon_key") }

func (t *ActivityType) SetIconKey(v string) error { return t.Set("icon_key", v) }

func (t *ActivityType) Color() string { return t.GetString("color") }

func (t *ActivityType) SetColor(v string) error { return t.Set("color", v) }

func (t *ActivityType) OrderNr() int64 { return t.GetInt("order_nr") }

func (t *ActivityType) SetOrderNr(v int64) error { return t.Set("order_nr", v) }

func (t *ActivityType) ActiveFlag() bool { return t.GetBool("active_flag") }

func (t *ActivityType) SetActiveFlag(v bool) error { return t.Set("active_flag", v) }

func (t *ActivityType) AddTime() time.Time { return t.GetTime("add_time") }

func (t *ActivityType) UpdateTime() time.Time { return t.GetTime("update_time") }
