package models

import (
	"context"
	"time"

	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
)

// LeadLabelSchema describes the leadLabels collection. Lead labels are
// identified by UUID strings rather than integers, so the identifier is
// declared as a text field.
var LeadLabelSchema = pipedrive.MustNewSchema("leadLabels", pipedrive.V1,
	pipedrive.Text(pipedrive.IDField).WithReadOnly(),
	pipedrive.Text("name"),
	pipedrive.Text("color"),
	pipedrive.Datetime("add_time").WithReadOnly(),
	pipedrive.Datetime("update_time").WithReadOnly(),
)

// LeadLabel is a typed wrapper over a leadLabels entity.
type LeadLabel struct {
	*pipedrive.Entity
}

// NewLeadLabel creates an unsaved lead label.
func NewLeadLabel() *LeadLabel {
	return &LeadLabel{Entity: pipedrive.NewEntity(LeadLabelSchema)}
}

// ListLeadLabels retrieves every lead label. The collection has no
// single-record read, so there is no fetch helper.
func ListLeadLabels(ctx context.Context, client pipedrive.Client, params *pipedrive.ListParams) ([]*LeadLabel, error) {
	entities, err := client.All(ctx, LeadLabelSchema, params)
	if err != nil {
		return nil, err
	}

	labels := make([]*LeadLabel, 0, len(entities))
	for _, entity := range entities {
		labels = append(labels, &LeadLabel{Entity: entity})
	}

	return labels, nil
}

func (l *LeadLabel) Name() string { return l.GetString("name") }

func (l *LeadLabel) SetName(v string) error { return l.Set("name", v) }

// Color is one of the label colors the UI offers, for example "green".
func (l *LeadLabel) Color() string { return l.GetString("color") }

func (l *LeadLabel) SetColor(v string) error { return l.Set("color", v) }

func (l *LeadLabel) AddTime() time.Time { return l.GetTime("add_time") }

func (l *LeadLabel) UpdateTime() time.Time { return l.GetTime("update_time") }
