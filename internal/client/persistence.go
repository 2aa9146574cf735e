package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
)

// Save implements pipedrive.EntityOperations.Save.
func (c *Client) Save(ctx context.Context, model pipedrive.Model, opts ...pipedrive.SaveOption) (*pipedrive.SaveResult, error) {
	entity, err := baseOf(model)
	if err != nil {
		return nil, err
	}

	if entity.IsDeleted() {
		return nil, &pipedrive.StaleInstanceError{Entity: entity.Schema().EntityName(), ID: entity.ID()}
	}

	options := pipedrive.NewSaveOptions(opts...)

	if entity.IsNew() {
		return c.create(ctx, entity, options)
	}

	return c.update(ctx, entity, options)
}

// create posts every set writable field and folds the returned record
// back into the instance, picking up server-assigned columns.
func (c *Client) create(ctx context.Context, entity *pipedrive.Entity, options *pipedrive.SaveOptions) (*pipedrive.SaveResult, error) {
	schema := entity.Schema()
	payload := entity.Payload(true)

	env, err := c.do(ctx, schema.Version(), http.MethodPost, entityPath(schema), nil, payload)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", schema.EntityName(), err)
	}

	record, err := env.One()
	if err != nil {
		return nil, fmt.Errorf("reading created %s record: %w", schema.EntityName(), err)
	}

	err = entity.Hydrate(record)
	if err != nil {
		return nil, fmt.Errorf("loading created %s record: %w", schema.EntityName(), err)
	}

	c.storeRecord(ctx, schema, entity.ID(), env.Data)

	return &pipedrive.SaveResult{
		ID:         entity.ID(),
		Created:    true,
		Forced:     options.Force,
		FieldNames: payloadNames(payload),
	}, nil
}

// update sends dirty fields only, or every set writable field when
// forced. A clean instance performs no request at all.
func (c *Client) update(ctx context.Context, entity *pipedrive.Entity, options *pipedrive.SaveOptions) (*pipedrive.SaveResult, error) {
	schema := entity.Schema()
	id := entity.ID()

	if id == "" {
		return nil, pipedrive.ErrNotPersisted
	}

	if !entity.IsDirty() && !options.Force {
		return &pipedrive.SaveResult{ID: id}, nil
	}

	strategy := strategyFor(schema.Version())
	payload := entity.Payload(options.Force)

	env, err := c.do(ctx, schema.Version(), strategy.UpdateMethod(), recordPath(schema, id), nil, payload)
	if err != nil {
		return nil, fmt.Errorf("updating %s %s: %w", schema.EntityName(), id, err)
	}

	if env.HasData() {
		record, err := env.One()
		if err != nil {
			return nil, fmt.Errorf("reading updated %s record: %w", schema.EntityName(), err)
		}

		err = entity.Hydrate(record)
		if err != nil {
			return nil, fmt.Errorf("loading updated %s record: %w", schema.EntityName(), err)
		}
	} else {
		entity.MarkClean()
	}

	c.invalidateRecord(ctx, schema, id)
	c.storeRecord(ctx, schema, id, env.Data)

	return &pipedrive.SaveResult{
		ID:         entity.ID(),
		Updated:    true,
		Forced:     options.Force,
		FieldNames: payloadNames(payload),
	}, nil
}

// Refresh implements pipedrive.EntityOperations.Refresh.
func (c *Client) Refresh(ctx context.Context, model pipedrive.Model) error {
	entity, err := baseOf(model)
	if err != nil {
		return err
	}

	schema := entity.Schema()

	if entity.IsDeleted() {
		return &pipedrive.StaleInstanceError{Entity: schema.EntityName(), ID: entity.ID()}
	}

	id := entity.ID()
	if entity.IsNew() || id == "" {
		return pipedrive.ErrNotPersisted
	}

	env, err := c.do(ctx, schema.Version(), http.MethodGet, recordPath(schema, id), nil, nil)
	if err != nil {
		return fmt.Errorf("refreshing %s %s: %w", schema.EntityName(), id, err)
	}

	record, err := env.One()
	if err != nil {
		return fmt.Errorf("reading %s record: %w", schema.EntityName(), err)
	}

	entity.Reset()

	err = entity.Hydrate(record)
	if err != nil {
		return fmt.Errorf("loading %s record: %w", schema.EntityName(), err)
	}

	c.invalidateRecord(ctx, schema, id)
	c.storeRecord(ctx, schema, id, env.Data)

	return nil
}

// Delete implements pipedrive.EntityOperations.Delete.
func (c *Client) Delete(ctx context.Context, model pipedrive.Model) error {
	entity, err := baseOf(model)
	if err != nil {
		return err
	}

	schema := entity.Schema()

	if entity.IsDeleted() {
		return &pipedrive.StaleInstanceError{Entity: schema.EntityName(), ID: entity.ID()}
	}

	id := entity.ID()
	if entity.IsNew() || id == "" {
		return pipedrive.ErrNotPersisted
	}

	_, err = c.do(ctx, schema.Version(), http.MethodDelete, recordPath(schema, id), nil, nil)
	if err != nil {
		if !isAlreadyDeleted(err) {
			return fmt.Errorf("deleting %s %s: %w", schema.EntityName(), id, err)
		}

		if c.logger != nil {
			c.logger.Warn("record was already deleted remotely", map[string]interface{}{
				"entity": schema.EntityName(),
				"id":     id,
			})
		}
	}

	entity.MarkDeleted()
	c.invalidateRecord(ctx, schema, id)

	return nil
}

// BatchDelete implements pipedrive.EntityOperations.BatchDelete. The
// identifiers travel comma-joined in one request; the result reports
// which of them the API actually removed.
func (c *Client) BatchDelete(ctx context.Context, schema *pipedrive.Schema, ids ...string) (*pipedrive.BatchDeleteResult, error) {
	if schema == nil {
		return nil, pipedrive.ErrSchemaRequired
	}

	if len(ids) == 0 {
		return nil, pipedrive.ErrNoIDs
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))

	env, err := c.do(ctx, schema.Version(), http.MethodDelete, entityPath(schema), query, nil)
	if err != nil {
		return nil, fmt.Errorf("batch deleting %s: %w", schema.EntityName(), err)
	}

	deleted := deletedIDSet(env, ids)

	result := &pipedrive.BatchDeleteResult{
		Outcomes: make([]pipedrive.BatchDeleteOutcome, 0, len(ids)),
	}

	for _, id := range ids {
		outcome := pipedrive.BatchDeleteOutcome{ID: id}

		if _, ok := deleted[id]; ok {
			outcome.Deleted = true

			c.invalidateRecord(ctx, schema, id)
		} else {
			outcome.Reason = "not deleted"
		}

		result.Outcomes = append(result.Outcomes, outcome)
	}

	return result, nil
}

// deletedIDSet reads the identifiers the API confirmed deleted. An
// envelope without them means everything asked for went away.
func deletedIDSet(env *pipedrive.Envelope, requested []string) map[string]struct{} {
	deleted := make(map[string]struct{}, len(requested))

	record, err := env.One()
	if err != nil {
		for _, id := range requested {
			deleted[id] = struct{}{}
		}

		return deleted
	}

	confirmed, ok := record[pipedrive.IDField].([]any)
	if !ok {
		for _, id := range requested {
			deleted[id] = struct{}{}
		}

		return deleted
	}

	for _, raw := range confirmed {
		deleted[formatWireID(raw)] = struct{}{}
	}

	return deleted
}

// formatWireID renders a wire identifier value as a string.
func formatWireID(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// isAlreadyDeleted reports whether an API failure only says the
// record was gone before we asked.
func isAlreadyDeleted(err error) bool {
	var apiErr *pipedrive.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	return strings.Contains(strings.ToLower(apiErr.Message), "already deleted")
}

// baseOf unwraps a model's backing entity.
func baseOf(model pipedrive.Model) (*pipedrive.Entity, error) {
	if model == nil {
		return nil, pipedrive.ErrNilEntity
	}

	entity := model.Base()
	if entity == nil {
		return nil, pipedrive.ErrNilEntity
	}

	return entity, nil
}

// payloadNames lists the wire names sent in a write, sorted.
func payloadNames(payload map[string]any) []string {
	if len(payload) == 0 {
		return nil
	}

	names := make([]string, 0, len(payload))
	for name := range payload {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
