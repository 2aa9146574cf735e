package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
)

// Fetch implements pipedrive.EntityOperations.Fetch.
func (c *Client) Fetch(ctx context.Context, schema *pipedrive.Schema, id string) (*pipedrive.Entity, error) {
	if schema == nil {
		return nil, pipedrive.ErrSchemaRequired
	}

	if id == "" {
		return nil, pipedrive.ErrIDRequired
	}

	if record, ok := c.cachedRecord(ctx, schema, id); ok {
		entity := pipedrive.NewEntity(schema)

		err := entity.Hydrate(record)
		if err == nil {
			return entity, nil
		}

		c.invalidateRecord(ctx, schema, id)
	}

	env, err := c.do(ctx, schema.Version(), http.MethodGet, recordPath(schema, id), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", schema.EntityName(), err)
	}

	record, err := env.One()
	if err != nil {
		return nil, fmt.Errorf("reading %s record: %w", schema.EntityName(), err)
	}

	entity := pipedrive.NewEntity(schema)

	err = entity.Hydrate(record)
	if err != nil {
		return nil, fmt.Errorf("loading %s record: %w", schema.EntityName(), err)
	}

	c.storeRecord(ctx, schema, id, env.Data)

	return entity, nil
}

// ListPage implements pipedrive.EntityOperations.ListPage.
func (c *Client) ListPage(ctx context.Context, schema *pipedrive.Schema, params *pipedrive.ListParams, token pipedrive.PageToken) (*pipedrive.Page, error) {
	if schema == nil {
		return nil, pipedrive.ErrSchemaRequired
	}

	strategy := strategyFor(schema.Version())

	query := params.ToValues(schema.Version())
	strategy.ApplyPaging(query, token)

	env, err := c.do(ctx, schema.Version(), http.MethodGet, entityPath(schema), query, nil)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", schema.EntityName(), err)
	}

	records, err := env.Many()
	if err != nil {
		return nil, fmt.Errorf("reading %s records: %w", schema.EntityName(), err)
	}

	entities := make([]*pipedrive.Entity, 0, len(records))

	for _, record := range records {
		entity := pipedrive.NewEntity(schema)

		err = entity.Hydrate(record)
		if err != nil {
			return nil, fmt.Errorf("loading %s record: %w", schema.EntityName(), err)
		}

		entities = append(entities, entity)
	}

	limit := 0
	if params != nil {
		limit = params.Limit
	}

	next, more := strategy.NextToken(env, token, limit, len(records))

	return &pipedrive.Page{
		Entities: entities,
		More:     more,
		Next:     next,
		Related:  env.RelatedObjects,
	}, nil
}

// All implements pipedrive.EntityOperations.All.
func (c *Client) All(ctx context.Context, schema *pipedrive.Schema, params *pipedrive.ListParams) ([]*pipedrive.Entity, error) {
	return pipedrive.FetchAllPages(ctx, c, schema, params, nil)
}

// Exists implements pipedrive.EntityOperations.Exists.
func (c *Client) Exists(ctx context.Context, schema *pipedrive.Schema, id string) (bool, error) {
	_, err := c.Fetch(ctx, schema, id)
	if err != nil {
		if pipedrive.IsNotFound(err) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}
