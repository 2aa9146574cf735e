package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
)

func TestFetch(t *testing.T) {
	t.Parallel()

	t.Run("fetches a record over the current generation", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals/42", http.StatusOK, `{
			"success": true,
			"data": {
				"id": 42,
				"title": "Enterprise license",
				"value": 12500.5,
				"currency": "EUR",
				"add_time": "2026-01-15T10:30:00.000Z"
			}
		}`)

		client := newTestClient(t, fake)
		schema := testDealSchema(t)

		entity, err := client.Fetch(context.Background(), schema, "42")
		require.NoError(t, err)

		assert.Equal(t, "42", entity.ID())
		assert.Equal(t, "Enterprise license", entity.GetString("title"))
		assert.InDelta(t, 12500.5, entity.GetFloat("value"), 0.001)
		assert.Equal(t, time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC), entity.GetTime("add_time"))
		assert.True(t, entity.IsPersisted())
		assert.Empty(t, entity.Dirty())

		requests := fake.Requests()
		require.Len(t, requests, 1)
		assert.Equal(t, "Bearer test-token", requests[0].Header.Get("Authorization"))
		assert.Empty(t, requests[0].Query.Get("api_token"))
	})

	t.Run("fetches a record over the legacy generation", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/v1/notes/9", http.StatusOK, `{
			"success": true,
			"data": {"id": 9, "content": "call back on Monday", "deal_id": 42}
		}`)

		client := newTestClient(t, fake)
		schema := testNoteSchema(t)

		entity, err := client.Fetch(context.Background(), schema, "9")
		require.NoError(t, err)

		assert.Equal(t, "9", entity.ID())
		assert.Equal(t, int64(42), entity.GetInt("deal_id"))

		requests := fake.Requests()
		require.Len(t, requests, 1)
		assert.Equal(t, "test-token", requests[0].Query.Get("api_token"))
		assert.Empty(t, requests[0].Header.Get("Authorization"))
	})

	t.Run("maps missing records to NotFoundError", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals/404", http.StatusNotFound,
			`{"success": false, "error": "Deal not found"}`)

		client := newTestClient(t, fake)

		entity, err := client.Fetch(context.Background(), testDealSchema(t), "404")
		require.Error(t, err)
		assert.Nil(t, entity)
		assert.True(t, pipedrive.IsNotFound(err))

		var notFound *pipedrive.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Contains(t, notFound.Error(), "Deal not found")
	})

	t.Run("requires schema and id", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		client := newTestClient(t, fake)

		_, err := client.Fetch(context.Background(), nil, "42")
		require.ErrorIs(t, err, pipedrive.ErrSchemaRequired)

		_, err = client.Fetch(context.Background(), testDealSchema(t), "")
		require.ErrorIs(t, err, pipedrive.ErrIDRequired)

		assert.Zero(t, fake.RequestCount())
	})

	t.Run("serves repeated fetches from the record cache", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals/42", http.StatusOK,
			`{"success": true, "data": {"id": 42, "title": "Cached"}}`)

		client := newCachingTestClient(t, fake)
		schema := testDealSchema(t)

		first, err := client.Fetch(context.Background(), schema, "42")
		require.NoError(t, err)

		second, err := client.Fetch(context.Background(), schema, "42")
		require.NoError(t, err)

		assert.Equal(t, first.Values(), second.Values())
		assert.Equal(t, 1, fake.RequestCount())
	})
}

func TestListPage(t *testing.T) {
	t.Parallel()

	t.Run("pages by cursor on the current generation", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals", http.StatusOK, `{
			"success": true,
			"data": [{"id": 1, "title": "One"}, {"id": 2, "title": "Two"}],
			"additional_data": {"next_cursor": "eyJkZWFsIjoyfQ"}
		}`)
		fake.Handle(http.MethodGet, "/api/v2/deals", http.StatusOK, `{
			"success": true,
			"data": [{"id": 3, "title": "Three"}]
		}`)

		client := newTestClient(t, fake)
		schema := testDealSchema(t)

		page, err := client.ListPage(context.Background(), schema, nil, pipedrive.PageToken{})
		require.NoError(t, err)
		require.Len(t, page.Entities, 2)
		assert.True(t, page.More)
		assert.Equal(t, "eyJkZWFsIjoyfQ", page.Next.Cursor)

		page, err = client.ListPage(context.Background(), schema, nil, page.Next)
		require.NoError(t, err)
		require.Len(t, page.Entities, 1)
		assert.False(t, page.More)

		requests := fake.Requests()
		require.Len(t, requests, 2)
		assert.Empty(t, requests[0].Query.Get("cursor"))
		assert.Equal(t, "eyJkZWFsIjoyfQ", requests[1].Query.Get("cursor"))
	})

	t.Run("pages by offset on the legacy generation", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/v1/notes", http.StatusOK, `{
			"success": true,
			"data": [{"id": 1, "content": "a"}, {"id": 2, "content": "b"}],
			"additional_data": {
				"pagination": {"start": 0, "limit": 2, "more_items_in_collection": true}
			}
		}`)
		fake.Handle(http.MethodGet, "/v1/notes", http.StatusOK, `{
			"success": true,
			"data": [{"id": 3, "content": "c"}],
			"additional_data": {
				"pagination": {"start": 2, "limit": 2, "more_items_in_collection": false}
			}
		}`)

		client := newTestClient(t, fake)
		schema := testNoteSchema(t)
		params := pipedrive.NewListParams().WithLimit(2)

		page, err := client.ListPage(context.Background(), schema, params, pipedrive.PageToken{})
		require.NoError(t, err)
		require.Len(t, page.Entities, 2)
		assert.True(t, page.More)
		assert.Equal(t, 2, page.Next.Offset)

		page, err = client.ListPage(context.Background(), schema, params, page.Next)
		require.NoError(t, err)
		require.Len(t, page.Entities, 1)
		assert.False(t, page.More)

		requests := fake.Requests()
		require.Len(t, requests, 2)
		assert.Empty(t, requests[0].Query.Get("start"))
		assert.Equal(t, "2", requests[1].Query.Get("start"))
		assert.Equal(t, "2", requests[1].Query.Get("limit"))
	})

	t.Run("surfaces related records embedded beside the page", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/v1/notes", http.StatusOK, `{
			"success": true,
			"data": [{"id": 1, "content": "call notes", "deal_id": 7}],
			"related_objects": {
				"deal": {"7": {"id": 7, "title": "ACME renewal"}}
			}
		}`)

		client := newTestClient(t, fake)

		page, err := client.ListPage(context.Background(), testNoteSchema(t), nil, pipedrive.PageToken{})
		require.NoError(t, err)
		require.Len(t, page.Entities, 1)

		deal, ok := page.Related.Lookup("deal", "7")
		require.True(t, ok)
		assert.Equal(t, "ACME renewal", deal["title"])
	})

	t.Run("translates sort and filter parameters per generation", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals", http.StatusOK,
			`{"success": true, "data": []}`)
		fake.Handle(http.MethodGet, "/v1/notes", http.StatusOK,
			`{"success": true, "data": []}`)

		client := newTestClient(t, fake)

		params := pipedrive.NewListParams().
			WithSort("update_time").
			WithSortDirection("desc").
			WithOwnerID(8)

		_, err := client.ListPage(context.Background(), testDealSchema(t), params, pipedrive.PageToken{})
		require.NoError(t, err)

		_, err = client.ListPage(context.Background(), testNoteSchema(t), params, pipedrive.PageToken{})
		require.NoError(t, err)

		requests := fake.Requests()
		require.Len(t, requests, 2)

		v2Query := requests[0].Query
		assert.Equal(t, "update_time", v2Query.Get("sort_by"))
		assert.Equal(t, "desc", v2Query.Get("sort_direction"))
		assert.Equal(t, "8", v2Query.Get("owner_id"))

		v1Query := requests[1].Query
		assert.Equal(t, "update_time", v1Query.Get("sort"))
		assert.Empty(t, v1Query.Get("sort_direction"))
		assert.Equal(t, "8", v1Query.Get("user_id"))
	})
}

func TestAll(t *testing.T) {
	t.Parallel()

	t.Run("concatenates every page in order with one request per page", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals", http.StatusOK, `{
			"success": true,
			"data": [{"id": 1, "title": "One"}, {"id": 2, "title": "Two"}],
			"additional_data": {"next_cursor": "c2"}
		}`)
		fake.Handle(http.MethodGet, "/api/v2/deals", http.StatusOK, `{
			"success": true,
			"data": [{"id": 3, "title": "Three"}, {"id": 4, "title": "Four"}],
			"additional_data": {"next_cursor": "c3"}
		}`)
		fake.Handle(http.MethodGet, "/api/v2/deals", http.StatusOK, `{
			"success": true,
			"data": [{"id": 5, "title": "Five"}]
		}`)

		client := newTestClient(t, fake)

		entities, err := client.All(context.Background(), testDealSchema(t), nil)
		require.NoError(t, err)
		require.Len(t, entities, 5)

		ids := make([]string, 0, len(entities))
		for _, entity := range entities {
			ids = append(ids, entity.ID())
		}

		assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids)
		assert.Equal(t, 3, fake.RequestCount())
	})

	t.Run("returns an empty slice for an empty collection", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals", http.StatusOK,
			`{"success": true, "data": []}`)

		client := newTestClient(t, fake)

		entities, err := client.All(context.Background(), testDealSchema(t), nil)
		require.NoError(t, err)
		assert.Empty(t, entities)
		assert.Equal(t, 1, fake.RequestCount())
	})
}

func TestExists(t *testing.T) {
	t.Parallel()

	t.Run("true when the record responds", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals/42", http.StatusOK,
			`{"success": true, "data": {"id": 42}}`)

		client := newTestClient(t, fake)

		exists, err := client.Exists(context.Background(), testDealSchema(t), "42")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("false without error when the record is missing", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)

		client := newTestClient(t, fake)

		exists, err := client.Exists(context.Background(), testDealSchema(t), "404")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("propagates non-404 failures", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals/42", http.StatusInternalServerError,
			`{"success": false, "error": "Server error"}`)

		client := newTestClient(t, fake)

		exists, err := client.Exists(context.Background(), testDealSchema(t), "42")
		require.Error(t, err)
		assert.False(t, exists)

		var apiErr *pipedrive.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	})
}
