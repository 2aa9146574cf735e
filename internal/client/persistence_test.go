package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
)

func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()

	var payload map[string]any

	require.NoError(t, json.Unmarshal(body, &payload))

	return payload
}

func TestSaveCreate(t *testing.T) {
	t.Parallel()

	t.Run("posts set writable fields and folds in server columns", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodPost, "/api/v2/deals", http.StatusCreated, `{
			"success": true,
			"data": {
				"id": 7,
				"title": "Renewal",
				"value": 900,
				"add_time": "2026-02-01T08:00:00.000Z"
			}
		}`)

		client := newTestClient(t, fake)
		schema := testDealSchema(t)

		entity := pipedrive.NewEntity(schema)
		require.NoError(t, entity.Set("title", "Renewal"))
		require.NoError(t, entity.Set("value", 900))

		result, err := client.Save(context.Background(), entity)
		require.NoError(t, err)

		assert.True(t, result.Created)
		assert.False(t, result.Updated)
		assert.True(t, result.Saved())
		assert.Equal(t, "7", result.ID)
		assert.Equal(t, []string{"title", "value"}, result.FieldNames)

		assert.Equal(t, "7", entity.ID())
		assert.True(t, entity.IsPersisted())
		assert.Empty(t, entity.Dirty())
		assert.False(t, entity.GetTime("add_time").IsZero())

		requests := fake.Requests()
		require.Len(t, requests, 1)

		payload := decodeBody(t, requests[0].Body)
		assert.Equal(t, map[string]any{"title": "Renewal", "value": float64(900)}, payload)
	})

	t.Run("fails when the response carries no record", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodPost, "/api/v2/deals", http.StatusOK, `{"success": true}`)

		client := newTestClient(t, fake)

		entity := pipedrive.NewEntity(testDealSchema(t))
		require.NoError(t, entity.Set("title", "Renewal"))

		_, err := client.Save(context.Background(), entity)
		require.Error(t, err)
		assert.ErrorIs(t, err, pipedrive.ErrNoData)
		assert.True(t, entity.IsNew())
	})
}

func TestSaveUpdate(t *testing.T) {
	t.Parallel()

	t.Run("clean persisted instance performs no request", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals/42", http.StatusOK,
			`{"success": true, "data": {"id": 42, "title": "Stable"}}`)

		client := newTestClient(t, fake)

		entity, err := client.Fetch(context.Background(), testDealSchema(t), "42")
		require.NoError(t, err)

		result, err := client.Save(context.Background(), entity)
		require.NoError(t, err)

		assert.False(t, result.Saved())
		assert.Equal(t, "42", result.ID)
		assert.Empty(t, result.FieldNames)
		assert.Equal(t, 1, fake.RequestCount())
	})

	t.Run("sends only dirty fields as PATCH on the current generation", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals/42", http.StatusOK,
			`{"success": true, "data": {"id": 42, "title": "Old", "value": 100, "currency": "EUR"}}`)
		fake.Handle(http.MethodPatch, "/api/v2/deals/42", http.StatusOK,
			`{"success": true, "data": {"id": 42, "title": "New", "value": 100, "currency": "EUR"}}`)

		client := newTestClient(t, fake)

		entity, err := client.Fetch(context.Background(), testDealSchema(t), "42")
		require.NoError(t, err)

		require.NoError(t, entity.Set("title", "New"))

		result, err := client.Save(context.Background(), entity)
		require.NoError(t, err)

		assert.True(t, result.Updated)
		assert.False(t, result.Created)
		assert.Equal(t, []string{"title"}, result.FieldNames)
		assert.Empty(t, entity.Dirty())

		requests := fake.Requests()
		require.Len(t, requests, 2)
		assert.Equal(t, http.MethodPatch, requests[1].Method)

		payload := decodeBody(t, requests[1].Body)
		assert.Equal(t, map[string]any{"title": "New"}, payload)

		for _, request := range requests {
			assert.NotEqual(t, http.MethodPut, request.Method)
		}
	})

	t.Run("updates via PUT on the legacy generation", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/v1/notes/9", http.StatusOK,
			`{"success": true, "data": {"id": 9, "content": "old", "deal_id": 42}}`)
		fake.Handle(http.MethodPut, "/v1/notes/9", http.StatusOK,
			`{"success": true, "data": {"id": 9, "content": "new", "deal_id": 42}}`)

		client := newTestClient(t, fake)

		entity, err := client.Fetch(context.Background(), testNoteSchema(t), "9")
		require.NoError(t, err)

		require.NoError(t, entity.Set("content", "new"))

		result, err := client.Save(context.Background(), entity)
		require.NoError(t, err)
		assert.True(t, result.Updated)

		requests := fake.Requests()
		require.Len(t, requests, 2)
		assert.Equal(t, http.MethodPut, requests[1].Method)
		assert.Equal(t, "test-token", requests[1].Query.Get("api_token"))

		payload := decodeBody(t, requests[1].Body)
		assert.Equal(t, map[string]any{"content": "new"}, payload)
	})

	t.Run("force sends every set writable field", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals/42", http.StatusOK,
			`{"success": true, "data": {"id": 42, "title": "Same", "value": 100, "currency": "EUR"}}`)
		fake.Handle(http.MethodPatch, "/api/v2/deals/42", http.StatusOK,
			`{"success": true, "data": {"id": 42, "title": "Same", "value": 100, "currency": "EUR"}}`)

		client := newTestClient(t, fake)

		entity, err := client.Fetch(context.Background(), testDealSchema(t), "42")
		require.NoError(t, err)

		result, err := client.Save(context.Background(), entity, pipedrive.WithForce())
		require.NoError(t, err)

		assert.True(t, result.Updated)
		assert.True(t, result.Forced)
		assert.Equal(t, []string{"currency", "title", "value"}, result.FieldNames)

		requests := fake.Requests()
		require.Len(t, requests, 2)

		payload := decodeBody(t, requests[1].Body)
		assert.Len(t, payload, 3)
		assert.Equal(t, "Same", payload["title"])
	})

	t.Run("failed update leaves the instance unchanged", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals/42", http.StatusOK,
			`{"success": true, "data": {"id": 42, "title": "Old"}}`)
		fake.Handle(http.MethodPatch, "/api/v2/deals/42", http.StatusInternalServerError,
			`{"success": false, "error": "Server error"}`)

		client := newTestClient(t, fake)

		entity, err := client.Fetch(context.Background(), testDealSchema(t), "42")
		require.NoError(t, err)

		require.NoError(t, entity.Set("title", "New"))

		_, err = client.Save(context.Background(), entity)
		require.Error(t, err)

		var apiErr *pipedrive.APIError
		require.ErrorAs(t, err, &apiErr)

		assert.True(t, entity.IsPersisted())
		assert.Equal(t, "New", entity.GetString("title"))
		assert.Equal(t, []string{"title"}, entity.Dirty())
	})

	t.Run("rejects deleted and nil instances", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals/42", http.StatusOK,
			`{"success": true, "data": {"id": 42, "title": "Old"}}`)
		fake.Handle(http.MethodDelete, "/api/v2/deals/42", http.StatusOK,
			`{"success": true, "data": {"id": 42}}`)

		client := newTestClient(t, fake)

		entity, err := client.Fetch(context.Background(), testDealSchema(t), "42")
		require.NoError(t, err)
		require.NoError(t, client.Delete(context.Background(), entity))

		_, err = client.Save(context.Background(), entity)

		var stale *pipedrive.StaleInstanceError
		require.ErrorAs(t, err, &stale)
		assert.Equal(t, "42", stale.ID)

		_, err = client.Save(context.Background(), nil)
		require.ErrorIs(t, err, pipedrive.ErrNilEntity)
	})
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	t.Run("discards local modifications", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals/42", http.StatusOK,
			`{"success": true, "data": {"id": 42, "title": "Server", "value": 100}}`)

		client := newTestClient(t, fake)

		entity, err := client.Fetch(context.Background(), testDealSchema(t), "42")
		require.NoError(t, err)

		require.NoError(t, entity.Set("title", "Local"))
		require.NoError(t, entity.Set("currency", "EUR"))

		require.NoError(t, client.Refresh(context.Background(), entity))

		assert.Equal(t, "Server", entity.GetString("title"))
		assert.False(t, entity.IsSet("currency"))
		assert.Empty(t, entity.Dirty())
		assert.True(t, entity.IsPersisted())
	})

	t.Run("rejects unsaved instances", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		client := newTestClient(t, fake)

		entity := pipedrive.NewEntity(testDealSchema(t))

		err := client.Refresh(context.Background(), entity)
		require.ErrorIs(t, err, pipedrive.ErrNotPersisted)
		assert.Zero(t, fake.RequestCount())
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()

	t.Run("deletes and transitions to the terminal state", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals/42", http.StatusOK,
			`{"success": true, "data": {"id": 42, "title": "Doomed"}}`)
		fake.Handle(http.MethodDelete, "/api/v2/deals/42", http.StatusOK,
			`{"success": true, "data": {"id": 42}}`)

		client := newTestClient(t, fake)

		entity, err := client.Fetch(context.Background(), testDealSchema(t), "42")
		require.NoError(t, err)

		require.NoError(t, client.Delete(context.Background(), entity))
		assert.True(t, entity.IsDeleted())

		err = entity.Set("title", "Zombie")

		var stale *pipedrive.StaleInstanceError
		require.ErrorAs(t, err, &stale)

		err = client.Delete(context.Background(), entity)
		require.ErrorAs(t, err, &stale)
	})

	t.Run("treats an already deleted record as success", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals/42", http.StatusOK,
			`{"success": true, "data": {"id": 42, "title": "Gone"}}`)
		fake.Handle(http.MethodDelete, "/api/v2/deals/42", http.StatusGone,
			`{"success": false, "error": "Deal was already deleted"}`)

		client := newTestClient(t, fake)

		entity, err := client.Fetch(context.Background(), testDealSchema(t), "42")
		require.NoError(t, err)

		require.NoError(t, client.Delete(context.Background(), entity))
		assert.True(t, entity.IsDeleted())
	})

	t.Run("propagates other delete failures", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals/42", http.StatusOK,
			`{"success": true, "data": {"id": 42, "title": "Kept"}}`)
		fake.Handle(http.MethodDelete, "/api/v2/deals/42", http.StatusForbidden,
			`{"success": false, "error": "Permission denied"}`)

		client := newTestClient(t, fake)

		entity, err := client.Fetch(context.Background(), testDealSchema(t), "42")
		require.NoError(t, err)

		err = client.Delete(context.Background(), entity)
		require.Error(t, err)
		assert.True(t, pipedrive.IsForbidden(err))
		assert.True(t, entity.IsPersisted())
	})

	t.Run("rejects unsaved instances", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		client := newTestClient(t, fake)

		entity := pipedrive.NewEntity(testDealSchema(t))

		err := client.Delete(context.Background(), entity)
		require.ErrorIs(t, err, pipedrive.ErrNotPersisted)
		assert.Zero(t, fake.RequestCount())
	})

	t.Run("invalidates the record cache", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodGet, "/api/v2/deals/42", http.StatusOK,
			`{"success": true, "data": {"id": 42, "title": "Cached"}}`)
		fake.Handle(http.MethodDelete, "/api/v2/deals/42", http.StatusOK,
			`{"success": true, "data": {"id": 42}}`)

		client := newCachingTestClient(t, fake)
		schema := testDealSchema(t)

		entity, err := client.Fetch(context.Background(), schema, "42")
		require.NoError(t, err)

		require.NoError(t, client.Delete(context.Background(), entity))

		_, err = client.Fetch(context.Background(), schema, "42")
		require.NoError(t, err)

		// fetch, delete, fetch again: the second fetch must miss the cache
		assert.Equal(t, 3, fake.RequestCount())
	})
}

func TestBatchDelete(t *testing.T) {
	t.Parallel()

	t.Run("issues one request with comma joined identifiers", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodDelete, "/v1/notes", http.StatusOK,
			`{"success": true, "data": {"id": [1, 2, 3]}}`)

		client := newTestClient(t, fake)

		result, err := client.BatchDelete(context.Background(), testNoteSchema(t), "1", "2", "3")
		require.NoError(t, err)

		assert.True(t, result.AllDeleted())
		assert.Equal(t, []string{"1", "2", "3"}, result.DeletedIDs())

		requests := fake.Requests()
		require.Len(t, requests, 1)
		assert.Equal(t, "1,2,3", requests[0].Query.Get("ids"))
	})

	t.Run("reports partial outcomes in request order", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		fake.Handle(http.MethodDelete, "/v1/notes", http.StatusOK,
			`{"success": true, "data": {"id": [1, 3]}}`)

		client := newTestClient(t, fake)

		result, err := client.BatchDelete(context.Background(), testNoteSchema(t), "1", "2", "3")
		require.NoError(t, err)

		assert.False(t, result.AllDeleted())
		assert.Equal(t, []string{"1", "3"}, result.DeletedIDs())
		assert.Equal(t, []string{"2"}, result.FailedIDs())

		require.Len(t, result.Outcomes, 3)
		assert.Equal(t, "2", result.Outcomes[1].ID)
		assert.False(t, result.Outcomes[1].Deleted)
		assert.NotEmpty(t, result.Outcomes[1].Reason)
	})

	t.Run("requires schema and identifiers", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAPI(t)
		client := newTestClient(t, fake)

		_, err := client.BatchDelete(context.Background(), nil, "1")
		require.ErrorIs(t, err, pipedrive.ErrSchemaRequired)

		_, err = client.BatchDelete(context.Background(), testNoteSchema(t))
		require.ErrorIs(t, err, pipedrive.ErrNoIDs)

		assert.Zero(t, fake.RequestCount())
	})
}
