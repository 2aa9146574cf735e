package pipedrive_test

import (
	"testing"
	"time"

	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDealSchema(t *testing.T) *pipedrive.Schema {
	t.Helper()

	schema, err := pipedrive.NewSchema("deals", pipedrive.V2,
		pipedrive.Text("title"),
		pipedrive.Float("value"),
		pipedrive.Text("currency"),
		pipedrive.Integer("stage_id"),
		pipedrive.Reference("person_id"),
		pipedrive.Boolean("is_archived"),
		pipedrive.Date("expected_close_date"),
		pipedrive.Datetime("add_time").WithReadOnly(),
		pipedrive.Text("status").WithDefault("open"),
	)
	require.NoError(t, err)

	return schema
}

func TestEntity_Lifecycle(t *testing.T) {
	t.Parallel()

	entity := pipedrive.NewEntity(newDealSchema(t))

	assert.Equal(t, pipedrive.StateNew, entity.State())
	assert.True(t, entity.IsNew())
	assert.False(t, entity.IsPersisted())
	assert.False(t, entity.IsDeleted())
	assert.Equal(t, "new", entity.State().String())
	assert.Empty(t, entity.ID())

	require.NoError(t, entity.Hydrate(map[string]any{"id": 42}))
	assert.True(t, entity.IsPersisted())
	assert.Equal(t, "42", entity.ID())

	entity.MarkDeleted()
	assert.True(t, entity.IsDeleted())
	assert.Equal(t, "deleted", entity.State().String())
}

//nolint:funlen // Test functions can be longer for detailed testing
func TestEntity_Set(t *testing.T) {
	t.Parallel()
	t.Run("assigns and tracks dirty fields", func(t *testing.T) {
		t.Parallel()

		entity := pipedrive.NewEntity(newDealSchema(t))

		require.NoError(t, entity.Set("title", "Renewal"))
		require.NoError(t, entity.Set("value", 900))

		assert.Equal(t, "Renewal", entity.GetString("title"))
		assert.InDelta(t, 900.0, entity.GetFloat("value"), 0.0001)
		assert.True(t, entity.IsDirty())
		assert.Equal(t, []string{"title", "value"}, entity.Dirty())
	})

	t.Run("rejects read-only fields", func(t *testing.T) {
		t.Parallel()

		entity := pipedrive.NewEntity(newDealSchema(t))

		err := entity.Set("add_time", time.Now())
		require.Error(t, err)

		var readOnlyErr *pipedrive.ReadOnlyFieldError
		require.ErrorAs(t, err, &readOnlyErr)
		assert.Equal(t, "add_time", readOnlyErr.Field)
		assert.False(t, entity.IsDirty())
	})

	t.Run("rejects undeclared fields", func(t *testing.T) {
		t.Parallel()

		entity := pipedrive.NewEntity(newDealSchema(t))

		err := entity.Set("nonexistent", "x")
		require.ErrorIs(t, err, pipedrive.ErrUnknownField)
	})

	t.Run("a failed assignment stores nothing", func(t *testing.T) {
		t.Parallel()

		entity := pipedrive.NewEntity(newDealSchema(t))

		err := entity.Set("value", "a lot")
		require.Error(t, err)

		var typeErr *pipedrive.FieldTypeError
		require.ErrorAs(t, err, &typeErr)
		assert.False(t, entity.IsSet("value"))
		assert.False(t, entity.IsDirty())
	})

	t.Run("nil clears a field and stays dirty", func(t *testing.T) {
		t.Parallel()

		entity := pipedrive.NewEntity(newDealSchema(t))

		require.NoError(t, entity.Set("currency", "EUR"))
		require.NoError(t, entity.Set("currency", nil))

		assert.True(t, entity.IsSet("currency"))
		assert.Nil(t, entity.Value("currency"))
		assert.Equal(t, []string{"currency"}, entity.Dirty())
	})

	t.Run("deleted instances reject every assignment", func(t *testing.T) {
		t.Parallel()

		entity := pipedrive.NewEntity(newDealSchema(t))
		require.NoError(t, entity.Hydrate(map[string]any{"id": 42}))
		entity.MarkDeleted()

		err := entity.Set("title", "Too late")
		require.Error(t, err)

		var staleErr *pipedrive.StaleInstanceError
		require.ErrorAs(t, err, &staleErr)
		assert.Equal(t, "deals", staleErr.Entity)
		assert.Equal(t, "42", staleErr.ID)
	})
}

func TestEntity_SetAll(t *testing.T) {
	t.Parallel()

	entity := pipedrive.NewEntity(newDealSchema(t))

	require.NoError(t, entity.SetAll(map[string]any{
		"title":    "Renewal",
		"value":    900,
		"currency": "EUR",
	}))
	assert.Equal(t, []string{"currency", "title", "value"}, entity.Dirty())

	// Names are applied in sorted order, so the failure point is
	// deterministic: "stage_id" fails before "title" is reached.
	fresh := pipedrive.NewEntity(newDealSchema(t))
	err := fresh.SetAll(map[string]any{
		"currency": "EUR",
		"stage_id": "not a number",
		"title":    "Renewal",
	})
	require.Error(t, err)
	assert.True(t, fresh.IsSet("currency"))
	assert.False(t, fresh.IsSet("title"))
}

func TestEntity_Defaults(t *testing.T) {
	t.Parallel()

	entity := pipedrive.NewEntity(newDealSchema(t))

	value, err := entity.Get("status")
	require.NoError(t, err)
	assert.Equal(t, "open", value)
	assert.False(t, entity.IsSet("status"))

	require.NoError(t, entity.Set("status", "won"))
	assert.Equal(t, "won", entity.GetString("status"))

	_, err = entity.Get("nonexistent")
	require.ErrorIs(t, err, pipedrive.ErrUnknownField)
	assert.Nil(t, entity.Value("nonexistent"))
}

//nolint:funlen // Test functions can be longer for detailed testing
func TestEntity_Hydrate(t *testing.T) {
	t.Parallel()
	t.Run("loads wire values and persists the instance", func(t *testing.T) {
		t.Parallel()

		entity := pipedrive.NewEntity(newDealSchema(t))
		require.NoError(t, entity.Set("title", "Local title"))

		err := entity.Hydrate(map[string]any{
			"id":          42,
			"title":       "Server title",
			"value":       900.5,
			"is_archived": 0,
			"person_id":   map[string]any{"value": 5, "name": "Ada"},
			"add_time":    "2026-01-15T10:30:00.000Z",
			"undeclared":  "ignored",
		})
		require.NoError(t, err)

		assert.True(t, entity.IsPersisted())
		assert.False(t, entity.IsDirty())
		assert.Equal(t, "42", entity.ID())
		assert.Equal(t, "Server title", entity.GetString("title"))
		assert.InDelta(t, 900.5, entity.GetFloat("value"), 0.0001)
		assert.False(t, entity.GetBool("is_archived"))
		assert.Equal(t, int64(5), entity.GetInt("person_id"))
		assert.Equal(t, time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC), entity.GetTime("add_time"))
		assert.Nil(t, entity.Value("undeclared"))
	})

	t.Run("keeps local fields the wire does not mention", func(t *testing.T) {
		t.Parallel()

		entity := pipedrive.NewEntity(newDealSchema(t))
		require.NoError(t, entity.Set("currency", "EUR"))

		require.NoError(t, entity.Hydrate(map[string]any{
			"id":       7,
			"add_time": "2026-01-15T10:30:00.000Z",
		}))

		assert.Equal(t, "EUR", entity.GetString("currency"))
		assert.False(t, entity.IsDirty())
	})

	t.Run("rejects deleted instances", func(t *testing.T) {
		t.Parallel()

		entity := pipedrive.NewEntity(newDealSchema(t))
		require.NoError(t, entity.Hydrate(map[string]any{"id": 42}))
		entity.MarkDeleted()

		err := entity.Hydrate(map[string]any{"title": "Back again"})

		var staleErr *pipedrive.StaleInstanceError
		require.ErrorAs(t, err, &staleErr)
	})
}

//nolint:funlen // Test functions can be longer for detailed testing
func TestEntity_Payload(t *testing.T) {
	t.Parallel()
	t.Run("new instances send every set writable field", func(t *testing.T) {
		t.Parallel()

		entity := pipedrive.NewEntity(newDealSchema(t))
		require.NoError(t, entity.Set("title", "Renewal"))
		require.NoError(t, entity.Set("value", 900))
		require.NoError(t, entity.Set("expected_close_date", time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)))

		payload := entity.Payload(false)
		assert.Equal(t, map[string]any{
			"title":               "Renewal",
			"value":               float64(900),
			"expected_close_date": "2026-02-02",
		}, payload)
	})

	t.Run("persisted instances send only dirty fields", func(t *testing.T) {
		t.Parallel()

		entity := pipedrive.NewEntity(newDealSchema(t))
		require.NoError(t, entity.Hydrate(map[string]any{
			"id":       42,
			"title":    "Renewal",
			"currency": "EUR",
		}))

		require.NoError(t, entity.Set("title", "Renewal 2027"))

		payload := entity.Payload(false)
		assert.Equal(t, map[string]any{"title": "Renewal 2027"}, payload)
	})

	t.Run("force sends every set writable field", func(t *testing.T) {
		t.Parallel()

		entity := pipedrive.NewEntity(newDealSchema(t))
		require.NoError(t, entity.Hydrate(map[string]any{
			"id":       42,
			"title":    "Renewal",
			"currency": "EUR",
			"add_time": "2026-01-15T10:30:00.000Z",
		}))

		payload := entity.Payload(true)
		assert.Equal(t, map[string]any{
			"title":    "Renewal",
			"currency": "EUR",
		}, payload)
	})

	t.Run("explicit nil values go out to clear fields", func(t *testing.T) {
		t.Parallel()

		entity := pipedrive.NewEntity(newDealSchema(t))
		require.NoError(t, entity.Hydrate(map[string]any{"id": 42, "currency": "EUR"}))
		require.NoError(t, entity.Set("currency", nil))

		payload := entity.Payload(false)
		require.Contains(t, payload, "currency")
		assert.Nil(t, payload["currency"])
	})
}

func TestEntity_Reset(t *testing.T) {
	t.Parallel()

	entity := pipedrive.NewEntity(newDealSchema(t))
	require.NoError(t, entity.Hydrate(map[string]any{"id": 42, "title": "Renewal"}))
	require.NoError(t, entity.Set("currency", "EUR"))

	entity.Reset()

	assert.False(t, entity.IsSet("title"))
	assert.False(t, entity.IsSet("currency"))
	assert.False(t, entity.IsDirty())
	assert.True(t, entity.IsPersisted())
}

func TestEntity_MarkClean(t *testing.T) {
	t.Parallel()

	entity := pipedrive.NewEntity(newDealSchema(t))
	require.NoError(t, entity.Set("title", "Renewal"))

	entity.MarkClean()

	assert.False(t, entity.IsDirty())
	assert.Equal(t, "Renewal", entity.GetString("title"))
}

func TestEntity_Records(t *testing.T) {
	t.Parallel()
	t.Run("round trips through a record", func(t *testing.T) {
		t.Parallel()

		schema := newDealSchema(t)
		entity := pipedrive.NewEntity(schema)
		require.NoError(t, entity.Hydrate(map[string]any{
			"id":       42,
			"title":    "Renewal",
			"value":    900.5,
			"add_time": "2026-01-15T10:30:00.000Z",
		}))

		record := entity.ToRecord()
		assert.Equal(t, "deals", record.Entity)
		assert.Equal(t, "42", record.ID)
		assert.Equal(t, "2026-01-15T10:30:00.000Z", record.CreatedAt)
		assert.Equal(t, "Renewal", record.Fields["title"])
		assert.NotContains(t, record.Fields, "id")

		rebuilt, err := pipedrive.FromRecord(schema, record)
		require.NoError(t, err)
		assert.True(t, rebuilt.IsPersisted())
		assert.Equal(t, "42", rebuilt.ID())
		assert.Equal(t, "Renewal", rebuilt.GetString("title"))
		assert.InDelta(t, 900.5, rebuilt.GetFloat("value"), 0.0001)
	})

	t.Run("a record without an identifier stays new", func(t *testing.T) {
		t.Parallel()

		schema := newDealSchema(t)

		entity, err := pipedrive.FromRecord(schema, pipedrive.Record{
			Entity: "deals",
			Fields: map[string]any{"title": "Draft"},
		})
		require.NoError(t, err)
		assert.True(t, entity.IsNew())
	})

	t.Run("rejects a record from another entity", func(t *testing.T) {
		t.Parallel()

		_, err := pipedrive.FromRecord(newDealSchema(t), pipedrive.Record{Entity: "persons"})
		require.ErrorIs(t, err, pipedrive.ErrEntityMismatch)
	})

	t.Run("requires a schema", func(t *testing.T) {
		t.Parallel()

		_, err := pipedrive.FromRecord(nil, pipedrive.Record{Entity: "deals"})
		require.ErrorIs(t, err, pipedrive.ErrSchemaRequired)
	})
}

func TestEntity_TextIdentifier(t *testing.T) {
	t.Parallel()

	schema := pipedrive.MustNewSchema("leadLabels", pipedrive.V1,
		pipedrive.Text("id").WithReadOnly(),
		pipedrive.Text("name"),
	)

	entity := pipedrive.NewEntity(schema)
	require.NoError(t, entity.Hydrate(map[string]any{
		"id":   "f08b42a0-4e75-11ea-9643-03698ef1cfd6",
		"name": "Hot",
	}))

	assert.Equal(t, "f08b42a0-4e75-11ea-9643-03698ef1cfd6", entity.ID())
}
