//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmanprz/pipedrive-client/pkg/models"
	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
)

// TestWorkflow_DealLifecycle walks a deal through its whole life:
// create, fetch, partial update, no-op save, refresh, and delete.
func TestWorkflow_DealLifecycle(t *testing.T) {
	config := LoadTestConfig()
	config.SkipWithoutToken(t)

	ctx := context.Background()
	client := NewClient(t, config)

	title := GenerateTestName("integration-deal")

	deal := models.NewDeal()
	require.NoError(t, deal.SetTitle(title))
	require.NoError(t, deal.SetValue(1500))
	require.NoError(t, deal.SetCurrency("EUR"))

	result, err := client.Save(ctx, deal)
	require.NoError(t, err, "Failed to create deal")

	t.Cleanup(func() { CleanupRecord(t, client, models.DealSchema, deal.ID()) })

	assert.True(t, result.Created, "Expected a create")
	require.NotEmpty(t, deal.ID(), "Created deal carries no ID")
	assert.False(t, deal.IsDirty(), "Deal still dirty after save: %v", deal.Dirty())

	// Fetch it back under a fresh handle
	fetched, err := models.FetchDeal(ctx, client, deal.ID())
	require.NoError(t, err, "Failed to fetch deal %s", deal.ID())
	assert.Equal(t, title, fetched.Title())

	// A partial update sends only the changed field
	require.NoError(t, fetched.SetValue(4200))

	result, err = client.Save(ctx, fetched)
	require.NoError(t, err, "Failed to update deal")
	assert.True(t, result.Updated, "Expected an update")
	assert.Equal(t, []string{"value"}, result.FieldNames, "Expected only value to be sent")

	// Saving a clean record does not touch the API
	result, err = client.Save(ctx, fetched)
	require.NoError(t, err, "No-op save failed")
	assert.False(t, result.Saved(), "Expected a no-op")

	require.NoError(t, client.Refresh(ctx, fetched), "Failed to refresh deal")
	assert.InDelta(t, 4200, fetched.Value(), 0.01)

	exists, err := client.Exists(ctx, models.DealSchema, deal.ID())
	require.NoError(t, err)
	assert.True(t, exists, "Deal should exist before deletion")

	require.NoError(t, client.Delete(ctx, fetched), "Failed to delete deal")

	WaitForCondition(t, func() bool {
		exists, err := client.Exists(ctx, models.DealSchema, deal.ID())

		return err == nil && !exists
	}, 30*time.Second, "deal should disappear after deletion")
}

// TestWorkflow_ContactGraph links an organization, a person, and an
// activity the way a CRM user would.
func TestWorkflow_ContactGraph(t *testing.T) {
	config := LoadTestConfig()
	config.SkipWithoutToken(t)

	ctx := context.Background()
	client := NewClient(t, config)

	org := models.NewOrganization()
	require.NoError(t, org.SetName(GenerateTestName("integration-org")))

	_, err := client.Save(ctx, org)
	require.NoError(t, err, "Failed to create organization")

	t.Cleanup(func() { CleanupRecord(t, client, models.OrganizationSchema, org.ID()) })

	orgID, err := strconv.ParseInt(org.ID(), 10, 64)
	require.NoError(t, err, "Organization ID %q is not numeric", org.ID())

	person := models.NewPerson()
	require.NoError(t, person.SetName(GenerateTestName("integration-person")))
	require.NoError(t, person.SetEmails([]any{
		map[string]any{"value": "integration@example.com", "label": "work", "primary": true},
	}))

	_, err = client.Save(ctx, person)
	require.NoError(t, err, "Failed to create person")

	t.Cleanup(func() { CleanupRecord(t, client, models.PersonSchema, person.ID()) })

	personID, err := strconv.ParseInt(person.ID(), 10, 64)
	require.NoError(t, err, "Person ID %q is not numeric", person.ID())

	subject := GenerateTestName("integration-call")

	activity := models.NewActivity()
	require.NoError(t, activity.SetSubject(subject))
	require.NoError(t, activity.SetType("call"))
	require.NoError(t, activity.SetOrgID(orgID))
	require.NoError(t, activity.SetPersonID(personID))
	require.NoError(t, activity.SetDueDate(time.Now().AddDate(0, 0, 7)))
	require.NoError(t, activity.SetDueTime("10:30"))

	_, err = client.Save(ctx, activity)
	require.NoError(t, err, "Failed to create activity")

	t.Cleanup(func() { CleanupRecord(t, client, models.ActivitySchema, activity.ID()) })

	fetched, err := models.FetchActivity(ctx, client, activity.ID())
	require.NoError(t, err, "Failed to fetch activity")
	assert.Equal(t, subject, fetched.Subject())
	assert.False(t, fetched.Done(), "New activity should not be done")
}

// TestWorkflow_PaginationWalk creates a handful of records, walks the
// collection page by page until it has seen them all, and removes them
// in a single batch.
func TestWorkflow_PaginationWalk(t *testing.T) {
	config := LoadTestConfig()
	config.SkipWithoutToken(t)

	ctx := context.Background()
	client := NewClient(t, config)

	base := GenerateTestName("integration-page")
	created := make(map[string]bool, 3)
	ids := make([]string, 0, 3)

	for i := 0; i < 3; i++ {
		org := models.NewOrganization()
		require.NoError(t, org.SetName(fmt.Sprintf("%s-%d", base, i)))

		_, err := client.Save(ctx, org)
		require.NoError(t, err, "Failed to create organization %d", i)

		created[org.ID()] = false
		ids = append(ids, org.ID())

		t.Cleanup(func() { CleanupRecord(t, client, models.OrganizationSchema, org.ID()) })
	}

	params := pipedrive.NewListParams().WithLimit(1)

	page, err := client.ListPage(ctx, models.OrganizationSchema, params, pipedrive.PageToken{})
	require.NoError(t, err, "Failed to list first page")
	require.Len(t, page.Entities, 1, "Expected a single record per page")
	require.True(t, page.More, "Expected more pages with three records present")

	// Walk until every created record has been seen
	remaining := len(created)
	token := pipedrive.PageToken{}

	for pages := 0; pages < 1000; pages++ {
		page, err := client.ListPage(ctx, models.OrganizationSchema, params, token)
		require.NoError(t, err, "Failed to list page %d", pages)

		for _, entity := range page.Entities {
			if seen, ok := created[entity.ID()]; ok && !seen {
				created[entity.ID()] = true
				remaining--
			}
		}

		if remaining == 0 || !page.More {
			break
		}

		token = page.Next
	}

	assert.Zero(t, remaining, "Pagination never surfaced every created record: %v", created)

	result, err := client.BatchDelete(ctx, models.OrganizationSchema, ids...)
	require.NoError(t, err, "Failed to batch delete")
	assert.True(t, result.AllDeleted(), "Batch delete left records behind: %v", result.FailedIDs())

	WaitForCondition(t, func() bool {
		exists, err := client.Exists(ctx, models.OrganizationSchema, ids[0])

		return err == nil && !exists
	}, 30*time.Second, "batch deleted organization should disappear")
}

// TestWorkflow_RawEscapeHatch reads an endpoint no schema covers.
func TestWorkflow_RawEscapeHatch(t *testing.T) {
	config := LoadTestConfig()
	config.SkipWithoutToken(t)

	ctx := context.Background()
	client := NewClient(t, config)

	query := url.Values{}
	query.Set("status", "open")

	env, err := client.Raw(ctx, pipedrive.V1, http.MethodGet, "deals/summary", query, nil)
	require.NoError(t, err, "Raw summary request failed")
	require.True(t, env.HasData(), "Summary response carries no data")

	summary, err := env.One()
	require.NoError(t, err, "Summary is not a single object")
	assert.Contains(t, summary, "total_count")
}

// TestWorkflow_NotFoundErrors verifies the error taxonomy against the
// live service.
func TestWorkflow_NotFoundErrors(t *testing.T) {
	config := LoadTestConfig()
	config.SkipWithoutToken(t)

	ctx := context.Background()
	client := NewClient(t, config)

	_, err := models.FetchDeal(ctx, client, "999999999")
	require.Error(t, err, "Expected an error fetching a bogus deal")
	assert.True(t, pipedrive.IsNotFound(err), "Expected a not-found error, got %v", err)

	exists, err := client.Exists(ctx, models.DealSchema, "999999999")
	require.NoError(t, err, "Exists should swallow not-found")
	assert.False(t, exists, "Bogus deal should not exist")
}

// TestCLIWorkflow_DealJourney drives the CLI binary through a deal's
// create, inspect, update, no-op, and delete steps.
func TestCLIWorkflow_DealJourney(t *testing.T) {
	config := LoadTestConfig()
	config.SkipWithoutToken(t)
	config.SkipWithoutBinary(t)

	runner := NewCommandRunner(config, t)
	client := NewClient(t, config)
	title := GenerateTestName("integration-cli-deal")

	stdout, stderr, err := runner.Run("deals", "create",
		"--title", title, "--value", "900", "--currency", "EUR",
		"--output", "json")
	require.NoError(t, err, "Failed to create deal: %s", stderr)
	AssertJSONOutput(t, stdout)

	id := ExtractRecordID(t, stdout)

	t.Cleanup(func() { CleanupRecord(t, client, models.DealSchema, id) })

	stdout, stderr, err = runner.Run("deals", "get", id, "--output", "json")
	require.NoError(t, err, "Failed to get deal: %s", stderr)
	assert.Contains(t, stdout, title)

	stdout, stderr, err = runner.Run("deals", "update", id, "--value", "1800")
	require.NoError(t, err, "Failed to update deal: %s", stderr)
	assert.Contains(t, stdout, "Updated deal "+id)

	// An update without field flags has nothing to send
	stdout, stderr, err = runner.Run("deals", "update", id)
	require.NoError(t, err, "No-op update failed: %s", stderr)
	assert.Contains(t, stdout, "Nothing to update for deal "+id)

	stdout, stderr, err = runner.Run("deals", "delete", id, "--force")
	require.NoError(t, err, "Failed to delete deal: %s", stderr)
	assert.Contains(t, stdout, "Deleted deal "+id)

	WaitForCondition(t, func() bool {
		_, _, err := runner.Run("deals", "get", id)

		return err != nil
	}, 30*time.Second, "deleted deal should stop resolving")
}

// TestCLIWorkflow_OutputFormats lists deals in every output format.
func TestCLIWorkflow_OutputFormats(t *testing.T) {
	config := LoadTestConfig()
	config.SkipWithoutToken(t)
	config.SkipWithoutBinary(t)

	ctx := context.Background()
	runner := NewCommandRunner(config, t)
	client := NewClient(t, config)

	// Make sure the listing has at least one record
	deal := models.NewDeal()
	require.NoError(t, deal.SetTitle(GenerateTestName("integration-format")))

	_, err := client.Save(ctx, deal)
	require.NoError(t, err, "Failed to create deal")

	t.Cleanup(func() { CleanupRecord(t, client, models.DealSchema, deal.ID()) })

	t.Run("json", func(t *testing.T) {
		stdout, stderr, err := runner.Run("deals", "list", "--limit", "1", "--output", "json")
		require.NoError(t, err, "Failed to list deals: %s", stderr)
		AssertJSONOutput(t, stdout)
	})

	t.Run("yaml", func(t *testing.T) {
		stdout, stderr, err := runner.Run("deals", "list", "--limit", "1", "--output", "yaml")
		require.NoError(t, err, "Failed to list deals: %s", stderr)
		AssertYAMLOutput(t, stdout)
	})

	t.Run("table", func(t *testing.T) {
		stdout, stderr, err := runner.Run("deals", "list", "--limit", "1")
		require.NoError(t, err, "Failed to list deals: %s", stderr)
		assert.NotEmpty(t, strings.TrimSpace(stdout), "Table output is empty")
	})
}

// TestCLIWorkflow_ConfigManagement exercises the config commands in a
// private home directory so nothing touches the developer's setup.
func TestCLIWorkflow_ConfigManagement(t *testing.T) {
	config := LoadTestConfig()
	config.SkipWithoutBinary(t)

	runner := NewCommandRunner(config, t)
	home := t.TempDir()

	stdout, stderr, err := runner.RunIsolated(home, "", "config", "set", "base_url", "https://acme.pipedrive.com")
	require.NoError(t, err, "Failed to set base_url: %s", stderr)
	assert.Contains(t, stdout, "Set base_url")

	stdout, stderr, err = runner.RunIsolated(home, "", "config", "get", "base_url")
	require.NoError(t, err, "Failed to get base_url: %s", stderr)
	assert.Equal(t, "https://acme.pipedrive.com", strings.TrimSpace(stdout))

	stdout, stderr, err = runner.RunIsolated(home, "integration-test-token\n", "config", "set-token")
	require.NoError(t, err, "Failed to store the token: %s", stderr)
	assert.Contains(t, stdout, "Token saved to")

	// The stored token is never echoed back
	stdout, stderr, err = runner.RunIsolated(home, "", "config", "get", "api_token")
	require.NoError(t, err, "Failed to get api_token: %s", stderr)
	assert.NotContains(t, stdout, "integration-test-token", "Config output leaks the token")
	assert.Contains(t, stdout, "***")

	// The config file is owner-only
	info, err := os.Stat(filepath.Join(home, ".pipedrive", "config.yml"))
	require.NoError(t, err, "Config file missing")
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

// TestCLIWorkflow_ErrorScenarios checks the CLI's failure modes.
func TestCLIWorkflow_ErrorScenarios(t *testing.T) {
	config := LoadTestConfig()
	config.SkipWithoutBinary(t)

	runner := NewCommandRunner(config, t)
	home := t.TempDir()

	t.Run("no token configured", func(t *testing.T) {
		_, stderr, err := runner.RunIsolated(home, "", "deals", "list")
		require.Error(t, err, "Expected an error without credentials")
		assert.Contains(t, stderr, "no API token configured")
	})

	t.Run("token only via set-token", func(t *testing.T) {
		_, stderr, err := runner.RunIsolated(home, "", "config", "set", "api_token", "sneaky")
		require.Error(t, err, "Expected an error setting the token with config set")
		assert.Contains(t, stderr, "set-token")
	})

	t.Run("unknown output format", func(t *testing.T) {
		_, stderr, err := runner.RunIsolated(home, "", "config", "set", "output", "csv")
		require.Error(t, err, "Expected an error for an unknown format")
		assert.Contains(t, stderr, "unknown output format")
	})

	t.Run("missing record", func(t *testing.T) {
		config.SkipWithoutToken(t)

		_, stderr, err := runner.Run("deals", "get", "999999999")
		require.Error(t, err, "Expected an error for a bogus deal")
		assert.Contains(t, stderr, "failed to get deal")
	})
}
