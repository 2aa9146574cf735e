package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
)

// recordedRequest captures one request the fake API received.
type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// stubResponse is a canned reply for one route.
type stubResponse struct {
	status int
	body   string
}

// fakeAPI is a scripted Pipedrive server for tests. Routes are keyed by
// method and path; unmatched requests get a JSON 404.
type fakeAPI struct {
	server *httptest.Server

	mu       sync.Mutex
	routes   map[string][]stubResponse
	requests []recordedRequest
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	fake := &fakeAPI{
		routes: make(map[string][]stubResponse),
	}

	fake.server = httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(fake.server.Close)

	return fake
}

func (f *fakeAPI) URL() string {
	return f.server.URL
}

// Handle enqueues a reply for the given method and path. Multiple calls
// for the same route serve replies in order, the last one repeating.
func (f *fakeAPI) Handle(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := method + " " + path
	f.routes[key] = append(f.routes[key], stubResponse{status: status, body: body})
}

func (f *fakeAPI) serve(writer http.ResponseWriter, request *http.Request) {
	body, _ := io.ReadAll(request.Body)

	f.mu.Lock()

	f.requests = append(f.requests, recordedRequest{
		Method: request.Method,
		Path:   request.URL.Path,
		Query:  request.URL.Query(),
		Header: request.Header.Clone(),
		Body:   body,
	})

	key := request.Method + " " + request.URL.Path
	queue := f.routes[key]

	var reply stubResponse

	switch {
	case len(queue) > 1:
		reply = queue[0]
		f.routes[key] = queue[1:]
	case len(queue) == 1:
		reply = queue[0]
	default:
		reply = stubResponse{
			status: http.StatusNotFound,
			body:   `{"success":false,"error":"Not Found"}`,
		}
	}

	f.mu.Unlock()

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(reply.status)
	_, _ = writer.Write([]byte(reply.body))
}

// Requests returns a snapshot of everything received so far.
func (f *fakeAPI) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	requests := make([]recordedRequest, len(f.requests))
	copy(requests, f.requests)

	return requests
}

// RequestCount reports how many requests hit the server.
func (f *fakeAPI) RequestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.requests)
}

// newTestClient builds a client against the fake API.
func newTestClient(t *testing.T, fake *fakeAPI) *Client {
	t.Helper()

	client, err := New(context.Background(), &pipedrive.Config{
		BaseURL:  fake.URL(),
		APIToken: "test-token",
	})
	require.NoError(t, err)

	return client
}

// newCachingTestClient builds a client with an in-memory record cache.
func newCachingTestClient(t *testing.T, fake *fakeAPI) *Client {
	t.Helper()

	client, err := New(context.Background(), &pipedrive.Config{
		BaseURL:  fake.URL(),
		APIToken: "test-token",
		Cache:    pipedrive.NewMemoryCache(0),
	})
	require.NoError(t, err)

	return client
}

// testDealSchema is a compact V2 schema used across the client tests.
func testDealSchema(t *testing.T) *pipedrive.Schema {
	t.Helper()

	schema, err := pipedrive.NewSchema("deals", pipedrive.V2,
		pipedrive.Text("title"),
		pipedrive.Float("value"),
		pipedrive.Text("currency"),
		pipedrive.Datetime("add_time").WithReadOnly(),
	)
	require.NoError(t, err)

	return schema
}

// testNoteSchema is a compact V1 schema used across the client tests.
func testNoteSchema(t *testing.T) *pipedrive.Schema {
	t.Helper()

	schema, err := pipedrive.NewSchema("notes", pipedrive.V1,
		pipedrive.Text("content"),
		pipedrive.Integer("deal_id"),
	)
	require.NoError(t, err)

	return schema
}
