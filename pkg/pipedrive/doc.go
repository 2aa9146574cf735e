// Package pipedrive provides the types, schemas, and interfaces for
// working with the Pipedrive CRM API.
//
// # Overview
//
// The pipedrive package defines the entity-mapping layer: explicit
// Schema declarations, the Entity instance type with assignment
// validation and dirty tracking, the Client interface for
// schema-driven persistence, and the error taxonomy. A concrete
// implementation of Client is provided by the pdclient package, which
// wires configuration, transport, version routing, and optional
// caching. Most consumers should import pdclient to construct a
// client, then work through the typed models in pkg/models or through
// schemas of their own.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/jmanprz/pipedrive-client/pkg/models"
//	  "github.com/jmanprz/pipedrive-client/pkg/pdclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := pdclient.NewFromEnv(ctx)
//	  if err != nil { log.Fatal(err) }
//
//	  deal, err := cli.Fetch(ctx, models.DealSchema, "42")
//	  if err != nil { log.Fatal(err) }
//	  _ = deal
//	}
//
// # Schemas and entities
//
// A Schema declares an entity type once: its collection name, the API
// version that serves it, and its fields. Instances are Entity values
// whose assignments are validated against the schema; writable
// assignments mark fields dirty, and Save sends only what changed.
//
//	schema := pipedrive.MustNewSchema("deals", pipedrive.V2,
//	  pipedrive.Text("title"),
//	  pipedrive.Float("value"),
//	  pipedrive.Datetime("add_time").WithReadOnly(),
//	)
//
// # Queries and pagination
//
// Use ListParams to express common list options (limit, sort, owner,
// saved filters). Collections can be walked page by page, iterated
// lazily with a one-page buffer, or collected at once:
//
//	it := pipedrive.NewPaginationIterator(ctx, cli, schema, nil)
//	for it.HasNext() {
//	  deal, err := it.Next()
//	  if err != nil { break }
//	  _ = deal
//	}
//
// # Errors
//
// API failures are represented by APIError and its refinements. Use
// errors.As against *NotFoundError, *ReadOnlyFieldError,
// *FieldTypeError, *StaleInstanceError and *TransportError, or the
// IsNotFound, IsUnauthorized, IsForbidden and IsRateLimited helpers.
//
// # Interceptors and caching
//
// The package includes generic building blocks such as
// request/response interceptors (for logging, headers, metrics, rate
// limiting, circuit breaking) and a pluggable Cache abstraction with
// in-memory and NATS JetStream KV backends. The pdclient package
// composes these pieces for a sensible default client; applications
// with advanced needs can also use these primitives directly.
package pipedrive
