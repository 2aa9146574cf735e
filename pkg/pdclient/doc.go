// Package pdclient provides the primary entry point for constructing a
// Pipedrive API client that implements the pipedrive.Client interface.
//
// It layers configuration, HTTP transport, and authentication on top of the
// schema and entity types defined in the pipedrive package. Most applications
// should import pdclient to build a client, then use the returned
// pipedrive.Client together with schemas from the models package to fetch,
// list, save, and delete records.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/jmanprz/pipedrive-client/pkg/models"
//	  "github.com/jmanprz/pipedrive-client/pkg/pdclient"
//	  "github.com/jmanprz/pipedrive-client/pkg/pipedrive"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Minimal: token from the PIPEDRIVE_API_TOKEN environment variable.
//	  cli, err := pdclient.NewFromEnv(ctx)
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with a token you already have:
//	  cli, err = pdclient.NewWithToken(ctx, "abc123")
//
//	  // Or against a company subdomain:
//	  cli, err = pdclient.NewWithBaseURL(ctx, "https://mycompany.pipedrive.com", "abc123")
//	  if err != nil { log.Fatal(err) }
//
//	  // Use entity operations via the pipedrive.Client interface
//	  deal, err := cli.Fetch(ctx, models.DealSchema, "42")
//	  if err != nil { log.Fatal(err) }
//	  _ = deal
//	}
//
// # Authentication
//
// Every constructor requires an API token. The token is held in memory for
// the lifetime of the client and attached to each request in the form the
// target API version expects; it is never written to disk. NewFromEnv is the
// single constructor that reads the environment.
//
// # Helpers
//
// The package also provides convenience constructors NewWithToken and
// NewWithBaseURL that wrap New with the appropriate configuration.
package pdclient
