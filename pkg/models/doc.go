// Package models provides ready-made schemas and typed wrappers for the
// standard Pipedrive entities: deals, persons, organizations, activities,
// activity types, and lead labels.
//
// Each entity has a package-level schema (for example DealSchema) that can be
// passed straight to the pipedrive.Client operations, a typed struct
// embedding *pipedrive.Entity with accessors for the common fields, and
// Fetch/List helpers that return the typed form:
//
//	deal := models.NewDeal()
//	_ = deal.SetTitle("Big deal")
//	_ = deal.SetValue(5000)
//
//	result, err := client.Save(ctx, deal)
//
//	same, err := models.FetchDeal(ctx, client, result.ID)
//
// The wrappers add convenience only. Everything they do is available through
// the generic schema and entity mechanism in the pipedrive package, which is
// also how applications define custom entities.
package models
