package pipedrive

import (
	"context"
	"errors"

	"github.com/jmanprz/pipedrive-client/internal/constants"
)

// PageToken is the continuation state of a collection traversal. The
// zero value starts at the beginning. Under v1 the token carries the
// next offset, under v2 the opaque cursor echoed by the API.
type PageToken struct {
	Offset int
	Cursor string
}

// Page is one page of a collection, with the continuation token for
// the next one while More is true. Related carries the records the API
// embedded alongside this page; RelatedObjects.Merge accumulates them
// across pages.
type Page struct {
	Entities []*Entity
	More     bool
	Next     PageToken
	Related  RelatedObjects
}

// Pager fetches single pages; pipedrive.Client satisfies it.
type Pager interface {
	ListPage(ctx context.Context, schema *Schema, params *ListParams, token PageToken) (*Page, error)
}

// PaginationIterator walks a collection holding at most one page in
// memory. Pages are fetched lazily as items are consumed.
type PaginationIterator struct {
	ctx     context.Context
	pager   Pager
	schema  *Schema
	params  *ListParams
	buffer  []*Entity
	pos     int
	next    PageToken
	more    bool
	started bool
}

// NewPaginationIterator creates an iterator over the collection
// described by schema and params.
func NewPaginationIterator(ctx context.Context, pager Pager, schema *Schema, params *ListParams) *PaginationIterator {
	return &PaginationIterator{
		ctx:    ctx,
		pager:  pager,
		schema: schema,
		params: params,
	}
}

// HasNext reports whether another item may be available. Before the
// first fetch it is optimistic; a definitive answer can require the
// next page, whose fetch error then surfaces from Next.
func (it *PaginationIterator) HasNext() bool {
	if it.pos < len(it.buffer) {
		return true
	}

	return !it.started || it.more
}

// Next returns the next item, fetching the next page when the buffer
// is drained. Exhaustion fails with ErrNoMoreItems.
func (it *PaginationIterator) Next() (*Entity, error) {
	for it.pos >= len(it.buffer) {
		if it.started && !it.more {
			return nil, ErrNoMoreItems
		}

		err := it.fetch()
		if err != nil {
			return nil, err
		}
	}

	entity := it.buffer[it.pos]
	it.pos++

	return entity, nil
}

// All drains the iterator into a slice.
func (it *PaginationIterator) All() ([]*Entity, error) {
	var entities []*Entity

	for it.HasNext() {
		entity, err := it.Next()
		if err != nil {
			if errors.Is(err, ErrNoMoreItems) {
				break
			}

			return nil, err
		}

		entities = append(entities, entity)
	}

	return entities, nil
}

// ForEach applies fn to every remaining item, stopping at the first
// error.
func (it *PaginationIterator) ForEach(fn func(*Entity) error) error {
	for it.HasNext() {
		entity, err := it.Next()
		if err != nil {
			if errors.Is(err, ErrNoMoreItems) {
				return nil
			}

			return err
		}

		err = fn(entity)
		if err != nil {
			return err
		}
	}

	return nil
}

// fetch replaces the buffer with the next page.
func (it *PaginationIterator) fetch() error {
	page, err := it.pager.ListPage(it.ctx, it.schema, it.params, it.next)
	if err != nil {
		return err
	}

	it.started = true
	it.buffer = page.Entities
	it.pos = 0
	it.more = page.More
	it.next = page.Next

	return nil
}

// PaginationOptions tunes full-collection helpers.
type PaginationOptions struct {
	// PageSize overrides the page size of each request.
	PageSize int

	// MaxPages caps how many pages are fetched; zero means all.
	MaxPages int
}

// FetchAllPages walks every page and returns the concatenated items.
func FetchAllPages(ctx context.Context, pager Pager, schema *Schema, params *ListParams, options *PaginationOptions) ([]*Entity, error) {
	params = applyPageSize(params, options)

	var (
		entities []*Entity
		token    PageToken
		pages    int
	)

	for {
		page, err := pager.ListPage(ctx, schema, params, token)
		if err != nil {
			return nil, err
		}

		entities = append(entities, page.Entities...)
		pages++

		if !page.More {
			break
		}

		if options != nil && options.MaxPages > 0 && pages >= options.MaxPages {
			break
		}

		token = page.Next
	}

	return entities, nil
}

// PageResult is one streamed page, or the error that ended the
// stream.
type PageResult struct {
	Entities []*Entity
	Related  RelatedObjects
	Err      error
}

// StreamPages fetches pages in a goroutine and delivers them on the
// returned channel, which is closed when the collection or the
// context ends. The channel holds at most one page.
func StreamPages(ctx context.Context, pager Pager, schema *Schema, params *ListParams, options *PaginationOptions) <-chan PageResult {
	params = applyPageSize(params, options)
	results := make(chan PageResult, 1)

	go func() {
		defer close(results)

		var (
			token PageToken
			pages int
		)

		for {
			page, err := pager.ListPage(ctx, schema, params, token)
			if err != nil {
				select {
				case results <- PageResult{Err: err}:
				case <-ctx.Done():
				}

				return
			}

			select {
			case results <- PageResult{Entities: page.Entities, Related: page.Related}:
			case <-ctx.Done():
				return
			}

			if !page.More {
				return
			}

			pages++
			if options != nil && options.MaxPages > 0 && pages >= options.MaxPages {
				return
			}

			token = page.Next
		}
	}()

	return results
}

// EntityResult is one streamed record, or the error that ended the
// stream.
type EntityResult struct {
	Entity *Entity
	Err    error
}

// StreamEntities flattens StreamPages into individual records behind
// a buffered channel, for pipeline-style consumers that process one
// record at a time.
func StreamEntities(ctx context.Context, pager Pager, schema *Schema, params *ListParams, options *PaginationOptions) <-chan EntityResult {
	results := make(chan EntityResult, constants.BufferSize)

	go func() {
		defer close(results)

		for page := range StreamPages(ctx, pager, schema, params, options) {
			if page.Err != nil {
				select {
				case results <- EntityResult{Err: page.Err}:
				case <-ctx.Done():
				}

				return
			}

			for _, entity := range page.Entities {
				select {
				case results <- EntityResult{Entity: entity}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return results
}

func applyPageSize(params *ListParams, options *PaginationOptions) *ListParams {
	if options == nil || options.PageSize <= 0 {
		return params
	}

	sized := ListParams{}
	if params != nil {
		sized = *params
	}

	sized.Limit = options.PageSize

	return &sized
}
