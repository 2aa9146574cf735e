package pipedrive

import (
	"net/url"
	"strconv"
	"strings"
)

// ListParams captures the version-neutral options of a collection
// request. Paging state (offset or cursor) is owned by the client and
// never set here. ToValues renders the version-specific wire names:
// v1 takes "sort" and "user_id", v2 "sort_by", "sort_direction" and
// "owner_id".
type ListParams struct {
	Limit         int
	Sort          string
	SortDirection string
	FilterID      int64
	OwnerID       int64
	IDs           []string
	Extra         map[string][]string
}

// NewListParams creates an empty ListParams.
func NewListParams() *ListParams {
	return &ListParams{
		Extra: make(map[string][]string),
	}
}

// WithLimit sets the page size.
func (p *ListParams) WithLimit(limit int) *ListParams {
	p.Limit = limit

	return p
}

// WithSort sets the sort field, e.g. "update_time". Under v1 a
// direction can be appended inline ("update_time DESC"); under v2 use
// WithSortDirection.
func (p *ListParams) WithSort(sort string) *ListParams {
	p.Sort = sort

	return p
}

// WithSortDirection sets "asc" or "desc" (v2 only).
func (p *ListParams) WithSortDirection(direction string) *ListParams {
	p.SortDirection = direction

	return p
}

// WithFilterID restricts the listing to a saved filter.
func (p *ListParams) WithFilterID(id int64) *ListParams {
	p.FilterID = id

	return p
}

// WithOwnerID restricts the listing to one owner.
func (p *ListParams) WithOwnerID(id int64) *ListParams {
	p.OwnerID = id

	return p
}

// WithIDs restricts the listing to specific identifiers, appending to
// any set earlier.
func (p *ListParams) WithIDs(ids ...string) *ListParams {
	p.IDs = append(p.IDs, ids...)

	return p
}

// WithExtra appends raw values for a wire parameter the options above
// do not cover.
func (p *ListParams) WithExtra(key string, values ...string) *ListParams {
	if p.Extra == nil {
		p.Extra = make(map[string][]string)
	}

	p.Extra[key] = append(p.Extra[key], values...)

	return p
}

// ToValues renders the params as url.Values for the given version.
func (p *ListParams) ToValues(version Version) url.Values {
	values := url.Values{}

	if p == nil {
		return values
	}

	if p.Limit > 0 {
		values.Set("limit", strconv.Itoa(p.Limit))
	}

	if p.Sort != "" {
		if version == V2 {
			values.Set("sort_by", p.Sort)
		} else {
			values.Set("sort", p.Sort)
		}
	}

	if p.SortDirection != "" && version == V2 {
		values.Set("sort_direction", p.SortDirection)
	}

	if p.FilterID > 0 {
		values.Set("filter_id", strconv.FormatInt(p.FilterID, 10))
	}

	if p.OwnerID > 0 {
		if version == V2 {
			values.Set("owner_id", strconv.FormatInt(p.OwnerID, 10))
		} else {
			values.Set("user_id", strconv.FormatInt(p.OwnerID, 10))
		}
	}

	if len(p.IDs) > 0 {
		values.Set("ids", strings.Join(p.IDs, ","))
	}

	for key, extra := range p.Extra {
		if len(extra) > 0 {
			values.Set(key, strings.Join(extra, ","))
		}
	}

	return values
}
