package client

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/jmanprz/pipedrive-client/internal/constants"
	pdhttp "github.com/jmanprz/pipedrive-client/internal/http"
	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
)

// versionStrategy encapsulates everything that differs between the
// two API generations: the URL prefix, how the token travels, the
// update verb, and the paging protocol. Entity operations stay
// version-agnostic by delegating here.
type versionStrategy interface {
	// Prefix is the URL path prefix, e.g. "v1" or "api/v2".
	Prefix() string

	// Authenticate attaches the token to the outgoing request.
	Authenticate(req *pdhttp.Request, token string)

	// UpdateMethod is the verb for record updates.
	UpdateMethod() string

	// ApplyPaging injects the traversal position into the query.
	ApplyPaging(query url.Values, token pipedrive.PageToken)

	// NextToken derives the continuation from a page envelope.
	// requestLimit is the page size asked for, count the records
	// received.
	NextToken(env *pipedrive.Envelope, token pipedrive.PageToken, requestLimit, count int) (pipedrive.PageToken, bool)
}

// strategyFor returns the strategy serving the version.
func strategyFor(version pipedrive.Version) versionStrategy {
	if version == pipedrive.V2 {
		return v2Strategy{}
	}

	return v1Strategy{}
}

// v1Strategy serves the original API generation: api_token query
// authentication, PUT updates, offset paging via start/limit.
type v1Strategy struct{}

func (v1Strategy) Prefix() string {
	return constants.V1Prefix
}

func (v1Strategy) Authenticate(req *pdhttp.Request, token string) {
	if req.Query == nil {
		req.Query = url.Values{}
	}

	req.Query.Set(constants.APITokenParam, token)
}

func (v1Strategy) UpdateMethod() string {
	return http.MethodPut
}

func (v1Strategy) ApplyPaging(query url.Values, token pipedrive.PageToken) {
	if token.Offset > 0 {
		query.Set("start", strconv.Itoa(token.Offset))
	}
}

// NextToken advances the offset by the effective page size: the
// requested limit when one was set, else the limit echoed in the
// envelope, else the API default.
func (v1Strategy) NextToken(env *pipedrive.Envelope, token pipedrive.PageToken, requestLimit, count int) (pipedrive.PageToken, bool) {
	more, envelopeLimit := env.OffsetPagination()
	if !more || count == 0 {
		return pipedrive.PageToken{}, false
	}

	step := requestLimit
	if step <= 0 {
		step = envelopeLimit
	}

	if step <= 0 {
		step = constants.DefaultPageLimit
	}

	return pipedrive.PageToken{Offset: token.Offset + step}, true
}

// v2Strategy serves the current API generation: Bearer header
// authentication, PATCH updates, cursor paging.
type v2Strategy struct{}

func (v2Strategy) Prefix() string {
	return constants.V2Prefix
}

func (v2Strategy) Authenticate(req *pdhttp.Request, token string) {
	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}

	req.Headers["Authorization"] = "Bearer " + token
}

func (v2Strategy) UpdateMethod() string {
	return http.MethodPatch
}

func (v2Strategy) ApplyPaging(query url.Values, token pipedrive.PageToken) {
	if token.Cursor != "" {
		query.Set("cursor", token.Cursor)
	}
}

func (v2Strategy) NextToken(env *pipedrive.Envelope, token pipedrive.PageToken, requestLimit, count int) (pipedrive.PageToken, bool) {
	cursor, ok := env.NextCursor()
	if !ok || cursor == "" || count == 0 {
		return pipedrive.PageToken{}, false
	}

	return pipedrive.PageToken{Cursor: cursor}, true
}
