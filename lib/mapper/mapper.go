// Package mapper maps between request handlers and URLs.
//
// A Mapper works in both directions: MapRequest resolves an incoming
// request to the handler that serves it, and MapHandler renders the URL that
// will later resolve back to an equivalent handler. Mappers compose by
// wrapping: CryptoMapper encrypts the URLs of the mapper it wraps, and
// CompoundMapper tries several mappers in order of affinity.
//
// "No result" is not an error. Both directions report it with ok == false so
// an outer chain can move on to the next candidate.
package mapper

import (
	"net/http"
)

// Handler serves a mapped request. Mappers that support MapHandler
// recognise their own concrete handler types.
type Handler = http.Handler

// Request is an incoming request as seen by a Mapper.
type Request struct {
	URL URL
	// HTTP is the underlying request. It may be nil in tests and when
	// mapping is done outside of an HTTP exchange.
	HTTP *http.Request
}

// NewRequest wraps an HTTP request.
func NewRequest(r *http.Request) Request {
	return Request{URL: FromStdURL(r.URL), HTTP: r}
}

// Method returns the HTTP method, defaulting to GET.
func (r Request) Method() string {
	if r.HTTP == nil || r.HTTP.Method == "" {
		return http.MethodGet
	}
	return r.HTTP.Method
}

// WithURL returns a copy of the request addressed to u. The HTTP request,
// if any, is cloned with its URL rewritten so downstream handlers observe
// the replacement.
func (r Request) WithURL(u URL) Request {
	out := Request{URL: u}
	if r.HTTP != nil {
		hr := r.HTTP.Clone(r.HTTP.Context())
		std := u.StdURL()
		hr.URL.Path = std.Path
		hr.URL.RawPath = std.RawPath
		hr.URL.RawQuery = std.RawQuery
		hr.RequestURI = std.RequestURI()
		out.HTTP = hr
	}
	return out
}

// Mapper translates between handlers and URLs.
type Mapper interface {
	// MapHandler returns the URL for h, or false if this mapper cannot
	// produce one.
	MapHandler(h Handler) (URL, bool)
	// MapRequest returns the handler for r, or false if this mapper cannot
	// serve it.
	MapRequest(r Request) (Handler, bool)
	// CompatibilityScore ranks how well this mapper fits r. Higher scores
	// are tried first by CompoundMapper.
	CompatibilityScore(r Request) int
}
