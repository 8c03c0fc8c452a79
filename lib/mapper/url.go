package mapper

import (
	"fmt"
	"net/url"
	"strings"
)

// QueryParameter is a single name/value pair from a query string.
type QueryParameter struct {
	Name  string
	Value string
}

// URL is the mapper's view of a request URL: decoded path segments and
// query parameters in their original order. Scheme, host and fragment are
// not part of mapping and are dropped.
type URL struct {
	// Absolute is true when the path started with '/'.
	Absolute bool
	Segments []string
	Query    []QueryParameter
}

// ParseURL parses a path-and-query string such as "/page?a=1". Bad
// percent-escapes are an error.
func ParseURL(s string) (URL, error) {
	return parseURL(s, false)
}

// FromStdURL converts a net/url URL, typically http.Request.URL. Segments
// and query pairs that do not unescape are kept as sent, so a mangled
// query never turns into an empty URL.
func FromStdURL(u *url.URL) URL {
	parsed, _ := parseURL(u.RequestURI(), true)
	return parsed
}

func parseURL(s string, lenient bool) (URL, error) {
	var out URL
	path, rawQuery, _ := strings.Cut(s, "?")
	if !lenient {
		u, err := url.Parse(s)
		if err != nil {
			return URL{}, fmt.Errorf("mapper: parse url: %w", err)
		}
		path, rawQuery = u.EscapedPath(), u.RawQuery
	}

	unescape := func(raw string, fn func(string) (string, error)) (string, error) {
		v, err := fn(raw)
		if err != nil {
			if lenient {
				return raw, nil
			}
			return "", fmt.Errorf("mapper: parse url: %w", err)
		}
		return v, nil
	}

	if strings.HasPrefix(path, "/") {
		out.Absolute = true
		path = path[1:]
	}
	if path != "" {
		for _, raw := range strings.Split(path, "/") {
			seg, err := unescape(raw, url.PathUnescape)
			if err != nil {
				return URL{}, err
			}
			out.Segments = append(out.Segments, seg)
		}
	}

	if rawQuery != "" {
		for _, pair := range strings.Split(rawQuery, "&") {
			if pair == "" {
				continue
			}
			name, value, _ := strings.Cut(pair, "=")
			n, err := unescape(name, url.QueryUnescape)
			if err != nil {
				return URL{}, err
			}
			v, err := unescape(value, url.QueryUnescape)
			if err != nil {
				return URL{}, err
			}
			out.Query = append(out.Query, QueryParameter{Name: n, Value: v})
		}
	}
	return out, nil
}

// IsEmpty reports whether the URL has neither segments nor query parameters.
func (u URL) IsEmpty() bool {
	return len(u.Segments) == 0 && len(u.Query) == 0
}

// Path returns the escaped path part.
func (u URL) Path() string {
	var sb strings.Builder
	if u.Absolute {
		sb.WriteByte('/')
	}
	for i, seg := range u.Segments {
		if i > 0 {
			sb.WriteByte('/')
		}
		sb.WriteString(url.PathEscape(seg))
	}
	return sb.String()
}

// RawQuery returns the encoded query string without the leading '?'.
func (u URL) RawQuery() string {
	var sb strings.Builder
	for i, p := range u.Query {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Name))
		if p.Value != "" {
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(p.Value))
		}
	}
	return sb.String()
}

// String renders path and query. ParseURL(u.String()) yields an equal URL.
func (u URL) String() string {
	s := u.Path()
	if q := u.RawQuery(); q != "" {
		s += "?" + q
	}
	return s
}

// QueryValue returns the first value for name.
func (u URL) QueryValue(name string) (string, bool) {
	for _, p := range u.Query {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// AddQueryParameter appends a parameter, keeping existing ones.
func (u *URL) AddQueryParameter(name, value string) {
	u.Query = append(u.Query, QueryParameter{Name: name, Value: value})
}

// Values returns the query as url.Values. Order between names is lost.
func (u URL) Values() url.Values {
	v := make(url.Values, len(u.Query))
	for _, p := range u.Query {
		v.Add(p.Name, p.Value)
	}
	return v
}

// StdURL converts to a server-relative net/url URL. The path is always
// rooted, as it is for an incoming http.Request.
func (u URL) StdURL() *url.URL {
	rooted := u
	rooted.Absolute = true
	out := &url.URL{
		Path:     "/" + strings.Join(u.Segments, "/"),
		RawQuery: u.RawQuery(),
	}
	if raw := rooted.Path(); raw != out.Path {
		out.RawPath = raw
	}
	return out
}
