package mapper

import (
	"net/http"
	"sort"

	"github.com/gorilla/mux"
)

// RouteHandler identifies a named gorilla/mux route together with its path
// variables and any extra query parameters. It is both the input of
// MuxMapper.MapHandler and the result of MuxMapper.MapRequest.
type RouteHandler struct {
	Route string
	Vars  map[string]string
	Query []QueryParameter

	next http.Handler
	url  URL
}

// Route builds a RouteHandler for the named route. vars are name/value
// pairs, as accepted by mux.Route.URL.
func Route(name string, vars ...string) *RouteHandler {
	h := &RouteHandler{Route: name, Vars: make(map[string]string, len(vars)/2)}
	for i := 0; i+1 < len(vars); i += 2 {
		h.Vars[vars[i]] = vars[i+1]
	}
	return h
}

// WithQuery appends a query parameter.
func (h *RouteHandler) WithQuery(name, value string) *RouteHandler {
	h.Query = append(h.Query, QueryParameter{Name: name, Value: value})
	return h
}

// ServeHTTP runs the matched route's handler. The request is addressed to
// the URL the route was matched from, and path variables are available
// through mux.Vars. Handlers built with Route, which were never matched,
// respond 404.
func (h *RouteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.next == nil {
		http.NotFound(w, r)
		return
	}
	r = Request{HTTP: r}.WithURL(h.url).HTTP
	h.next.ServeHTTP(w, mux.SetURLVars(r, h.Vars))
}

// MuxMapper maps between named gorilla/mux routes and URLs. Routes must be
// named for MapHandler to find them.
type MuxMapper struct {
	router *mux.Router
}

// NewMuxMapper wraps router. A nil router creates an empty one.
func NewMuxMapper(router *mux.Router) *MuxMapper {
	if router == nil {
		router = mux.NewRouter()
	}
	return &MuxMapper{router: router}
}

// Router returns the router, for registering routes.
func (m *MuxMapper) Router() *mux.Router {
	return m.router
}

// MapHandler builds the URL of a *RouteHandler's named route.
func (m *MuxMapper) MapHandler(h Handler) (URL, bool) {
	rh, ok := h.(*RouteHandler)
	if !ok {
		return URL{}, false
	}
	route := m.router.Get(rh.Route)
	if route == nil {
		return URL{}, false
	}

	names := make([]string, 0, len(rh.Vars))
	for name := range rh.Vars {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		pairs = append(pairs, name, rh.Vars[name])
	}

	built, err := route.URL(pairs...)
	if err != nil {
		return URL{}, false
	}
	u, err := ParseURL(built.RequestURI())
	if err != nil {
		return URL{}, false
	}
	u.Query = append(u.Query, rh.Query...)
	return u, true
}

// MapRequest matches the request against the router.
func (m *MuxMapper) MapRequest(r Request) (Handler, bool) {
	var match mux.RouteMatch
	if !m.router.Match(m.httpRequest(r), &match) || match.MatchErr != nil || match.Handler == nil {
		return nil, false
	}

	h := &RouteHandler{
		Vars:  match.Vars,
		Query: append([]QueryParameter(nil), r.URL.Query...),
		next:  match.Handler,
		url:   r.URL,
	}
	if match.Route != nil {
		h.Route = match.Route.GetName()
	}
	return h, true
}

// CompatibilityScore is the number of path segments plus one when a route
// matches, so a matching root route still beats a miss, and 0 otherwise.
func (m *MuxMapper) CompatibilityScore(r Request) int {
	var match mux.RouteMatch
	if !m.router.Match(m.httpRequest(r), &match) || match.MatchErr != nil {
		return 0
	}
	return len(r.URL.Segments) + 1
}

func (m *MuxMapper) httpRequest(r Request) *http.Request {
	if r.HTTP != nil {
		return r.WithURL(r.URL).HTTP
	}
	return &http.Request{
		Method: r.Method(),
		URL:    r.URL.StdURL(),
		Header: make(http.Header),
	}
}
