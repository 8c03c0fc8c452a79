// Package hxpageecho provides Echo framework integration for hxpage.
//
// Mount a registry onto an Echo instance or group:
//
//	e := echo.New()
//	hxpageecho.Mount(e, reg)
//
// Or mount on a group with middleware:
//
//	g := e.Group("/app", authMiddleware)
//	hxpageecho.MountGroup(g, reg)
//
// Registry URLs are rooted at "/" (the crypto mapper produces "/?x=..."),
// so when mounting on a group, prefix the URLs handed to templates with
// the group's path.
package hxpageecho

import (
	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/pthm/hxpage"
)

// Option configures the Mount and MountGroup functions.
type Option func(*options)

type options struct {
	path string
}

// WithPath sets the route the registry is mounted on. Defaults to "/".
// Use a wildcard such as "/_hx/*" to serve a whole subtree.
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

func newOptions(opts []Option) *options {
	o := &options{path: "/"}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Mount routes every method on the mount path to reg.
//
//	e := echo.New()
//	hxpageecho.Mount(e, reg)
//
//	// With options:
//	hxpageecho.Mount(e, reg, hxpageecho.WithPath("/_hx/*"))
func Mount(e *echo.Echo, reg *hxpage.Registry, opts ...Option) {
	o := newOptions(opts)
	e.Any(o.path, echo.WrapHandler(reg))
}

// MountGroup routes the group's mount path to reg, so the registry shares
// the group's middleware (auth, logging, etc.).
//
//	g := e.Group("/app", authMiddleware)
//	hxpageecho.MountGroup(g, reg)
func MountGroup(g *echo.Group, reg *hxpage.Registry, opts ...Option) {
	o := newOptions(opts)
	g.Any(o.path, echo.WrapHandler(reg))
}

// Respond writes an Ajax response from an Echo handler.
//
//	func handler(c echo.Context) error {
//	    return hxpageecho.Respond(c, hxpage.NewAjaxResponse().Add(counter))
//	}
func Respond(c echo.Context, resp *hxpage.AjaxResponse) error {
	return resp.Respond(c.Response(), c.Request())
}

// Render writes a full templ page from an Echo handler.
func Render(c echo.Context, component templ.Component) error {
	return hxpage.Render(c.Response(), c.Request(), component)
}
