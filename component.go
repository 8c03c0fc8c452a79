package hxpage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"runtime"

	"github.com/a-h/templ"
)

// Component binds a templ body to a markup id, the stable identifier the
// client uses to find the element to replace during a partial page update.
//
// Example:
//
//	chart := hxpage.NewComponent("chart", chartTemplate(data))
//	if err := chart.Add(hxpage.NewPreactReplacement()); err != nil {
//	    return err
//	}
//
//	resp := hxpage.NewAjaxResponse().Add(chart)
//
// Component implements templ.Component, so it can also be rendered inside
// full pages.
type Component struct {
	id             string
	markupID       string
	body           templ.Component
	behaviors      []Behavior
	outputMarkupID bool
}

// NewComponent creates a component with the given id.
//
// The markup id is derived from the id and the source location (file:line
// where NewComponent is called), so two components with the same id created
// at different places do not collide. Use SetMarkupID to pick one
// explicitly.
func NewComponent(id string, body templ.Component) *Component {
	return &Component{
		id:       id,
		markupID: id + "-" + componentHash(id, 1),
		body:     body,
	}
}

// ID returns the component's id.
func (c *Component) ID() string {
	return c.id
}

// MarkupID returns the id the component's root element carries.
func (c *Component) MarkupID() string {
	return c.markupID
}

// SetMarkupID overrides the generated markup id.
func (c *Component) SetMarkupID(markupID string) *Component {
	c.markupID = markupID
	return c
}

// SetBody replaces the template rendered by the component.
func (c *Component) SetBody(body templ.Component) *Component {
	c.body = body
	return c
}

// OutputMarkupID reports whether the markup id is written onto the root tag.
func (c *Component) OutputMarkupID() bool {
	return c.outputMarkupID
}

// SetOutputMarkupID controls whether Render stamps id="<markup id>" on the
// root tag. Components updated through a partial page update need it unless
// their template writes the id itself.
func (c *Component) SetOutputMarkupID(v bool) *Component {
	c.outputMarkupID = v
	return c
}

// Add binds behaviors to the component. It stops at the first behavior that
// refuses to bind. Adding a behavior twice is a no-op.
func (c *Component) Add(behaviors ...Behavior) error {
	for _, b := range behaviors {
		if c.has(b) {
			continue
		}
		if err := b.Bind(c); err != nil {
			return fmt.Errorf("hxpage: bind %T to %q: %w", b, c.id, err)
		}
		c.behaviors = append(c.behaviors, b)
	}
	return nil
}

func (c *Component) has(b Behavior) bool {
	for _, existing := range c.behaviors {
		if existing == b {
			return true
		}
	}
	return false
}

// Behaviors returns the bound behaviors.
func (c *Component) Behaviors() []Behavior {
	return c.behaviors
}

// ReplacementMethod returns the method chosen by a bound behavior, if any.
func (c *Component) ReplacementMethod() (SwapMode, bool) {
	for _, b := range c.behaviors {
		if mp, ok := b.(MethodProvider); ok {
			return mp.Method(), true
		}
	}
	return "", false
}

// RenderHead collects head contributions from the component's behaviors.
func (c *Component) RenderHead(ctx context.Context, head *HeaderResponse) {
	if hr, ok := c.body.(HeadRenderer); ok {
		hr.RenderHead(ctx, head)
	}
	for _, b := range c.behaviors {
		if hr, ok := b.(HeadRenderer); ok {
			hr.RenderHead(ctx, head)
		}
	}
}

// Render writes the body, applying behaviors to its root tag.
func (c *Component) Render(ctx context.Context, w io.Writer) error {
	if c.body == nil {
		return nil
	}

	var contributors []TagContributor
	for _, b := range c.behaviors {
		if tc, ok := b.(TagContributor); ok {
			contributors = append(contributors, tc)
		}
	}
	if !c.outputMarkupID && len(contributors) == 0 {
		return c.body.Render(ctx, w)
	}

	var buf bytes.Buffer
	if err := c.body.Render(ctx, &buf); err != nil {
		return err
	}
	out, _, err := rewriteRootTag(buf.Bytes(), func(tag *Tag) {
		if c.outputMarkupID {
			tag.SetAttribute("id", c.markupID)
		}
		for _, tc := range contributors {
			tc.OnComponentTag(c, tag)
		}
	})
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// Lazy returns a placeholder that loads the component from url once it
// scrolls into view. url is typically produced by Registry.URLFor.
//
//	comp.Lazy(url, loadingSpinner())
//
// Uses HTMX's "intersect once" trigger - loads once when entering viewport.
func (c *Component) Lazy(url string, placeholder templ.Component) templ.Component {
	return lazyComponent(c.markupID, url, placeholder, "intersect once")
}

// Defer returns a placeholder that loads the component from url after the
// page finishes loading.
//
// Uses HTMX's "load" trigger - fires once after page load completes.
func (c *Component) Defer(url string, placeholder templ.Component) templ.Component {
	return lazyComponent(c.markupID, url, placeholder, "load")
}

// componentHash generates a deterministic hash based on component id and source location.
func componentHash(name string, skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	var input string
	if ok {
		// Use base filename only for portability across environments
		input = fmt.Sprintf("%s:%d:%s", filepath.Base(file), line, name)
	} else {
		input = name
	}
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:4]) // 8 hex chars
}

// lazyComponent creates a placeholder that loads content on trigger.
func lazyComponent(markupID, url string, placeholder templ.Component, trigger string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, fmt.Sprintf(`<div id="%s" hx-get="%s" hx-trigger="%s" hx-swap="outerHTML">`,
			templ.EscapeString(markupID), templ.EscapeString(url), trigger))
		if err != nil {
			return err
		}
		if placeholder != nil {
			if err := placeholder.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err = io.WriteString(w, `</div>`)
		return err
	})
}
