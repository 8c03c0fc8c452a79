// Package demo is the counter application served by "hxpage serve".
//
// The count is carried in the encrypted action URLs, so the server keeps no
// per-user state and clients cannot forge a count.
package demo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync/atomic"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/pthm/hxpage"
	"github.com/pthm/hxpage/lib/crypt"
	"github.com/pthm/hxpage/lib/mapper"
)

// HTMXScript is the htmx build the page loads.
const HTMXScript = "https://unpkg.com/htmx.org@2.0.4"

// Markup ids of the parts of the page that Ajax responses replace.
const (
	CounterID = "counter"
	MeterID   = "meter"
	StatsID   = "stats"
)

// App serves the counter page and its actions.
type App struct {
	reg     *hxpage.Registry
	logger  *zap.Logger
	charset string
	served  atomic.Int64
}

type options struct {
	logger  *zap.Logger
	param   string
	charset string
}

// Option configures an App.
type Option func(*options)

// WithLogger sets the logger shared by the app, its registry and the crypto
// mapper.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithParameter sets the query parameter carrying encrypted URLs.
func WithParameter(name string) Option {
	return func(o *options) { o.param = name }
}

// WithCharset sets the charset of Ajax responses.
func WithCharset(name string) Option {
	return func(o *options) { o.charset = name }
}

// New builds the app. URLs are protected by crypts from factory.
func New(factory crypt.Factory, opts ...Option) *App {
	o := options{logger: zap.NewNop(), param: mapper.DefaultCryptoParameter}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{logger: o.logger.Named("demo"), charset: o.charset}

	mm := mapper.NewMuxMapper(nil)
	cm := mapper.NewCryptoMapper(mm, factory,
		mapper.WithLogger(o.logger),
		mapper.WithParameter(o.param),
	)
	a.reg = hxpage.NewRegistry(cm, hxpage.WithLogger(o.logger))

	r := mm.Router()
	r.HandleFunc("/", a.page).Methods(http.MethodGet).Name("home")
	r.HandleFunc("/counter/{op:inc|dec|reset}", a.counter).Methods(http.MethodPost).Name("counter")
	r.HandleFunc("/stats", a.stats).Methods(http.MethodGet).Name("stats")
	return a
}

// Handler returns the app's HTTP handler.
func (a *App) Handler() http.Handler {
	return a.reg
}

// Registry returns the registry serving the app.
func (a *App) Registry() *hxpage.Registry {
	return a.reg
}

// Served returns the number of counter actions handled.
func (a *App) Served() int64 {
	return a.served.Load()
}

func (a *App) page(w http.ResponseWriter, r *http.Request) {
	counter, meter, err := a.components(0)
	if err != nil {
		a.reg.Fail(w, r, err)
		return
	}
	statsURL, err := a.reg.URLFor(mapper.Route("stats"))
	if err != nil {
		a.reg.Fail(w, r, err)
		return
	}

	head := hxpage.NewHeaderResponse()
	head.Render(hxpage.JavaScriptReference{URL: HTMXScript})
	counter.RenderHead(r.Context(), head)
	meter.RenderHead(r.Context(), head)

	stats := hxpage.NewComponent(StatsID, nil).SetMarkupID(StatsID)
	body := []templ.Component{
		counter,
		meter,
		stats.Defer(statsURL, text("Loading stats...")),
		hxpage.ToastContainer(),
	}
	if err := hxpage.Render(w, r, pageTemplate(head, body)); err != nil {
		a.logger.Error("render page", zap.Error(err))
	}
}

func (a *App) counter(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("n")
	n, err := strconv.Atoi(raw)
	if err != nil {
		a.reg.Fail(w, r, fmt.Errorf("demo: counter url carries bad count %q: %w", raw, err))
		return
	}
	resp := hxpage.NewAjaxResponse().Charset(a.charset)

	switch mux.Vars(r)["op"] {
	case "inc":
		n++
	case "dec":
		n--
	case "reset":
		n = 0
		resp.Flash(hxpage.FlashSuccess, "Counter reset!")
	}

	counter, meter, err := a.components(n)
	if err != nil {
		a.reg.Fail(w, r, err)
		return
	}
	a.served.Add(1)
	a.logger.Debug("counter changed", zap.Int("count", n))

	resp.Add(counter, meter).Trigger("counter:changed", map[string]any{"count": n})
	a.reg.Respond(w, r, resp)
}

func (a *App) stats(w http.ResponseWriter, r *http.Request) {
	c := wrap("p", text(fmt.Sprintf("%d counter actions served", a.Served())))
	stats := hxpage.NewComponent(StatsID, c).SetMarkupID(StatsID).SetOutputMarkupID(true)
	if err := hxpage.Render(w, r, stats); err != nil {
		a.logger.Error("render stats", zap.Error(err))
	}
}

// components builds the counter and its meter for count n. Both are
// replaced together on every action.
func (a *App) components(n int) (*hxpage.Component, *hxpage.Component, error) {
	count := strconv.Itoa(n)
	buttons := make([]templ.Attributes, 0, 3)
	for _, op := range []string{"dec", "inc", "reset"} {
		attrs, err := a.reg.Attrs(mapper.Route("counter", "op", op).WithQuery("n", count), http.MethodPost)
		if err != nil {
			return nil, nil, fmt.Errorf("demo: counter %s url: %w", op, err)
		}
		buttons = append(buttons, attrs)
	}

	counter := hxpage.NewComponent(CounterID, counterTemplate(n, buttons[0], buttons[1], buttons[2])).
		SetMarkupID(CounterID).
		SetOutputMarkupID(true)

	meter := hxpage.NewComponent(MeterID, meterTemplate(n)).SetMarkupID(MeterID)
	if err := meter.Add(hxpage.NewPreactReplacement()); err != nil {
		return nil, nil, err
	}
	return counter, meter, nil
}

func pageTemplate(head *hxpage.HeaderResponse, body []templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		headHTML, err := head.Bytes()
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>hxpage counter</title>`); err != nil {
			return err
		}
		if _, err := w.Write(headHTML); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</head><body><main>`); err != nil {
			return err
		}
		for _, c := range body {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err = io.WriteString(w, `</main></body></html>`)
		return err
	})
}

func counterTemplate(n int, dec, inc, reset templ.Attributes) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		parts := []struct {
			attrs templ.Attributes
			label string
		}{{dec, "-"}, {nil, strconv.Itoa(n)}, {inc, "+"}, {reset, "Reset"}}

		if _, err := io.WriteString(w, `<div class="counter">`); err != nil {
			return err
		}
		for _, p := range parts {
			if p.attrs == nil {
				if _, err := fmt.Fprintf(w, `<span class="count">%s</span>`, templ.EscapeString(p.label)); err != nil {
					return err
				}
				continue
			}
			if _, err := io.WriteString(w, `<button`); err != nil {
				return err
			}
			if err := writeAttrs(w, p.attrs); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, `>%s</button>`, templ.EscapeString(p.label)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// meterTemplate draws n as a bar, clamped to [0, 10] steps.
func meterTemplate(n int) templ.Component {
	width := min(max(n, 0), 10) * 10
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<svg viewBox="0 0 100 10" width="200" height="20"><rect width="%d" height="10" fill="currentColor"/></svg>`, width)
		return err
	})
}

func text(s string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(s))
		return err
	})
}

func wrap(tag string, c templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<"+tag+">"); err != nil {
			return err
		}
		if err := c.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</"+tag+">")
		return err
	})
}

// writeAttrs writes attrs in key order, escaping values.
func writeAttrs(w io.Writer, attrs templ.Attributes) error {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, ` %s="%s"`, k, templ.EscapeString(fmt.Sprint(attrs[k]))); err != nil {
			return err
		}
	}
	return nil
}
