package hxpage

import (
	"errors"
	"net/http"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/pthm/hxpage/lib/mapper"
)

// Registry dispatches requests through a mapper chain and builds URLs
// through the same chain, so every link it produces is one it can serve.
//
//	mux := mapper.NewMuxMapper(nil)
//	mux.Router().HandleFunc("/counter/{op}", counter.Handle).Name("counter")
//
//	reg := hxpage.NewRegistry(mapper.NewCryptoMapper(mux, factory))
//	http.Handle("/", reg)
type Registry struct {
	mapper mapper.Mapper
	logger *zap.Logger

	// OnError is called when a request cannot be mapped or a response
	// cannot be written. Customize this to handle errors appropriately for
	// your application.
	OnError func(http.ResponseWriter, *http.Request, error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(reg *Registry) {
		if l != nil {
			reg.logger = l
		}
	}
}

// NewRegistry creates a registry over m.
func NewRegistry(m mapper.Mapper, opts ...Option) *Registry {
	reg := &Registry{
		mapper: m,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(reg)
	}
	reg.logger = reg.logger.Named("registry")

	// Default error handler
	reg.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
		if IsNotFound(err) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		if IsDecryptionError(err) || errors.Is(err, ErrInvalidFormat) {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}

	return reg
}

// Mapper returns the registry's mapper chain.
func (reg *Registry) Mapper() mapper.Mapper {
	return reg.mapper
}

// ServeHTTP maps the request to a handler and serves it.
func (reg *Registry) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Mutating methods must come from an Ajax client; plain cross-site form
	// posts cannot set these headers.
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		if !IsAjax(r) {
			http.Error(w, "Forbidden: Ajax request required", http.StatusForbidden)
			return
		}
	}

	h, ok := reg.mapper.MapRequest(mapper.NewRequest(r))
	if !ok {
		reg.Fail(w, r, ErrNotFound)
		return
	}
	h.ServeHTTP(w, r)
}

// Handler returns the registry as an http.Handler.
func (reg *Registry) Handler() http.Handler {
	return reg
}

// URLFor returns the URL that routes back to h.
func (reg *Registry) URLFor(h mapper.Handler) (string, error) {
	u, ok := reg.mapper.MapHandler(h)
	if !ok {
		return "", ErrNotMappable
	}
	return u.String(), nil
}

// Attrs returns the HTMX attributes requesting h with method.
//
//	<button { reg.MustAttrs(mapper.Route("counter", "op", "inc"), http.MethodPost)... }>+</button>
func (reg *Registry) Attrs(h mapper.Handler, method string) (templ.Attributes, error) {
	url, err := reg.URLFor(h)
	if err != nil {
		return nil, err
	}
	return WireAttrs(url, method, nil), nil
}

// MustAttrs is like Attrs but panics when h cannot be mapped, for use in
// templates where the route is known to exist.
func (reg *Registry) MustAttrs(h mapper.Handler, method string) templ.Attributes {
	attrs, err := reg.Attrs(h, method)
	if err != nil {
		panic("hxpage: " + err.Error())
	}
	return attrs
}

// Respond writes resp, passing any failure to OnError.
func (reg *Registry) Respond(w http.ResponseWriter, r *http.Request, resp *AjaxResponse) {
	if err := resp.Respond(w, r); err != nil {
		reg.Fail(w, r, err)
	}
}

// Fail logs err and passes it to OnError.
func (reg *Registry) Fail(w http.ResponseWriter, r *http.Request, err error) {
	reg.logger.Warn("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	reg.OnError(w, r, err)
}
