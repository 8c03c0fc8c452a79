package hxpage

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

// WireAttrs builds the HTMX request attributes for url.
//
// GET (or an empty method) becomes hx-get, POST/PUT/PATCH/DELETE the
// matching hx-* attribute. The URL is used as is, query included, so an
// encrypted URL reaches the mapper intact whatever the method. vals, when
// present, are sent as hx-vals.
//
//	<button { hxpage.WireAttrs(url, http.MethodPost, nil)... } hx-swap="none">+</button>
func WireAttrs(url, method string, vals map[string]any) templ.Attributes {
	verb := "get"
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		verb = strings.ToLower(method)
	}
	attrs := templ.Attributes{"hx-" + verb: url}

	if len(vals) > 0 {
		data, _ := json.Marshal(vals)
		attrs["hx-vals"] = string(data)
	}
	return attrs
}
