package hxpage

import (
	"bytes"
	"html"
	"io"
	"strings"
)

// ResourcePath is the URL prefix under which the client scripts for the
// custom replacement methods are served.
const ResourcePath = "/_hx/res/"

// Client scripts for the custom replacement methods. They are immutable
// values, shared by every response.
var (
	PreactScript = JavaScriptReference{
		ID:  "preact",
		URL: ResourcePath + "preact/preact-10.28.3.umd.js",
	}
	PreactReplacementScript = JavaScriptReference{
		ID:  "preact-replacement-method",
		URL: ResourcePath + "js/preact-replacement-method.js",
	}
	XMLReplacementScript = JavaScriptReference{
		ID:  "xml-replacement-method",
		URL: ResourcePath + "js/xml-replacement-method.js",
	}
)

// HeaderItem is one contribution to the page head. Items with the same Key
// are rendered once per response.
type HeaderItem interface {
	Key() string
	WriteHead(w io.Writer) error
}

// JavaScriptReference is a <script src> head item.
type JavaScriptReference struct {
	ID  string
	URL string
}

func (j JavaScriptReference) Key() string { return "js-ref:" + j.URL }

func (j JavaScriptReference) WriteHead(w io.Writer) error {
	_, err := io.WriteString(w, `<script type="text/javascript" src="`+html.EscapeString(j.URL)+`"></script>`)
	return err
}

// JavaScriptContent is an inline <script> head item keyed by ID.
type JavaScriptContent struct {
	ID     string
	Script string
}

func (j JavaScriptContent) Key() string { return "js:" + j.ID }

func (j JavaScriptContent) WriteHead(w io.Writer) error {
	_, err := io.WriteString(w, `<script type="text/javascript" id="`+html.EscapeString(j.ID)+`">`+escapeScript(j.Script)+`</script>`)
	return err
}

// CSSReference is a <link rel="stylesheet"> head item.
type CSSReference struct {
	URL   string
	Media string
}

func (c CSSReference) Key() string { return "css-ref:" + c.URL }

func (c CSSReference) WriteHead(w io.Writer) error {
	s := `<link rel="stylesheet" type="text/css" href="` + html.EscapeString(c.URL) + `"`
	if c.Media != "" {
		s += ` media="` + html.EscapeString(c.Media) + `"`
	}
	_, err := io.WriteString(w, s+` />`)
	return err
}

// HeaderResponse collects head items for one response, dropping
// duplicates by key.
type HeaderResponse struct {
	items []HeaderItem
	seen  map[string]struct{}
}

// NewHeaderResponse creates an empty header response.
func NewHeaderResponse() *HeaderResponse {
	return &HeaderResponse{seen: make(map[string]struct{})}
}

// Render adds item unless an item with the same key was already added.
func (h *HeaderResponse) Render(item HeaderItem) {
	key := item.Key()
	if _, ok := h.seen[key]; ok {
		return
	}
	h.seen[key] = struct{}{}
	h.items = append(h.items, item)
}

// Items returns the collected items in the order they were first rendered.
func (h *HeaderResponse) Items() []HeaderItem {
	return h.items
}

// Len returns the number of distinct items.
func (h *HeaderResponse) Len() int {
	return len(h.items)
}

// Bytes renders every item.
func (h *HeaderResponse) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	for _, item := range h.items {
		if err := item.WriteHead(&buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// escapeScript keeps script text from closing its own element.
func escapeScript(s string) string {
	return strings.ReplaceAll(s, "</script", `<\/script`)
}
