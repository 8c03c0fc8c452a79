package hxpage

// SwapMode is a replacement method: how a component's new markup replaces
// the old element on the client.
//
// The HTMX modes map directly onto hx-swap / hx-swap-oob values. SwapPreact
// and SwapXML are custom methods that need the matching client script (see
// PreactReplacement and XMLReplacement). The empty SwapMode means "default".
type SwapMode string

const (
	// SwapOuter replaces the whole element. It is what the default method
	// does.
	SwapOuter SwapMode = "outerHTML"
	// SwapInner replaces the element's children and keeps its tag.
	SwapInner SwapMode = "innerHTML"
	// SwapBeforeEnd appends to the element's children.
	SwapBeforeEnd SwapMode = "beforeend"
	// SwapAfterEnd inserts after the element.
	SwapAfterEnd SwapMode = "afterend"
	// SwapBeforeBegin inserts before the element.
	SwapBeforeBegin SwapMode = "beforebegin"
	// SwapAfterBegin prepends to the element's children.
	SwapAfterBegin SwapMode = "afterbegin"
	// SwapDelete removes the element; the markup is ignored.
	SwapDelete SwapMode = "delete"
	SwapNone   SwapMode = "none"

	// SwapPreact diffs the new markup into the old element with Preact.
	// Suited to large components that change little, and to SVG.
	SwapPreact SwapMode = "preact"

	// SwapXML replaces the element with namespace-aware XML parsing, for
	// MathML and other non-HTML markup.
	SwapXML SwapMode = "xml"
)

// oobValue returns the hx-swap-oob attribute value for the mode.
func (m SwapMode) oobValue() string {
	if m == "" {
		return "true"
	}
	return string(m)
}
