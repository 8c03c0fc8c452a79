// Package hxpage answers Ajax requests with partial page updates and keeps
// the URLs those requests use opaque.
//
// A partial page update replaces a handful of components on an already
// rendered page instead of re-rendering the whole page. Each component is
// identified by its markup id, the id its root element carries in the
// browser.
//
// # Partial Page Updates
//
// PartialPageUpdate buffers everything one Ajax response will send and
// writes it in a fixed order:
//
//	header
//	components (insertion order, one per markup id)
//	priority evaluations
//	header contributions
//	evaluations
//	footer
//
// The concrete syntax belongs to a Format. XMLFormat produces an
// <ajax-response> envelope, OOBFormat an HTMX out-of-band response and
// MsgpackFormat a stream of binary frames. NegotiateFormat picks one from
// the request headers.
//
//	update := hxpage.NewPartialPageUpdate()
//	update.Add(counterView(n), "counter")
//	update.AddWithMethod(hxpage.SwapPreact, chartView(data), "chart")
//	update.AppendJavaScript("console.log('updated')")
//	err := update.WriteTo(ctx, w, hxpage.OOBFormat{}, "UTF-8")
//
// Nothing is written unless every section renders. An update is written
// once.
//
// # Components and Replacement Methods
//
// Component binds a markup id to a templ body. Behaviors change how it is
// rendered and replaced:
//
//	chart := hxpage.NewComponent("chart", chartView(data))
//	chart.Add(hxpage.NewPreactReplacement())
//
// PreactReplacement diffs the new markup into the page with Preact.
// XMLReplacement stamps an XML namespace on the root tag and replaces it
// with a namespace-aware parser, for MathML and similar markup. Both
// contribute the client scripts they need to the page head.
//
// AjaxResponse wraps an update with flash messages, HX-Trigger events,
// redirects and headers:
//
//	hxpage.NewAjaxResponse().
//	    Add(chart).
//	    Flash(hxpage.FlashSuccess, "Saved!").
//	    Trigger("chart:updated").
//	    Respond(w, r)
//
// # URLs and Mapping
//
// Requests reach handlers through a mapper chain (see lib/mapper). The
// Registry serves requests through the chain and builds URLs through it,
// so wrapping the chain in a mapper.CryptoMapper makes every URL the
// application hands out opaque:
//
//	mux := mapper.NewMuxMapper(nil)
//	mux.Router().HandleFunc("/counter/{op}", counter.handle).Name("counter")
//
//	reg := hxpage.NewRegistry(mapper.NewCryptoMapper(mux, factory))
//	url, _ := reg.URLFor(mapper.Route("counter", "op", "inc")) // "/?x=..."
//
// Tampered or foreign tokens are not errors: the crypto mapper declines the
// request and the registry answers 404 through OnError.
//
// # Security
//
// Mutating requests (POST, PUT, PATCH, DELETE) must carry HX-Request: true
// or Wicket-Ajax: true. Browsers do not add these headers to cross-site
// form posts, so they act as a CSRF check.
//
// # Testing
//
// RecordingFormat records the section calls of an update. TestGet, TestPost
// and TestRequestBuilder drive a handler through httptest:
//
//	result, _ := hxpage.TestPost(reg, url, nil)
//	if !result.HasFlash(hxpage.FlashSuccess, "Saved!") {
//	    t.Fatal("missing flash")
//	}
package hxpage
