package hxpage

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
)

// AjaxResponse is returned from Ajax handlers to describe the partial page
// update and its side effects.
//
// It is a fluent builder over a PartialPageUpdate that adds flash messages,
// redirects, events and custom headers. Respond picks the wire format from
// the request and writes everything at once.
//
// Example patterns:
//
//	// Replace a component
//	hxpage.NewAjaxResponse().Add(counter).Respond(w, r)
//
//	// With a flash message
//	hxpage.NewAjaxResponse().Add(counter).Flash(hxpage.FlashSuccess, "Saved!")
//
//	// Redirect via HX-Redirect header
//	hxpage.NewAjaxResponse().Redirect("/dashboard")
//
//	// Broadcast event with data (listeners receive it as evt.detail)
//	hxpage.NewAjaxResponse().Trigger("filter:changed", map[string]any{"status": "active"})
type AjaxResponse struct {
	update             *PartialPageUpdate
	flashes            []Flash
	trigger            string
	triggerData        map[string]any
	triggerAfterSettle string
	redirect           string
	headers            map[string]string
	status             int
	charset            string
}

// NewAjaxResponse creates an empty response.
func NewAjaxResponse() *AjaxResponse {
	return &AjaxResponse{update: NewPartialPageUpdate()}
}

// Add replaces each component under its markup id, using the method chosen
// by its behaviors.
func (r *AjaxResponse) Add(components ...*Component) *AjaxResponse {
	for _, c := range components {
		r.update.AddComponent(c)
	}
	return r
}

// AddMarkup replaces markupID with c using the default method.
func (r *AjaxResponse) AddMarkup(c templ.Component, markupID string) *AjaxResponse {
	r.update.Add(c, markupID)
	return r
}

// AddWithMethod replaces markupID with c using method.
func (r *AjaxResponse) AddWithMethod(method SwapMode, c templ.Component, markupID string) *AjaxResponse {
	r.update.AddWithMethod(method, c, markupID)
	return r
}

// PrependJavaScript adds a priority evaluation.
func (r *AjaxResponse) PrependJavaScript(script string) *AjaxResponse {
	r.update.PrependJavaScript(script)
	return r
}

// AppendJavaScript adds an evaluation.
func (r *AjaxResponse) AppendJavaScript(script string) *AjaxResponse {
	r.update.AppendJavaScript(script)
	return r
}

// AddHeaderItem adds a head contribution.
func (r *AjaxResponse) AddHeaderItem(item HeaderItem) *AjaxResponse {
	r.update.AddHeaderItem(item)
	return r
}

// Flash adds a flash message (toast notification) to the response.
//
// Multiple flashes can be chained:
//
//	resp.Flash("success", "Primary action completed").
//	    Flash("info", "Notification sent")
func (r *AjaxResponse) Flash(level, message string) *AjaxResponse {
	r.flashes = append(r.flashes, Flash{Level: level, Message: message})
	return r
}

// Trigger emits an event via the HX-Trigger header.
//
// When data is provided, HTMX fires the event with evt.detail set to it.
// This pattern decouples components - the emitter doesn't know who's listening.
func (r *AjaxResponse) Trigger(event string, data ...map[string]any) *AjaxResponse {
	r.trigger = event
	if len(data) > 0 {
		r.triggerData = data[0]
	}
	return r
}

// PushURL updates the browser URL via HX-Push-Url header.
func (r *AjaxResponse) PushURL(url string) *AjaxResponse {
	return r.Header("HX-Push-Url", url)
}

// TriggerURLSync emits the "url:sync" event after the swap settles, so
// components bound to URL state re-read it once the URL is updated.
func (r *AjaxResponse) TriggerURLSync() *AjaxResponse {
	r.triggerAfterSettle = "url:sync"
	return r
}

// Redirect makes the client navigate to url via HX-Redirect. The update
// itself is not written.
func (r *AjaxResponse) Redirect(url string) *AjaxResponse {
	r.redirect = url
	return r
}

// Header sets a custom response header.
//
//	resp.Header("Cache-Control", "no-store")
func (r *AjaxResponse) Header(key, value string) *AjaxResponse {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

// Status sets the HTTP status code. The default is 200.
func (r *AjaxResponse) Status(code int) *AjaxResponse {
	r.status = code
	return r
}

// Charset sets the response charset. The default is DefaultCharset.
func (r *AjaxResponse) Charset(name string) *AjaxResponse {
	r.charset = name
	return r
}

// Update returns the underlying partial page update.
func (r *AjaxResponse) Update() *PartialPageUpdate {
	return r.update
}

// Flashes returns the flash messages.
func (r *AjaxResponse) Flashes() []Flash {
	return r.flashes
}

// Respond writes the response in the format negotiated for req.
//
// The update is rendered before anything is sent: on error, w is untouched
// and the caller can still write an error response.
func (r *AjaxResponse) Respond(w http.ResponseWriter, req *http.Request) error {
	return r.RespondWith(w, req, NegotiateFormat(req))
}

// RespondWith writes the response in format f.
func (r *AjaxResponse) RespondWith(w http.ResponseWriter, req *http.Request, f Format) error {
	if r.redirect != "" {
		r.writeHeaders(w.Header())
		w.Header().Set("HX-Redirect", r.redirect)
		w.WriteHeader(r.statusCode())
		return nil
	}

	if len(r.flashes) > 0 {
		r.update.AddWithMethod(SwapBeforeEnd, FlashMessages(r.flashes...), ToastContainerID)
	}

	cs, err := lookupCharset(r.charset)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := r.update.WriteTo(req.Context(), &buf, f, cs.name); err != nil {
		return err
	}

	h := w.Header()
	r.writeHeaders(h)
	h.Set("Content-Type", f.ContentType(cs.name))
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(r.statusCode())
	_, err = w.Write(buf.Bytes())
	return err
}

func (r *AjaxResponse) writeHeaders(h http.Header) {
	for k, v := range r.headers {
		h.Set(k, v)
	}
	if trigger := BuildTriggerHeader(r.trigger, r.triggerData); trigger != "" {
		h.Set("HX-Trigger", trigger)
	}
	if r.triggerAfterSettle != "" {
		h.Set("HX-Trigger-After-Settle", r.triggerAfterSettle)
	}
}

func (r *AjaxResponse) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}
