package hxpage

import (
	"encoding/json"
	"net/http"

	"github.com/a-h/templ"
)

// Request headers sent by Ajax clients.
const (
	HeaderHXRequest     = "HX-Request"
	HeaderHXBoosted     = "HX-Boosted"
	HeaderHXCurrentURL  = "HX-Current-URL"
	HeaderHXTrigger     = "HX-Trigger"
	HeaderHXTriggerName = "HX-Trigger-Name"
	HeaderHXTarget      = "HX-Target"
	HeaderWicketAjax    = "Wicket-Ajax"
	HeaderWicketBaseURL = "Wicket-Ajax-BaseURL"
)

// Render writes a full (non-Ajax) templ page.
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    hxpage.Render(w, r, layout(page))
//	}
//
// Ajax handlers answer with an AjaxResponse instead.
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

// AjaxInfo is what an Ajax client tells the server about a request.
type AjaxInfo struct {
	// HTMX is set for htmx requests, Wicket for clients speaking the
	// <ajax-response> protocol.
	HTMX    bool
	Wicket  bool
	Boosted bool

	// CurrentURL is the page the browser is on, not the request URL.
	CurrentURL  string
	TriggerID   string
	TriggerName string
	TargetID    string
}

// ParseAjax reads the Ajax headers of r.
func ParseAjax(r *http.Request) AjaxInfo {
	info := AjaxInfo{
		HTMX:        IsHTMX(r),
		Wicket:      IsWicketAjax(r),
		Boosted:     IsBoosted(r),
		CurrentURL:  CurrentURL(r),
		TriggerID:   r.Header.Get(HeaderHXTrigger),
		TriggerName: r.Header.Get(HeaderHXTriggerName),
		TargetID:    r.Header.Get(HeaderHXTarget),
	}
	return info
}

// IsAjax reports whether r came from an Ajax client of either kind.
func IsAjax(r *http.Request) bool {
	return IsHTMX(r) || IsWicketAjax(r)
}

// IsWicketAjax reports whether r was sent by a client expecting the
// <ajax-response> envelope.
func IsWicketAjax(r *http.Request) bool {
	return r.Header.Get(HeaderWicketAjax) == "true"
}

// IsHTMX reports whether r was sent by htmx.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get(HeaderHXRequest) == "true"
}

// IsBoosted reports whether r is an hx-boost navigation, which usually
// wants the content area without the layout.
func IsBoosted(r *http.Request) bool {
	return r.Header.Get(HeaderHXBoosted) == "true"
}

// CurrentURL returns the URL of the page the request was sent from, or ""
// for non-Ajax requests.
func CurrentURL(r *http.Request) string {
	if u := r.Header.Get(HeaderHXCurrentURL); u != "" {
		return u
	}
	return r.Header.Get(HeaderWicketBaseURL)
}

// BuildTriggerHeader formats an HX-Trigger value. Without data it is the
// bare event name; with data it is {"event": data}, delivered to listeners
// as evt.detail.
func BuildTriggerHeader(trigger string, triggerData map[string]any) string {
	if trigger == "" {
		return ""
	}
	if triggerData == nil {
		return trigger
	}

	data, _ := json.Marshal(map[string]any{trigger: triggerData})
	return string(data)
}
