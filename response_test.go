package hxpage

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

func respond(t *testing.T, resp *AjaxResponse, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	if err := resp.Respond(rec, req); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	return rec
}

func TestAjaxResponseHeaders(t *testing.T) {
	resp := NewAjaxResponse().
		AddMarkup(markup("<p>x</p>"), "p").
		Header("Cache-Control", "no-store").
		PushURL("/todos?status=pending").
		TriggerURLSync().
		Trigger("filter:changed", map[string]any{"status": "pending"}).
		Status(http.StatusCreated)

	rec := respond(t, resp, nil)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	tests := map[string]string{
		"Cache-Control":           "no-store",
		"HX-Push-Url":             "/todos?status=pending",
		"HX-Trigger-After-Settle": "url:sync",
		"HX-Trigger":              `{"filter:changed":{"status":"pending"}}`,
		"Content-Type":            "text/html; charset=UTF-8",
	}
	for k, want := range tests {
		if got := rec.Header().Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
	if got := rec.Header().Get("Content-Length"); got != strconv.Itoa(rec.Body.Len()) {
		t.Errorf("Content-Length = %q, body is %d bytes", got, rec.Body.Len())
	}
}

func TestAjaxResponseFlashesComeLast(t *testing.T) {
	resp := NewAjaxResponse().
		Flash(FlashSuccess, "one").
		AddMarkup(markup("<p>x</p>"), "p").
		Flash(FlashError, "two")

	rec := respond(t, resp, nil)
	body := rec.Body.String()

	if strings.Index(body, `id="p"`) > strings.Index(body, `id="toasts"`) {
		t.Errorf("flashes should follow component updates: %q", body)
	}
	if strings.Count(body, `id="toasts"`) != 1 {
		t.Errorf("flashes should share one container: %q", body)
	}
	if len(resp.Flashes()) != 2 {
		t.Errorf("Flashes() = %v", resp.Flashes())
	}
}

func TestAjaxResponseXMLFormat(t *testing.T) {
	chart := NewComponent("chart", markup("<svg></svg>")).SetMarkupID("chart")
	if err := chart.Add(NewPreactReplacement()); err != nil {
		t.Fatal(err)
	}

	rec := respond(t, NewAjaxResponse().Add(chart), map[string]string{"Wicket-Ajax": "true"})
	body := rec.Body.String()

	if ct := rec.Header().Get("Content-Type"); ct != "text/xml; charset=UTF-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(body, `<component id="chart" replaceMethod="preact"><![CDATA[<svg id="chart"></svg>]]></component>`) {
		t.Errorf("missing chart component in %q", body)
	}
	if !strings.Contains(body, PreactScript.URL) || !strings.Contains(body, PreactReplacementScript.URL) {
		t.Errorf("missing preact head contribution in %q", body)
	}
}

func TestAjaxResponseCharset(t *testing.T) {
	rec := respond(t, NewAjaxResponse().AddMarkup(markup("<p>é</p>"), "p").Charset("latin1"), nil)

	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=WINDOWS-1252" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "\xe9") {
		t.Errorf("body not latin-1 encoded: %q", rec.Body.String())
	}
}

func TestAjaxResponseErrorLeavesWriterUntouched(t *testing.T) {
	boom := errors.New("boom")
	resp := NewAjaxResponse().
		AddMarkup(failing(boom), "bad").
		Header("X-Custom", "1").
		Trigger("never")

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	if err := resp.Respond(rec, req); !errors.Is(err, boom) {
		t.Fatalf("Respond() error = %v, want %v", err, boom)
	}
	if rec.Body.Len() != 0 || len(rec.Header()) != 0 {
		t.Errorf("writer touched: headers %v body %q", rec.Header(), rec.Body.String())
	}
}

func TestAjaxResponseUnknownCharset(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	err := NewAjaxResponse().Charset("nope").Respond(httptest.NewRecorder(), req)
	if !errors.Is(err, ErrUnknownCharset) {
		t.Errorf("Respond() error = %v, want ErrUnknownCharset", err)
	}
}

func TestAjaxResponseScripts(t *testing.T) {
	resp := NewAjaxResponse().
		AppendJavaScript("after()").
		PrependJavaScript("before()").
		AddHeaderItem(JavaScriptContent{ID: "init", Script: "init()"})

	u := resp.Update()
	if !u.HasHeaderContribution() {
		t.Error("header item not recorded")
	}

	body := respond(t, resp, nil).Body.String()
	before := strings.Index(body, "before()")
	head := strings.Index(body, "init()")
	after := strings.Index(body, "after()")
	if !(before < head && head < after) {
		t.Errorf("unexpected script order in %q", body)
	}
}

func TestWireAttrs(t *testing.T) {
	tests := []struct {
		method string
		key    string
	}{
		{"", "hx-get"},
		{http.MethodGet, "hx-get"},
		{http.MethodPost, "hx-post"},
		{http.MethodPut, "hx-put"},
		{http.MethodPatch, "hx-patch"},
		{http.MethodDelete, "hx-delete"},
	}

	for _, tt := range tests {
		t.Run(tt.key+tt.method, func(t *testing.T) {
			attrs := WireAttrs("/?x=abc", tt.method, nil)
			if attrs[tt.key] != "/?x=abc" {
				t.Errorf("%s = %v, want /?x=abc", tt.key, attrs[tt.key])
			}
			if len(attrs) != 1 {
				t.Errorf("attrs = %v, want only %s", attrs, tt.key)
			}
		})
	}
}

func TestWireAttrsVals(t *testing.T) {
	attrs := WireAttrs("/?x=abc", http.MethodPost, map[string]any{"step": 2})
	if attrs["hx-vals"] != `{"step":2}` {
		t.Errorf("hx-vals = %v", attrs["hx-vals"])
	}
}
