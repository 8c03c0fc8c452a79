package hxpage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
)

// RecordedSection is one call made to a RecordingFormat.
type RecordedSection struct {
	Section  Section
	MarkupID string
	Method   SwapMode
	Content  string
}

// RecordingFormat is a Format that writes a readable trace of every
// section and records the calls, for asserting on section order.
//
//	f := &hxpage.RecordingFormat{}
//	update.WriteTo(ctx, io.Discard, f, "")
//	f.Sections() // [header component component evaluate footer]
//
// Setting FailOn makes the first call for that section return an error.
type RecordingFormat struct {
	FailOn Section
	Calls  []RecordedSection
}

// ErrRecordingFailure is returned by a RecordingFormat for its FailOn
// section.
var ErrRecordingFailure = errors.New("hxpage: recording format failure")

// Sections returns the recorded section names in call order.
func (f *RecordingFormat) Sections() []Section {
	out := make([]Section, len(f.Calls))
	for i, c := range f.Calls {
		out[i] = c.Section
	}
	return out
}

func (f *RecordingFormat) record(w io.Writer, s RecordedSection) error {
	f.Calls = append(f.Calls, s)
	if f.FailOn == s.Section {
		return fmt.Errorf("%w: %s", ErrRecordingFailure, s.Section)
	}
	line := "[" + string(s.Section)
	if s.MarkupID != "" {
		line += " " + s.MarkupID
	}
	if s.Method != "" {
		line += " " + string(s.Method)
	}
	_, err := io.WriteString(w, line+"]"+s.Content+"\n")
	return err
}

func (f *RecordingFormat) ContentType(charset string) string {
	return "text/plain; charset=" + charset
}

func (f *RecordingFormat) WriteHeader(w io.Writer, _ string) error {
	return f.record(w, RecordedSection{Section: SectionHeader})
}

func (f *RecordingFormat) WriteComponent(w io.Writer, markupID string, method SwapMode, markup []byte) error {
	return f.record(w, RecordedSection{Section: SectionComponent, MarkupID: markupID, Method: method, Content: string(markup)})
}

func (f *RecordingFormat) WritePriorityEvaluation(w io.Writer, script string) error {
	return f.record(w, RecordedSection{Section: SectionPriorityEvaluation, Content: script})
}

func (f *RecordingFormat) WriteHeaderContribution(w io.Writer, head []byte) error {
	return f.record(w, RecordedSection{Section: SectionHeaderContribution, Content: string(head)})
}

func (f *RecordingFormat) WriteEvaluation(w io.Writer, script string) error {
	return f.record(w, RecordedSection{Section: SectionEvaluation, Content: script})
}

func (f *RecordingFormat) WriteFooter(w io.Writer) error {
	return f.record(w, RecordedSection{Section: SectionFooter})
}

// TestResult holds the result of rendering or serving a request for testing.
//
// Provides convenience methods for asserting on HTML content, headers,
// status codes, events, flashes, and redirects.
type TestResult struct {
	HTML            string
	StatusCode      int
	Headers         http.Header
	TriggeredEvents []string
	Flashes         []Flash
	RedirectURL     string
}

// TestRender renders a component and returns testable output.
//
//	result, err := hxpage.TestRender(counter)
//	if !result.HTMLContains("expected text") {
//	    t.Fatal("missing expected content")
//	}
func TestRender(c templ.Component) (*TestResult, error) {
	return TestRenderWithContext(context.Background(), c)
}

// TestRenderWithContext renders a component with a custom context.
func TestRenderWithContext(ctx context.Context, c templ.Component) (*TestResult, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return nil, err
	}
	return &TestResult{
		HTML:       buf.String(),
		StatusCode: http.StatusOK,
		Headers:    make(http.Header),
	}, nil
}

// TestUpdate writes u as an HTMX out-of-band response.
func TestUpdate(u *PartialPageUpdate) (*TestResult, error) {
	var buf bytes.Buffer
	if err := u.WriteTo(context.Background(), &buf, OOBFormat{}, DefaultCharset); err != nil {
		return nil, err
	}
	return &TestResult{
		HTML:       buf.String(),
		StatusCode: http.StatusOK,
		Headers:    make(http.Header),
		Flashes:    parseFlashesFromHTML(buf.String()),
	}, nil
}

// TestGet simulates an HTMX GET request against h.
//
//	result, err := hxpage.TestGet(reg, url)
func TestGet(h http.Handler, url string) (*TestResult, error) {
	return NewTestRequest(http.MethodGet, url).Execute(h)
}

// TestPost simulates an HTMX POST request against h.
//
//	result, err := hxpage.TestPost(reg, url, map[string]string{
//	    "field": "value",
//	})
func TestPost(h http.Handler, url string, formData map[string]string) (*TestResult, error) {
	return NewTestRequest(http.MethodPost, url).WithFormValues(formData).Execute(h)
}

// HTMLContains reports whether the body contains substr.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll reports whether the body contains every substring.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	return !slices.ContainsFunc(substrs, func(s string) bool {
		return !strings.Contains(r.HTML, s)
	})
}

// HasEvent reports whether HX-Trigger named event.
func (r *TestResult) HasEvent(event string) bool {
	return slices.Contains(r.TriggeredEvents, event)
}

// HasFlash reports whether the body carries a toast with level and message.
func (r *TestResult) HasFlash(level, message string) bool {
	return slices.Contains(r.Flashes, Flash{Level: level, Message: message})
}

// WasRedirected reports whether the response set HX-Redirect.
func (r *TestResult) WasRedirected() bool {
	return r.RedirectURL != ""
}

func (r *TestResult) IsOK() bool {
	return r.StatusCode == http.StatusOK
}

func (r *TestResult) HasStatus(code int) bool {
	return r.StatusCode == code
}

// GetHeader returns the value of a header.
func (r *TestResult) GetHeader(key string) string {
	return r.Headers.Get(key)
}

// parseTriggerHeader returns the event names in an HX-Trigger value: the
// keys of a JSON object, or a comma-separated list of names.
func parseTriggerHeader(trigger string) []string {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		return nil
	}

	if strings.HasPrefix(trigger, "{") {
		var detail map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trigger), &detail); err != nil {
			return nil
		}
		events := make([]string, 0, len(detail))
		for name := range detail {
			events = append(events, name)
		}
		sort.Strings(events)
		return events
	}

	var events []string
	for _, p := range strings.Split(trigger, ",") {
		if p = strings.TrimSpace(p); p != "" {
			events = append(events, p)
		}
	}
	return events
}

// parseFlashesFromHTML finds the toasts rendered by FlashMessages.
func parseFlashesFromHTML(html string) []Flash {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var flashes []Flash
	doc.Find("div.toast").Each(func(_ int, s *goquery.Selection) {
		for _, class := range strings.Fields(s.AttrOr("class", "")) {
			if level, ok := strings.CutPrefix(class, "toast-"); ok {
				flashes = append(flashes, Flash{Level: level, Message: s.Text()})
				return
			}
		}
	})
	return flashes
}

// TestRequestBuilder provides a fluent interface for building test requests.
//
//	result, err := hxpage.NewTestRequest("POST", url).
//	    WithFormData("name", "value").
//	    WithHeader("Accept", "application/msgpack").
//	    Execute(reg)
type TestRequestBuilder struct {
	method   string
	url      string
	formData map[string]string
	headers  map[string]string
	ctx      context.Context
}

// NewTestRequest creates a new test request builder. Requests carry
// HX-Request: true unless overridden with WithHeader.
func NewTestRequest(method, url string) *TestRequestBuilder {
	return &TestRequestBuilder{
		method:   method,
		url:      url,
		formData: make(map[string]string),
		headers:  map[string]string{"HX-Request": "true"},
		ctx:      context.Background(),
	}
}

// WithFormData adds form data to the request.
func (b *TestRequestBuilder) WithFormData(key, value string) *TestRequestBuilder {
	b.formData[key] = value
	return b
}

// WithFormValues adds multiple form values to the request.
func (b *TestRequestBuilder) WithFormValues(data map[string]string) *TestRequestBuilder {
	for k, v := range data {
		b.formData[k] = v
	}
	return b
}

// WithHeader sets a request header. An empty value removes it.
func (b *TestRequestBuilder) WithHeader(key, value string) *TestRequestBuilder {
	if value == "" {
		delete(b.headers, key)
		return b
	}
	b.headers[key] = value
	return b
}

// WithContext sets the context for the request.
func (b *TestRequestBuilder) WithContext(ctx context.Context) *TestRequestBuilder {
	b.ctx = ctx
	return b
}

// Execute serves the request with h and records the response.
func (b *TestRequestBuilder) Execute(h http.Handler) (*TestResult, error) {
	form := url.Values{}
	for k, v := range b.formData {
		form.Set(k, v)
	}

	req := httptest.NewRequest(b.method, b.url, strings.NewReader(form.Encode()))
	req = req.WithContext(b.ctx)
	if len(b.formData) > 0 {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	result := &TestResult{
		HTML:        rec.Body.String(),
		StatusCode:  rec.Code,
		Headers:     rec.Header(),
		RedirectURL: rec.Header().Get("HX-Redirect"),
	}
	if trigger := rec.Header().Get("HX-Trigger"); trigger != "" {
		result.TriggeredEvents = parseTriggerHeader(trigger)
	}
	result.Flashes = parseFlashesFromHTML(result.HTML)

	return result, nil
}
