package hxpage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Section names one part of a partial page update response. Sections are
// always written in the order they are declared here.
type Section string

const (
	SectionHeader             Section = "header"
	SectionComponent          Section = "component"
	SectionPriorityEvaluation Section = "priority-evaluate"
	SectionHeaderContribution Section = "header-contribution"
	SectionEvaluation         Section = "evaluate"
	SectionFooter             Section = "footer"
)

// Format is the wire format of a partial page update. PartialPageUpdate
// owns the ordering and buffering; a Format only knows how to write each
// section.
type Format interface {
	// ContentType returns the Content-Type header value for charset.
	ContentType(charset string) string
	WriteHeader(w io.Writer, charset string) error
	WriteComponent(w io.Writer, markupID string, method SwapMode, markup []byte) error
	WritePriorityEvaluation(w io.Writer, script string) error
	// WriteHeaderContribution receives the rendered head items of every
	// updated component, once per response.
	WriteHeaderContribution(w io.Writer, head []byte) error
	WriteEvaluation(w io.Writer, script string) error
	WriteFooter(w io.Writer) error
}

// binaryFormat is implemented by formats whose output is not text and
// must not be charset-encoded.
type binaryFormat interface {
	Binary() bool
}

func isBinary(f Format) bool {
	b, ok := f.(binaryFormat)
	return ok && b.Binary()
}

// XMLFormat writes the <ajax-response> envelope understood by
// Wicket-style Ajax clients:
//
//	<?xml version="1.0" encoding="UTF-8"?><ajax-response>
//	<component id="chart" replaceMethod="preact"><![CDATA[...]]></component>
//	<priority-evaluate><![CDATA[...]]></priority-evaluate>
//	<header-contribution><![CDATA[<head>...</head>]]></header-contribution>
//	<evaluate><![CDATA[...]]></evaluate>
//	</ajax-response>
type XMLFormat struct{}

func (XMLFormat) ContentType(charset string) string {
	return "text/xml; charset=" + charset
}

func (XMLFormat) WriteHeader(w io.Writer, charset string) error {
	_, err := fmt.Fprintf(w, `<?xml version="1.0" encoding="%s"?><ajax-response>`, xmlAttr(charset))
	return err
}

func (XMLFormat) WriteComponent(w io.Writer, markupID string, method SwapMode, markup []byte) error {
	open := `<component id="` + xmlAttr(markupID) + `"`
	if method != "" {
		open += ` replaceMethod="` + xmlAttr(string(method)) + `"`
	}
	return writeCDATA(w, open+">", markup, "</component>")
}

func (XMLFormat) WritePriorityEvaluation(w io.Writer, script string) error {
	return writeCDATA(w, "<priority-evaluate>", []byte(script), "</priority-evaluate>")
}

func (XMLFormat) WriteHeaderContribution(w io.Writer, head []byte) error {
	body := make([]byte, 0, len(head)+13)
	body = append(body, "<head>"...)
	body = append(body, head...)
	body = append(body, "</head>"...)
	return writeCDATA(w, "<header-contribution>", body, "</header-contribution>")
}

func (XMLFormat) WriteEvaluation(w io.Writer, script string) error {
	return writeCDATA(w, "<evaluate>", []byte(script), "</evaluate>")
}

func (XMLFormat) WriteFooter(w io.Writer) error {
	_, err := io.WriteString(w, "</ajax-response>")
	return err
}

var cdataEnd = []byte("]]>")

// writeCDATA wraps body in a CDATA section, splitting any "]]>" it contains.
func writeCDATA(w io.Writer, open string, body []byte, end string) error {
	var buf bytes.Buffer
	buf.Grow(len(open) + len(body) + len(end) + 12)
	buf.WriteString(open)
	buf.WriteString("<![CDATA[")
	buf.Write(bytes.ReplaceAll(body, cdataEnd, []byte("]]]]><![CDATA[>")))
	buf.WriteString("]]>")
	buf.WriteString(end)
	_, err := w.Write(buf.Bytes())
	return err
}

var xmlAttrReplacer = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")

func xmlAttr(s string) string {
	return xmlAttrReplacer.Replace(s)
}

// OOBFormat writes an HTMX response made entirely of out-of-band swaps.
//
// Each component's root element gets hx-swap-oob set to its replacement
// method ("true" for the default). Methods that insert content rather than
// replace the element (innerHTML, beforeend and friends) wrap the markup in
// a div carrying the target id, since HTMX swaps that element's children.
// Evaluations become script elements; header contributions go into a
// <head hx-head="append"> element for the head-support extension.
type OOBFormat struct{}

func (OOBFormat) ContentType(charset string) string {
	return "text/html; charset=" + charset
}

func (OOBFormat) WriteHeader(io.Writer, string) error { return nil }

func (OOBFormat) WriteComponent(w io.Writer, markupID string, method SwapMode, markup []byte) error {
	if !oobWraps(method) {
		out, found, err := rewriteRootTag(markup, func(tag *Tag) {
			tag.SetAttribute("id", markupID)
			tag.SetAttribute("hx-swap-oob", method.oobValue())
		})
		if err != nil {
			return err
		}
		if found {
			_, err = w.Write(out)
			return err
		}
	}

	var buf bytes.Buffer
	buf.Grow(len(markup) + len(markupID) + 40)
	fmt.Fprintf(&buf, `<div id="%s" hx-swap-oob="%s">`, xmlAttr(markupID), xmlAttr(method.oobValue()))
	buf.Write(markup)
	buf.WriteString("</div>")
	_, err := w.Write(buf.Bytes())
	return err
}

func (OOBFormat) WritePriorityEvaluation(w io.Writer, script string) error {
	_, err := io.WriteString(w, `<script data-hx-priority="true">`+escapeScript(script)+`</script>`)
	return err
}

func (OOBFormat) WriteHeaderContribution(w io.Writer, head []byte) error {
	if _, err := io.WriteString(w, `<head hx-head="append">`); err != nil {
		return err
	}
	if _, err := w.Write(head); err != nil {
		return err
	}
	_, err := io.WriteString(w, `</head>`)
	return err
}

func (OOBFormat) WriteEvaluation(w io.Writer, script string) error {
	_, err := io.WriteString(w, `<script>`+escapeScript(script)+`</script>`)
	return err
}

func (OOBFormat) WriteFooter(io.Writer) error { return nil }

// oobWraps reports whether method swaps the children of the OOB element.
func oobWraps(method SwapMode) bool {
	switch method {
	case SwapInner, SwapBeforeEnd, SwapAfterEnd, SwapBeforeBegin, SwapAfterBegin:
		return true
	}
	return false
}

// Frame is one section of a MsgpackFormat response.
type Frame struct {
	Type    Section  `msgpack:"t"`
	ID      string   `msgpack:"id,omitempty"`
	Method  SwapMode `msgpack:"m,omitempty"`
	Content string   `msgpack:"c,omitempty"`
}

// MsgpackFormat writes a stream of msgpack-encoded Frames, one per
// section, for clients that do not parse HTML. Its output is binary and is
// never charset-encoded; markup inside frames is always UTF-8.
type MsgpackFormat struct{}

func (MsgpackFormat) Binary() bool { return true }

func (MsgpackFormat) ContentType(string) string {
	return "application/msgpack"
}

func (MsgpackFormat) WriteHeader(w io.Writer, _ string) error {
	return writeFrame(w, Frame{Type: SectionHeader})
}

func (MsgpackFormat) WriteComponent(w io.Writer, markupID string, method SwapMode, markup []byte) error {
	return writeFrame(w, Frame{Type: SectionComponent, ID: markupID, Method: method, Content: string(markup)})
}

func (MsgpackFormat) WritePriorityEvaluation(w io.Writer, script string) error {
	return writeFrame(w, Frame{Type: SectionPriorityEvaluation, Content: script})
}

func (MsgpackFormat) WriteHeaderContribution(w io.Writer, head []byte) error {
	return writeFrame(w, Frame{Type: SectionHeaderContribution, Content: string(head)})
}

func (MsgpackFormat) WriteEvaluation(w io.Writer, script string) error {
	return writeFrame(w, Frame{Type: SectionEvaluation, Content: script})
}

func (MsgpackFormat) WriteFooter(w io.Writer) error {
	return writeFrame(w, Frame{Type: SectionFooter})
}

func writeFrame(w io.Writer, f Frame) error {
	return msgpack.NewEncoder(w).Encode(&f)
}

// DecodeFrames reads every frame of a MsgpackFormat response.
func DecodeFrames(r io.Reader) ([]Frame, error) {
	dec := msgpack.NewDecoder(r)
	var frames []Frame
	for {
		var f Frame
		if err := dec.Decode(&f); err != nil {
			if errors.Is(err, io.EOF) {
				return frames, nil
			}
			return frames, fmt.Errorf("hxpage: decode frame %d: %w", len(frames), err)
		}
		frames = append(frames, f)
	}
}

// NegotiateFormat picks the response format for r: msgpack when the client
// accepts application/msgpack, the XML envelope for Wicket-Ajax clients or
// XML accept headers, and HTMX out-of-band HTML otherwise.
func NegotiateFormat(r *http.Request) Format {
	accept := r.Header.Get("Accept")
	switch {
	case strings.Contains(accept, "application/msgpack"):
		return MsgpackFormat{}
	case IsWicketAjax(r), strings.Contains(accept, "/xml"):
		return XMLFormat{}
	}
	return OOBFormat{}
}
