package hxpage

import (
	"bytes"
	"errors"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// TagType distinguishes the forms a component tag can take.
type TagType int

const (
	TagOpen TagType = iota
	TagOpenClose
	TagClose
)

// Tag is a component's root tag as seen by behaviors.
//
// The tokenizer lower-cases attribute names, so the original text of the
// tag is kept: changed values and new attributes are spliced into it.
type Tag struct {
	Name string
	Type TagType
	Attr []html.Attribute

	added   []html.Attribute
	changed []string
}

// Attribute returns the value of key.
func (t *Tag) Attribute(key string) (string, bool) {
	for _, a := range t.added {
		if a.Key == key {
			return a.Val, true
		}
	}
	for _, a := range t.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttribute sets key, replacing any existing value.
func (t *Tag) SetAttribute(key, val string) {
	for i, a := range t.Attr {
		if a.Key == key {
			if a.Val != val {
				t.Attr[i].Val = val
				t.changed = append(t.changed, key)
			}
			return
		}
	}
	for i, a := range t.added {
		if a.Key == key {
			t.added[i].Val = val
			return
		}
	}
	t.added = append(t.added, html.Attribute{Key: key, Val: val})
}

func (t *Tag) render(raw []byte) []byte {
	if len(t.changed) == 0 && len(t.added) == 0 {
		return raw
	}

	var out []byte
	last := 0
	for _, span := range scanAttrs(raw) {
		if !slices.Contains(t.changed, span.key) {
			continue
		}
		val, _ := t.Attribute(span.key)
		out = append(out, raw[last:span.nameEnd]...)
		out = appendAttrValue(out, val)
		last = span.end
	}

	end := len(raw) - 1 // '>'
	if t.Type == TagOpenClose && end > last && raw[end-1] == '/' {
		end--
		for end > last && raw[end-1] == ' ' {
			end--
		}
	}
	out = append(out, raw[last:end]...)
	for _, a := range t.added {
		out = append(out, ' ')
		out = append(out, a.Key...)
		out = appendAttrValue(out, a.Val)
	}
	return append(out, raw[end:]...)
}

func appendAttrValue(b []byte, val string) []byte {
	b = append(b, `="`...)
	b = append(b, html.EscapeString(val)...)
	return append(b, '"')
}

// attrSpan locates one attribute in a raw start tag. nameEnd is the offset
// just past the name and end the offset just past the value, if any.
type attrSpan struct {
	key          string
	nameEnd, end int
}

// scanAttrs finds the attributes of a raw start tag, first occurrence of
// each lower-cased name only.
func scanAttrs(raw []byte) []attrSpan {
	isSpace := func(c byte) bool {
		return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
	}
	i := 1 // '<'
	for i < len(raw) && !isSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' {
		i++
	}

	var spans []attrSpan
	seen := make(map[string]bool)
	for i < len(raw) {
		for i < len(raw) && (isSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= len(raw) || raw[i] == '>' {
			break
		}

		start := i
		i++ // a name may start with '='
		for i < len(raw) && !isSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' && raw[i] != '=' {
			i++
		}
		span := attrSpan{key: strings.ToLower(string(raw[start:i])), nameEnd: i, end: i}

		j := i
		for j < len(raw) && isSpace(raw[j]) {
			j++
		}
		if j < len(raw) && raw[j] == '=' {
			j++
			for j < len(raw) && isSpace(raw[j]) {
				j++
			}
			switch {
			case j < len(raw) && (raw[j] == '"' || raw[j] == '\''):
				q := raw[j]
				j++
				for j < len(raw) && raw[j] != q {
					j++
				}
				if j < len(raw) {
					j++
				}
			default:
				for j < len(raw) && !isSpace(raw[j]) && raw[j] != '>' {
					j++
				}
			}
			i = j
			span.end = j
		}

		if !seen[span.key] {
			seen[span.key] = true
			spans = append(spans, span)
		}
	}
	return spans
}

// rewriteRootTag applies fn to the first element tag in markup. found is
// false when markup contains no element, in which case it is returned as is.
func rewriteRootTag(markup []byte, fn func(*Tag)) (out []byte, found bool, err error) {
	z := html.NewTokenizer(bytes.NewReader(markup))
	offset := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return markup, false, nil
			}
			return nil, false, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			raw := append([]byte(nil), z.Raw()...)
			tok := z.Token()
			tag := &Tag{Name: tok.Data, Type: TagOpen, Attr: tok.Attr}
			if tt == html.SelfClosingTagToken {
				tag.Type = TagOpenClose
			}
			fn(tag)

			var buf bytes.Buffer
			buf.Grow(len(markup) + 64)
			buf.Write(markup[:offset])
			buf.Write(tag.render(raw))
			buf.Write(markup[offset+len(raw):])
			return buf.Bytes(), true, nil
		default:
			offset += len(z.Raw())
		}
	}
}
