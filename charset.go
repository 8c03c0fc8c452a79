package hxpage

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultCharset is the charset responses are written in unless another is
// requested.
const DefaultCharset = "UTF-8"

// charset is a resolved response encoding.
type charset struct {
	name string
	enc  encoding.Encoding
}

// lookupCharset resolves name with the WHATWG encoding index. An empty name
// means DefaultCharset.
func lookupCharset(name string) (charset, error) {
	if name == "" {
		name = DefaultCharset
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return charset{}, fmt.Errorf("%w: %q", ErrUnknownCharset, name)
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = name
	}
	return charset{name: strings.ToUpper(canonical), enc: enc}, nil
}

// encode converts UTF-8 output into the charset. Characters the charset
// cannot represent become HTML character references, which script text
// must not contain; see escapeScript.
func (c charset) encode(b []byte) ([]byte, error) {
	if c.name == DefaultCharset {
		return b, nil
	}
	return encoding.HTMLEscapeUnsupported(c.enc.NewEncoder()).Bytes(b)
}

// escapeScript replaces the characters of a JavaScript snippet that the
// charset cannot represent with \uXXXX escapes. Script bodies are raw text
// in HTML and CDATA in XML, where character references are not decoded.
func (c charset) escapeScript(js string) string {
	if c.name == DefaultCharset {
		return js
	}
	enc := c.enc.NewEncoder()
	var sb strings.Builder
	sb.Grow(len(js))
	for _, r := range js {
		if r < utf8.RuneSelf {
			sb.WriteRune(r)
			continue
		}
		if _, err := enc.String(string(r)); err == nil {
			sb.WriteRune(r)
			continue
		}
		if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			fmt.Fprintf(&sb, `\u%04x\u%04x`, r1, r2)
			continue
		}
		fmt.Fprintf(&sb, `\u%04x`, r)
	}
	return sb.String()
}
