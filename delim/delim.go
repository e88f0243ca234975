// MIT License

// Copyright (c) 2018 Akhil Indurti

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package delim decides how inline spans are delimited in AsciiDoc.
//
// A constrained span uses a single marker (*bold*) and is only recognized
// when the markers do not touch word characters. An unconstrained span
// doubles the marker (**bold**) and may sit inside a word. The same decision
// is used when writing markup and when recognizing typed markup, so that
// whatever is written can be recognized again.
package delim // import "akhil.cc/deltadoc/delim"

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"akhil.cc/deltadoc/delta"
)

var markers = [...]string{
	delta.FormatBold:   "*",
	delta.FormatItalic: "_",
	delta.FormatSuper:  "^",
	delta.FormatSub:    "~",
	delta.FormatCode:   "`",
	delta.FormatLink:   "",
}

// Marker returns the single (constrained) marker of f.
func Marker(f delta.Format) string {
	if int(f) < 0 || int(f) >= len(markers) {
		return ""
	}
	return markers[f]
}

// Doubles reports whether f has an unconstrained, doubled form.
func Doubles(f delta.Format) bool {
	switch f {
	case delta.FormatBold, delta.FormatItalic, delta.FormatCode:
		return true
	}
	return false
}

// Choice is the delimiter picked for one span.
type Choice struct {
	Marker  string
	Doubled bool
}

// Open is the text that opens the span.
func (c Choice) Open() string {
	if c.Doubled {
		return c.Marker + c.Marker
	}
	return c.Marker
}

// Close is the text that closes the span.
func (c Choice) Close() string { return c.Open() }

// Policy holds the settings shared by the serializer and the recognizer.
type Policy struct {
	// Schemes are the URL schemes AsciiDoc turns into links on its own.
	// Links to any other scheme need an explicit "link:" prefix.
	Schemes []string
	// MacroSchemes are read as link macros when recognizing markup but are
	// never whitelisted, so links to them are written with "link:".
	MacroSchemes []string
}

// DefaultPolicy whitelists the schemes AsciiDoc autolinks.
var DefaultPolicy = Policy{
	Schemes:      []string{"http", "https", "ftp", "irc", "mailto"},
	MacroSchemes: []string{"nostr"},
}

// Choose picks the delimiter for a span of format f that starts right after
// preceding. lookahead holds the operations following the span's own op.
//
// The marker is doubled when preceding ends in a letter. Otherwise the first
// following op that does not carry f decides: if there is none, or its text
// starts with a letter, the marker is doubled too.
func (p Policy) Choose(preceding string, f delta.Format, lookahead []delta.Op) Choice {
	c := Choice{Marker: Marker(f)}
	if !Doubles(f) {
		return c
	}
	if EndsWithLetter(preceding) {
		c.Doubled = true
		return c
	}
	for _, op := range lookahead {
		if op.Kind != delta.KindInsert || op.Attrs.Has(f) {
			continue
		}
		c.Doubled = op.IsText() && StartsWithLetter(op.Text)
		return c
	}
	c.Doubled = true
	return c
}

// Scheme returns the lower-cased scheme of u, or "".
func Scheme(u string) string {
	i := strings.IndexByte(u, ':')
	if i <= 0 {
		return ""
	}
	if pu, err := url.Parse(u); err == nil && pu.Scheme != "" {
		return strings.ToLower(pu.Scheme)
	}
	s := u[:i]
	for _, r := range s {
		if !(r == '+' || r == '-' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return ""
		}
	}
	return strings.ToLower(s)
}

// Whitelisted reports whether the scheme of u is one of p.Schemes.
func (p Policy) Whitelisted(u string) bool {
	s := Scheme(u)
	if s == "" {
		return false
	}
	for _, w := range p.Schemes {
		if strings.EqualFold(w, s) {
			return true
		}
	}
	return false
}

// NeedsLinkPrefix reports whether a link to u written after preceding must
// use the "link:" macro form.
func (p Policy) NeedsLinkPrefix(preceding, u string) bool {
	return !p.Whitelisted(u) || EndsWithLetter(preceding)
}

// Autolink reports whether a link whose visible text is text may be written
// as the bare URL.
func (p Policy) Autolink(preceding, text, u string) bool {
	return text == u && !p.NeedsLinkPrefix(preceding, u) && !strings.ContainsAny(u, " []<>\"")
}

// EndsWithLetter reports whether the last rune of s is a Unicode letter.
func EndsWithLetter(s string) bool {
	r, size := utf8.DecodeLastRuneInString(s)
	return size > 0 && unicode.IsLetter(r)
}

// StartsWithLetter reports whether the first rune of s is a Unicode letter.
func StartsWithLetter(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size > 0 && unicode.IsLetter(r)
}
