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

package recognize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"akhil.cc/deltadoc/delim"
	"akhil.cc/deltadoc/delta"
)

type fenceRole int

const (
	fenceNone fenceRole = iota
	fenceExit
	fenceEnter
)

// applyFunc rewrites one match. at is the host index the match offsets are
// relative to. It returns how many runes the rewrite removed from the document
// (net) and how many runes of the scanned text, counted before the rewrite,
// the scan may skip.
type applyFunc func(p *pass, m *match, at int) (deleted, skip int)

// Rule is one entry of the pattern table.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	// LineStart rules apply at most once per line, to its start.
	LineStart bool

	// group 1 (and the last group) of the pattern is context around the
	// delimiters and not part of the markup
	context bool
	fence   fenceRole
	apply   applyFunc
}

// match holds one pattern match converted to runes.
type match struct {
	index  int      // rune offset of the match in the scanned text
	groups []string // submatch texts, groups[0] is the whole match
}

func (m *match) len(i int) int {
	if i >= len(m.groups) {
		return 0
	}
	return utf8.RuneCountInString(m.groups[i])
}

// lead is the offset of the markup within the match.
func (m *match) lead(r *Rule) int {
	if r.context {
		return m.len(1)
	}
	return 0
}

// advance is how far past the match start a scan that leaves the match alone
// should resume. Trailing context stays available to the next match.
func (m *match) advance(r *Rule) int {
	n := m.len(0)
	if r.context {
		n -= m.len(len(m.groups) - 1)
	}
	if n < 1 {
		n = 1
	}
	return n
}

func find(re *regexp.Regexp, s string) *match {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return nil
	}
	m := &match{index: utf8.RuneCountInString(s[:loc[0]])}
	for i := 0; i < len(loc); i += 2 {
		if loc[i] < 0 {
			m.groups = append(m.groups, "")
			continue
		}
		m.groups = append(m.groups, s[loc[i]:loc[i+1]])
	}
	return m
}

// span matches delimited inline markup. The inner text may not start or end
// with a blank, as in AsciiDoc.
func span(pre, open, close, post, not string) *regexp.Regexp {
	inner := `([^` + not + `\s](?:[^` + not + `]*[^` + not + `\s])?)`
	return regexp.MustCompile(`(` + pre + `|^)` + open + inner + close + `(` + post + `|$)`)
}

// Rules returns the pattern table in the order it is applied. Line markers
// come first, then fenced code, then inline spans. Unconstrained forms are
// tried before constrained ones so that doubled markers are not read as two
// single ones.
func Rules(policy delim.Policy) []Rule {
	return []Rule{
		// header = "=" { "=" } " " text .
		{Name: "header", Pattern: regexp.MustCompile(`^(={1,6} )\S`), LineStart: true, apply: applyHeader},
		// divider = "'''" .
		{Name: "divider", Pattern: regexp.MustCompile(`^'''$`), LineStart: true, apply: applyDivider},
		// checklist = "*" { "*" } " [" ( "x" | "*" | " " ) "] " text .
		{Name: "checklist", Pattern: regexp.MustCompile(`^(\*{1,6} )(\[([x* ])\] )\S`), LineStart: true, apply: applyChecklist},
		// bullet = "*" { "*" } " " text .
		{Name: "unordered list", Pattern: regexp.MustCompile(`^(\*{1,6} )\S`), LineStart: true, apply: applyList(delta.Bullet)},
		// a bullet item typed as "* " turns into a checklist item on "[ ] "
		{Name: "checklist item", Pattern: regexp.MustCompile(`^(\[([x* ])\] )\S`), LineStart: true, apply: applyCheckItem},
		// ordered = "." { "." } " " text .
		{Name: "ordered list", Pattern: regexp.MustCompile(`^(\.{1,6} )\S`), LineStart: true, apply: applyList(delta.Ordered)},
		// quote = "> " text .
		{Name: "blockquote", Pattern: regexp.MustCompile(`^(> )\S`), LineStart: true, apply: applyQuote},
		// fence = "----" .
		{Name: "exit code block", Pattern: regexp.MustCompile(`^\\?----$`), LineStart: true, fence: fenceExit, apply: applyExitFence},
		{Name: "code block", Pattern: regexp.MustCompile(`^\\?----$`), LineStart: true, fence: fenceEnter, apply: applyEnterFence},

		{Name: "superscript", Pattern: span(`[^^]`, `\^`, `\^`, `[^^]`, `^`), context: true, apply: applySpan(1, delta.Attributes{Script: delta.Super})},
		{Name: "subscript", Pattern: span(`[^~]`, `~`, `~`, `[^~]`, `~`), context: true, apply: applySpan(1, delta.Attributes{Script: delta.Sub})},
		{Name: "unconstrained code", Pattern: span("[^`]", "``", "``", "[^`]", "`"), context: true, apply: applySpan(2, delta.Attributes{Code: true})},
		{Name: "inline code", Pattern: span("[^`\\p{L}]", "`", "`", "[^`\\p{L}]", "`"), context: true, apply: applySpan(1, delta.Attributes{Code: true})},

		// macro = ( "image" | "video" ) ":" [ ":" ] target "[" attrs "]" .
		{Name: "image", Pattern: macro(delta.EmbedImage), apply: applyMacro(delta.EmbedImage)},
		{Name: "video", Pattern: macro(delta.EmbedVideo), apply: applyMacro(delta.EmbedVideo)},
		// link = [ "link:" ] scheme ":" target "[" text "]" .
		{Name: "link", Pattern: linkMacro(policy), apply: applyLinkMacro},
		{Name: "raw link", Pattern: rawLink, context: true, apply: applyRawLink},

		{Name: "unconstrained bold", Pattern: span(`[^*]`, `\*\*`, `\*\*`, `[^*]`, `*`), context: true, apply: applySpan(2, delta.Attributes{Bold: true})},
		{Name: "bold", Pattern: span(`[^*\p{L}]`, `\*`, `\*`, `[^*\p{L}]`, `*`), context: true, apply: applySpan(1, delta.Attributes{Bold: true})},
		{Name: "unconstrained italic", Pattern: span(`[^_]`, `__`, `__`, `[^_]`, `_`), context: true, apply: applySpan(2, delta.Attributes{Italic: true})},
		{Name: "italic", Pattern: span(`[^_\p{L}]`, `_`, `_`, `[^_\p{L}]`, `_`), context: true, apply: applySpan(1, delta.Attributes{Italic: true})},
	}
}

func macro(kind string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + kind + `::?([^\[\s]+)\[([^\]]*)\]`)
}

func linkMacro(policy delim.Policy) *regexp.Regexp {
	schemes := []string{"link"}
	for _, s := range policy.Schemes {
		schemes = append(schemes, regexp.QuoteMeta(s))
	}
	for _, s := range policy.MacroSchemes {
		schemes = append(schemes, regexp.QuoteMeta(s))
	}
	return regexp.MustCompile(`\b((?:` + strings.Join(schemes, "|") + `):[^\s\[]+)\[([^\]]*)\]`)
}

// raw = [ "<" ] url [ ">" ] .
var rawLink = regexp.MustCompile(`([^\\"<]|^)(<?)\b((?:https?|ftp)://?(?:[\w-]+\.)+\w+(?::\d{0,5})?(?:/(?:[^/>,\s]?/?)+)?)\b(>?)([^"]|$)`)

var attrLine = regexp.MustCompile(`^\[(source|quote)?(,([^\]]+))?\]$`)

func applyHeader(p *pass, m *match, at int) (int, int) {
	n := m.len(1)
	p.h.DeleteText(at, n)
	p.h.FormatLine(at, 0, delta.Attributes{Header: n - 1})
	return n, n
}

func applyDivider(p *pass, m *match, at int) (int, int) {
	live := p.cursorAt(at + 3)
	p.h.DeleteText(at, 3)
	p.h.InsertEmbed(at, delta.NewEmbed(delta.EmbedDivider, true))
	if live {
		p.h.SetSelection(at + 1)
	}
	return 2, 3
}

func applyChecklist(p *pass, m *match, at int) (int, int) {
	n := m.len(1) + m.len(2)
	l := delta.Unchecked
	if m.groups[3] != " " {
		l = delta.Checked
	}
	p.h.DeleteText(at, n)
	p.h.FormatLine(at, 0, delta.Attributes{List: l, Indent: m.len(1) - 2})
	return n, n
}

func applyCheckItem(p *pass, m *match, at int) (int, int) {
	n := m.len(1)
	f := p.h.Format(at)
	if f.List != delta.Bullet {
		return 0, n
	}
	l := delta.Unchecked
	if m.groups[2] != " " {
		l = delta.Checked
	}
	p.h.DeleteText(at, n)
	p.h.FormatLine(at, 0, delta.Attributes{List: l, Indent: f.Indent})
	return n, n
}

func applyList(l delta.List) applyFunc {
	return func(p *pass, m *match, at int) (int, int) {
		n := m.len(1)
		p.h.DeleteText(at, n)
		p.h.FormatLine(at, 0, delta.Attributes{List: l, Indent: n - 2})
		return n, n
	}
}

func applyQuote(p *pass, m *match, at int) (int, int) {
	p.h.DeleteText(at, 2)
	p.h.FormatLine(at, 0, delta.Attributes{Blockquote: true})
	return 2, 2
}

// applyExitFence removes the closing fence and clears the code-block format
// from the line that follows it.
func applyExitFence(p *pass, m *match, at int) (int, int) {
	n := m.len(0)
	deleted := n
	if p.cursorAt(at + n) {
		p.h.DeleteText(at, n)
	} else {
		p.h.DeleteText(at, n+1)
		deleted++
	}
	p.h.RemoveFormat(at, 1)
	p.inCode = false
	p.lineDone = true
	return deleted, n
}

// applyEnterFence turns the lines after an opening fence into a code block.
// An attribute line such as [source,go] right above the fence is removed once
// the pass is over.
func applyEnterFence(p *pass, m *match, at int) (int, int) {
	n := m.len(0)
	if at > 0 {
		if ln, off, ok := p.h.Line(at - 1); ok {
			prev := p.h.LineText(ln)
			if am := attrLine.FindStringSubmatch(prev); am != nil {
				if am[1] == "quote" {
					p.r.Logger.Printf("line %d: [quote] blocks are not supported", ln)
					return 0, n
				}
				start := at - 1 - off
				p.r.Defer(func() {
					if t, ok := lineAt(p.h, start); ok && t == prev {
						p.h.DeleteText(start, utf8.RuneCountInString(prev)+1)
					}
				})
			}
		}
	}
	deleted := n
	if p.cursorAt(at + n) {
		p.h.DeleteText(at, n)
	} else {
		p.h.DeleteText(at, n+1)
		deleted++
	}
	p.h.FormatLine(at, 0, delta.Attributes{CodeBlock: true})
	p.inCode = true
	p.lineDone = true
	return deleted, n
}

// applySpan formats the text between two markers of width w and removes the
// markers.
func applySpan(w int, a delta.Attributes) applyFunc {
	return func(p *pass, m *match, at int) (int, int) {
		open := at + m.index + m.len(1)
		inner := m.len(2)
		if m.groups[3] == "" {
			p.guardSpace()
		}
		p.h.FormatText(open+w, inner, a)
		p.h.DeleteText(open+w+inner, w)
		p.h.DeleteText(open, w)
		return 2 * w, m.len(0)
	}
}

func applyMacro(kind string) applyFunc {
	return func(p *pass, m *match, at int) (int, int) {
		start := at + m.index
		n := m.len(0)
		live := p.cursorAt(start + n)
		p.h.DeleteText(start, n)
		p.h.InsertEmbed(start, delta.NewEmbed(kind, m.groups[1]))
		if a := macroAttrs(m.groups[2]); !a.IsZero() {
			p.h.FormatText(start, 1, a)
		}
		if live {
			p.h.SetSelection(start + 1)
		}
		return n - 1, n
	}
}

// macroAttrs reads the attribute list of an image or video macro. The first
// positional attribute is the alt text.
func macroAttrs(s string) delta.Attributes {
	var a delta.Attributes
	for i, f := range splitAttrs(s) {
		k, v, named := strings.Cut(f, "=")
		if !named {
			if i == 0 {
				a.Alt = unquote(f)
			}
			continue
		}
		v = unquote(strings.TrimSpace(v))
		switch strings.TrimSpace(k) {
		case "alt":
			a.Alt = v
		case "width":
			a.Width = v
		case "height":
			a.Height = v
		case "link":
			a.Link = v
		}
	}
	return a
}

// splitAttrs splits an attribute list on commas outside double quotes.
func splitAttrs(s string) []string {
	var fs []string
	var b strings.Builder
	quoted := false
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case r == ',' && !quoted:
			fs = append(fs, strings.TrimSpace(b.String()))
			b.Reset()
			continue
		}
		b.WriteRune(r)
	}
	if t := strings.TrimSpace(b.String()); t != "" || len(fs) > 0 {
		fs = append(fs, t)
	}
	return fs
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func applyLinkMacro(p *pass, m *match, at int) (int, int) {
	start := at + m.index
	n := m.len(0)
	u := strings.TrimPrefix(m.groups[1], "link:")
	text := ""
	if fs := splitAttrs(m.groups[2]); len(fs) > 0 {
		text = strings.TrimSuffix(unquote(fs[0]), "^")
	}
	if text == "" {
		text = u
	}
	tn := utf8.RuneCountInString(text)
	live := p.cursorAt(p.lineEnd())
	last := start+n == p.lineEnd()
	p.h.DeleteText(start, n)
	p.h.InsertText(start, text, delta.Attributes{Link: u})
	end := start + tn
	if live && last {
		// the link ends the line; typing goes on after a plain space
		p.guardAt(end)
		return n - tn - 1, n
	}
	if live {
		p.r.Defer(func() {
			sel, ok := p.h.Selection()
			if !ok || sel < start || sel > end {
				return
			}
			if t, ok := textAt(p.h, start, tn); ok && t == text && p.h.Format(start).Link == u {
				p.h.SetSelection(end)
			}
		})
	}
	return n - tn, n
}

// applyRawLink strips the angle brackets around a bare URL and links it once
// the pass is over. A URL still being typed at the end of the line is left
// until a blank ends it.
func applyRawLink(p *pass, m *match, at int) (int, int) {
	lt, gt := m.len(2), m.len(4)
	start := at + m.index + m.len(1)
	u := m.groups[3]
	un := m.len(3)
	if p.h.Format(start+lt).Link != "" {
		return 0, m.len(0)
	}
	if end := at + m.index + m.len(0); gt == 0 && end == p.lineEnd() && p.cursorAt(end) {
		if r, _ := utf8.DecodeLastRuneInString(m.groups[5]); !unicode.IsSpace(r) {
			return 0, m.len(0)
		}
	}
	if gt > 0 {
		p.h.DeleteText(start+lt+un, gt)
	}
	if lt > 0 {
		p.h.DeleteText(start, lt)
	}
	p.r.Defer(func() {
		if t, ok := textAt(p.h, start, un); ok && t == u {
			p.h.FormatText(start, un, delta.Attributes{Link: u})
		}
	})
	return lt + gt, m.len(0)
}
