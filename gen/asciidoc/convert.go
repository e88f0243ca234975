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

package asciidoc

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"strings"

	"akhil.cc/deltadoc/delim"
	"akhil.cc/deltadoc/delta"
	"akhil.cc/deltadoc/gen"
)

// Warning reports an operation that could not be converted. Warnings never
// stop a conversion.
type Warning struct {
	Index int
	Op    delta.Op
	Msg   string
}

func (w Warning) Error() string {
	return fmt.Sprintf("op %d: %s", w.Index, w.Msg)
}

// Option configures Convert.
type Option func(*serializer)

func WithPolicy(p delim.Policy) Option { return func(s *serializer) { s.policy = p } }

func WithEmbeds(c gen.EmbedConverter) Option { return func(s *serializer) { s.embeds = c } }

func WithLogger(l *log.Logger) Option { return func(s *serializer) { s.logger = l } }

// Convert serializes d into AsciiDoc in one pass.
func Convert(d *delta.Delta, opts ...Option) (string, []Warning) {
	s := newSerializer(context.Background(), d, opts...)
	s.run()
	return s.output(), s.warnings
}

type serializer struct {
	ctx    context.Context
	ops    []delta.Op
	policy delim.Policy
	embeds gen.EmbedConverter
	logger *log.Logger

	line     line
	lines    []string
	prev     delta.BlockKind
	fence    bool
	warnings []Warning
}

func newSerializer(ctx context.Context, d *delta.Delta, opts ...Option) *serializer {
	s := &serializer{ctx: ctx, policy: delim.DefaultPolicy}
	if d != nil {
		s.ops = d.Ops
	}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = log.New(ioutil.Discard, "", 0)
	}
	return s
}

func (s *serializer) warnf(i int, format string, args ...interface{}) {
	w := Warning{Index: i, Op: s.ops[i], Msg: fmt.Sprintf(format, args...)}
	s.warnings = append(s.warnings, w)
	s.logger.Print(w.Error())
}

func (s *serializer) run() error {
	for i := range s.ops {
		select {
		case <-s.ctx.Done():
			return s.ctx.Err()
		default:
			s.op(i)
		}
	}
	s.line.closeAll()
	if s.line.text != "" {
		s.push(s.line.text, delta.BlockNone)
		s.line.reset()
	}
	if s.fence {
		s.closeFence()
	}
	return nil
}

func (s *serializer) output() string {
	out := strings.TrimRight(strings.Join(s.lines, "\n"), " \n")
	return out + "\n"
}

// push appends a finished line, separating it from the previous one with a
// blank line when the block kind changes. A blank line is its own separator.
func (s *serializer) push(text string, kind delta.BlockKind) {
	if n := len(s.lines); n > 0 && kind != s.prev && s.lines[n-1] != "" && text != "" {
		s.lines = append(s.lines, "")
	}
	s.lines = append(s.lines, text)
	s.prev = kind
}

func (s *serializer) flush() {
	s.line.closeAll()
	if s.line.text != "" {
		s.push(s.line.text, delta.BlockNone)
	}
	s.line.reset()
}

func (s *serializer) closeFence() {
	s.lines = append(s.lines, "----")
	s.fence = false
}

func (s *serializer) op(i int) {
	op := s.ops[i]
	if op.Kind != delta.KindInsert {
		s.warnf(i, "unexpected %s in document", op.Kind)
		return
	}
	if op.Malformed() {
		s.warnf(i, "insert is empty")
		return
	}

	keep := s.line.closeStale(op.Attrs)

	if s.fence && !s.codeLine(i) {
		s.closeFence()
	}

	switch {
	case op.Terminator() && op.Attrs.Block() != (delta.Attributes{}):
		s.block(i)
	case op.IsText():
		s.inline(i, keep)
	default:
		s.embed(i)
	}
}

// block finishes the current line with the line attributes of a terminator.
func (s *serializer) block(i int) {
	op := s.ops[i]
	a := op.Attrs
	kind := a.BlockKind()
	prefix := ""
	switch kind {
	case delta.BlockHeader:
		lvl := a.Header
		if lvl > 6 {
			lvl = 6
		}
		prefix = strings.Repeat("=", lvl) + " "
	case delta.BlockQuote:
		prefix = "> "
	case delta.BlockList:
		r := a.Indent + 1
		if r < 1 {
			r = 1
		}
		switch a.List {
		case delta.Bullet:
			prefix = strings.Repeat("*", r) + " "
		case delta.Checked:
			prefix = strings.Repeat("*", r) + " [x] "
		case delta.Unchecked:
			prefix = strings.Repeat("*", r) + " [ ] "
		case delta.Ordered:
			prefix = strings.Repeat(".", r) + " "
		default:
			s.warnf(i, "unexpected list type %q", a.List)
			kind = delta.BlockNone
		}
	case delta.BlockCode:
		if !s.fence {
			s.push("----", delta.BlockCode)
			s.fence = true
		}
	}
	s.line.closeAll()
	s.push(prefix+s.line.text, kind)
	s.line.reset()
	for n := strings.Count(op.Text, "\n"); n > 1; n-- {
		if kind == delta.BlockCode {
			s.push("", kind)
			continue
		}
		s.lines = append(s.lines, "")
		s.prev = delta.BlockNone
	}
}

// codeLine reports whether the line holding op i ends in a code block
// terminator. Inline formats never reach a code line.
func (s *serializer) codeLine(i int) bool {
	for _, op := range s.ops[i:] {
		if op.IsText() && strings.Contains(op.Text, "\n") {
			return op.Terminator() && op.Attrs.CodeBlock
		}
	}
	return false
}

func (s *serializer) inline(i int, keep [len(delta.Formats)]bool) {
	op := s.ops[i]
	frags := strings.Split(op.Text, "\n")
	if len(frags) > 1 {
		s.line.closeAll()
		for _, f := range frags[:len(frags)-1] {
			s.line.text += f
			s.push(s.line.text, delta.BlockNone)
			s.line.reset()
		}
		s.line.text = frags[len(frags)-1]
		return
	}
	text := op.Text
	if s.fence || s.codeLine(i) {
		s.line.text += text
		return
	}
	a := op.Attrs
	opening := false
	for _, f := range delta.Formats {
		if a.Has(f) && !keep[f] {
			opening = true
		}
	}
	if opening {
		body := strings.TrimLeft(text, " \t")
		s.line.text += text[:len(text)-len(body)]
		text = body
	}
	for _, f := range delta.Formats {
		if !a.Has(f) || keep[f] {
			continue
		}
		if f == delta.FormatLink {
			s.openLink(i, text)
			continue
		}
		c := s.policy.Choose(s.line.text, f, s.ops[i+1:])
		s.line.push(span{f: f, open: c.Open(), close: c.Close()})
	}
	s.line.text += text
}

func (s *serializer) openLink(i int, text string) {
	u := s.ops[i].Attrs.Link
	// the visible text runs over every following op linking to the same URL
	full := text
	for _, op := range s.ops[i+1:] {
		if !op.IsText() || op.Attrs.Link != u || strings.Contains(op.Text, "\n") {
			break
		}
		full += op.Text
	}
	sp := span{f: delta.FormatLink, link: u}
	switch {
	case s.policy.Autolink(s.line.text, full, u):
	case s.policy.NeedsLinkPrefix(s.line.text, u):
		sp.open, sp.close = "link:"+u+"[", "]"
	default:
		sp.open, sp.close = u+"[", "]"
	}
	s.line.push(sp)
}

func (s *serializer) embed(i int) {
	op := s.ops[i]
	e := *op.Embed
	switch e.Type {
	case delta.EmbedImage, delta.EmbedVideo:
		s.flush()
		s.push(e.Type+"::"+e.URL()+"["+macroAttrs(e.Type, op.Attrs)+"]", delta.BlockNone)
	case delta.EmbedDivider:
		s.flush()
		s.push("'''", delta.BlockNone)
	default:
		s.prev = delta.BlockNone
		if s.embeds == nil {
			s.warnf(i, "unsupported embed %q", e.Type)
			return
		}
		var buf bytes.Buffer
		if err := s.embeds.Convert(s.ctx, e, &buf); err != nil {
			s.warnf(i, "embed %q: %v", e.Type, err)
			return
		}
		s.line.text += buf.String()
	}
}

// macroAttrs renders the bracketed attribute list of a block macro.
func macroAttrs(typ string, a delta.Attributes) string {
	var attrs []string
	if a.Alt != "" && typ == delta.EmbedImage {
		alt := a.Alt
		if strings.ContainsAny(alt, ",=\"]") {
			alt = `"` + strings.ReplaceAll(alt, `"`, `\"`) + `"`
		}
		attrs = append(attrs, alt)
	}
	if a.Width != "" {
		attrs = append(attrs, "width="+a.Width)
	}
	if a.Height != "" {
		attrs = append(attrs, "height="+a.Height)
	}
	if a.Link != "" {
		attrs = append(attrs, "link="+a.Link)
	}
	return strings.Join(attrs, ",")
}
