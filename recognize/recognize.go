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

// Package recognize turns AsciiDoc markup into formatting while it is typed
// or pasted into a live editor.
//
// A Recognizer is told about every change of the host document. For a user
// insertion it scans each affected line with the rules of the pattern table,
// in order. A rule that matches rewrites the host model through the Host
// interface: the markup characters are deleted and the equivalent format is
// applied. Every rewrite reports how many characters it removed and how far
// the scan may skip, which keeps the scan position in step with the
// document.
//
// Some rewrites only make sense once the pass is over. They are queued and
// run by Drain; each one checks again that the document still looks the way
// it expects and does nothing otherwise.
package recognize // import "akhil.cc/deltadoc/recognize"

import (
	"io/ioutil"
	"log"
	"strings"
	"unicode/utf8"

	"akhil.cc/deltadoc/delim"
	"akhil.cc/deltadoc/delta"
)

// EmbedReader maps a custom embed to the markup it stands for. ok is false
// for embeds it does not know.
type EmbedReader func(e delta.Embed) (markup string, ok bool)

// Recognizer rewrites markup in Host as the user types it.
type Recognizer struct {
	Host   Host
	Policy delim.Policy
	Logger *log.Logger
	Embeds EmbedReader
	// Schedule, if set, is called after a pass that queued work, with Drain
	// as its argument. Hosts use it to run Drain on their next turn.
	Schedule func(func())

	rules    []Rule
	deferred []func()
	guard    int // cursor index right after a guard space, or 0
}

// Option configures New.
type Option func(*Recognizer)

func WithPolicy(p delim.Policy) Option { return func(r *Recognizer) { r.Policy = p } }

func WithLogger(l *log.Logger) Option { return func(r *Recognizer) { r.Logger = l } }

func WithEmbedReader(f EmbedReader) Option { return func(r *Recognizer) { r.Embeds = f } }

func WithScheduler(f func(func())) Option { return func(r *Recognizer) { r.Schedule = f } }

// New returns a Recognizer for h.
func New(h Host, opts ...Option) *Recognizer {
	r := &Recognizer{Host: h, Policy: delim.DefaultPolicy}
	for _, o := range opts {
		o(r)
	}
	if r.Logger == nil {
		r.Logger = log.New(ioutil.Discard, "", 0)
	}
	r.rules = Rules(r.Policy)
	return r
}

// HandleTextChange scans the text inserted by change. old is the document
// before the change; it is not needed to find the insertion and may be nil.
// Changes that are not user insertions are ignored.
func (r *Recognizer) HandleTextChange(change, old *delta.Delta, source string) {
	if source != SourceUser || change == nil {
		return
	}
	guard := r.guard
	r.guard = 0
	if r.rules == nil {
		if r.Logger == nil {
			r.Logger = log.New(ioutil.Discard, "", 0)
		}
		r.rules = Rules(r.Policy)
	}
	ops := change.Ops
	offset := 0
	if len(ops) > 0 && ops[0].Kind == delta.KindRetain {
		offset = ops[0].Count
		ops = ops[1:]
	}
	// replacing a selection deletes it first
	for len(ops) > 0 && ops[0].Kind == delta.KindDelete {
		ops = ops[1:]
	}
	if len(ops) == 0 || ops[0].Kind != delta.KindInsert {
		return
	}
	ins := ops[0]
	text := ins.Text
	if text == " " && guard > 0 && offset == guard && r.absorb(offset) {
		return
	}
	switch {
	case ins.IsText():
	case ins.Embed != nil && !ins.Embed.Known() && r.Embeds != nil:
		s, ok := r.Embeds(*ins.Embed)
		if !ok || s == "" {
			return
		}
		r.replaceEmbed(offset, s, ins.Attrs)
		text = s
	default:
		return
	}
	p := &pass{r: r, h: r.Host}
	p.scan(offset, text)
	if p.guarded {
		if sel, ok := r.Host.Selection(); ok {
			r.guard = sel
		}
	}
	if r.Schedule != nil && len(r.deferred) > 0 {
		r.Schedule(r.Drain)
	}
}

// absorb drops a space typed at index when a guard space already sits
// before it.
func (r *Recognizer) absorb(index int) bool {
	if t, ok := textAt(r.Host, index-1, 2); !ok || t != "  " {
		return false
	}
	r.Host.DeleteText(index, 1)
	return true
}

// replaceEmbed swaps the embed at offset for its markup.
func (r *Recognizer) replaceEmbed(offset int, s string, a delta.Attributes) {
	sel, ok := r.Host.Selection()
	r.Host.DeleteText(offset, 1)
	r.Host.InsertText(offset, s, a.Inline())
	if ok && sel == offset+1 {
		r.Host.SetSelection(offset + utf8.RuneCountInString(s))
	}
}

// Defer queues fn to run on the next Drain.
func (r *Recognizer) Defer(fn func()) {
	r.deferred = append(r.deferred, fn)
}

// Pending returns the number of queued functions.
func (r *Recognizer) Pending() int { return len(r.deferred) }

// Drain runs the queued functions in order, including any they queue.
func (r *Recognizer) Drain() {
	for len(r.deferred) > 0 {
		fns := r.deferred
		r.deferred = nil
		for _, fn := range fns {
			fn()
		}
	}
}

// pass is one scan of an insertion.
type pass struct {
	r *Recognizer
	h Host

	inCode   bool // a fence was opened during this pass
	lineDone bool // no other rule may touch the current line
	guarded  bool // a guard space was put at the cursor

	lineStart int
	text      string // current line, re-read after every rewrite
}

// scan runs the rules over every line the inserted text touches. offset is
// the index of the insertion and is kept in step with every deletion.
func (p *pass) scan(offset int, text string) {
	frags := strings.Split(text, "\n")
	for i, frag := range frags {
		n := utf8.RuneCountInString(frag)
		if n == 0 {
			if p.inCode && i < len(frags)-1 {
				p.h.FormatLine(offset, 0, delta.Attributes{CodeBlock: true})
			}
			offset++
			continue
		}
		offset = p.line(offset)
		offset += n + 1
		if i < len(frags)-1 && !p.h.Format(offset).CodeBlock {
			// lines created by the insertion start without formats
			p.h.RemoveFormat(offset, 1)
		}
	}
}

// line runs the rules over the line holding offset and returns offset moved
// back by every rune removed before or inside the insertion.
func (p *pass) line(offset int) int {
	ln, col, ok := p.h.Line(offset)
	if !ok {
		return offset
	}
	p.lineStart = offset - col
	p.text = p.h.LineText(ln)
	p.lineDone = false
	inCode := p.inCode || p.h.Format(p.lineStart).CodeBlock
	if p.inCode {
		p.h.FormatLine(p.lineStart, 0, delta.Attributes{CodeBlock: true})
	}

	for i := range p.r.rules {
		rule := &p.r.rules[i]
		if p.lineDone {
			break
		}
		if (rule.fence == fenceExit) != inCode {
			continue
		}
		lineOffset := 0
		for lineOffset < utf8.RuneCountInString(p.text) {
			sub := string([]rune(p.text)[lineOffset:])
			m := find(rule.Pattern, sub)
			if m == nil {
				break
			}
			at := p.lineStart + lineOffset
			if rule.fence == fenceNone {
				f := p.h.Format(at + m.index + m.lead(rule))
				if f.Code || f.CodeBlock {
					if rule.LineStart {
						break
					}
					lineOffset += m.index + m.advance(rule)
					continue
				}
			}
			deleted, skip := rule.apply(p, m, at)
			offset -= deleted
			if p.lineDone {
				break
			}
			ln, _, ok := p.h.Line(p.lineStart)
			if !ok {
				p.lineDone = true
				break
			}
			p.text = p.h.LineText(ln)
			if rule.LineStart {
				break
			}
			if deleted == 0 {
				// left alone; the trailing context may open the next match
				skip = m.advance(rule)
			}
			lineOffset += m.index + skip - deleted
			if lineOffset < 0 {
				lineOffset = 0
			}
		}
	}
	return offset
}

// lineEnd is the index just past the last character of the current line.
func (p *pass) lineEnd() int {
	return p.lineStart + utf8.RuneCountInString(p.text)
}

func (p *pass) cursorAt(i int) bool {
	sel, ok := p.h.Selection()
	return ok && sel == i
}

// guardSpace puts a plain space after markup closed at the end of the line
// while the cursor is there, so that what is typed next is not formatted.
// A space typed right after it is absorbed by the next change.
func (p *pass) guardSpace() {
	end := p.lineEnd()
	if !p.cursorAt(end) {
		return
	}
	p.guardAt(end)
}

func (p *pass) guardAt(i int) {
	p.h.InsertText(i, " ", delta.Attributes{})
	p.h.SetSelection(i + 1)
	p.guarded = true
}

// lineAt returns the text of the line starting at index.
func lineAt(h Host, index int) (string, bool) {
	ln, col, ok := h.Line(index)
	if !ok || col != 0 {
		return "", false
	}
	return h.LineText(ln), true
}

// textAt returns n runes of the line text starting at index.
func textAt(h Host, index, n int) (string, bool) {
	ln, col, ok := h.Line(index)
	if !ok {
		return "", false
	}
	t := []rune(h.LineText(ln))
	if col+n > len(t) {
		return "", false
	}
	return string(t[col : col+n]), true
}
