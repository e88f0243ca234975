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

// Package doc is an in-memory rich-text document that implements
// recognize.Host. It stands in for an editor in the command line tool, the
// HTTP service and tests: it keeps inline and line formats, a cursor, and
// reports every change to its subscribers the way an editor does.
package doc // import "akhil.cc/deltadoc/doc"

import (
	"unicode/utf8"

	"akhil.cc/deltadoc/delta"
	"akhil.cc/deltadoc/recognize"
)

// ObjectReplacement stands for an embed in line text.
const ObjectReplacement = '￼'

var _ recognize.Host = (*Document)(nil)

// cell is one rune of the document. A newline cell carries the line
// attributes of the line it ends, any other cell its inline attributes.
type cell struct {
	r     rune
	embed *delta.Embed
	attrs delta.Attributes
}

// ChangeFunc receives a change, the contents before it and its source.
type ChangeFunc func(change, old *delta.Delta, source string)

// Document is a rune-indexed document that always ends with a newline.
type Document struct {
	cells []cell
	sel   int
	focus bool

	subs  []ChangeFunc
	tasks []func()
}

// New returns a document holding the inserts of d, with the cursor at the
// end of the text.
func New(d *delta.Delta) *Document {
	doc := &Document{}
	if d != nil {
		for _, op := range d.Ops {
			if op.Kind != delta.KindInsert || op.Malformed() {
				continue
			}
			doc.cells = append(doc.cells, cells(op)...)
		}
	}
	if n := len(doc.cells); n == 0 || doc.cells[n-1].r != '\n' {
		doc.cells = append(doc.cells, cell{r: '\n'})
	}
	doc.sel = len(doc.cells) - 1
	doc.focus = true
	return doc
}

func cells(op delta.Op) []cell {
	if op.Embed != nil {
		e := *op.Embed
		return []cell{{r: ObjectReplacement, embed: &e, attrs: op.Attrs.Inline()}}
	}
	cs := make([]cell, 0, utf8.RuneCountInString(op.Text))
	for _, r := range op.Text {
		c := cell{r: r, attrs: op.Attrs.Inline()}
		if r == '\n' {
			c.attrs = op.Attrs.Block()
		}
		cs = append(cs, c)
	}
	return cs
}

// OnChange subscribes fn to every change.
func (d *Document) OnChange(fn ChangeFunc) {
	d.subs = append(d.subs, fn)
}

// Schedule queues fn to run after the current user edit has been handled.
func (d *Document) Schedule(fn func()) {
	d.tasks = append(d.tasks, fn)
}

// Flush runs the scheduled functions.
func (d *Document) Flush() {
	for len(d.tasks) > 0 {
		ts := d.tasks
		d.tasks = nil
		for _, fn := range ts {
			fn()
		}
	}
}

func (d *Document) emit(change, old *delta.Delta, source string) {
	for _, fn := range d.subs {
		fn(change, old, source)
	}
}

// Length returns the number of runes in the document, embeds included.
func (d *Document) Length() int { return len(d.cells) }

// Text returns the plain text, with embeds as ObjectReplacement.
func (d *Document) Text() string {
	rs := make([]rune, len(d.cells))
	for i, c := range d.cells {
		rs[i] = c.r
	}
	return string(rs)
}

// Contents returns the document as a delta of coalesced inserts.
func (d *Document) Contents() *delta.Delta {
	out := delta.New()
	var text []rune
	var attrs delta.Attributes
	flush := func() {
		if len(text) > 0 {
			out.Insert(string(text), attrs)
			text = text[:0]
		}
	}
	for _, c := range d.cells {
		if c.embed != nil {
			flush()
			out.InsertEmbed(*c.embed, c.attrs)
			continue
		}
		if len(text) > 0 && c.attrs != attrs {
			flush()
		}
		attrs = c.attrs
		text = append(text, c.r)
	}
	flush()
	return out
}

func (d *Document) clamp(index, length int) (int, int) {
	if index < 0 {
		length += index
		index = 0
	}
	if index > len(d.cells) {
		index = len(d.cells)
	}
	if length < 0 {
		length = 0
	}
	if index+length > len(d.cells) {
		length = len(d.cells) - index
	}
	return index, length
}

// lineEnd returns the index of the newline ending the line that holds index.
func (d *Document) lineEnd(index int) int {
	for i := index; i < len(d.cells); i++ {
		if d.cells[i].r == '\n' {
			return i
		}
	}
	return len(d.cells) - 1
}

// insert places cs at index. Inserted newlines split the line they land in
// and keep its line attributes.
func (d *Document) insert(index int, cs []cell) {
	index, _ = d.clamp(index, 0)
	if index == len(d.cells) {
		index = len(d.cells) - 1
	}
	block := d.cells[d.lineEnd(index)].attrs
	for i := range cs {
		if cs[i].r == '\n' {
			cs[i].attrs = block
		}
	}
	d.cells = append(d.cells[:index], append(cs, d.cells[index:]...)...)
}

// shift moves the cursor for an edit at index that changes the length by n.
// Inserts at the cursor push it forward only for user edits.
func (d *Document) shift(index, n int, user bool) {
	switch {
	case n > 0 && (index < d.sel || index == d.sel && user):
		d.sel += n
	case n < 0 && index < d.sel:
		d.sel -= min(-n, d.sel-index)
	}
}

// DeleteText removes length runes at index. The final newline is kept.
func (d *Document) DeleteText(index, length int) {
	index, length = d.clamp(index, length)
	if index+length == len(d.cells) {
		length--
	}
	if length <= 0 {
		return
	}
	old := d.Contents()
	d.cells = append(d.cells[:index], d.cells[index+length:]...)
	d.shift(index, -length, false)
	d.emit(delta.New().Retain(index).Delete(length), old, recognize.SourceAPI)
}

// InsertText inserts text carrying the inline attributes of a.
func (d *Document) InsertText(index int, text string, a delta.Attributes) {
	if text == "" {
		return
	}
	d.insertText(index, text, a.Inline(), false)
}

func (d *Document) insertText(index int, text string, a delta.Attributes, user bool) {
	old := d.Contents()
	index, _ = d.clamp(index, 0)
	cs := cells(delta.Op{Kind: delta.KindInsert, Text: text, Attrs: a})
	d.insert(index, cs)
	d.shift(index, len(cs), user)
	source := recognize.SourceAPI
	if user {
		source = recognize.SourceUser
	}
	d.emit(delta.New().Retain(index).Insert(text, a), old, source)
}

func (d *Document) InsertEmbed(index int, e delta.Embed) {
	d.insertEmbed(index, e, false)
}

func (d *Document) insertEmbed(index int, e delta.Embed, user bool) {
	old := d.Contents()
	index, _ = d.clamp(index, 0)
	d.insert(index, []cell{{r: ObjectReplacement, embed: &e}})
	d.shift(index, 1, user)
	source := recognize.SourceAPI
	if user {
		source = recognize.SourceUser
	}
	d.emit(delta.New().Retain(index).InsertEmbed(e), old, source)
}

// FormatText sets the inline attributes of a on every non-newline rune of
// the range.
func (d *Document) FormatText(index, length int, a delta.Attributes) {
	index, length = d.clamp(index, length)
	a = a.Inline()
	if length == 0 || a.IsZero() {
		return
	}
	old := d.Contents()
	for i := index; i < index+length; i++ {
		if d.cells[i].r != '\n' {
			d.cells[i].attrs = d.cells[i].attrs.Merge(a)
		}
	}
	d.emit(delta.New(delta.Op{Kind: delta.KindRetain, Count: index},
		delta.Op{Kind: delta.KindRetain, Count: length, Attrs: a}), old, recognize.SourceAPI)
}

// lines calls fn with the index of the newline of every line the range
// touches.
func (d *Document) lines(index, length int, fn func(nl int)) {
	index, length = d.clamp(index, length)
	if index == len(d.cells) {
		return
	}
	for nl := d.lineEnd(index); ; nl = d.lineEnd(nl + 1) {
		fn(nl)
		if nl >= index+length || nl+1 >= len(d.cells) {
			return
		}
	}
}

// FormatLine replaces the line attributes of the lines touched by the range.
func (d *Document) FormatLine(index, length int, a delta.Attributes) {
	old := d.Contents()
	a = a.Block()
	d.lines(index, length, func(nl int) { d.cells[nl].attrs = a })
	d.emit(delta.New(delta.Op{Kind: delta.KindRetain, Count: index},
		delta.Op{Kind: delta.KindRetain, Count: length, Attrs: a}), old, recognize.SourceAPI)
}

// RemoveFormat clears inline attributes in the range and line attributes of
// the lines it touches.
func (d *Document) RemoveFormat(index, length int) {
	old := d.Contents()
	index, length = d.clamp(index, length)
	for i := index; i < index+length; i++ {
		if d.cells[i].r != '\n' {
			d.cells[i].attrs = delta.Attributes{}
		}
	}
	d.lines(index, length, func(nl int) { d.cells[nl].attrs = delta.Attributes{} })
	d.emit(delta.New().Retain(index).Retain(length), old, recognize.SourceAPI)
}

func (d *Document) Line(index int) (line, offset int, ok bool) {
	if index < 0 || index >= len(d.cells) {
		return 0, 0, false
	}
	start := 0
	for i := 0; i < index; i++ {
		if d.cells[i].r == '\n' {
			line++
			start = i + 1
		}
	}
	return line, index - start, true
}

func (d *Document) LineText(line int) string {
	var rs []rune
	n := 0
	for _, c := range d.cells {
		if c.r == '\n' {
			if n == line {
				return string(rs)
			}
			n++
			rs = rs[:0]
			continue
		}
		rs = append(rs, c.r)
	}
	return ""
}

func (d *Document) Format(index int) delta.Attributes {
	if index < 0 || index >= len(d.cells) {
		return delta.Attributes{}
	}
	a := d.cells[d.lineEnd(index)].attrs
	if c := d.cells[index]; c.r != '\n' {
		a = a.Merge(c.attrs)
	}
	return a
}

func (d *Document) Selection() (int, bool) { return d.sel, d.focus }

// SetSelection places the cursor at index.
func (d *Document) SetSelection(index int) {
	d.sel, _ = d.clamp(index, 0)
	if d.sel == len(d.cells) {
		d.sel--
	}
	d.focus = true
}

// Blur drops the focus; Selection reports no cursor until the next
// SetSelection.
func (d *Document) Blur() { d.focus = false }

// Type enters s one rune at a time at the cursor, as keystrokes. Typed text
// takes the inline formats of the character before the cursor. Scheduled
// work runs after each keystroke.
func (d *Document) Type(s string) {
	for _, r := range s {
		if r == '\n' {
			d.Enter()
			continue
		}
		var a delta.Attributes
		if d.sel > 0 && d.cells[d.sel-1].r != '\n' && d.cells[d.sel-1].embed == nil {
			a = d.cells[d.sel-1].attrs
		}
		d.insertText(d.sel, string(r), a, true)
		d.Flush()
	}
}

// Enter splits the line at the cursor. A line started at the end of a
// header is a plain line.
func (d *Document) Enter() {
	end := d.lineEnd(d.sel)
	header := d.sel == end && d.cells[end].attrs.Header > 0
	d.insertText(d.sel, "\n", delta.Attributes{}, true)
	if header {
		a := d.cells[d.sel].attrs
		a.Header = 0
		d.FormatLine(d.sel, 0, a)
	}
	d.Flush()
}

// Paste inserts s unformatted at the cursor as one change.
func (d *Document) Paste(s string) {
	if s == "" {
		return
	}
	d.insertText(d.sel, s, delta.Attributes{}, true)
	d.Flush()
}

// PasteEmbed inserts e at the cursor as one user change.
func (d *Document) PasteEmbed(e delta.Embed) {
	d.insertEmbed(d.sel, e, true)
	d.Flush()
}
