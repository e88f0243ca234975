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
	"strings"

	"akhil.cc/deltadoc/delta"
)

// span is an inline delimiter that has been opened on the current line and
// is waiting for its closing text.
type span struct {
	f     delta.Format
	link  string
	open  string
	close string
	start int // byte offset of the span's content in line.text
}

// carried reports whether a keeps the span going.
func (s span) carried(a delta.Attributes) bool {
	if !a.Has(s.f) {
		return false
	}
	return s.f != delta.FormatLink || a.Link == s.link
}

// line is the output line under construction. Spans are closed strictly in
// reverse order of opening.
type line struct {
	text  string
	spans []span
}

func (l *line) push(s span) {
	l.text += s.open
	s.start = len(l.text)
	l.spans = append(l.spans, s)
}

// pop closes the topmost span. Trailing blanks inside the span are moved
// after the closing marker; a span with no content loses its opener.
func (l *line) pop() {
	n := len(l.spans) - 1
	s := l.spans[n]
	l.spans = l.spans[:n]
	body := l.text[s.start:]
	content := strings.TrimRight(body, " \t")
	if content == "" {
		l.text = l.text[:s.start-len(s.open)] + body
		return
	}
	l.text = l.text[:s.start] + content + s.close + body[len(content):]
}

func (l *line) closeAll() {
	for len(l.spans) > 0 {
		l.pop()
	}
}

// closeStale closes the spans a no longer carries. When a span below the
// top has to close, everything above it closes too, so that markers nest.
// The returned set marks the formats that stay open.
func (l *line) closeStale(a delta.Attributes) (keep [len(delta.Formats)]bool) {
	low := len(l.spans)
	for i := len(l.spans) - 1; i >= 0; i-- {
		if !l.spans[i].carried(a) {
			low = i
		}
	}
	for len(l.spans) > low {
		l.pop()
	}
	for _, s := range l.spans {
		keep[s.f] = true
	}
	return keep
}

func (l *line) reset() {
	l.text = ""
	l.spans = l.spans[:0]
}
