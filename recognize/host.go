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

import "akhil.cc/deltadoc/delta"

// Source of a change notification. Only user edits are recognized.
const (
	SourceUser   = "user"
	SourceAPI    = "api"
	SourceSilent = "silent"
)

// Host is the live document model the Recognizer rewrites. Indexes and
// lengths are rune offsets into the whole document; an embed occupies one
// rune and every line ends with a newline.
//
// Mutations made through Host must not be reported back to the Recognizer
// as user changes, and they move the selection the way a host moves it for
// programmatic edits: text inserted exactly at the cursor does not push the
// cursor forward.
type Host interface {
	DeleteText(index, length int)
	// InsertText inserts text carrying exactly the inline attributes a.
	InsertText(index int, text string, a delta.Attributes)
	InsertEmbed(index int, e delta.Embed)
	// FormatText sets every non-zero inline attribute of a on the range.
	FormatText(index, length int, a delta.Attributes)
	// FormatLine replaces the line attributes of every line the range
	// touches (at least the line holding index) with the line part of a.
	FormatLine(index, length int, a delta.Attributes)
	// RemoveFormat clears inline attributes in the range and the line
	// attributes of every line it touches.
	RemoveFormat(index, length int)

	// Line returns the line holding index and the offset of index within
	// it. ok is false past the end of the document.
	Line(index int) (line, offset int, ok bool)
	// LineText returns the text of a line without its newline. Embeds are
	// returned as U+FFFC.
	LineText(line int) string
	// Format returns the inline attributes at index merged with the line
	// attributes of its line.
	Format(index int) delta.Attributes

	Selection() (index int, ok bool)
	SetSelection(index int)
}
